package feed

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/idilsaglam/cards/internal/model"
)

// Result is either a decoded roster or the reason the feed failed.
// A reachable feed without data rows is a success with no cards.
type Result struct {
	URL   string
	Cards []model.Card
	Err   error
}

func (r Result) OK() bool { return r.Err == nil }

// Fetcher loads rosters from published CSV URLs.
type Fetcher struct {
	client *http.Client
	log    *zap.Logger
	group  singleflight.Group
}

type Option func(*Fetcher)

// WithTimeout bounds each request. The default client has no timeout and
// zero keeps it that way.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(f *Fetcher) { f.log = l } }

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.Named("feed")
	return f
}

// Fetch reads url and decodes it. Concurrent calls for the same url share
// one request, which outlives any single caller's context. A caller whose
// context ends stops waiting and gets a transport failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(url, func() (any, error) {
		return f.fetch(shared, url), nil
	})
	select {
	case <-ctx.Done():
		return f.fail(url, &FetchError{Category: CategoryTransport, URL: url, Underlying: ctx.Err()})
	case r := <-ch:
		res := r.Val.(Result)
		// each caller gets its own slice
		res.Cards = append([]model.Card(nil), res.Cards...)
		return res
	}
}

func (f *Fetcher) fetch(ctx context.Context, url string) Result {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return f.fail(url, &FetchError{Category: CategoryRequest, URL: url, Underlying: err})
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return f.fail(url, &FetchError{Category: CategoryTransport, URL: url, Underlying: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return f.fail(url, &FetchError{
			Category:   CategoryStatus,
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		})
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return f.fail(url, &FetchError{Category: CategoryTransport, URL: url, Underlying: err})
	}

	cards := Normalize(Decode(string(body)), time.Now)
	f.log.Debug("feed loaded",
		zap.String("url", url),
		zap.Int("cards", len(cards)),
		zap.Duration("took", time.Since(start)))
	return Result{URL: url, Cards: cards}
}

func (f *Fetcher) fail(url string, err *FetchError) Result {
	f.log.Warn("feed fetch failed", zap.String("url", url), zap.Error(err))
	return Result{URL: url, Err: err}
}
