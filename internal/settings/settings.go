package settings

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Feed URL configuration. Persisted under a fixed key; empty means local mode.

const (
	Key    = "google_sheet_url"
	EnvURL = "CARDS_FEED_URL"
)

// Source tells where the active feed URL came from.
type Source string

const (
	SourceStore Source = "store"
	SourceEnv   Source = "env"
)

type Backend interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Settings holds the process-wide feed URL. SetFeedURL is its only writer.
type Settings struct {
	mu      sync.RWMutex
	backend Backend
	url     string
	source  Source
	nextID  int
	subs    map[int]func(string)
}

// Load reads the persisted feed URL. CARDS_FEED_URL, when set, overrides it.
func Load(backend Backend) (*Settings, error) {
	s := &Settings{backend: backend, source: SourceStore, subs: map[int]func(string){}}

	// 1) env override
	if env := strings.TrimSpace(os.Getenv(EnvURL)); env != "" {
		s.url, s.source = env, SourceEnv
		return s, nil
	}

	// 2) store
	v, _, err := backend.Get(Key)
	if err != nil {
		return s, fmt.Errorf("read feed url: %w", err)
	}
	s.url = strings.TrimSpace(v)
	return s, nil
}

func (s *Settings) FeedURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

func (s *Settings) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// SetFeedURL persists url and notifies subscribers. An empty url removes the
// stored key. The in-memory value is updated even when persisting fails; the
// error is returned for reporting.
func (s *Settings) SetFeedURL(url string) error {
	url = strings.TrimSpace(url)

	s.mu.Lock()
	s.url, s.source = url, SourceStore
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	var err error
	if url == "" {
		err = s.backend.Delete(Key)
	} else {
		err = s.backend.Set(Key, url)
	}
	for _, fn := range subs {
		fn(url)
	}
	if err != nil {
		return fmt.Errorf("save feed url: %w", err)
	}
	return nil
}

// Subscribe registers fn for URL changes and returns the unsubscribe func.
func (s *Settings) Subscribe(fn func(url string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
