// Package roster owns the live list of cards and decides where it comes from.
//
// The data source follows the configured feed URL: an empty URL means the
// local store is authoritative and every mutation is written back to it; a
// non-empty URL means the roster is replaced wholesale from the feed on every
// load and mutations are ignored.
package roster

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/idilsaglam/cards/internal/feed"
	"github.com/idilsaglam/cards/internal/model"
)

// Mode is the active data source.
type Mode int

const (
	Local Mode = iota
	Remote
)

func (m Mode) String() string {
	if m == Remote {
		return "remote"
	}
	return "local"
}

// ModeFor derives the mode from a feed URL. It is never stored.
func ModeFor(url string) Mode {
	if strings.TrimSpace(url) != "" {
		return Remote
	}
	return Local
}

// LocalStore persists the full roster. Save must not fail loudly.
type LocalStore interface {
	Load() []model.Card
	Save(cards []model.Card)
}

// Source loads a roster from a feed URL.
type Source interface {
	Fetch(ctx context.Context, url string) feed.Result
}

// Config is the persisted feed URL setting.
type Config interface {
	FeedURL() string
	SetFeedURL(url string) error
	Subscribe(fn func(url string)) func()
}

// Snapshot is a copy of the controller state for presentation.
type Snapshot struct {
	Employees   []model.Card
	IsLoading   bool
	IsSheetMode bool
	SheetURL    string
	Error       string
}

type Controller struct {
	mu       sync.Mutex
	local    LocalStore
	remote   Source
	cfg      Config
	log      *zap.Logger
	newID    func() string
	cards    []model.Card
	url      string
	loading  bool
	errMsg   string
	gen      uint64
	nextW    int
	watchers map[int]func(Snapshot)
	unsub    func()
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.log = l } }

// WithIDFunc replaces the id generator used by Add.
func WithIDFunc(fn func() string) Option { return func(c *Controller) { c.newID = fn } }

// New builds a controller in the loading state. Call Load to populate it.
func New(local LocalStore, remote Source, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		local:    local,
		remote:   remote,
		cfg:      cfg,
		log:      zap.NewNop(),
		newID:    uuid.NewString,
		cards:    []model.Card{},
		url:      strings.TrimSpace(cfg.FeedURL()),
		loading:  true,
		watchers: map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("roster")
	c.unsub = cfg.Subscribe(c.onURLChange)
	return c
}

// Close detaches the controller from config notifications.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
	}
}

// onURLChange invalidates any load in flight for the previous URL.
func (c *Controller) onURLChange(url string) {
	c.mu.Lock()
	c.url = strings.TrimSpace(url)
	c.gen++
	c.mu.Unlock()
	c.log.Info("feed url changed", zap.String("mode", ModeFor(url).String()))
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ModeFor(c.url)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Employees:   append([]model.Card{}, c.cards...),
		IsLoading:   c.loading,
		IsSheetMode: ModeFor(c.url) == Remote,
		SheetURL:    c.url,
		Error:       c.errMsg,
	}
}

// Watch registers fn to receive a snapshot after every state change.
func (c *Controller) Watch(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextW
	c.nextW++
	c.watchers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.watchers, id)
	}
}

// unlockAndNotify releases the lock and fans the snapshot out to watchers.
func (c *Controller) unlockAndNotify() Snapshot {
	snap := c.snapshotLocked()
	ws := make([]func(Snapshot), 0, len(c.watchers))
	for _, fn := range c.watchers {
		ws = append(ws, fn)
	}
	c.mu.Unlock()
	for _, fn := range ws {
		fn(snap)
	}
	return snap
}

// Load replaces the roster from the source selected by the current URL.
// A failed feed falls back to the local store and sets Error. Results for a
// URL that is no longer current are dropped.
func (c *Controller) Load(ctx context.Context) Snapshot {
	c.mu.Lock()
	c.gen++
	gen, url := c.gen, c.url
	c.errMsg = ""

	if ModeFor(url) == Local {
		c.cards = c.local.Load()
		c.loading = false
		c.log.Debug("loaded local roster", zap.Int("cards", len(c.cards)))
		return c.unlockAndNotify()
	}

	c.loading = true
	c.unlockAndNotify()

	res := c.remote.Fetch(ctx, url)
	var fallback []model.Card
	if !res.OK() {
		fallback = c.local.Load()
	}

	c.mu.Lock()
	if gen != c.gen || url != c.url {
		c.log.Debug("dropping stale feed result", zap.String("url", url))
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}
	if res.OK() {
		c.cards = res.Cards
		if c.cards == nil {
			c.cards = []model.Card{}
		}
	} else {
		c.errMsg = userMessage(res.Err)
		c.cards = fallback
		c.log.Warn("feed unavailable, showing local roster",
			zap.Int("status", feed.StatusCode(res.Err)),
			zap.Error(res.Err))
	}
	c.loading = false
	return c.unlockAndNotify()
}

func userMessage(err error) string {
	var fe *feed.FetchError
	if errors.As(err, &fe) {
		return fe.UserMessage()
	}
	return feed.Message
}

// Sync reloads from the feed. It does nothing in local mode.
func (c *Controller) Sync(ctx context.Context) Snapshot {
	if c.Mode() == Local {
		return c.Snapshot()
	}
	return c.Load(ctx)
}

// SetFeedURL writes the setting and reloads under the mode it selects.
// A persist failure is logged; the new URL still applies to this session.
func (c *Controller) SetFeedURL(ctx context.Context, url string) Snapshot {
	if err := c.cfg.SetFeedURL(url); err != nil {
		c.log.Error("persist feed url", zap.Error(err))
	}
	return c.Load(ctx)
}

// Lookup finds a card by id in either mode.
func (c *Controller) Lookup(id string) (model.Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, card := range c.cards {
		if card.ID == id {
			return card, true
		}
	}
	return model.Card{}, false
}

// -------------- mutations (local mode only) ----------------

// Add appends card under a fresh id and returns it. Any id on the input is
// ignored. In remote mode nothing happens and "" is returned.
func (c *Controller) Add(card model.Card) string {
	c.mu.Lock()
	if ModeFor(c.url) == Remote {
		c.mu.Unlock()
		return ""
	}
	card.ID = c.newID()
	updated := make([]model.Card, 0, len(c.cards)+1)
	updated = append(updated, c.cards...)
	updated = append(updated, card)
	c.commitLocked(updated)
	c.unlockAndNotify()
	return card.ID
}

// Update replaces the card with the same id. Ignored in remote mode.
func (c *Controller) Update(card model.Card) {
	c.mu.Lock()
	if ModeFor(c.url) == Remote {
		c.mu.Unlock()
		return
	}
	updated := make([]model.Card, len(c.cards))
	for i, existing := range c.cards {
		if existing.ID == card.ID {
			existing = card
		}
		updated[i] = existing
	}
	c.commitLocked(updated)
	c.unlockAndNotify()
}

// Delete removes the card with id. Ignored in remote mode.
func (c *Controller) Delete(id string) {
	c.mu.Lock()
	if ModeFor(c.url) == Remote {
		c.mu.Unlock()
		return
	}
	updated := make([]model.Card, 0, len(c.cards))
	for _, existing := range c.cards {
		if existing.ID != id {
			updated = append(updated, existing)
		}
	}
	c.commitLocked(updated)
	c.unlockAndNotify()
}

// Restore puts a deleted card back at index, keeping its id. The index is
// clamped to the roster. It reports false in remote mode or when the id is
// already present.
func (c *Controller) Restore(card model.Card, index int) bool {
	c.mu.Lock()
	if ModeFor(c.url) == Remote || card.ID == "" {
		c.mu.Unlock()
		return false
	}
	for _, existing := range c.cards {
		if existing.ID == card.ID {
			c.mu.Unlock()
			return false
		}
	}
	index = min(max(index, 0), len(c.cards))
	updated := make([]model.Card, 0, len(c.cards)+1)
	updated = append(updated, c.cards[:index]...)
	updated = append(updated, card)
	updated = append(updated, c.cards[index:]...)
	c.commitLocked(updated)
	c.unlockAndNotify()
	return true
}

func (c *Controller) commitLocked(cards []model.Card) {
	c.cards = cards
	c.local.Save(cards)
}
