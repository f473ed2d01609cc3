package jsonstore

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/idilsaglam/cards/internal/model"
)

// JSON-backed roster storage. One key, whole roster per write, human-readable.
// No cross-process locking; two writers race and the last one wins.

const Key = "digital_business_cards_db"

// Backend is the key-value storage the roster lives in.
type Backend interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

type Store struct {
	mu      sync.Mutex
	backend Backend
	log     *zap.Logger
}

func New(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, log: log.Named("jsonstore")}
}

// Load returns the persisted roster. An empty store is seeded and saved;
// unreadable data yields the seed roster and is left untouched.
func (s *Store) Load() []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.backend.Get(Key)
	if err != nil {
		s.log.Warn("read roster failed, using seed data", zap.Error(err))
		return model.Seed()
	}
	if !ok || raw == "" {
		seed := model.Seed()
		s.save(seed)
		return seed
	}
	var cards []model.Card
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		s.log.Warn("parse roster failed, using seed data", zap.Error(err))
		return model.Seed()
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return cards
}

// Save overwrites the persisted roster. Failures are logged, never returned.
func (s *Store) Save(cards []model.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(cards)
}

func (s *Store) save(cards []model.Card) {
	if cards == nil {
		cards = []model.Card{}
	}
	b, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		s.log.Error("json marshal roster", zap.Error(err))
		return
	}
	if err := s.backend.Set(Key, string(b)); err != nil {
		s.log.Error("save roster failed", zap.Int("cards", len(cards)), zap.Error(err))
		return
	}
	s.log.Debug("roster saved", zap.Int("cards", len(cards)))
}
