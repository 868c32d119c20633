// Package session keeps the per-user drafts of the conversation engine.
package session

import (
	"context"
	"log/slog"
	"time"

	"fraudwatch/internal/gateway/entity"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store holds at most one draft per user. Absence means the user is idle.
type Store interface {
	Get(ctx context.Context, userID entity.UserID) (entity.Draft, bool, error)
	Put(ctx context.Context, draft entity.Draft) error
	Delete(ctx context.Context, userID entity.UserID) error
}

type Config struct {
	MaxSessions int
	TTL         time.Duration
}

func DefaultConfig() Config {
	return Config{MaxSessions: 10000, TTL: 24 * time.Hour}
}

// MemoryStore is an in-process Store. Drafts untouched for TTL, or pushed
// out when MaxSessions is reached, are dropped and the user returns to idle.
type MemoryStore struct {
	lru    *expirable.LRU[entity.UserID, entity.Draft]
	logger *slog.Logger
}

func NewMemoryStore(cfg Config, logger *slog.Logger) *MemoryStore {
	def := DefaultConfig()
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &MemoryStore{logger: logger}
	s.lru = expirable.NewLRU[entity.UserID, entity.Draft](cfg.MaxSessions, s.onEvict, cfg.TTL)
	return s
}

func (s *MemoryStore) onEvict(userID entity.UserID, d entity.Draft) {
	s.logger.Debug("session dropped", "user_id", userID.String(), "state", d.State.String())
}

func (s *MemoryStore) Get(_ context.Context, userID entity.UserID) (entity.Draft, bool, error) {
	d, ok := s.lru.Get(userID)
	if !ok {
		return entity.Draft{}, false, nil
	}
	return d.Clone(), true, nil
}

func (s *MemoryStore) Put(_ context.Context, draft entity.Draft) error {
	s.lru.Add(draft.UserID, draft.Clone())
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID entity.UserID) error {
	s.lru.Remove(userID)
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
