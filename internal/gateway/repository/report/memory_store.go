package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fraudwatch/internal/gateway/entity"

	"github.com/google/uuid"
)

// MemoryStore keeps reports in process memory. It is used when no database
// is configured and as the reference backend in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]entity.Report
	order []string
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]entity.Report),
		now:  time.Now,
	}
}

func (s *MemoryStore) Insert(_ context.Context, r entity.Report) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	r = r.Clone()
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Count < 1 {
		r.Count = 1
	}
	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	r.Version = 1

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; ok {
		return "", fmt.Errorf("report %s already exists", r.ID)
	}
	s.byID[r.ID] = r
	s.order = append(s.order, r.ID)
	return r.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (entity.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return entity.Report{}, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, expectedVersion int64, patch entity.ReportPatch) (entity.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return entity.Report{}, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if r.Version != expectedVersion {
		return entity.Report{}, fmt.Errorf("report %s at version %d, expected %d: %w", id, r.Version, expectedVersion, ErrConflict)
	}
	applyPatch(&r, patch)
	if patch.UpdatedAt.IsZero() {
		r.UpdatedAt = s.now()
	}
	r.Version++
	s.byID[r.ID] = r
	return r.Clone(), nil
}

func (s *MemoryStore) Nearest(_ context.Context, embedding []float32, threshold float64) (Match, bool, error) {
	if len(embedding) == 0 {
		return Match{}, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best Match
	found := false
	for _, id := range s.order {
		r := s.byID[id]
		if len(r.Embedding) != len(embedding) {
			continue
		}
		sim := entity.CosineSimilarity(r.Embedding, embedding)
		if sim < threshold {
			continue
		}
		if !found || sim > best.Similarity {
			best = Match{Report: r.Clone(), Similarity: sim}
			found = true
		}
	}
	return best, found, nil
}

func (s *MemoryStore) SelectBroadcastCandidates(_ context.Context, minCount int) ([]entity.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Report, 0, 8)
	for _, id := range s.order {
		r := s.byID[id]
		if r.Broadcasted || r.Count < minCount {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) MarkBroadcasted(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if r.Broadcasted {
		return nil
	}
	r.Broadcasted = true
	r.UpdatedAt = s.now()
	s.byID[r.ID] = r
	return nil
}

// Len reports the number of stored reports.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func applyPatch(r *entity.Report, p entity.ReportPatch) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.ImageRef != nil {
		r.ImageRef = *p.ImageRef
	}
	if p.Embedding != nil {
		r.Embedding = append([]float32(nil), p.Embedding...)
	}
	if p.Count != nil {
		r.Count = *p.Count
	}
	if !p.UpdatedAt.IsZero() {
		r.UpdatedAt = p.UpdatedAt
	}
}
