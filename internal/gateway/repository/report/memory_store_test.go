package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fraudwatch/internal/gateway/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedStore() (*MemoryStore, *time.Time) {
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return s, &now
}

func TestMemoryStoreInsertAssignsDefaults(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	id, err := s.Insert(ctx, entity.Report{Title: "Fake courier", Type: "Phishing", Content: "sms link"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, int64(1), got.Version)
	assert.False(t, got.Broadcasted)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdateVersionCheck(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()
	id, err := s.Insert(ctx, entity.Report{Title: "a", Type: "t", Content: "c"})
	require.NoError(t, err)

	count := 2
	title := "b"
	updated, err := s.Update(ctx, id, 1, entity.ReportPatch{Title: &title, Count: &count})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Title)
	assert.Equal(t, 2, updated.Count)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "c", updated.Content)

	_, err = s.Update(ctx, id, 1, entity.ReportPatch{Count: &count})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Update(ctx, "missing", 1, entity.ReportPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreNearestHonoursThreshold(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.Insert(ctx, entity.Report{Title: "x", Embedding: []float32{1, 0}})
	require.NoError(t, err)
	closeID, err := s.Insert(ctx, entity.Report{Title: "y", Embedding: []float32{0.85, 0.526783}})
	require.NoError(t, err)
	_, err = s.Insert(ctx, entity.Report{Title: "z", Embedding: []float32{1, 0, 0}})
	require.NoError(t, err)

	m, ok, err := s.Nearest(ctx, []float32{0.8, 0.6}, 0.8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, closeID, m.Report.ID)
	assert.GreaterOrEqual(t, m.Similarity, 0.8)

	_, ok, err = s.Nearest(ctx, []float32{0, 1}, 0.8)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Nearest(ctx, nil, 0.8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreBroadcastCandidatesOrderAndFilter(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	low, _ := s.Insert(ctx, entity.Report{Title: "low", Count: 2})
	older, _ := s.Insert(ctx, entity.Report{Title: "older", Count: 3})
	newer, _ := s.Insert(ctx, entity.Report{Title: "newer", Count: 3})
	top, _ := s.Insert(ctx, entity.Report{Title: "top", Count: 7})
	done, _ := s.Insert(ctx, entity.Report{Title: "done", Count: 9})
	require.NoError(t, s.MarkBroadcasted(ctx, done))

	got, err := s.SelectBroadcastCandidates(ctx, 3)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{top, older, newer}, ids)
	assert.NotContains(t, ids, low)
}

func TestMemoryStoreMarkBroadcastedIsMonotonic(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Insert(ctx, entity.Report{Title: "a", Count: 3})

	require.NoError(t, s.MarkBroadcasted(ctx, id))
	require.NoError(t, s.MarkBroadcasted(ctx, id))
	r, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, r.Broadcasted)

	assert.ErrorIs(t, s.MarkBroadcasted(ctx, "missing"), ErrNotFound)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Insert(ctx, entity.Report{Title: "a", Embedding: []float32{1, 2}})

	r, err := s.Get(ctx, id)
	require.NoError(t, err)
	r.Embedding[0] = 42

	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, float32(1), again.Embedding[0])
}

func TestMemoryStoreConcurrentUpdatesSerialize(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Insert(ctx, entity.Report{Title: "a"})

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				cur, err := s.Get(ctx, id)
				if err != nil {
					t.Error(err)
					return
				}
				next := cur.Count + 1
				_, err = s.Update(ctx, id, cur.Version, entity.ReportPatch{Count: &next})
				if errors.Is(err, ErrConflict) {
					continue
				}
				if err != nil {
					t.Error(err)
				}
				return
			}
		}()
	}
	wg.Wait()

	r, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1+workers, r.Count)
}
