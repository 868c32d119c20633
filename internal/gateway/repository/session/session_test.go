package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"fraudwatch/internal/gateway/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(Config{}, nil)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	d := entity.NewDraft("u1", "c1", time.Now())
	d.Evidence = append(d.Evidence, entity.TextEvidence("screenshot text"))
	require.NoError(t, s.Put(ctx, d))

	got, ok, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entity.StateAwaitingDescription, got.State)

	got.Evidence[0].Text = "mutated"
	again, _, _ := s.Get(ctx, "u1")
	assert.Equal(t, "screenshot text", again.Evidence[0].Text)

	require.NoError(t, s.Delete(ctx, "u1"))
	_, ok, _ = s.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestMemoryStoreCapacity(t *testing.T) {
	s := NewMemoryStore(Config{MaxSessions: 2, TTL: time.Hour}, nil)
	ctx := context.Background()
	for _, id := range []entity.UserID{"a", "b", "c"} {
		require.NoError(t, s.Put(ctx, entity.NewDraft(id, "", time.Now())))
	}
	assert.Equal(t, 2, s.Len())
	_, ok, _ := s.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore(Config{MaxSessions: 10, TTL: 50 * time.Millisecond}, nil)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, entity.NewDraft("a", "", time.Now())))

	assert.Eventually(t, func() bool {
		_, ok, _ := s.Get(ctx, "a")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLockerSerializesSameUser(t *testing.T) {
	l := NewLocker()
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("same")
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.size())
}

func TestLockerIndependentUsers(t *testing.T) {
	l := NewLocker()
	unlockA := l.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for b blocked behind a")
	}
	unlockA()
	unlockA()
	assert.Equal(t, 0, l.size())
}
