package evidence

import (
	"context"
	"fmt"
	"sync"
	"testing"

	evidencerepo "fraudwatch/internal/gateway/repository/evidence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOriginStore struct {
	mu       sync.Mutex
	data     map[string]evidencerepo.Object
	getCalls int
	failPut  bool
}

func newFakeOriginStore() *fakeOriginStore {
	return &fakeOriginStore{data: map[string]evidencerepo.Object{}}
}

func (s *fakeOriginStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return "", fmt.Errorf("put failed")
	}
	s.data[key] = evidencerepo.Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return "https://cdn.example/" + key, nil
}

func (s *fakeOriginStore) Get(_ context.Context, key string) (evidencerepo.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	obj, ok := s.data[key]
	if !ok {
		return evidencerepo.Object{}, evidencerepo.ErrNotFound
	}
	return obj, nil
}

func TestCachedStorePutWarmsCache(t *testing.T) {
	origin := newFakeOriginStore()
	s := NewCachedStore(origin, DefaultCacheConfig())
	ctx := context.Background()

	u, err := s.Put(ctx, "reports/a.jpg", []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/reports/a.jpg", u)

	obj, err := s.Get(ctx, "reports/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), obj.Data)
	assert.Equal(t, 0, origin.getCalls)

	m := s.Metrics()
	assert.Equal(t, uint64(1), m.BlobHits)
	assert.Equal(t, uint64(1), m.OriginWrites)
}

func TestCachedStoreReadThrough(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["reports/b.png"] = evidencerepo.Object{Data: []byte("png"), ContentType: "image/png"}
	s := NewCachedStore(origin, DefaultCacheConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		obj, err := s.Get(ctx, "reports/b.png")
		require.NoError(t, err)
		assert.Equal(t, "image/png", obj.ContentType)
	}
	assert.Equal(t, 1, origin.getCalls)

	_, err := s.Get(ctx, "reports/missing.png")
	assert.ErrorIs(t, err, evidencerepo.ErrNotFound)
	assert.Equal(t, uint64(1), s.Metrics().OriginReadErr)
}

func TestCachedStorePutFailureDoesNotCache(t *testing.T) {
	origin := newFakeOriginStore()
	origin.failPut = true
	s := NewCachedStore(origin, DefaultCacheConfig())

	_, err := s.Put(context.Background(), "reports/c.jpg", []byte("x"), "image/jpeg")
	require.Error(t, err)
	_, err = s.Get(context.Background(), "reports/c.jpg")
	assert.ErrorIs(t, err, evidencerepo.ErrNotFound)
	assert.Equal(t, uint64(1), s.Metrics().OriginWriteErr)
}
