// Package evidence fronts an evidence store with an in-memory read cache so
// repeated views of the same report image do not hit object storage.
package evidence

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	memcache "fraudwatch/internal/cache/memory"
	evidencerepo "fraudwatch/internal/gateway/repository/evidence"
)

type Store = evidencerepo.Store

type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int
	BlobMaxBytes   int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 1024,
		BlobMaxBytes:   32 * 1024 * 1024, // 32MiB
	}
}

type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		BlobHits:       m.blobHits.Load(),
		BlobMisses:     m.blobMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

type CachedStore struct {
	origin    Store
	blobCache *memcache.LRUTTL[string, evidencerepo.Object]
	metrics   Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.BlobMaxBytes < 0 {
		cfg.BlobMaxBytes = def.BlobMaxBytes
	}
	return &CachedStore{
		origin:    origin,
		blobCache: memcache.NewLRUTTL[string, evidencerepo.Object](cfg.BlobMaxEntries, cfg.BlobMaxBytes, cfg.BlobTTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.metrics.originWrites.Add(1)
	u, err := s.origin.Put(ctx, key, data, contentType)
	if err != nil {
		s.metrics.originWriteErr.Add(1)
		return "", err
	}
	obj := evidencerepo.Object{Data: append([]byte(nil), data...), ContentType: contentType}
	s.blobCache.Set(cacheKey(key), obj, len(obj.Data))
	return u, nil
}

func (s *CachedStore) Get(ctx context.Context, key string) (evidencerepo.Object, error) {
	k := cacheKey(key)
	if obj, ok := s.blobCache.Get(k); ok {
		s.metrics.blobHits.Add(1)
		obj.Data = append([]byte(nil), obj.Data...)
		return obj, nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)

	obj, err := s.origin.Get(ctx, key)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return evidencerepo.Object{}, err
	}
	cached := evidencerepo.Object{Data: append([]byte(nil), obj.Data...), ContentType: obj.ContentType}
	s.blobCache.Set(k, cached, len(cached.Data))
	return obj, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

func cacheKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
