// Package media holds photos received over chat until a submission fetches
// them. Photos are addressed by opaque handles of the form "photo:<uuid>".
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	memcache "fraudwatch/internal/cache/memory"

	"github.com/google/uuid"
)

const handlePrefix = "photo:"

var (
	ErrNotFound = errors.New("media not found")
	ErrTooLarge = errors.New("media exceeds cache capacity")
)

// Blob is a cached photo.
type Blob struct {
	Data     []byte
	MIMEType string
}

type Config struct {
	MaxBytes   int
	MaxEntries int
	TTL        time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxBytes:   64 * 1024 * 1024, // 64MiB
		MaxEntries: 4096,
		TTL:        24 * time.Hour,
	}
}

type Store struct {
	cache *memcache.LRUTTL[string, Blob]
}

func NewStore(cfg Config) *Store {
	def := DefaultConfig()
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	return &Store{cache: memcache.NewLRUTTL[string, Blob](cfg.MaxEntries, cfg.MaxBytes, cfg.TTL)}
}

// Save stores data and returns a fresh handle for it.
func (s *Store) Save(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty photo")
	}
	handle := handlePrefix + uuid.NewString()
	blob := Blob{Data: append([]byte(nil), data...), MIMEType: strings.TrimSpace(mimeType)}
	if !s.cache.Set(handle, blob, len(blob.Data)) {
		return "", ErrTooLarge
	}
	return handle, nil
}

// Fetch returns the photo behind handle. Evicted or unknown handles yield
// ErrNotFound.
func (s *Store) Fetch(_ context.Context, handle string) (Blob, error) {
	handle = strings.TrimSpace(handle)
	if !IsHandle(handle) {
		return Blob{}, fmt.Errorf("%q: %w", handle, ErrNotFound)
	}
	blob, ok := s.cache.Get(handle)
	if !ok {
		return Blob{}, fmt.Errorf("%q: %w", handle, ErrNotFound)
	}
	blob.Data = append([]byte(nil), blob.Data...)
	return blob, nil
}

func IsHandle(s string) bool {
	return strings.HasPrefix(s, handlePrefix) && len(s) > len(handlePrefix)
}
