package evidence

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps evidence in process memory. URLs point at BaseURL, which
// the HTTP server serves from the same store.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "/evidence"
	}
	return &MemoryStore{objects: make(map[string]Object), baseURL: baseURL}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	key = normalizeKey(key)
	if key == "" {
		return "", fmt.Errorf("key is required")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("evidence %s is empty", key)
	}
	s.mu.Lock()
	s.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[normalizeKey(key)]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, nil
}
