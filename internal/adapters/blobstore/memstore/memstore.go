// Package memstore keeps blobs in memory, for tests and local runs.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func New() *Store {
	return &Store{
		blobs: map[string][]byte{},
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, blobstore.ErrNotFound)
	}
	return append([]byte(nil), body...), nil
}

func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = append([]byte(nil), body...)
	return nil
}
