// Package memory provides an in-process storage.KV, used for ephemeral sessions and tests.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iudanet/scholardesk/internal/client/storage"
)

// Storage keeps all slots in a map guarded by a RWMutex
type Storage struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ storage.KV = (*Storage)(nil)

// New creates an empty in-memory storage
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	s.data[key] = bytes.Clone(value)
	return nil
}

func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	delete(s.data, key)
	return nil
}

// Keys returns matching keys in lexical order, same as the bolt backend
func (s *Storage) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = nil
	return nil
}
