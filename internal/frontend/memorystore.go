package frontend

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jo-hoe/aisign/internal/client"
)

// MemoryStore keeps signed images in process memory
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]*client.Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*client.Blob)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, blob *client.Blob) error {
	stored := &client.Blob{
		Data:        append([]byte(nil), blob.Data...),
		ContentType: blob.ContentType,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if previous, ok := s.blobs[key]; ok {
		release(previous)
		slog.Debug("MemoryStore: released previous blob", "key", key)
	}
	s.blobs[key] = stored
	return nil
}

// Get returns a copy so a later Put cannot clear bytes still being served.
func (s *MemoryStore) Get(ctx context.Context, key string) (*client.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return &client.Blob{
		Data:        append([]byte(nil), blob.Data...),
		ContentType: blob.ContentType,
	}, nil
}

func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if blob, ok := s.blobs[key]; ok {
		release(blob)
		delete(s.blobs, key)
	}
	return nil
}

// Len reports how many keys hold a blob
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, blob := range s.blobs {
		release(blob)
		delete(s.blobs, key)
	}
	return nil
}

func release(blob *client.Blob) {
	clear(blob.Data)
	blob.Data = nil
}
