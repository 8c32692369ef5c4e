package frontend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jo-hoe/aisign/internal/client"
	"github.com/jo-hoe/aisign/internal/core"
)

// ErrBlobNotFound is returned when no signed image is held for a key.
var ErrBlobNotFound = errors.New("signed image not found")

// ImageStore holds at most one signed image per key. Put releases whatever
// the key held before.
type ImageStore interface {
	Put(ctx context.Context, key string, blob *client.Blob) error
	Get(ctx context.Context, key string) (*client.Blob, error)
	Release(ctx context.Context, key string) error
	Close() error
}

// NewImageStore creates the store selected by config
func NewImageStore(config core.StoreConfig) (ImageStore, error) {
	ttl := time.Duration(config.TTLSeconds) * time.Second
	switch config.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(config.Address, config.Password, config.DB, ttl)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

func storeKey(session, profile string) string {
	return session + ":" + profile
}
