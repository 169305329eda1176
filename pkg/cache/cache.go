package cache

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Store is a durable byte-oriented key-value store. Values are opaque to the store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
