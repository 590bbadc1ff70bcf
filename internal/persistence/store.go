package persistence

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Store.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Store is the key/value boundary holding job records and caches.
// Last-write-wins per key; no multi-key transaction is assumed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
