// Package store provides read access to the object storage holding backtest
// scenario tables.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no object behind it
var ErrNotFound = errors.New("object not found")

// ObjectStore is a read-only key/value view over stored scenario objects.
// Keys are slash separated paths relative to the store root.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, pattern string) ([]string, error)
}

// Watcher reports keys whose objects changed
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
