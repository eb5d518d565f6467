// Package kv is the durable key-value persistence behind the session record
// and the phone candidate counter. Values are opaque strings (JSON in
// practice) and every write replaces the whole record; the last writer wins.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written or was
// deleted.
var ErrNotFound = errors.New("kv: key not found")

// Store defines the contract implemented by storage backends.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
