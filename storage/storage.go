package storage

import (
	"context"
	"errors"
)

// ErrNotFound is an exported constant or variable used by the client core.
var ErrNotFound = errors.New("key not found")

// ErrStorageUnavailable is an exported constant or variable used by the client core.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Storage is the durable key-value contract consumed by the credential layer.
// Get returns [ErrNotFound] for absent keys; Remove of an absent key is a
// no-op, not an error. Implementations must be safe for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
