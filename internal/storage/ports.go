package storage

import "context"

// KVStore is the durable key-value provider the subject blob lives in.
type KVStore interface {
	// Get returns the stored value; ok is false when the key was never written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
}
