// Package cache provides the explicit response cache a collector owns.
// Each collector instance is handed its own Cache at construction; there
// is no process-wide cache state. Memory and redis backends share one
// interface so a collector does not care which it was given.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss marks a key that is absent or expired.
var ErrCacheMiss = errors.New("cache: miss")

// Cache is the storage contract collectors use for fetched payloads.
type Cache interface {
	// Get returns the cached bytes. ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl (0 = no expiry).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GetJSON reads key and unmarshals the cached payload into out.
func GetJSON(ctx context.Context, c Cache, key string, out any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
