package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// memoryCache is a map-backed cache with a background sweep loop.
type memoryCache struct {
	mu     sync.RWMutex
	data   map[string]memoryEntry
	closed bool
	done   chan struct{}
}

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

// NewMemory creates an in-process cache. Expired entries are dropped
// lazily on read and swept once a minute.
func NewMemory() Cache {
	c := &memoryCache{
		data: make(map[string]memoryEntry),
		done: make(chan struct{}),
	}
	go c.sweepLoop(time.Minute)
	return c
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, errors.New("cache: closed")
	}
	e, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("cache: closed")
	}
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}
	c.data[key] = memoryEntry{value: value, expireAt: expireAt}
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("cache: closed")
	}
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	c.data = nil
	return nil
}

func (c *memoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *memoryCache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	for key, e := range c.data {
		if !e.expireAt.IsZero() && now.After(e.expireAt) {
			delete(c.data, key)
		}
	}
}
