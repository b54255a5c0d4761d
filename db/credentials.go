package db

import (
	"context"
	"sync"
)

const apiKeyKey = "apiKey"

// Credentials persists the user's API key and notifies subscribers when it
// changes.
type Credentials struct {
	store *Store

	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(string)
}

func NewCredentials(store *Store) *Credentials {
	return &Credentials{
		store:       store,
		subscribers: make(map[int]func(string)),
	}
}

// Get returns the stored key, or "" when none is set.
func (c *Credentials) Get(ctx context.Context) (string, error) {
	key, _, err := c.store.Get(ctx, apiKeyKey)
	return key, err
}

// Set persists key and then calls every subscriber with the new value.
func (c *Credentials) Set(ctx context.Context, key string) error {
	if err := c.store.Set(ctx, apiKeyKey, key); err != nil {
		return err
	}

	c.mu.Lock()
	fns := make([]func(string), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
	return nil
}

// Subscribe registers fn for key changes. The returned func removes it.
func (c *Credentials) Subscribe(fn func(string)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}
