package cache

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Provider is a JSON value cache with per-key expiry
type Provider interface {
	Get(key string, dest any) error
	Set(key string, value any, expiration time.Duration) error
	Delete(key string) error
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryProvider is an in-process Provider
type MemoryProvider struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryProvider creates an empty in-memory cache
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{items: map[string]memoryItem{}, now: time.Now}
}

// Get decodes the value at key into dest, or returns ErrMiss
func (p *MemoryProvider) Get(key string, dest any) error {
	if p == nil {
		return errors.New("cache provider is nil")
	}
	p.mu.RLock()
	item, ok := p.items[key]
	p.mu.RUnlock()
	if !ok {
		return ErrMiss
	}
	if !item.expiresAt.IsZero() && p.now().After(item.expiresAt) {
		p.mu.Lock()
		delete(p.items, key)
		p.mu.Unlock()
		return ErrMiss
	}
	if len(item.data) == 0 {
		return ErrMiss
	}
	return json.Unmarshal(item.data, dest)
}

// Set stores value; expiration <= 0 keeps it until deleted.
func (p *MemoryProvider) Set(key string, value any, expiration time.Duration) error {
	if p == nil {
		return errors.New("cache provider is nil")
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = p.now().Add(expiration)
	}
	p.mu.Lock()
	p.items[key] = memoryItem{data: b, expiresAt: expiresAt}
	p.mu.Unlock()
	return nil
}

// Delete removes key
func (p *MemoryProvider) Delete(key string) error {
	if p == nil {
		return errors.New("cache provider is nil")
	}
	p.mu.Lock()
	delete(p.items, key)
	p.mu.Unlock()
	return nil
}

// Len counts stored items, expired ones included
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}
