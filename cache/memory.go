// Package cache provides caching implementations for Palisade check results.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/classboard/palisade"
)

// Compile-time interface check.
var _ palisade.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	result    *palisade.CheckResult
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached check result.
func (m *Memory) Get(_ context.Context, tenantID string, req *palisade.CheckRequest) (*palisade.CheckResult, bool) {
	key := cacheKey(tenantID, req)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	// Callers stamp eval time into the result, so hand out a copy rather
	// than the shared entry.
	res := *e.result
	return &res, true
}

// Set stores a check result in the cache.
func (m *Memory) Set(_ context.Context, tenantID string, req *palisade.CheckRequest, result *palisade.CheckResult) {
	key := cacheKey(tenantID, req)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			// Evict oldest entry.
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		result:    result,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// InvalidateTenant removes all cached results for a tenant.
func (m *Memory) InvalidateTenant(_ context.Context, tenantID string) {
	prefix := tenantID + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
}

// InvalidateUser removes all cached results for a specific user. The engine
// calls this after grant writes so overrides take effect immediately.
func (m *Memory) InvalidateUser(_ context.Context, tenantID, userID string) {
	userKey := fmt.Sprintf("%s:%s:", tenantID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) >= len(userKey) && k[:len(userKey)] == userKey {
			delete(m.entries, k)
		}
	}
}

func cacheKey(tenantID string, req *palisade.CheckRequest) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s",
		tenantID,
		req.Subject.ID,
		req.Subject.Role,
		req.Subject.Category,
		req.Action,
		req.Layer.ID,
		req.Layer.Variant,
	)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
