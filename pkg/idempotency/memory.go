package idempotency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

// Memory is a process-local Keeper used when no redis is configured.
// Expired keys are swept on write, at most once per sweep interval.
type Memory struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	keys      map[string]entry
	lastSweep time.Time
}

const maxSweepInterval = time.Minute

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, keys: make(map[string]entry)}
}

func (m *Memory) put(key, value string) {
	now := m.now()
	if now.Sub(m.lastSweep) >= min(m.ttl, maxSweepInterval) {
		for k, e := range m.keys {
			if !e.expires.After(now) {
				delete(m.keys, k)
			}
		}
		m.lastSweep = now
	}
	m.keys[key] = entry{value: value, expires: now.Add(m.ttl)}
}

func (m *Memory) lookup(key string) (entry, bool) {
	e, ok := m.keys[key]
	if ok && !e.expires.After(m.now()) {
		delete(m.keys, key)
		return entry{}, false
	}
	return e, ok
}

func (m *Memory) Seen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(key); ok {
		return true, nil
	}
	m.put(key, "1")
	return false, nil
}

func (m *Memory) Claim(_ context.Context, key string) (State, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok {
		m.put(key, pending)
		return Acquired, "", nil
	}
	if e.value == pending {
		return InFlight, "", nil
	}
	return Done, e.value, nil
}

func (m *Memory) Complete(_ context.Context, key, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, result)
	return nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}
