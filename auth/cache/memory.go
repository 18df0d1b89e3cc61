package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	level   int
	expires time.Time
}

// Memory is a process local cache with a fixed TTL per entry.
type Memory struct {
	lock    sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
	lookups lookupCounter
}

func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]entry),
		lookups: newLookupCounter(o.registerer, "memory"),
	}
}

func (m *Memory) Get(_ context.Context, memberID string) (int, bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	e, ok := m.entries[memberID]
	if ok && !m.now().Before(e.expires) {
		delete(m.entries, memberID)
		ok = false
	}
	m.lookups.observe(ok)
	return e.level, ok, nil
}

func (m *Memory) Set(_ context.Context, memberID string, level int) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.entries[memberID] = entry{level: level, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, memberID string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.entries, memberID)
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.entries)
}
