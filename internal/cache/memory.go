package cache

import (
	"context"
	"sync"
	"time"
)

// CleanupInterval is how often the memory backend sweeps expired items.
const CleanupInterval = 5 * time.Minute

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (i *memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Memory is a thread-safe in-process RawCache.
type Memory struct {
	items     sync.Map // map[string]*memoryItem
	ticker    *time.Ticker
	stop      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// NewMemory constructs a Memory cache and starts the cleanup loop.
func NewMemory() *Memory {
	m := &Memory{
		ticker: time.NewTicker(CleanupInterval),
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	go m.cleanupLoop()
	return m
}

func (m *Memory) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) sweep() {
	now := m.now()
	m.items.Range(func(k, v any) bool {
		if v.(*memoryItem).expired(now) {
			m.items.Delete(k)
		}
		return true
	})
}

// Get returns a copy of the stored bytes.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.items.Load(key)
	if !ok {
		return nil, false, nil
	}
	it := v.(*memoryItem)
	if it.expired(m.now()) {
		m.items.CompareAndDelete(key, v)
		return nil, false, nil
	}
	return append([]byte(nil), it.value...), true, nil
}

// Set stores value; ttl <= 0 means no expiry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := &memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}
	m.items.Store(key, it)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// Close stops the cleanup loop.  Safe to call more than once.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		m.ticker.Stop()
		close(m.stop)
	})
	return nil
}
