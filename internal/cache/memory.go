package cache

import (
	"context"
	"sync"
	"time"
)

const memorySweepInterval = 60 * time.Second

// MemoryAdapter is an in-process cache backend. When a capacity bound is
// configured and exceeded on insert, the oldest-inserted entry is evicted.
// Eviction is FIFO by insertion, not recency-based: overwriting a key does
// not refresh its position.
type MemoryAdapter struct {
	mu         sync.Mutex
	entries    map[string]Entry
	order      []string // insertion order, oldest first
	maxEntries int      // 0 = unbounded

	stopSweep chan struct{}
	closeOnce sync.Once
}

// NewMemoryAdapter creates an in-memory adapter with the given capacity
// bound (0 = unbounded) and starts the background expiry sweep.
func NewMemoryAdapter(maxEntries int) *MemoryAdapter {
	a := &MemoryAdapter{
		entries:    make(map[string]Entry),
		order:      nil,
		maxEntries: maxEntries,
		stopSweep:  make(chan struct{}),
	}

	go a.sweepLoop()

	return a
}

// Get retrieves a value, deleting it lazily when expired.
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.entries[key]
	if !ok {
		return nil, false
	}

	if entry.Expired(time.Now()) {
		a.removeLocked(key)
		return nil, false
	}

	return entry.Value, true
}

// Set stores a value. A zero ttl means no expiry.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.entries[key]; !exists {
		a.order = append(a.order, key)
	}

	a.entries[key] = Entry{
		Value:   value,
		Expiry:  expiryFromTTL(now, ttl),
		Created: now.Unix(),
	}

	for a.maxEntries > 0 && len(a.entries) > a.maxEntries {
		a.removeLocked(a.order[0])
	}

	return nil
}

// Delete removes a key. Idempotent.
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.removeLocked(key)
	return nil
}

// Clear removes every entry.
func (a *MemoryAdapter) Clear(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = make(map[string]Entry)
	a.order = nil
	return nil
}

// Close stops the background sweep.
func (a *MemoryAdapter) Close() error {
	a.closeOnce.Do(func() {
		close(a.stopSweep)
	})
	return nil
}

// Len reports the number of live entries.
func (a *MemoryAdapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.entries)
}

func (a *MemoryAdapter) removeLocked(key string) {
	if _, ok := a.entries[key]; !ok {
		return
	}

	delete(a.entries, key)
	for i, k := range a.order {
		if k == key {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

func (a *MemoryAdapter) sweepLoop() {
	ticker := time.NewTicker(memorySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopSweep:
			return
		case now := <-ticker.C:
			a.sweep(now)
		}
	}
}

// sweep proactively purges expired entries.
func (a *MemoryAdapter) sweep(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, entry := range a.entries {
		if entry.Expired(now) {
			a.removeLocked(key)
		}
	}
}
