package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type memoryItem struct {
	state     AppState
	expiresAt time.Time
}

// MemoryStore is the single-instance session store. Saving a session pushes
// its expiry out by the TTL; when full, the session closest to expiry goes.
type MemoryStore struct {
	mu              sync.RWMutex
	items           map[string]memoryItem
	logger          *zap.Logger
	ttl             time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

func NewMemoryStore(ttl time.Duration, maxSize int, logger *zap.Logger) *MemoryStore {
	return newMemoryStore(ttl, maxSize, time.Minute, time.Now, logger)
}

func newMemoryStore(ttl time.Duration, maxSize int, cleanupInterval time.Duration, now func() time.Time, logger *zap.Logger) *MemoryStore {
	store := &MemoryStore{
		items:           make(map[string]memoryItem),
		logger:          logger,
		ttl:             ttl,
		maxSize:         maxSize,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             now,
	}

	go store.startCleanup()

	return store
}

func (m *MemoryStore) Get(_ context.Context, id string) (AppState, error) {
	m.mu.RLock()
	item, exists := m.items[id]
	m.mu.RUnlock()

	if !exists {
		return AppState{}, ErrNotFound
	}

	if m.now().After(item.expiresAt) {
		m.mu.Lock()
		// A Save may have renewed it since the read lock was dropped.
		if cur, ok := m.items[id]; ok && m.now().After(cur.expiresAt) {
			delete(m.items, id)
		}
		m.mu.Unlock()
		return AppState{}, ErrNotFound
	}

	return item.state, nil
}

func (m *MemoryStore) Save(_ context.Context, s AppState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[s.ID]; !exists && m.maxSize > 0 && len(m.items) >= m.maxSize {
		m.evictOldest()
	}

	expiresAt := m.now().Add(m.ttl)
	m.items[s.ID] = memoryItem{state: s, expiresAt: expiresAt}

	m.logger.Debug("Session saved",
		zap.String("session", s.ID),
		zap.Time("expires_at", expiresAt))
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn UpdateFunc) (AppState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	item, exists := m.items[id]
	if !exists || now.After(item.expiresAt) {
		delete(m.items, id)
		return AppState{}, ErrNotFound
	}

	next, err := fn(item.state)
	if err != nil {
		return item.state, err
	}

	m.items[id] = memoryItem{state: next, expiresAt: now.Add(m.ttl)}
	return next, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

// List returns live sessions ordered by ID.
func (m *MemoryStore) List(_ context.Context) ([]AppState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	out := make([]AppState, 0, len(m.items))
	for _, item := range m.items {
		if now.After(item.expiresAt) {
			continue
		}
		out = append(out, item.state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) evictOldest() {
	var oldestID string
	var oldestTime time.Time

	for id, item := range m.items {
		if oldestID == "" || item.expiresAt.Before(oldestTime) {
			oldestID = id
			oldestTime = item.expiresAt
		}
	}

	if oldestID != "" {
		delete(m.items, oldestID)
		m.logger.Debug("Evicted oldest session", zap.String("session", oldestID))
	}
}

func (m *MemoryStore) startCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *MemoryStore) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expired := 0
	for id, item := range m.items {
		if now.After(item.expiresAt) {
			delete(m.items, id)
			expired++
		}
	}

	if expired > 0 {
		m.logger.Debug("Cleaned expired sessions", zap.Int("count", expired))
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stopCleanup) })
	return nil
}

func (m *MemoryStore) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	live := 0
	for _, item := range m.items {
		if !now.After(item.expiresAt) {
			live++
		}
	}

	return map[string]interface{}{
		"backend":  "memory",
		"sessions": live,
		"max_size": m.maxSize,
		"ttl":      m.ttl.String(),
	}
}
