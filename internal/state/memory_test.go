package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/display"
)

type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	hook func()
}

// Now runs a pending hook once, outside the clock's lock, before returning.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	now, hook := c.now, c.hook
	c.hook = nil
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	return now
}

func (c *fakeClock) OnNextNow(fn func()) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemoryStore(t *testing.T, ttl time.Duration, maxSize int) (*MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemoryStore(ttl, maxSize, time.Hour, clock.Now, zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	s := New("abc", display.Imperial, Dark, clock.Now())
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("a", "", "", clock.Now())))

	clock.Advance(30 * time.Second)
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	clock.Advance(31 * time.Second)
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SaveExtendsExpiry(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	s := New("a", "", "", clock.Now())
	require.NoError(t, store.Save(ctx, s))
	clock.Advance(50 * time.Second)
	require.NoError(t, store.Save(ctx, s.ToggleTheme()))
	clock.Advance(50 * time.Second)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, Dark, got.Theme)
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 2)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("first", "", "", clock.Now())))
	clock.Advance(time.Second)
	require.NoError(t, store.Save(ctx, New("second", "", "", clock.Now())))
	clock.Advance(time.Second)
	require.NoError(t, store.Save(ctx, New("third", "", "", clock.Now())))

	_, err := store.Get(ctx, "first")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ID)
	assert.Equal(t, "third", list[1].ID)
}

func TestMemoryStore_ResaveAtCapacityDoesNotEvict(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 2)
	ctx := context.Background()

	a := New("a", "", "", clock.Now())
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, New("b", "", "", clock.Now())))
	require.NoError(t, store.Save(ctx, a.ToggleUnits()))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemoryStore_CleanupAndList(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("old", "", "", clock.Now())))
	clock.Advance(45 * time.Second)
	require.NoError(t, store.Save(ctx, New("new", "", "", clock.Now())))
	clock.Advance(30 * time.Second)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].ID)

	store.cleanup()
	assert.Equal(t, 1, store.Stats()["sessions"])
}

func TestMemoryStore_Delete(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("a", "", "", clock.Now())))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CloseStopsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newMemoryStore(time.Minute, 10, time.Millisecond, time.Now, zap.NewNop())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestMemoryStore_Update(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("abc", display.Metric, Light, clock.Now())))

	got, err := store.Update(ctx, "abc", func(s AppState) (AppState, error) {
		return s.ToggleTheme(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, Dark, got.Theme)

	stored, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, Dark, stored.Theme)

	clock.Advance(50 * time.Second)
	_, err = store.Update(ctx, "abc", func(s AppState) (AppState, error) { return s, nil })
	require.NoError(t, err)
	clock.Advance(50 * time.Second)
	_, err = store.Get(ctx, "abc")
	assert.NoError(t, err, "update renews the TTL")
}

func TestMemoryStore_UpdateFailureWritesNothing(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, New("abc", display.Metric, Light, clock.Now())))

	boom := errors.New("boom")
	got, err := store.Update(ctx, "abc", func(s AppState) (AppState, error) {
		return s.ToggleTheme(), boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Light, got.Theme)

	stored, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, Light, stored.Theme)
}

func TestMemoryStore_UpdateNeverRecreates(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	called := false
	_, err := store.Update(ctx, "missing", func(s AppState) (AppState, error) {
		called = true
		return s, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)

	require.NoError(t, store.Save(ctx, New("abc", display.Metric, Light, clock.Now())))
	clock.Advance(2 * time.Minute)
	_, err = store.Update(ctx, "abc", func(s AppState) (AppState, error) { return s, nil })
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()
	start := clock.Now()
	require.NoError(t, store.Save(ctx, New("abc", display.Metric, Light, start)))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "abc", func(s AppState) (AppState, error) {
				s.UpdatedAt = s.UpdatedAt.Add(time.Second)
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, start.Add(writers*time.Second), got.UpdatedAt)
}

func TestMemoryStore_ExpiredGetKeepsRenewedSession(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	s := New("abc", display.Metric, Light, clock.Now())
	require.NoError(t, store.Save(ctx, s))
	clock.Advance(2 * time.Minute)

	// The save lands after Get read the stale entry but before it locks to
	// delete it.
	clock.OnNextNow(func() {
		require.NoError(t, store.Save(ctx, s.ToggleTheme()))
	})
	_, err := store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, Dark, got.Theme)
}

func TestMemoryStore_StatsCountsLiveSessions(t *testing.T) {
	store, clock := newTestMemoryStore(t, time.Minute, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("old", display.Metric, Light, clock.Now())))
	clock.Advance(40 * time.Second)
	require.NoError(t, store.Save(ctx, New("new", display.Metric, Light, clock.Now())))
	clock.Advance(30 * time.Second)

	stats := store.Stats()
	assert.Equal(t, 1, stats["sessions"])
}
