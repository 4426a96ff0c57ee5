package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "session:"

	// updateAttempts bounds optimistic retries when another writer touches
	// the same session between WATCH and EXEC.
	updateAttempts = 5
)

// RedisStore shares sessions between dashboard instances. Entries carry the
// session TTL, so Redis drops idle sessions on its own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

func key(id string) string {
	return keyPrefix + id
}

func (r *RedisStore) Get(ctx context.Context, id string) (AppState, error) {
	val, err := r.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return AppState{}, ErrNotFound
		}
		return AppState{}, fmt.Errorf("session get %s: %w", id, err)
	}

	var s AppState
	if err := json.Unmarshal(val, &s); err != nil {
		return AppState{}, fmt.Errorf("unmarshaling session %s: %w", id, err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s AppState) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", s.ID, err)
	}

	if err := r.client.Set(ctx, key(s.ID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("session set %s: %w", s.ID, err)
	}
	return nil
}

// Update reads, transforms and writes a session inside WATCH/MULTI, so a
// concurrent write from any instance aborts and replays fn on fresh data.
func (r *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (AppState, error) {
	k := key(id)

	var out AppState
	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("session get %s: %w", id, err)
		}

		var cur AppState
		if err := json.Unmarshal(val, &cur); err != nil {
			return fmt.Errorf("unmarshaling session %s: %w", id, err)
		}

		next, err := fn(cur)
		if err != nil {
			out = cur
			return err
		}

		b, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshaling session %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, b, r.ttl)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for attempt := 0; attempt < updateAttempts; attempt++ {
		out = AppState{}
		err := r.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && out.ID == "" {
			return AppState{}, err
		}
		return out, err
	}
	return AppState{}, fmt.Errorf("session update %s: %w", id, ErrConflict)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("session delete %s: %w", id, err)
	}
	return nil
}

// List scans every session key. Keys that expire between the scan and the
// read are skipped.
func (r *RedisStore) List(ctx context.Context) ([]AppState, error) {
	var out []AppState

	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(keyPrefix):]
		s, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RedisStore) Stats() map[string]interface{} {
	return map[string]interface{}{
		"backend": "redis",
		"ttl":     r.ttl.String(),
	}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
