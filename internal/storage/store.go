package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound reports a key that was never saved.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable reports a backend failure or a value that cannot be
	// decoded. It is never replaced by an empty default.
	ErrUnavailable = errors.New("storage unavailable")
)

const KeyManagers = "managers"

// DayKey is the key of a day bucket.
func DayKey(day string) string { return "data/" + day }

// Store is the key-value contract every backend implements. Values are JSON.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Unavailable wraps a backend error so that errors.Is(err, ErrUnavailable).
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Guarded serializes every read-modify-write cycle against one Store. All
// components writing to the same store must share one Guarded.
type Guarded struct {
	mu    sync.Mutex
	store Store
}

func Guard(s Store) *Guarded {
	return &Guarded{store: s}
}

// Get decodes key into v. found is false when the key was never saved, in
// which case v is left untouched.
func (g *Guarded) Get(ctx context.Context, key string, v any) (found bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.get(ctx, key, v)
}

// Update loads key into v, calls fn and saves v if fn returns nil. Nothing is
// written when fn fails.
func (g *Guarded) Update(ctx context.Context, key string, v any, fn func(found bool) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	found, err := g.get(ctx, key, v)
	if err != nil {
		return err
	}
	if err := fn(found); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.store.Save(ctx, key, b); err != nil {
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return Unavailable("save "+key, err)
	}
	return nil
}

func (g *Guarded) get(ctx context.Context, key string, v any) (bool, error) {
	b, err := g.store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return false, err
		}
		return false, Unavailable("load "+key, err)
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, Unavailable("decode "+key, err)
	}
	return true, nil
}
