// Package lock provides the per-board serialization domain. Each key gets its
// own weighted semaphore, created on first use and dropped once no goroutine
// holds or waits on it, so unrelated boards never contend.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Aidzix/Monday/internal/domain"
)

// Table is a reference-counted set of exclusive locks keyed by string.
// The zero value is ready to use.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Acquire blocks until the lock for key is held or ctx is done. When ctx's
// deadline passes first it returns an error wrapping domain.ErrBusy; on plain
// cancellation it returns ctx's error. The returned release func must be
// called exactly once.
func (t *Table) Acquire(ctx context.Context, key string) (func(), error) {
	e := t.ref(key)

	if err := e.sem.Acquire(ctx, 1); err != nil {
		t.unref(key, e)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("waiting for board %q: %w", key, domain.ErrBusy)
		}
		return nil, fmt.Errorf("waiting for board %q: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			t.unref(key, e)
		})
	}, nil
}

// Len returns the number of keys currently held or awaited.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Table) ref(key string) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.entries == nil {
		t.entries = make(map[string]*entry)
	}
	e, ok := t.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		t.entries[key] = e
	}
	e.refs++
	return e
}

func (t *Table) unref(key string, e *entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e.refs--
	if e.refs == 0 && t.entries[key] == e {
		delete(t.entries, key)
	}
}
