package fanout_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aidzix/Monday/internal/app/fanout"
)

var errGone = errors.New("gone")

func load(_ context.Context, id string) (string, error) {
	if id == "missing" {
		return "", fmt.Errorf("board %q: %w", id, errGone)
	}
	return "board:" + id, nil
}

func TestRun_EmptyItems(t *testing.T) {
	t.Parallel()

	results := fanout.Run(context.Background(), 4, []string{}, func(context.Context, string) (string, error) {
		t.Fatal("fn should not be called for empty items")
		return "", nil
	})

	if results == nil || len(results) != 0 {
		t.Fatalf("Run(empty) = %v, want empty non-nil slice", results)
	}
}

func TestRun_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	delays := map[string]time.Duration{"b1": 30 * time.Millisecond, "b2": 5 * time.Millisecond, "b3": 15 * time.Millisecond}
	ids := []string{"b1", "b2", "b3"}

	results := fanout.Run(context.Background(), 3, ids, func(ctx context.Context, id string) (string, error) {
		time.Sleep(delays[id])
		return load(ctx, id)
	})

	for i, r := range results {
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v, want nil", i, r.Err)
		}
		if want := "board:" + ids[i]; r.Value != want {
			t.Errorf("results[%d].Value = %q, want %q", i, r.Value, want)
		}
	}
}

func TestRun_PartialFailure(t *testing.T) {
	t.Parallel()

	results := fanout.Run(context.Background(), 2, []string{"b1", "missing", "b3"}, load)

	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("unexpected errors: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, errGone) {
		t.Errorf("results[1].Err = %v, want errGone", results[1].Err)
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	t.Parallel()

	const maxWorkers = 3
	var active, peak atomic.Int32

	ids := make([]string, 15)
	for i := range ids {
		ids[i] = fmt.Sprintf("b%d", i)
	}

	results := fanout.Run(context.Background(), maxWorkers, ids, func(ctx context.Context, id string) (string, error) {
		cur := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return load(ctx, id)
	})

	if len(results) != len(ids) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(ids))
	}
	if p := peak.Load(); p > maxWorkers {
		t.Errorf("peak concurrency %d exceeded maxWorkers %d", p, maxWorkers)
	}
}

func TestRun_ZeroWorkersRunsSerially(t *testing.T) {
	t.Parallel()

	results := fanout.Run(context.Background(), 0, []string{"b1", "b2"}, load)
	if results[0].Value != "board:b1" || results[1].Value != "board:b2" {
		t.Errorf("results = %+v, want both boards loaded", results)
	}
}

func TestRun_CanceledItemsAreNotStarted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var started atomic.Int32

	results := fanout.Run(ctx, 1, []string{"b1", "b2", "b3"}, func(ctx context.Context, id string) (string, error) {
		started.Add(1)
		if id == "b1" {
			cancel()
		}
		return load(ctx, id)
	})

	if got := started.Load(); got != 1 {
		t.Errorf("started = %d, want 1", got)
	}
	for i, r := range results[1:] {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("results[%d].Err = %v, want context.Canceled", i+1, r.Err)
		}
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	results := fanout.Run(context.Background(), 2, []string{"b1", "missing", "b2"}, load)

	t.Run("skip drops matching failures", func(t *testing.T) {
		t.Parallel()
		values, errs := fanout.Values(results, func(err error) bool { return errors.Is(err, errGone) })
		if len(errs) != 0 {
			t.Errorf("errs = %v, want none", errs)
		}
		if len(values) != 2 || values[0] != "board:b1" || values[1] != "board:b2" {
			t.Errorf("values = %v, want [board:b1 board:b2]", values)
		}
	})

	t.Run("nil skip keeps failures", func(t *testing.T) {
		t.Parallel()
		values, errs := fanout.Values(results, nil)
		if len(values) != 2 || len(errs) != 1 {
			t.Errorf("Values() = %v, %v; want 2 values and 1 error", values, errs)
		}
	})
}
