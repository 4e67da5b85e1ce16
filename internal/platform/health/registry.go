// Package health tracks the dependencies the readiness check reports on:
// the board store, the change relay and the identity service.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aidzix/Monday/internal/ports"
)

// DefaultCheckTimeout bounds a single dependency check.
const DefaultCheckTimeout = 2 * time.Second

var _ ports.HealthRegistry = (*Registry)(nil)

// Registry runs registered checks concurrently, each under its own timeout.
// Checkers must give up when their context is done.
type Registry struct {
	mu       sync.RWMutex
	checkers []ports.HealthChecker
	timeout  time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithCheckTimeout overrides DefaultCheckTimeout.
func WithCheckTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{timeout: DefaultCheckTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a checker. Safe for concurrent use.
func (r *Registry) Register(checker ports.HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, checker)
}

// CheckAll runs every check and returns the results keyed by checker name;
// nil means healthy. Names are not required to be unique; the checker
// registered last wins.
func (r *Registry) CheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	checkers := make([]ports.HealthChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	errs := make([]error, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			errs[i] = r.check(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]error, len(checkers))
	for i, c := range checkers {
		results[c.Name()] = errs[i]
	}
	return results
}

func (r *Registry) check(ctx context.Context, c ports.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return c.HealthCheck(ctx)
}
