package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/platform/breaker"
	"github.com/Aidzix/Monday/internal/platform/config"
	"github.com/Aidzix/Monday/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.BoardRepository = (*Guarded)(nil)
	_ ports.HealthChecker   = (*Guarded)(nil)
)

// Guarded wraps a repository with a circuit breaker. Only infrastructure
// failures (domain.ErrUnavailable) count against the breaker; not-found and
// version conflicts are normal outcomes. While the breaker is open every call
// fails fast with domain.ErrUnavailable.
type Guarded struct {
	next ports.BoardRepository
	cb   *gobreaker.CircuitBreaker[any]
}

// NewGuarded wraps next.
func NewGuarded(next ports.BoardRepository, cfg config.CircuitBreakerConfig, logger *slog.Logger) *Guarded {
	return &Guarded{
		next: next,
		cb: breaker.New[any]("board-store", cfg, logger, func(err error) bool {
			return !errors.Is(err, domain.ErrUnavailable)
		}),
	}
}

func (g *Guarded) Load(ctx context.Context, boardID string) (*board.Board, error) {
	return execute(g, func() (*board.Board, error) {
		return g.next.Load(ctx, boardID)
	})
}

func (g *Guarded) Save(ctx context.Context, b *board.Board, expectedVersion int64) error {
	_, err := execute(g, func() (struct{}, error) {
		return struct{}{}, g.next.Save(ctx, b, expectedVersion)
	})
	return err
}

func (g *Guarded) Delete(ctx context.Context, boardID string, expectedVersion int64) error {
	_, err := execute(g, func() (struct{}, error) {
		return struct{}{}, g.next.Delete(ctx, boardID, expectedVersion)
	})
	return err
}

func (g *Guarded) ListForMember(ctx context.Context, userID string) ([]string, error) {
	return execute(g, func() ([]string, error) {
		return g.next.ListForMember(ctx, userID)
	})
}

func (g *Guarded) Locate(ctx context.Context, entityID string) (string, error) {
	return execute(g, func() (string, error) {
		return g.next.Locate(ctx, entityID)
	})
}

// Name implements ports.HealthChecker.
func (g *Guarded) Name() string {
	return "board-store"
}

// HealthCheck reports the breaker state and, when the breaker is closed, the
// wrapped store's own health.
func (g *Guarded) HealthCheck(ctx context.Context) error {
	if err := breaker.Health(g.cb); err != nil {
		return err
	}
	if hc, ok := g.next.(ports.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func execute[T any](g *Guarded, fn func() (T, error)) (T, error) {
	res, err := g.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("board store: %w: %w", domain.ErrUnavailable, err)
		}
		if v, ok := res.(T); ok {
			return v, err
		}
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}
