// Package breaker builds the circuit breakers shared by the outbound HTTP
// client and the board store, and maps breaker state onto health results.
package breaker

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/sony/gobreaker/v2"

	"github.com/Aidzix/Monday/internal/platform/config"
)

// New creates a circuit breaker named name. isSuccessful decides which errors
// count as failures; nil counts every non-nil error.
func New[T any](name string, cfg config.CircuitBreakerConfig, logger *slog.Logger, isSuccessful func(error) bool) *gobreaker.CircuitBreaker[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: toUint32(cfg.HalfOpenLimit),
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.MaxFailures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// Health reports a breaker's state as a health result without making a call.
//
// State mapping:
//   - "closed"    returns nil.
//   - "half-open" returns an error describing a degraded dependency.
//   - "open"      returns an error describing a failing dependency.
func Health[T any](cb *gobreaker.CircuitBreaker[T]) error {
	state := cb.State()
	switch state {
	case gobreaker.StateClosed:
		return nil
	case gobreaker.StateHalfOpen:
		return fmt.Errorf("%s: degraded (circuit breaker half-open)", cb.Name())
	case gobreaker.StateOpen:
		return fmt.Errorf("%s: failing (circuit breaker open)", cb.Name())
	default:
		return fmt.Errorf("%s: unknown circuit breaker state %v", cb.Name(), state)
	}
}

// toUint32 safely converts a non-negative int to uint32, clamping at the
// uint32 maximum. Negative values are treated as zero.
func toUint32(v int) uint32 {
	if v <= 0 {
		return 0
	}
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
