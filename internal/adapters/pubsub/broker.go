// Package pubsub provides the change propagators: an in-process Broker that
// fans committed events out to board subscribers, and a RedisRelay that
// extends the same stream across engine instances.
package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/change"
	"github.com/Aidzix/Monday/internal/platform/telemetry"
	"github.com/Aidzix/Monday/internal/ports"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 64

// Compile-time interface checks.
var (
	_ ports.ChangePropagator = (*Broker)(nil)
	_ ports.Subscription     = (*subscription)(nil)
)

// Broker delivers events to in-process subscribers. Publish never blocks: a
// subscriber whose queue is full is detached with change.ClosedLagged so that
// it can resynchronize from a fresh snapshot instead of silently missing
// events. Per board, versions only move forward: an event at or below the
// last version delivered is dropped, which keeps relayed events from another
// instance from arriving out of order.
type Broker struct {
	mu      sync.Mutex
	boards  map[string]map[*subscription]struct{}
	last    map[string]int64 // last delivered version, per board with subscribers
	closed  bool
	buffer  int
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewBroker creates a Broker with the given per-subscriber buffer. A buffer
// below 1 falls back to DefaultBuffer. metrics and logger may be nil.
func NewBroker(buffer int, metrics *telemetry.Metrics, logger *slog.Logger) *Broker {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{
		boards:  make(map[string]map[*subscription]struct{}),
		last:    make(map[string]int64),
		buffer:  buffer,
		metrics: metrics,
		logger:  logger,
	}
}

// Publish delivers e to every current subscriber of e.BoardID. A terminal
// event ends every subscription to the board with change.ClosedBoardDeleted,
// including those too far behind to receive it.
func (b *Broker) Publish(ctx context.Context, e change.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("publishing %s for board %q: broker shut down: %w", e.Op, e.BoardID, domain.ErrUnavailable)
	}

	subs := b.boards[e.BoardID]
	if len(subs) == 0 {
		return nil
	}
	if e.Version <= b.last[e.BoardID] {
		b.logger.DebugContext(ctx, "dropping stale change event",
			slog.String("board_id", e.BoardID),
			slog.Int64("version", e.Version),
			slog.Int64("delivered", b.last[e.BoardID]),
		)
		return nil
	}
	b.last[e.BoardID] = e.Version

	delivered := 0
	for s := range subs {
		select {
		case s.ch <- e:
			delivered++
		default:
			if e.Terminal() {
				continue
			}
			b.logger.WarnContext(ctx, "disconnecting lagging subscriber",
				slog.String("board_id", e.BoardID),
				slog.Int64("version", e.Version),
			)
			b.detachLocked(ctx, s, change.ClosedLagged)
		}
	}

	if e.Terminal() {
		for s := range b.boards[e.BoardID] {
			b.detachLocked(ctx, s, change.ClosedBoardDeleted)
		}
	}

	if b.metrics != nil && delivered > 0 {
		b.metrics.EventsPublished.Add(ctx, int64(delivered),
			metric.WithAttributes(telemetry.AttrOperation.String(string(e.Op))),
		)
	}
	return nil
}

// Subscribe registers a subscriber for boardID. The subscription also ends
// when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, boardID string) (ports.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("subscribing to board %q: broker shut down: %w", boardID, domain.ErrUnavailable)
	}

	s := &subscription{
		broker:  b,
		boardID: boardID,
		ch:      make(chan change.Event, b.buffer),
	}
	set, ok := b.boards[boardID]
	if !ok {
		set = make(map[*subscription]struct{})
		b.boards[boardID] = set
	}
	set[s] = struct{}{}
	s.stop = context.AfterFunc(ctx, s.Close)

	return s, nil
}

// Subscribers returns the number of live subscriptions to boardID.
func (b *Broker) Subscribers(boardID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.boards[boardID])
}

// Shutdown ends every subscription with change.ClosedShutdown. Later calls
// to Publish and Subscribe fail with domain.ErrUnavailable.
func (b *Broker) Shutdown(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for _, set := range b.boards {
		for s := range set {
			b.detachLocked(ctx, s, change.ClosedShutdown)
		}
	}
}

func (b *Broker) detach(s *subscription, reason change.CloseReason) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detachLocked(context.Background(), s, reason)
}

// detachLocked removes s and closes its channel. Channels are only closed
// while b.mu is held, which is also held for every send.
func (b *Broker) detachLocked(ctx context.Context, s *subscription, reason change.CloseReason) {
	set, ok := b.boards[s.boardID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(b.boards, s.boardID)
		delete(b.last, s.boardID)
	}

	s.finish(reason)

	if b.metrics != nil && reason != change.ClosedByUnsubscribe {
		b.metrics.SubscribersDisconnected.Add(ctx, 1,
			metric.WithAttributes(telemetry.AttrReason.String(string(reason))),
		)
	}
}

type subscription struct {
	broker  *Broker
	boardID string
	ch      chan change.Event
	stop    func() bool

	mu     sync.Mutex
	reason change.CloseReason
}

func (s *subscription) Events() <-chan change.Event {
	return s.ch
}

func (s *subscription) Reason() change.CloseReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *subscription) Close() {
	s.broker.detach(s, change.ClosedByUnsubscribe)
}

func (s *subscription) finish(reason change.CloseReason) {
	s.mu.Lock()
	s.reason = reason
	s.mu.Unlock()

	if s.stop != nil {
		s.stop()
	}
	close(s.ch)
}
