package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/change"
	"github.com/Aidzix/Monday/internal/ports"
)

// DefaultChannel is the Redis channel used when none is configured.
const DefaultChannel = "board-events"

// Compile-time interface checks.
var (
	_ ports.ChangePropagator = (*RedisRelay)(nil)
	_ ports.HealthChecker    = (*RedisRelay)(nil)
)

// envelope is the wire form of an event on the Redis channel.
type envelope struct {
	Origin string       `json:"origin"`
	Event  change.Event `json:"event"`
}

// RedisRelay delivers events to local subscribers through a Broker and
// mirrors them to every other engine instance over a Redis channel. Events
// that come back from the channel with this relay's origin are skipped, so
// each instance delivers its own events exactly once.
type RedisRelay struct {
	local   *Broker
	rdb     *redis.Client
	channel string
	origin  string
	logger  *slog.Logger

	mu     sync.Mutex
	sub    *redis.PubSub
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewRedisRelay creates a relay over local. Start must be called before
// events from other instances are received.
func NewRedisRelay(rdb *redis.Client, channel string, local *Broker, logger *slog.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisRelay{
		local:   local,
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Start subscribes to the channel and runs the forwarder until ctx is done
// or Close is called. It returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub != nil {
		return errors.New("relay already started")
	}

	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribing to %q: %w", r.channel, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return r.forward(gctx, sub.Channel())
	})

	r.sub = sub
	r.cancel = cancel
	r.group = g

	r.logger.InfoContext(ctx, "change relay started",
		slog.String("channel", r.channel),
		slog.String("origin", r.origin),
	)
	return nil
}

// Close stops the forwarder and releases the Redis subscription.
func (r *RedisRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub == nil {
		return nil
	}

	r.cancel()
	err := r.group.Wait()
	if cerr := r.sub.Close(); cerr != nil && err == nil {
		err = cerr
	}
	r.sub = nil
	return err
}

// Publish delivers e locally, then mirrors it to the other instances. A
// failure to reach Redis is reported as domain.ErrUnavailable after local
// delivery has already happened.
func (r *RedisRelay) Publish(ctx context.Context, e change.Event) error {
	if err := r.local.Publish(ctx, e); err != nil {
		return err
	}

	raw, err := json.Marshal(envelope{Origin: r.origin, Event: e})
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", e.Op, err)
	}
	if err := r.rdb.Publish(ctx, r.channel, raw).Err(); err != nil {
		return fmt.Errorf("relaying %s event for board %q: %w: %w", e.Op, e.BoardID, domain.ErrUnavailable, err)
	}
	return nil
}

// Subscribe opens a local subscription; remote events reach it through the
// forwarder.
func (r *RedisRelay) Subscribe(ctx context.Context, boardID string) (ports.Subscription, error) {
	return r.local.Subscribe(ctx, boardID)
}

// Name implements ports.HealthChecker.
func (r *RedisRelay) Name() string {
	return "change-relay"
}

// HealthCheck implements ports.HealthChecker by pinging Redis.
func (r *RedisRelay) HealthCheck(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

func (r *RedisRelay) forward(ctx context.Context, msgs <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok || m == nil {
				return nil
			}

			var env envelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				r.logger.WarnContext(ctx, "dropping malformed relay payload",
					slog.String("channel", m.Channel),
					slog.Any("error", err),
				)
				continue
			}
			if env.Origin == r.origin {
				continue
			}

			if err := r.local.Publish(ctx, env.Event); err != nil {
				r.logger.WarnContext(ctx, "failed to deliver relayed event",
					slog.String("board_id", env.Event.BoardID),
					slog.Any("error", err),
				)
			}
		}
	}
}
