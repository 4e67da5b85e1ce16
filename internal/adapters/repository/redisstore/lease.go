package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/ports"
)

// DefaultLeaseTTL is how long an unrenewed lease survives its holder.
const DefaultLeaseTTL = 10 * time.Second

const (
	minLeasePoll   = 5 * time.Millisecond
	maxLeasePoll   = 100 * time.Millisecond
	releaseTimeout = time.Second
)

var _ ports.BoardLocker = (*Leases)(nil)

// Both scripts only touch the key while it still holds the caller's token,
// so an expired lease taken over by another instance is left alone.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Leases hands out per-board leases kept in Redis at {prefix}lease:{boardID}.
// A held lease is renewed every third of its TTL until released. Should a
// holder stall past the TTL, the store's version check still rejects its
// write.
type Leases struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewLeases creates a lease manager. A ttl below one second falls back to
// DefaultLeaseTTL; a nil logger discards output.
func NewLeases(rdb redis.UniversalClient, prefix string, ttl time.Duration, logger *slog.Logger) *Leases {
	if ttl < time.Second {
		ttl = DefaultLeaseTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Leases{rdb: rdb, prefix: prefix, ttl: ttl, logger: logger}
}

// Acquire polls for the lease with capped exponential backoff.
func (l *Leases) Acquire(ctx context.Context, boardID string) (func(), error) {
	key := l.leaseKey(boardID)
	token := uuid.NewString()

	wait := minLeasePoll
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if ctx.Err() != nil {
			return nil, leaseWaitError(ctx, boardID)
		}
		if err != nil {
			return nil, unavailable("acquiring board lease", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, leaseWaitError(ctx, boardID)
		case <-timer.C:
		}
		wait = min(2*wait, maxLeasePoll)
	}

	renewCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go l.renew(renewCtx, key, token, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done

			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
				l.logger.WarnContext(rctx, "failed to release board lease",
					slog.String("board_id", boardID),
					slog.Any("error", err),
				)
			}
		})
	}, nil
}

func (l *Leases) renew(ctx context.Context, key, token string, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			kept, err := renewScript.Run(ctx, l.rdb, []string{key}, token, l.ttl.Milliseconds()).Int()
			switch {
			case errors.Is(err, context.Canceled):
				return
			case err != nil:
				l.logger.WarnContext(ctx, "failed to renew board lease",
					slog.String("key", key),
					slog.Any("error", err),
				)
			case kept == 0:
				l.logger.WarnContext(ctx, "board lease lost before release", slog.String("key", key))
				return
			}
		}
	}
}

func (l *Leases) leaseKey(boardID string) string { return l.prefix + "lease:" + boardID }

func leaseWaitError(ctx context.Context, boardID string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("waiting for board %q lease: %w", boardID, domain.ErrBusy)
	}
	return fmt.Errorf("waiting for board %q lease: %w", boardID, ctx.Err())
}
