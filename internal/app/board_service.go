// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port interfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aidzix/Monday/internal/app/fanout"
	"github.com/Aidzix/Monday/internal/app/lock"
	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/domain/change"
	"github.com/Aidzix/Monday/internal/platform/config"
	"github.com/Aidzix/Monday/internal/platform/telemetry"
	"github.com/Aidzix/Monday/internal/ports"
)

// Compile-time check that BoardService implements ports.BoardService.
var _ ports.BoardService = (*BoardService)(nil)

// Engine defaults applied when the configuration leaves a value unset.
const (
	DefaultLockTimeout = 2 * time.Second
	DefaultListWorkers = 8
)

// maxCommitAttempts bounds how often a mutation without an expected version
// is replayed after another instance committed first.
const maxCommitAttempts = 3

const tracerName = "github.com/Aidzix/Monday/internal/app"

// BoardService implements ports.BoardService. It owns the per-board lock
// table; the repository is the only place board state lives between calls.
// When instances share a repository, a ports.BoardLocker extends the lock
// across them.
type BoardService struct {
	repo       ports.BoardRepository
	propagator ports.ChangePropagator
	guard      *access.Guard
	locks      lock.Table
	leases     ports.BoardLocker // nil in single-instance deployments
	cfg        config.EngineConfig
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a BoardService.
type Option func(*BoardService)

// WithGuard replaces the default guard, which grants members no elevation.
func WithGuard(g *access.Guard) Option {
	return func(s *BoardService) { s.guard = g }
}

// WithMetrics records mutation and lock-wait metrics on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *BoardService) { s.metrics = m }
}

// WithLocker serializes mutations across instances with l, taken after the
// in-process lock.
func WithLocker(l ports.BoardLocker) Option {
	return func(s *BoardService) { s.leases = l }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *BoardService) { s.now = now }
}

// WithIDGenerator overrides how new board, column, group and item ids are
// produced.
func WithIDGenerator(fn func() string) Option {
	return func(s *BoardService) { s.newID = fn }
}

// NewBoardService creates a BoardService backed by repo that publishes
// committed changes through propagator. Zero engine settings fall back to
// DefaultLockTimeout and DefaultListWorkers; a nil logger discards output.
func NewBoardService(repo ports.BoardRepository, propagator ports.ChangePropagator, cfg config.EngineConfig, logger *slog.Logger, opts ...Option) *BoardService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.ListWorkers <= 0 {
		cfg.ListWorkers = DefaultListWorkers
	}

	s := &BoardService{
		repo:       repo,
		propagator: propagator,
		guard:      access.NewGuard(nil),
		cfg:        cfg,
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutation is one change applied to a board while its lock is held.
// apply edits a private copy of the board and names the committed operation
// and the entities it touched. An empty Op means nothing changed and nothing
// is written.
type mutation struct {
	name       string
	boardID    string
	capability access.Capability
	opts       []ports.MutationOption
	apply      func(b *board.Board, now time.Time) (change.Op, []string, error)
}

// mutate runs m through the serialized pipeline: lock, load, authorize,
// version check, apply to a copy, integrity check, persist, publish. It
// returns the committed board, or the unchanged board for a no-op. A caller
// that did not pin a version never sees a conflict caused by a concurrent
// writer outside this process while retries remain; m is replayed against
// the newer board instead.
func (s *BoardService) mutate(ctx context.Context, actor access.Actor, m mutation) (*board.Board, error) {
	pinned := ports.ApplyMutationOptions(m.opts...).ExpectedVersion != nil
	return s.observe(ctx, m.name, m.boardID, func(ctx context.Context) (*board.Board, error) {
		for attempt := 1; ; attempt++ {
			b, err := s.commit(ctx, actor, m)
			if pinned || attempt == maxCommitAttempts || !errors.Is(err, domain.ErrVersionConflict) {
				return b, err
			}
			s.logger.DebugContext(ctx, "replaying mutation after concurrent commit",
				slog.String("operation", m.name),
				slog.String("board_id", m.boardID),
				slog.Int("attempt", attempt),
			)
		}
	})
}

// observe wraps one board operation in a span, a mutation metric and failure
// logging.
func (s *BoardService) observe(ctx context.Context, name, boardID string, fn func(context.Context) (*board.Board, error)) (*board.Board, error) {
	ctx, span := s.tracer.Start(ctx, "BoardService."+name,
		trace.WithAttributes(attribute.String("board.id", boardID)),
	)
	defer span.End()

	b, err := fn(ctx)
	s.recordMutation(ctx, name, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logFailure(ctx, name, boardID, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("board.version", b.Version))
	return b, nil
}

func (s *BoardService) commit(ctx context.Context, actor access.Actor, m mutation) (*board.Board, error) {
	release, err := s.acquire(ctx, m.boardID)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.visible(ctx, actor, m.boardID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, current, m.capability); err != nil {
		return nil, err
	}
	if o := ports.ApplyMutationOptions(m.opts...); o.ExpectedVersion != nil && *o.ExpectedVersion != current.Version {
		return nil, fmt.Errorf("board %q is at version %d, expected %d: %w",
			current.ID, current.Version, *o.ExpectedVersion, domain.ErrVersionConflict)
	}

	now := s.now()
	next := current.Clone()
	op, entityIDs, err := m.apply(next, now)
	if err != nil {
		return nil, err
	}
	if op == "" {
		return current, nil
	}

	next.Version = current.Version + 1
	next.UpdatedAt = now
	event := change.Event{
		BoardID:    current.ID,
		Op:         op,
		EntityIDs:  entityIDs,
		Version:    next.Version,
		ActorID:    actor.ID,
		OccurredAt: now,
	}

	if event.Terminal() {
		err = s.repo.Delete(ctx, current.ID, current.Version)
	} else {
		if ierr := next.CheckIntegrity(); ierr != nil {
			return nil, fmt.Errorf("%s left board %q inconsistent: %w", m.name, current.ID, ierr)
		}
		err = s.repo.Save(ctx, next, current.Version)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event)
	s.logger.DebugContext(ctx, "board mutation committed",
		slog.String("operation", m.name),
		slog.String("board_id", current.ID),
		slog.Int64("version", next.Version),
	)
	return next, nil
}

// acquire waits for the board's lock, and its lease when one is configured,
// for at most the configured timeout, or less when ctx has an earlier
// deadline.
func (s *BoardService) acquire(ctx context.Context, boardID string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()

	start := time.Now()
	release, err := s.locks.Acquire(waitCtx, boardID)
	if err == nil && s.leases != nil {
		release, err = s.lease(waitCtx, boardID, release)
	}
	if s.metrics != nil {
		s.metrics.LockWaitDuration.Record(ctx, time.Since(start).Seconds())
	}
	return release, err
}

// lease takes the board's cross-instance lease while the local lock is held.
// The returned func gives up both, lease first.
func (s *BoardService) lease(ctx context.Context, boardID string, unlock func()) (func(), error) {
	unlease, err := s.leases.Acquire(ctx, boardID)
	if err != nil {
		unlock()
		return nil, err
	}
	return func() {
		unlease()
		unlock()
	}, nil
}

// visible loads a board and hides it unless actor may read it.
func (s *BoardService) visible(ctx context.Context, actor access.Actor, boardID string) (*board.Board, error) {
	b, err := s.repo.Load(ctx, boardID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Concealed(boardID)
	}
	if err != nil {
		return nil, err
	}
	if !s.guard.CanSee(actor, b) {
		return nil, domain.Concealed(boardID)
	}
	return b, nil
}

// publish hands a committed event to the propagator. The mutation is already
// durable, so a delivery failure is logged and not returned.
func (s *BoardService) publish(ctx context.Context, e change.Event) {
	if err := s.propagator.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.logger.WarnContext(ctx, "failed to publish change event",
			slog.String("operation", string(e.Op)),
			slog.String("board_id", e.BoardID),
			slog.Int64("version", e.Version),
			slog.Any("error", err),
		)
	}
}

func (s *BoardService) recordMutation(ctx context.Context, name string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.MutationTotal.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrOperation.String(name),
		telemetry.AttrResult.String(outcome(err)),
	))
}

// logFailure logs expected rejections at WARN and backend failures at ERROR.
func (s *BoardService) logFailure(ctx context.Context, op, boardID string, err error) {
	level := slog.LevelWarn
	if outcome(err) == "error" {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "board operation failed",
		slog.String("operation", op),
		slog.String("board_id", boardID),
		slog.Any("error", err),
	)
}

// outcome classifies err for metrics and log levels.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidReorder),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, context.Canceled):
		return "rejected"
	default:
		return "error"
	}
}

// CreateBoard creates a board owned by actor with the default column and group.
func (s *BoardService) CreateBoard(ctx context.Context, actor access.Actor, in ports.CreateBoardInput) (*board.Board, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("creating board: %w", domain.ErrUnauthorized)
	}

	now := s.now()
	b := board.New(s.newID(), actor.ID, strings.TrimSpace(in.Title), in.Description, in.Settings, s.newID(), s.newID(), now)
	b.Version = 1
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "creating board", slog.String("board_id", b.ID))

	return s.observe(ctx, "CreateBoard", b.ID, func(ctx context.Context) (*board.Board, error) {
		release, err := s.acquire(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		defer release()

		if err := s.repo.Save(ctx, b, 0); err != nil {
			return nil, err
		}
		s.publish(ctx, change.Event{
			BoardID:    b.ID,
			Op:         change.BoardCreated,
			EntityIDs:  b.EntityIDs(),
			Version:    b.Version,
			ActorID:    actor.ID,
			OccurredAt: now,
		})
		return b, nil
	})
}

// GetBoard returns a snapshot of a board visible to actor.
func (s *BoardService) GetBoard(ctx context.Context, actor access.Actor, boardID string) (*board.Board, error) {
	return s.visible(ctx, actor, boardID)
}

// ListBoards loads every board actor belongs to, newest first. Boards deleted
// between the index lookup and the load are skipped.
func (s *BoardService) ListBoards(ctx context.Context, actor access.Actor) ([]board.Board, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("listing boards: %w", domain.ErrUnauthorized)
	}

	ids, err := s.repo.ListForMember(ctx, actor.ID)
	if err != nil {
		s.logFailure(ctx, "ListBoards", "", err)
		return nil, err
	}

	results := fanout.Run(ctx, s.cfg.ListWorkers, ids, func(ctx context.Context, id string) (*board.Board, error) {
		return s.visible(ctx, actor, id)
	})
	loaded, errs := fanout.Values(results, func(err error) bool {
		return errors.Is(err, domain.ErrNotFound)
	})
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.logFailure(ctx, "ListBoards", "", err)
		return nil, fmt.Errorf("loading boards: %w", err)
	}

	boards := make([]board.Board, len(loaded))
	for i, b := range loaded {
		boards[i] = *b
	}
	slices.SortFunc(boards, func(a, b board.Board) int {
		if n := b.CreatedAt.Compare(a.CreatedAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return boards, nil
}

// UpdateBoard merges the non-nil fields of patch into the board. Settings
// merge key by key.
func (s *BoardService) UpdateBoard(ctx context.Context, actor access.Actor, boardID string, patch ports.BoardPatch, opts ...ports.MutationOption) (*board.Board, error) {
	return s.mutate(ctx, actor, mutation{
		name:       "UpdateBoard",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			if patch.Title != nil {
				b.Title = strings.TrimSpace(*patch.Title)
			}
			if patch.Description != nil {
				b.Description = *patch.Description
			}
			if patch.Settings != nil {
				b.Settings = mergeSettings(b.Settings, patch.Settings)
			}
			if err := b.Validate(); err != nil {
				return "", nil, err
			}
			return change.BoardUpdated, []string{b.ID}, nil
		},
	})
}

// DeleteBoard removes the board and everything on it.
func (s *BoardService) DeleteBoard(ctx context.Context, actor access.Actor, boardID string, opts ...ports.MutationOption) error {
	s.logger.InfoContext(ctx, "deleting board", slog.String("board_id", boardID))

	_, err := s.mutate(ctx, actor, mutation{
		name:       "DeleteBoard",
		boardID:    boardID,
		capability: access.DeleteBoard,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			return change.BoardDeleted, []string{b.ID}, nil
		},
	})
	return err
}

// AddMember grants userID member access. The owner and existing members are
// left as they are without a new version.
func (s *BoardService) AddMember(ctx context.Context, actor access.Actor, boardID, userID string, opts ...ports.MutationOption) (*board.Board, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"userId": domain.MsgRequired}}
	}

	return s.mutate(ctx, actor, mutation{
		name:       "AddMember",
		boardID:    boardID,
		capability: access.ManageMembers,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			if b.IsMember(userID) {
				return "", nil, nil
			}
			b.MemberIDs = append(b.MemberIDs, userID)
			return change.MemberAdded, []string{userID}, nil
		},
	})
}

// RemoveMember revokes userID's member access. The owner cannot be removed.
func (s *BoardService) RemoveMember(ctx context.Context, actor access.Actor, boardID, userID string, opts ...ports.MutationOption) (*board.Board, error) {
	return s.mutate(ctx, actor, mutation{
		name:       "RemoveMember",
		boardID:    boardID,
		capability: access.ManageMembers,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			if userID == b.OwnerID {
				return "", nil, domain.InvalidOperation("the board owner cannot be removed")
			}
			idx := slices.Index(b.MemberIDs, userID)
			if idx < 0 {
				return "", nil, notFound("member", userID)
			}
			b.MemberIDs = slices.Delete(b.MemberIDs, idx, idx+1)
			return change.MemberRemoved, []string{userID}, nil
		},
	})
}

// WithReadLock runs fn against a snapshot of the board taken under its write
// lock, so no mutation commits while fn runs.
func (s *BoardService) WithReadLock(ctx context.Context, actor access.Actor, boardID string, fn func(*board.Board) error) error {
	release, err := s.acquire(ctx, boardID)
	if err != nil {
		return err
	}
	defer release()

	b, err := s.visible(ctx, actor, boardID)
	if err != nil {
		return err
	}
	return fn(b)
}

// Subscribe opens a change stream for the board after checking read access.
// The subscription is registered under the board's lock, so a concurrent
// deletion is either refused here or reaches the stream as its last event.
func (s *BoardService) Subscribe(ctx context.Context, actor access.Actor, boardID string) (ports.Subscription, error) {
	release, err := s.acquire(ctx, boardID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.visible(ctx, actor, boardID); err != nil {
		return nil, err
	}
	return s.propagator.Subscribe(ctx, boardID)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
}

func committed[T any](b *board.Board, v T) *ports.Committed[T] {
	return &ports.Committed[T]{Ack: *ack(b), Value: v}
}

func ack(b *board.Board) *ports.Ack {
	return &ports.Ack{BoardID: b.ID, Version: b.Version}
}

// mergeSettings returns base with patch applied key by key. A nil value in
// patch removes the key.
func mergeSettings(base, patch map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
