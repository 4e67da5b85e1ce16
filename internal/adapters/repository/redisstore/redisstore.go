// Package redisstore provides a board repository backed by Redis. Each board
// is one JSON document; membership and entity lookups are kept in secondary
// keys updated in the same MULTI/EXEC as the document.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/Aidzix/Monday/internal/adapters/repository"
	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.BoardRepository = (*Repository)(nil)
	_ ports.HealthChecker   = (*Repository)(nil)
)

// Repository is a Redis-backed ports.BoardRepository.
//
// Key layout under prefix:
//
//	{prefix}doc:{boardID}       JSON document
//	{prefix}member:{userID}     set of board ids the user owns or joined
//	{prefix}entities            hash of column/group/item id -> board id
//	{prefix}lease:{boardID}     mutation lease token, see Leases
type Repository struct {
	rdb    redis.UniversalClient
	prefix string
}

// New creates a repository using rdb. All keys are namespaced by prefix.
func New(rdb redis.UniversalClient, prefix string) *Repository {
	return &Repository{rdb: rdb, prefix: prefix}
}

func (r *Repository) Load(ctx context.Context, boardID string) (*board.Board, error) {
	raw, err := r.rdb.Get(ctx, r.docKey(boardID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("board %q: %w", boardID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("loading board", err)
	}
	return repository.Unmarshal(raw)
}

func (r *Repository) Save(ctx context.Context, b *board.Board, expectedVersion int64) error {
	raw, err := repository.Marshal(b)
	if err != nil {
		return err
	}
	key := r.docKey(b.ID)

	txf := func(tx *redis.Tx) error {
		current, err := r.current(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := checkVersion(b.ID, current, expectedVersion); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if current != nil {
				r.unindex(ctx, pipe, current)
			}
			pipe.Set(ctx, key, raw, 0)
			r.index(ctx, pipe, b)
			return nil
		})
		return err
	}

	return r.watch(ctx, txf, key, b.ID)
}

func (r *Repository) Delete(ctx context.Context, boardID string, expectedVersion int64) error {
	key := r.docKey(boardID)

	txf := func(tx *redis.Tx) error {
		current, err := r.current(ctx, tx, key)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("board %q: %w", boardID, domain.ErrNotFound)
		}
		if current.Version != expectedVersion {
			return fmt.Errorf("board %q at version %d, expected %d: %w",
				boardID, current.Version, expectedVersion, domain.ErrVersionConflict)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			r.unindex(ctx, pipe, current)
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}

	return r.watch(ctx, txf, key, boardID)
}

func (r *Repository) ListForMember(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, r.memberKey(userID)).Result()
	if err != nil {
		return nil, unavailable("listing boards", err)
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *Repository) Locate(ctx context.Context, entityID string) (string, error) {
	boardID, err := r.rdb.HGet(ctx, r.entitiesKey(), entityID).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("entity %q: %w", entityID, domain.ErrNotFound)
	}
	if err != nil {
		return "", unavailable("locating entity", err)
	}
	return boardID, nil
}

// Name implements ports.HealthChecker.
func (r *Repository) Name() string {
	return "board-store"
}

// HealthCheck implements ports.HealthChecker by pinging Redis.
func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// watch runs txf under WATCH on key. A concurrent write to key between the
// read and EXEC surfaces as a version conflict.
func (r *Repository) watch(ctx context.Context, txf func(*redis.Tx) error, key, boardID string) error {
	err := r.rdb.Watch(ctx, txf, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("board %q changed concurrently: %w", boardID, domain.ErrVersionConflict)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrValidation):
		return err
	default:
		return unavailable("writing board", err)
	}
}

// current reads the stored board inside a transaction, or nil when absent.
func (r *Repository) current(ctx context.Context, tx *redis.Tx, key string) (*board.Board, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return repository.Unmarshal(raw)
}

func (r *Repository) index(ctx context.Context, pipe redis.Pipeliner, b *board.Board) {
	for _, userID := range members(b) {
		pipe.SAdd(ctx, r.memberKey(userID), b.ID)
	}
	ids := b.EntityIDs()
	if len(ids) == 0 {
		return
	}
	fields := make([]any, 0, 2*len(ids))
	for _, id := range ids {
		fields = append(fields, id, b.ID)
	}
	pipe.HSet(ctx, r.entitiesKey(), fields...)
}

func (r *Repository) unindex(ctx context.Context, pipe redis.Pipeliner, b *board.Board) {
	for _, userID := range members(b) {
		pipe.SRem(ctx, r.memberKey(userID), b.ID)
	}
	if ids := b.EntityIDs(); len(ids) > 0 {
		pipe.HDel(ctx, r.entitiesKey(), ids...)
	}
}

func (r *Repository) docKey(boardID string) string  { return r.prefix + "doc:" + boardID }
func (r *Repository) memberKey(userID string) string { return r.prefix + "member:" + userID }
func (r *Repository) entitiesKey() string            { return r.prefix + "entities" }

func members(b *board.Board) []string {
	return append([]string{b.OwnerID}, b.MemberIDs...)
}

func checkVersion(boardID string, current *board.Board, expected int64) error {
	switch {
	case current == nil && expected != 0:
		return fmt.Errorf("board %q: %w", boardID, domain.ErrNotFound)
	case current != nil && expected == 0:
		return fmt.Errorf("board %q already exists: %w", boardID, domain.ErrVersionConflict)
	case current != nil && current.Version != expected:
		return fmt.Errorf("board %q at version %d, expected %d: %w",
			boardID, current.Version, expected, domain.ErrVersionConflict)
	}
	return nil
}

// unavailable marks err as a backend failure. The caller's own cancellation
// or deadline passes through unmarked so it never counts against the store.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
