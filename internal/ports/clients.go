package ports

import (
	"context"

	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/domain/change"
	"github.com/Aidzix/Monday/internal/domain/user"
)

// BoardRepository persists whole board aggregates atomically.
// Implemented by the repository adapters; called by the application layer.
type BoardRepository interface {
	// Load returns the stored board. Returns domain.ErrNotFound if absent.
	// The returned board is never shared with the repository.
	Load(ctx context.Context, boardID string) (*board.Board, error)

	// Save stores b if the stored version equals expectedVersion. An
	// expectedVersion of 0 means the board must not exist yet. b.Version is
	// the version being written. Returns domain.ErrVersionConflict on mismatch.
	Save(ctx context.Context, b *board.Board, expectedVersion int64) error

	// Delete removes the board if the stored version equals expectedVersion.
	// Returns domain.ErrNotFound if absent, domain.ErrVersionConflict on mismatch.
	Delete(ctx context.Context, boardID string, expectedVersion int64) error

	// ListForMember returns ids of boards userID owns or is a member of.
	ListForMember(ctx context.Context, userID string) ([]string, error)

	// Locate returns the id of the board that holds the column, group, or item
	// entityID. Returns domain.ErrNotFound if no board holds it.
	Locate(ctx context.Context, entityID string) (string, error)
}

// BoardLocker serializes mutations of one board across engine instances that
// share a repository. Implemented by the Redis lease adapter; called by the
// application layer after the in-process lock is held.
type BoardLocker interface {
	// Acquire blocks until boardID's lease is held or ctx is done. A passed
	// deadline returns domain.ErrBusy. The release func must be called once.
	Acquire(ctx context.Context, boardID string) (release func(), err error)
}

// ChangePropagator fans committed change events out to board subscribers.
type ChangePropagator interface {
	// Publish delivers e to the board's current subscribers. Slow
	// subscribers are disconnected rather than blocking the publisher.
	Publish(ctx context.Context, e change.Event) error

	// Subscribe opens a stream of events for boardID.
	Subscribe(ctx context.Context, boardID string) (Subscription, error)
}

// Subscription is one subscriber's view of a board's change stream.
type Subscription interface {
	// Events yields events in version order. It is closed when the
	// subscription ends for any reason.
	Events() <-chan change.Event

	// Reason reports why Events was closed. Valid only after it closes.
	Reason() change.CloseReason

	// Close ends the subscription. Safe to call more than once.
	Close()
}

// IdentityClient reads users from the external identity service.
// Implemented by the ACL adapter; called by the auth middleware.
type IdentityClient interface {
	// GetUser returns a single user by id.
	// Returns domain.ErrNotFound if the user does not exist.
	GetUser(ctx context.Context, userID string) (*user.User, error)
}
