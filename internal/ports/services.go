package ports

import (
	"context"

	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/domain/board"
)

// BoardService defines the service port for board aggregate operations.
// Implemented by the application layer; called by inbound adapters (handlers).
//
// Every mutation serializes on the board, authorizes the actor, applies the
// change to a copy, persists it with a version check, and publishes a change
// event before returning. Boards the actor cannot see are reported with
// domain.Concealed so that existence does not leak.
type BoardService interface {
	// CreateBoard creates a board owned by actor with the default status
	// column and default group.
	// Returns domain.ErrValidation if the input fails validation.
	CreateBoard(ctx context.Context, actor access.Actor, in CreateBoardInput) (*board.Board, error)

	// GetBoard returns a snapshot of a board visible to actor.
	GetBoard(ctx context.Context, actor access.Actor, boardID string) (*board.Board, error)

	// ListBoards returns the boards actor owns or is a member of, newest first.
	ListBoards(ctx context.Context, actor access.Actor) ([]board.Board, error)

	// UpdateBoard merges the non-nil fields of patch into the board.
	UpdateBoard(ctx context.Context, actor access.Actor, boardID string, patch BoardPatch, opts ...MutationOption) (*board.Board, error)

	// DeleteBoard removes the board with all of its columns, groups, and items
	// and ends every subscription to it.
	DeleteBoard(ctx context.Context, actor access.Actor, boardID string, opts ...MutationOption) error

	// AddMember grants userID member access. Adding the owner is a no-op.
	AddMember(ctx context.Context, actor access.Actor, boardID, userID string, opts ...MutationOption) (*board.Board, error)

	// RemoveMember revokes userID's member access.
	// Returns domain.ErrInvalidOperation when userID is the owner.
	RemoveMember(ctx context.Context, actor access.Actor, boardID, userID string, opts ...MutationOption) (*board.Board, error)

	CreateColumn(ctx context.Context, actor access.Actor, boardID string, in ColumnInput, opts ...MutationOption) (*Committed[board.Column], error)
	UpdateColumn(ctx context.Context, actor access.Actor, boardID, columnID string, patch ColumnPatch, opts ...MutationOption) (*Committed[board.Column], error)

	// DeleteColumn removes the column. Item values stored under it are kept.
	DeleteColumn(ctx context.Context, actor access.Actor, boardID, columnID string, opts ...MutationOption) (*Ack, error)

	// ReorderColumns applies order, which must be a permutation of the
	// current column ids. Returns domain.ErrInvalidReorder otherwise.
	ReorderColumns(ctx context.Context, actor access.Actor, boardID string, order []string, opts ...MutationOption) (*board.Board, error)

	CreateGroup(ctx context.Context, actor access.Actor, boardID string, in GroupInput, opts ...MutationOption) (*Committed[board.Group], error)
	UpdateGroup(ctx context.Context, actor access.Actor, boardID, groupID string, patch GroupPatch, opts ...MutationOption) (*Committed[board.Group], error)

	// DeleteGroup removes the group and disposes of its items according to
	// policy. There is no default policy.
	DeleteGroup(ctx context.Context, actor access.Actor, boardID, groupID string, policy CascadePolicy, opts ...MutationOption) (*Ack, error)

	ReorderGroups(ctx context.Context, actor access.Actor, boardID string, order []string, opts ...MutationOption) (*board.Board, error)

	// CreateItem creates an item at the end of groupID.
	CreateItem(ctx context.Context, actor access.Actor, boardID string, in ItemInput, opts ...MutationOption) (*Committed[board.Item], error)

	// GetItem returns an item on a board visible to actor.
	GetItem(ctx context.Context, actor access.Actor, itemID string) (*Committed[board.Item], error)

	// ListItems returns the board's items ordered by creation time.
	ListItems(ctx context.Context, actor access.Actor, boardID string) ([]board.Item, error)

	// UpdateItem merges patch into the item. Values merge key by key.
	// Returns domain.ErrInvalidOperation when patch tries to change the group.
	UpdateItem(ctx context.Context, actor access.Actor, itemID string, patch ItemPatch, opts ...MutationOption) (*Committed[board.Item], error)

	DeleteItem(ctx context.Context, actor access.Actor, itemID string, opts ...MutationOption) (*Ack, error)

	// MoveItem moves the item into targetGroupID at position (nil appends).
	// Returns domain.ErrInvalidOperation when the target is on another board.
	MoveItem(ctx context.Context, actor access.Actor, itemID, targetGroupID string, position *int, opts ...MutationOption) (*Committed[board.Item], error)

	ReorderItemsWithinGroup(ctx context.Context, actor access.Actor, groupID string, order []string, opts ...MutationOption) (*Committed[board.Group], error)

	// WithReadLock runs fn against a snapshot taken while holding the board's
	// write lock. fn must not call back into the service for the same board.
	WithReadLock(ctx context.Context, actor access.Actor, boardID string, fn func(*board.Board) error) error

	// Subscribe opens a change stream for the board. Read access is checked
	// once, here.
	Subscribe(ctx context.Context, actor access.Actor, boardID string) (Subscription, error)
}

// CreateBoardInput carries the caller-supplied fields of a new board.
type CreateBoardInput struct {
	Title       string
	Description string
	Settings    map[string]any
}

// BoardPatch lists board fields to change; nil means "leave as is".
type BoardPatch struct {
	Title       *string
	Description *string
	Settings    map[string]any
}

// ColumnInput describes a new column. A nil Position appends.
type ColumnInput struct {
	Title    string
	Type     board.ColumnType
	Settings map[string]any
	Position *int
}

// ColumnPatch lists column fields to change; nil means "leave as is".
type ColumnPatch struct {
	Title    *string
	Type     *board.ColumnType
	Settings map[string]any
}

// GroupInput describes a new group. A nil Position appends.
type GroupInput struct {
	Title    string
	Position *int
}

// GroupPatch lists group fields to change; nil means "leave as is".
type GroupPatch struct {
	Title *string
}

// ItemInput describes a new item.
type ItemInput struct {
	GroupID     string
	Title       string
	Description string
	Values      map[string]board.Value
}

// ItemPatch lists item fields to change. GroupID is accepted only so it can
// be rejected: items change groups through MoveItem.
type ItemPatch struct {
	Title       *string
	Description *string
	Values      map[string]board.Value
	GroupID     *string
}

// CascadeMode selects what happens to a deleted group's items.
type CascadeMode string

const (
	CascadeDeleteItems CascadeMode = "delete_items"
	CascadeReassign    CascadeMode = "reassign"
)

// CascadePolicy is the explicit disposal rule for DeleteGroup.
type CascadePolicy struct {
	Mode          CascadeMode
	TargetGroupID string
}

// DeleteItems builds the policy that deletes the group's items with it.
func DeleteItems() CascadePolicy {
	return CascadePolicy{Mode: CascadeDeleteItems}
}

// Reassign builds the policy that appends the group's items to target.
func Reassign(target string) CascadePolicy {
	return CascadePolicy{Mode: CascadeReassign, TargetGroupID: target}
}

// Ack identifies the board version a mutation produced.
type Ack struct {
	BoardID string
	Version int64
}

// Committed pairs a mutated entity with the board version it belongs to.
type Committed[T any] struct {
	Ack
	Value T
}

// MutationOptions holds per-call mutation settings.
type MutationOptions struct {
	// ExpectedVersion, when set, must equal the board's current version.
	ExpectedVersion *int64
}

// MutationOption configures a single mutation.
type MutationOption func(*MutationOptions)

// IfVersion makes the mutation fail with domain.ErrVersionConflict unless the
// board is currently at version v.
func IfVersion(v int64) MutationOption {
	return func(o *MutationOptions) {
		o.ExpectedVersion = &v
	}
}

// ApplyMutationOptions folds opts into a MutationOptions value.
func ApplyMutationOptions(opts ...MutationOption) MutationOptions {
	var o MutationOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
