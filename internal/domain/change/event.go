// Package change defines the notifications emitted after a board mutation is
// committed. Events identify what changed; they never carry entity payloads.
package change

import "time"

// Op names the committed operation.
type Op string

const (
	BoardCreated     Op = "board.created"
	BoardUpdated     Op = "board.updated"
	BoardDeleted     Op = "board.deleted"
	MemberAdded      Op = "member.added"
	MemberRemoved    Op = "member.removed"
	ColumnCreated    Op = "column.created"
	ColumnUpdated    Op = "column.updated"
	ColumnDeleted    Op = "column.deleted"
	ColumnsReordered Op = "columns.reordered"
	GroupCreated     Op = "group.created"
	GroupUpdated     Op = "group.updated"
	GroupDeleted     Op = "group.deleted"
	GroupsReordered  Op = "groups.reordered"
	ItemCreated      Op = "item.created"
	ItemUpdated      Op = "item.updated"
	ItemDeleted      Op = "item.deleted"
	ItemMoved        Op = "item.moved"
	ItemsReordered   Op = "items.reordered"
)

// Event reports one committed mutation. Version is the board version after
// the mutation, so events for a board are totally ordered by it.
type Event struct {
	BoardID    string    `json:"boardId"`
	Op         Op        `json:"op"`
	EntityIDs  []string  `json:"entityIds"`
	Version    int64     `json:"version"`
	ActorID    string    `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Terminal reports whether no further events can follow for the board.
func (e Event) Terminal() bool {
	return e.Op == BoardDeleted
}

// CloseReason tells a subscriber why its stream ended.
type CloseReason string

const (
	ClosedByUnsubscribe CloseReason = "unsubscribed"
	ClosedBoardDeleted  CloseReason = "board_deleted"
	ClosedLagged        CloseReason = "lagged"
	ClosedShutdown      CloseReason = "shutdown"
)
