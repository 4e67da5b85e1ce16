// Package access decides what an actor may do to a board. Decisions are pure
// functions of the actor and the board's owner and member set.
package access

import (
	"fmt"
	"slices"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/board"
)

// Capability is an action class checked before every board operation.
type Capability string

const (
	Read          Capability = "read"
	Write         Capability = "write"
	ManageMembers Capability = "manage_members"
	DeleteBoard   Capability = "delete_board"
)

// String implements fmt.Stringer.
func (c Capability) String() string {
	return string(c)
}

// Actor is the verified caller of an operation.
type Actor struct {
	ID    string
	Roles []string
}

// HasRole reports whether the actor carries role.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// Elevation decides whether a non-owner member is granted a capability beyond
// Read and Write.
type Elevation func(actor Actor, b *board.Board, c Capability) bool

// NoElevation grants nothing beyond the member baseline.
func NoElevation(Actor, *board.Board, Capability) bool { return false }

// RoleElevation grants ManageMembers and DeleteBoard to members carrying any
// of roles.
func RoleElevation(roles ...string) Elevation {
	return func(actor Actor, _ *board.Board, c Capability) bool {
		if c != ManageMembers && c != DeleteBoard {
			return false
		}
		return slices.ContainsFunc(roles, actor.HasRole)
	}
}

// Guard authorizes actors against boards.
type Guard struct {
	elevate Elevation
}

// NewGuard creates a Guard. A nil elevation behaves like NoElevation.
func NewGuard(elevate Elevation) *Guard {
	if elevate == nil {
		elevate = NoElevation
	}
	return &Guard{elevate: elevate}
}

// Authorize returns nil when actor may exercise c on b. Owners hold every
// capability, members hold Read and Write plus whatever the elevation grants,
// and everyone else is denied. The error wraps domain.ErrUnauthorized.
func (g *Guard) Authorize(actor Actor, b *board.Board, c Capability) error {
	if actor.ID == "" {
		return fmt.Errorf("anonymous actor: %w", domain.ErrUnauthorized)
	}
	if actor.ID == b.OwnerID {
		return nil
	}
	if !b.IsMember(actor.ID) {
		return fmt.Errorf("actor %q is not a member of board %q: %w", actor.ID, b.ID, domain.ErrUnauthorized)
	}

	switch c {
	case Read, Write:
		return nil
	default:
		if g.elevate(actor, b, c) {
			return nil
		}
		return fmt.Errorf("actor %q lacks %s on board %q: %w", actor.ID, c, b.ID, domain.ErrUnauthorized)
	}
}

// CanSee reports whether actor may read b at all. Callers use it to collapse
// "missing" and "not visible" into one response.
func (g *Guard) CanSee(actor Actor, b *board.Board) bool {
	return g.Authorize(actor, b, Read) == nil
}
