// Package memory provides an in-process board repository. Boards are deep
// copied on the way in and out so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.BoardRepository = (*Repository)(nil)
	_ ports.HealthChecker   = (*Repository)(nil)
)

// Repository is a map-backed ports.BoardRepository.
type Repository struct {
	mu       sync.RWMutex
	boards   map[string]*board.Board
	entities map[string]string // column/group/item id -> board id
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{
		boards:   make(map[string]*board.Board),
		entities: make(map[string]string),
	}
}

func (r *Repository) Load(_ context.Context, boardID string) (*board.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.boards[boardID]
	if !ok {
		return nil, fmt.Errorf("board %q: %w", boardID, domain.ErrNotFound)
	}
	return b.Clone(), nil
}

func (r *Repository) Save(_ context.Context, b *board.Board, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.boards[b.ID]
	switch {
	case expectedVersion == 0 && exists:
		return fmt.Errorf("board %q already exists: %w", b.ID, domain.ErrVersionConflict)
	case expectedVersion != 0 && !exists:
		return fmt.Errorf("board %q: %w", b.ID, domain.ErrNotFound)
	case exists && current.Version != expectedVersion:
		return fmt.Errorf("board %q at version %d, expected %d: %w",
			b.ID, current.Version, expectedVersion, domain.ErrVersionConflict)
	}

	if exists {
		r.unindex(current)
	}
	stored := b.Clone()
	r.boards[b.ID] = stored
	for _, id := range stored.EntityIDs() {
		r.entities[id] = stored.ID
	}
	return nil
}

func (r *Repository) Delete(_ context.Context, boardID string, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.boards[boardID]
	if !ok {
		return fmt.Errorf("board %q: %w", boardID, domain.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("board %q at version %d, expected %d: %w",
			boardID, current.Version, expectedVersion, domain.ErrVersionConflict)
	}

	r.unindex(current)
	delete(r.boards, boardID)
	return nil
}

func (r *Repository) ListForMember(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, b := range r.boards {
		if b.IsMember(userID) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *Repository) Locate(_ context.Context, entityID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	boardID, ok := r.entities[entityID]
	if !ok {
		return "", fmt.Errorf("entity %q: %w", entityID, domain.ErrNotFound)
	}
	return boardID, nil
}

// Name implements ports.HealthChecker.
func (r *Repository) Name() string {
	return "board-store"
}

// HealthCheck implements ports.HealthChecker. The in-process store is always
// healthy.
func (r *Repository) HealthCheck(context.Context) error {
	return nil
}

func (r *Repository) unindex(b *board.Board) {
	for _, id := range b.EntityIDs() {
		if r.entities[id] == b.ID {
			delete(r.entities, id)
		}
	}
}
