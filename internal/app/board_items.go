package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/domain/change"
	"github.com/Aidzix/Monday/internal/domain/ordering"
	"github.com/Aidzix/Monday/internal/ports"
)

// CreateItem creates an item at the end of in.GroupID.
func (s *BoardService) CreateItem(ctx context.Context, actor access.Actor, boardID string, in ports.ItemInput, opts ...ports.MutationOption) (*ports.Committed[board.Item], error) {
	draft := board.Item{
		ID:          s.newID(),
		GroupID:     in.GroupID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Values:      cloneValues(in.Values),
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var it board.Item
	b, err := s.mutate(ctx, actor, mutation{
		name:       "CreateItem",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, now time.Time) (change.Op, []string, error) {
			idx := b.GroupIndex(in.GroupID)
			if idx < 0 {
				return "", nil, notFound("group", in.GroupID)
			}
			seq, err := ordering.InsertAt(b.Groups[idx].ItemIDs, draft.ID, nil)
			if err != nil {
				return "", nil, err
			}
			b.Groups[idx].ItemIDs = seq

			it = draft
			it.CreatedBy, it.UpdatedBy = actor.ID, actor.ID
			it.CreatedAt, it.UpdatedAt = now, now
			b.Items[it.ID] = it
			return change.ItemCreated, []string{it.ID, in.GroupID}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return committed(b, it.Clone()), nil
}

// GetItem returns an item on a board visible to actor.
func (s *BoardService) GetItem(ctx context.Context, actor access.Actor, itemID string) (*ports.Committed[board.Item], error) {
	boardID, err := s.repo.Locate(ctx, itemID)
	if err != nil {
		return nil, hideBoard(err, "item", itemID)
	}
	b, err := s.visible(ctx, actor, boardID)
	if err != nil {
		return nil, hideBoard(err, "item", itemID)
	}
	it, ok := b.Items[itemID]
	if !ok {
		return nil, notFound("item", itemID)
	}
	return committed(b, it), nil
}

// ListItems returns the board's items ordered by creation time.
func (s *BoardService) ListItems(ctx context.Context, actor access.Actor, boardID string) ([]board.Item, error) {
	b, err := s.visible(ctx, actor, boardID)
	if err != nil {
		return nil, err
	}
	return b.SortedItems(), nil
}

// UpdateItem merges patch into the item. Values merge key by key; stored
// values for columns not named in the patch are kept.
func (s *BoardService) UpdateItem(ctx context.Context, actor access.Actor, itemID string, patch ports.ItemPatch, opts ...ports.MutationOption) (*ports.Committed[board.Item], error) {
	if patch.GroupID != nil {
		return nil, domain.InvalidOperation("items change groups through move, not update")
	}

	var it board.Item
	b, err := s.mutateItem(ctx, actor, "UpdateItem", itemID, opts, func(b *board.Board, cur board.Item, now time.Time) (change.Op, []string, error) {
		if patch.Title != nil {
			cur.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			cur.Description = *patch.Description
		}
		if len(patch.Values) > 0 {
			if cur.Values == nil {
				cur.Values = make(map[string]board.Value, len(patch.Values))
			}
			for colID, v := range cloneValues(patch.Values) {
				cur.Values[colID] = v
			}
		}
		if err := cur.Validate(); err != nil {
			return "", nil, err
		}
		cur.UpdatedBy = actor.ID
		cur.UpdatedAt = now
		b.Items[itemID] = cur
		it = cur
		return change.ItemUpdated, []string{itemID}, nil
	})
	if err != nil {
		return nil, err
	}
	return committed(b, it.Clone()), nil
}

// DeleteItem deletes the item and drops it from its group.
func (s *BoardService) DeleteItem(ctx context.Context, actor access.Actor, itemID string, opts ...ports.MutationOption) (*ports.Ack, error) {
	b, err := s.mutateItem(ctx, actor, "DeleteItem", itemID, opts, func(b *board.Board, cur board.Item, _ time.Time) (change.Op, []string, error) {
		idx := b.GroupIndex(cur.GroupID)
		if idx < 0 {
			return "", nil, fmt.Errorf("item %q points at missing group %q", itemID, cur.GroupID)
		}
		seq, err := ordering.Remove(b.Groups[idx].ItemIDs, itemID)
		if err != nil {
			return "", nil, err
		}
		b.Groups[idx].ItemIDs = seq
		delete(b.Items, itemID)
		return change.ItemDeleted, []string{itemID, cur.GroupID}, nil
	})
	if err != nil {
		return nil, err
	}
	return ack(b), nil
}

// MoveItem takes the item out of its group and inserts it into targetGroupID
// at position, counted in the target sequence after the removal. A nil
// position appends. Moving within the same group repositions the item.
func (s *BoardService) MoveItem(ctx context.Context, actor access.Actor, itemID, targetGroupID string, position *int, opts ...ports.MutationOption) (*ports.Committed[board.Item], error) {
	var it board.Item
	b, err := s.mutateItem(ctx, actor, "MoveItem", itemID, opts, func(b *board.Board, cur board.Item, now time.Time) (change.Op, []string, error) {
		dst := b.GroupIndex(targetGroupID)
		if dst < 0 {
			return "", nil, s.foreignGroup(ctx, actor, b.ID, targetGroupID)
		}
		src := b.GroupIndex(cur.GroupID)
		if src < 0 {
			return "", nil, fmt.Errorf("item %q points at missing group %q", itemID, cur.GroupID)
		}

		remaining, err := ordering.Remove(b.Groups[src].ItemIDs, itemID)
		if err != nil {
			return "", nil, err
		}
		b.Groups[src].ItemIDs = remaining

		seq, err := ordering.InsertAt(b.Groups[dst].ItemIDs, itemID, position)
		if err != nil {
			return "", nil, err
		}
		b.Groups[dst].ItemIDs = seq

		affected := []string{itemID, cur.GroupID}
		if targetGroupID != cur.GroupID {
			affected = append(affected, targetGroupID)
		}
		cur.GroupID = targetGroupID
		cur.UpdatedBy = actor.ID
		cur.UpdatedAt = now
		b.Items[itemID] = cur
		it = cur
		return change.ItemMoved, affected, nil
	})
	if err != nil {
		return nil, err
	}
	return committed(b, it.Clone()), nil
}

// ReorderItemsWithinGroup applies order to the group's item sequence.
func (s *BoardService) ReorderItemsWithinGroup(ctx context.Context, actor access.Actor, groupID string, order []string, opts ...ports.MutationOption) (*ports.Committed[board.Group], error) {
	boardID, err := s.repo.Locate(ctx, groupID)
	if err != nil {
		return nil, hideBoard(err, "group", groupID)
	}

	var g board.Group
	b, err := s.mutate(ctx, actor, mutation{
		name:       "ReorderItemsWithinGroup",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			idx := b.GroupIndex(groupID)
			if idx < 0 {
				return "", nil, notFound("group", groupID)
			}
			seq, err := ordering.Reorder(b.Groups[idx].ItemIDs, order)
			if err != nil {
				return "", nil, err
			}
			b.Groups[idx].ItemIDs = seq
			g = b.Groups[idx]
			return change.ItemsReordered, []string{groupID}, nil
		},
	})
	if err != nil {
		return nil, hideBoard(err, "group", groupID)
	}
	return committed(b, g), nil
}

// mutateItem finds the board holding itemID and runs apply with the item's
// current state under that board's lock. The item is looked up again after
// the lock is taken since it may have been deleted in the meantime.
func (s *BoardService) mutateItem(ctx context.Context, actor access.Actor, name, itemID string, opts []ports.MutationOption,
	apply func(b *board.Board, cur board.Item, now time.Time) (change.Op, []string, error),
) (*board.Board, error) {
	boardID, err := s.repo.Locate(ctx, itemID)
	if err != nil {
		return nil, hideBoard(err, "item", itemID)
	}

	b, err := s.mutate(ctx, actor, mutation{
		name:       name,
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, now time.Time) (change.Op, []string, error) {
			cur, ok := b.Items[itemID]
			if !ok {
				return "", nil, notFound("item", itemID)
			}
			return apply(b, cur, now)
		},
	})
	if err != nil {
		return nil, hideBoard(err, "item", itemID)
	}
	return b, nil
}

// foreignGroup explains why groupID is not on boardID. A group on another
// board the actor can read is an invalid target; one on a board hidden from
// the actor is reported exactly like a group that does not exist.
func (s *BoardService) foreignGroup(ctx context.Context, actor access.Actor, boardID, groupID string) error {
	owner, err := s.repo.Locate(ctx, groupID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFound("group", groupID)
	case err != nil:
		return err
	case owner == boardID:
		return notFound("group", groupID)
	}

	other, err := s.repo.Load(ctx, owner)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFound("group", groupID)
	case err != nil:
		return err
	case !s.guard.CanSee(actor, other):
		return notFound("group", groupID)
	}
	return domain.InvalidOperation("group %q belongs to another board", groupID)
}

// hideBoard rewrites a concealed-board error as a plain not-found for the
// entity the caller addressed, so that neither the board nor its existence is
// revealed through an entity id.
func hideBoard(err error, kind, id string) error {
	var concealed *domain.ConcealedError
	if errors.As(err, &concealed) {
		return notFound(kind, id)
	}
	return err
}

func cloneValues(in map[string]board.Value) map[string]board.Value {
	if in == nil {
		return nil
	}
	item := board.Item{Values: in}.Clone()
	return item.Values
}
