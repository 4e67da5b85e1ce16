package app

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/domain/change"
	"github.com/Aidzix/Monday/internal/domain/ordering"
	"github.com/Aidzix/Monday/internal/ports"
)

// CreateColumn adds a column at in.Position, or at the end.
func (s *BoardService) CreateColumn(ctx context.Context, actor access.Actor, boardID string, in ports.ColumnInput, opts ...ports.MutationOption) (*ports.Committed[board.Column], error) {
	col := board.Column{
		ID:       s.newID(),
		Title:    strings.TrimSpace(in.Title),
		Type:     in.Type,
		Settings: maps.Clone(in.Settings),
	}
	if err := col.Validate(); err != nil {
		return nil, err
	}

	b, err := s.mutate(ctx, actor, mutation{
		name:       "CreateColumn",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			cols, err := insertByID(b.Columns, col, col.ID, b.ColumnIDs(), in.Position)
			if err != nil {
				return "", nil, err
			}
			b.Columns = cols
			return change.ColumnCreated, []string{col.ID}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return committed(b, col), nil
}

// UpdateColumn changes a column's title, type or settings. Settings merge key
// by key. Item values are never touched, even when the type changes.
func (s *BoardService) UpdateColumn(ctx context.Context, actor access.Actor, boardID, columnID string, patch ports.ColumnPatch, opts ...ports.MutationOption) (*ports.Committed[board.Column], error) {
	var col board.Column
	b, err := s.mutate(ctx, actor, mutation{
		name:       "UpdateColumn",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			idx := b.ColumnIndex(columnID)
			if idx < 0 {
				return "", nil, notFound("column", columnID)
			}
			c := &b.Columns[idx]
			if patch.Title != nil {
				c.Title = strings.TrimSpace(*patch.Title)
			}
			if patch.Type != nil {
				c.Type = *patch.Type
			}
			if patch.Settings != nil {
				c.Settings = mergeSettings(c.Settings, patch.Settings)
			}
			if err := c.Validate(); err != nil {
				return "", nil, err
			}
			col = *c
			return change.ColumnUpdated, []string{columnID}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return committed(b, col), nil
}

// DeleteColumn removes the column definition. Values items hold under the
// column id stay in place.
func (s *BoardService) DeleteColumn(ctx context.Context, actor access.Actor, boardID, columnID string, opts ...ports.MutationOption) (*ports.Ack, error) {
	b, err := s.mutate(ctx, actor, mutation{
		name:       "DeleteColumn",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			idx := b.ColumnIndex(columnID)
			if idx < 0 {
				return "", nil, notFound("column", columnID)
			}
			b.Columns = slices.Delete(b.Columns, idx, idx+1)
			return change.ColumnDeleted, []string{columnID}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return ack(b), nil
}

// ReorderColumns puts the columns in the given order.
func (s *BoardService) ReorderColumns(ctx context.Context, actor access.Actor, boardID string, order []string, opts ...ports.MutationOption) (*board.Board, error) {
	return s.mutate(ctx, actor, mutation{
		name:       "ReorderColumns",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			cols, err := ordering.Arrange(b.Columns, func(c board.Column) string { return c.ID }, order)
			if err != nil {
				return "", nil, err
			}
			b.Columns = cols
			return change.ColumnsReordered, slices.Clone(order), nil
		},
	})
}

// CreateGroup adds an empty group at in.Position, or at the end.
func (s *BoardService) CreateGroup(ctx context.Context, actor access.Actor, boardID string, in ports.GroupInput, opts ...ports.MutationOption) (*ports.Committed[board.Group], error) {
	g := board.Group{ID: s.newID(), Title: strings.TrimSpace(in.Title), ItemIDs: []string{}}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	b, err := s.mutate(ctx, actor, mutation{
		name:       "CreateGroup",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			groups, err := insertByID(b.Groups, g, g.ID, b.GroupIDs(), in.Position)
			if err != nil {
				return "", nil, err
			}
			b.Groups = groups
			return change.GroupCreated, []string{g.ID}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return committed(b, g), nil
}

// UpdateGroup renames a group.
func (s *BoardService) UpdateGroup(ctx context.Context, actor access.Actor, boardID, groupID string, patch ports.GroupPatch, opts ...ports.MutationOption) (*ports.Committed[board.Group], error) {
	var g board.Group
	b, err := s.mutate(ctx, actor, mutation{
		name:       "UpdateGroup",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			idx := b.GroupIndex(groupID)
			if idx < 0 {
				return "", nil, notFound("group", groupID)
			}
			if patch.Title != nil {
				b.Groups[idx].Title = strings.TrimSpace(*patch.Title)
			}
			if err := b.Groups[idx].Validate(); err != nil {
				return "", nil, err
			}
			g = b.Groups[idx]
			return change.GroupUpdated, []string{groupID}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return committed(b, g), nil
}

// DeleteGroup removes a group and disposes of its items as policy says:
// CascadeDeleteItems deletes them, CascadeReassign appends them to the target
// group keeping their relative order.
func (s *BoardService) DeleteGroup(ctx context.Context, actor access.Actor, boardID, groupID string, policy ports.CascadePolicy, opts ...ports.MutationOption) (*ports.Ack, error) {
	switch policy.Mode {
	case ports.CascadeDeleteItems:
	case ports.CascadeReassign:
		if policy.TargetGroupID == "" {
			return nil, domain.InvalidOperation("reassigning items requires a target group")
		}
		if policy.TargetGroupID == groupID {
			return nil, domain.InvalidOperation("cannot reassign items of group %q to itself", groupID)
		}
	default:
		return nil, domain.InvalidOperation("deleting a group requires a cascade policy, got %q", policy.Mode)
	}

	b, err := s.mutate(ctx, actor, mutation{
		name:       "DeleteGroup",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, now time.Time) (change.Op, []string, error) {
			idx := b.GroupIndex(groupID)
			if idx < 0 {
				return "", nil, notFound("group", groupID)
			}
			doomed := b.Groups[idx]
			affected := []string{groupID}

			if policy.Mode == ports.CascadeReassign {
				target := b.GroupIndex(policy.TargetGroupID)
				if target < 0 {
					return "", nil, domain.InvalidOperation("reassignment target group %q does not exist", policy.TargetGroupID)
				}
				for _, itemID := range doomed.ItemIDs {
					it := b.Items[itemID]
					it.GroupID = policy.TargetGroupID
					it.UpdatedBy = actor.ID
					it.UpdatedAt = now
					b.Items[itemID] = it
				}
				b.Groups[target].ItemIDs = append(b.Groups[target].ItemIDs, doomed.ItemIDs...)
				affected = append(affected, policy.TargetGroupID)
			} else {
				for _, itemID := range doomed.ItemIDs {
					delete(b.Items, itemID)
				}
			}

			b.Groups = slices.Delete(b.Groups, idx, idx+1)
			return change.GroupDeleted, append(affected, doomed.ItemIDs...), nil
		},
	})
	if err != nil {
		return nil, err
	}
	return ack(b), nil
}

// ReorderGroups puts the groups in the given display order.
func (s *BoardService) ReorderGroups(ctx context.Context, actor access.Actor, boardID string, order []string, opts ...ports.MutationOption) (*board.Board, error) {
	return s.mutate(ctx, actor, mutation{
		name:       "ReorderGroups",
		boardID:    boardID,
		capability: access.Write,
		opts:       opts,
		apply: func(b *board.Board, _ time.Time) (change.Op, []string, error) {
			groups, err := ordering.Arrange(b.Groups, func(g board.Group) string { return g.ID }, order)
			if err != nil {
				return "", nil, err
			}
			b.Groups = groups
			return change.GroupsReordered, slices.Clone(order), nil
		},
	})
}

// insertByID places v, identified by id, into list at position using the
// id projection ids for the ordering rules.
func insertByID[T any](list []T, v T, id string, ids []string, position *int) ([]T, error) {
	ids, err := ordering.InsertAt(ids, id, position)
	if err != nil {
		return nil, err
	}
	return slices.Insert(slices.Clone(list), slices.Index(ids, id), v), nil
}
