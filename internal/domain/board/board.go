// Package board holds the board aggregate: a board with its ordered columns,
// ordered groups, and the items those groups index. The whole aggregate is
// one consistency unit; callers mutate a Clone and swap it in only after
// CheckIntegrity passes.
package board

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Aidzix/Monday/internal/domain"
)

// Default structure for newly created boards.
const (
	DefaultColumnTitle = "Status"
	DefaultGroupTitle  = "Main Group"
)

// DefaultStatusOptions are the labels offered by the default status column.
var DefaultStatusOptions = []string{"To Do", "In Progress", "Done"}

// Board is the aggregate root. OwnerID is set at creation and never changes;
// the owner is implicitly a member and is never stored in MemberIDs.
type Board struct {
	ID          string
	Title       string
	Description string
	OwnerID     string
	MemberIDs   []string
	Columns     []Column
	Groups      []Group
	Items       map[string]Item
	Settings    map[string]any
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Group is an ordered index of item ids. Item.GroupID is authoritative; a
// group's ItemIDs are kept in lockstep with it.
type Group struct {
	ID      string
	Title   string
	ItemIDs []string
}

// Item is a row on the board. Values are keyed by column id and may refer to
// columns that no longer exist.
type Item struct {
	ID          string
	GroupID     string
	Title       string
	Description string
	Values      map[string]Value
	CreatedBy   string
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New builds a board owned by ownerID with the default status column and the
// default empty group.
func New(id, ownerID, title, description string, settings map[string]any, columnID, groupID string, now time.Time) *Board {
	return &Board{
		ID:          id,
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		MemberIDs:   []string{},
		Columns: []Column{{
			ID:       columnID,
			Title:    DefaultColumnTitle,
			Type:     ColumnStatus,
			Settings: map[string]any{"options": slices.Clone(DefaultStatusOptions)},
		}},
		Groups:    []Group{{ID: groupID, Title: DefaultGroupTitle, ItemIDs: []string{}}},
		Items:     map[string]Item{},
		Settings:  maps.Clone(settings),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the board-level fields.
func (b *Board) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(b.Title) == "" {
		fields["title"] = domain.MsgRequired
	}
	if strings.TrimSpace(b.OwnerID) == "" {
		fields["ownerId"] = domain.MsgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// IsMember reports whether userID is the owner or a listed member.
func (b *Board) IsMember(userID string) bool {
	return userID != "" && (userID == b.OwnerID || slices.Contains(b.MemberIDs, userID))
}

// ColumnIndex returns the position of the column with id, or -1.
func (b *Board) ColumnIndex(id string) int {
	return slices.IndexFunc(b.Columns, func(c Column) bool { return c.ID == id })
}

// GroupIndex returns the position of the group with id, or -1.
func (b *Board) GroupIndex(id string) int {
	return slices.IndexFunc(b.Groups, func(g Group) bool { return g.ID == id })
}

// ColumnIDs returns column ids in board order.
func (b *Board) ColumnIDs() []string {
	ids := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		ids[i] = c.ID
	}
	return ids
}

// GroupIDs returns group ids in board order.
func (b *Board) GroupIDs() []string {
	ids := make([]string, len(b.Groups))
	for i, g := range b.Groups {
		ids[i] = g.ID
	}
	return ids
}

// EntityIDs returns every column, group, and item id on the board.
func (b *Board) EntityIDs() []string {
	ids := make([]string, 0, len(b.Columns)+len(b.Groups)+len(b.Items))
	ids = append(ids, b.ColumnIDs()...)
	ids = append(ids, b.GroupIDs()...)
	for id := range b.Items {
		ids = append(ids, id)
	}
	slices.Sort(ids[len(b.Columns)+len(b.Groups):])
	return ids
}

// HasEntity reports whether id names a column, group, or item on the board.
func (b *Board) HasEntity(id string) bool {
	if _, ok := b.Items[id]; ok {
		return true
	}
	return b.ColumnIndex(id) >= 0 || b.GroupIndex(id) >= 0
}

// SortedItems returns the items ordered by creation time, then id.
func (b *Board) SortedItems() []Item {
	items := slices.Collect(maps.Values(b.Items))
	slices.SortFunc(items, func(a, c Item) int {
		if n := a.CreatedAt.Compare(c.CreatedAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID, c.ID)
	})
	return items
}

// Clone returns a deep copy that shares no mutable state with b.
func (b *Board) Clone() *Board {
	out := *b
	out.MemberIDs = slices.Clone(b.MemberIDs)
	out.Settings = cloneSettings(b.Settings)

	out.Columns = make([]Column, len(b.Columns))
	for i, c := range b.Columns {
		c.Settings = cloneSettings(c.Settings)
		out.Columns[i] = c
	}

	out.Groups = make([]Group, len(b.Groups))
	for i, g := range b.Groups {
		g.ItemIDs = slices.Clone(g.ItemIDs)
		out.Groups[i] = g
	}

	out.Items = make(map[string]Item, len(b.Items))
	for id, it := range b.Items {
		out.Items[id] = it.Clone()
	}
	return &out
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	if it.Values != nil {
		vals := make(map[string]Value, len(it.Values))
		for k, v := range it.Values {
			vals[k] = v.clone()
		}
		it.Values = vals
	}
	return it
}

// Validate checks the item's own fields and the well-formedness of its values.
func (it *Item) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(it.Title) == "" {
		fields["title"] = domain.MsgRequired
	}
	for colID, v := range it.Values {
		if err := v.Validate(); err != nil {
			fields["values."+colID] = err.Error()
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Validate checks the group's own fields.
func (g *Group) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return &domain.ValidationError{Fields: map[string]string{"title": domain.MsgRequired}}
	}
	return nil
}

// CheckIntegrity verifies the structural invariants of the aggregate: ids are
// unique across columns, groups, and items; every group entry references an
// item that points back at that group; every item appears in exactly one
// group sequence.
func (b *Board) CheckIntegrity() error {
	seen := make(map[string]string, len(b.Columns)+len(b.Groups)+len(b.Items))
	claim := func(id, kind string) error {
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%s id %q already used by a %s: %w", kind, id, prev, domain.ErrDuplicateID)
		}
		seen[id] = kind
		return nil
	}

	for _, c := range b.Columns {
		if err := claim(c.ID, "column"); err != nil {
			return err
		}
	}
	for _, g := range b.Groups {
		if err := claim(g.ID, "group"); err != nil {
			return err
		}
	}
	for id, it := range b.Items {
		if id != it.ID {
			return fmt.Errorf("item keyed %q carries id %q", id, it.ID)
		}
		if err := claim(id, "item"); err != nil {
			return err
		}
	}

	placed := make(map[string]string, len(b.Items))
	for _, g := range b.Groups {
		for _, itemID := range g.ItemIDs {
			it, ok := b.Items[itemID]
			if !ok {
				return fmt.Errorf("group %q references missing item %q", g.ID, itemID)
			}
			if it.GroupID != g.ID {
				return fmt.Errorf("group %q lists item %q owned by group %q", g.ID, itemID, it.GroupID)
			}
			if other, dup := placed[itemID]; dup {
				return fmt.Errorf("item %q listed by groups %q and %q", itemID, other, g.ID)
			}
			placed[itemID] = g.ID
		}
	}

	if len(placed) != len(b.Items) {
		for id := range b.Items {
			if _, ok := placed[id]; !ok {
				return fmt.Errorf("item %q is not listed by any group", id)
			}
		}
	}
	return nil
}

func cloneSettings(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneSettings(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneAny(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}
