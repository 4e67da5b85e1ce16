// Package repository holds the board repository adapters and what they
// share: the persisted document form of a board and the circuit breaker
// decorator. Concrete backends live in the memory, redisstore, and sqlstore
// subpackages.
package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Aidzix/Monday/internal/domain/board"
)

// Document is the persisted JSON form of a board aggregate. Field names are
// part of the storage format; renaming one is a migration.
type Document struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	OwnerID     string           `json:"ownerId"`
	MemberIDs   []string         `json:"memberIds"`
	Columns     []ColumnDocument `json:"columns"`
	Groups      []GroupDocument  `json:"groups"`
	Items       []ItemDocument   `json:"items"`
	Settings    map[string]any   `json:"settings,omitempty"`
	Version     int64            `json:"version"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ColumnDocument is the persisted form of a column.
type ColumnDocument struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
}

// GroupDocument is the persisted form of a group.
type GroupDocument struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	ItemIDs []string `json:"itemIds"`
}

// ItemDocument is the persisted form of an item.
type ItemDocument struct {
	ID          string                   `json:"id"`
	GroupID     string                   `json:"groupId"`
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	Values      map[string]ValueDocument `json:"values,omitempty"`
	CreatedBy   string                   `json:"createdBy"`
	UpdatedBy   string                   `json:"updatedBy,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

// ValueDocument is the persisted form of a cell value.
type ValueDocument struct {
	Kind   string     `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Number float64    `json:"number,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
	Bool   bool       `json:"bool,omitempty"`
	Tags   []string   `json:"tags,omitempty"`
}

// ToDocument converts a board into its persisted form. Items are written in
// creation order so documents are stable across saves.
func ToDocument(b *board.Board) Document {
	doc := Document{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		MemberIDs:   b.MemberIDs,
		Columns:     make([]ColumnDocument, len(b.Columns)),
		Groups:      make([]GroupDocument, len(b.Groups)),
		Items:       make([]ItemDocument, 0, len(b.Items)),
		Settings:    b.Settings,
		Version:     b.Version,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if doc.MemberIDs == nil {
		doc.MemberIDs = []string{}
	}

	for i, c := range b.Columns {
		doc.Columns[i] = ColumnDocument{ID: c.ID, Title: c.Title, Type: string(c.Type), Settings: c.Settings}
	}
	for i, g := range b.Groups {
		ids := g.ItemIDs
		if ids == nil {
			ids = []string{}
		}
		doc.Groups[i] = GroupDocument{ID: g.ID, Title: g.Title, ItemIDs: ids}
	}
	for _, it := range b.SortedItems() {
		doc.Items = append(doc.Items, itemToDocument(it))
	}
	return doc
}

// Board converts the document back into a board aggregate.
func (d Document) Board() *board.Board {
	b := &board.Board{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		OwnerID:     d.OwnerID,
		MemberIDs:   d.MemberIDs,
		Columns:     make([]board.Column, len(d.Columns)),
		Groups:      make([]board.Group, len(d.Groups)),
		Items:       make(map[string]board.Item, len(d.Items)),
		Settings:    d.Settings,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if b.MemberIDs == nil {
		b.MemberIDs = []string{}
	}

	for i, c := range d.Columns {
		b.Columns[i] = board.Column{ID: c.ID, Title: c.Title, Type: board.ColumnType(c.Type), Settings: c.Settings}
	}
	for i, g := range d.Groups {
		ids := g.ItemIDs
		if ids == nil {
			ids = []string{}
		}
		b.Groups[i] = board.Group{ID: g.ID, Title: g.Title, ItemIDs: ids}
	}
	for _, it := range d.Items {
		b.Items[it.ID] = it.item()
	}
	return b
}

// Marshal encodes b as a JSON document.
func Marshal(b *board.Board) ([]byte, error) {
	raw, err := json.Marshal(ToDocument(b))
	if err != nil {
		return nil, fmt.Errorf("encoding board %q: %w", b.ID, err)
	}
	return raw, nil
}

// Unmarshal decodes a JSON document into a board.
func Unmarshal(raw []byte) (*board.Board, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding board document: %w", err)
	}
	return doc.Board(), nil
}

func itemToDocument(it board.Item) ItemDocument {
	doc := ItemDocument{
		ID:          it.ID,
		GroupID:     it.GroupID,
		Title:       it.Title,
		Description: it.Description,
		CreatedBy:   it.CreatedBy,
		UpdatedBy:   it.UpdatedBy,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
	if len(it.Values) > 0 {
		doc.Values = make(map[string]ValueDocument, len(it.Values))
		for col, v := range it.Values {
			vd := ValueDocument{Kind: string(v.Kind), Text: v.Text, Number: v.Number, Bool: v.Bool, Tags: v.Tags}
			if !v.Date.IsZero() {
				d := v.Date
				vd.Date = &d
			}
			doc.Values[col] = vd
		}
	}
	return doc
}

func (d ItemDocument) item() board.Item {
	it := board.Item{
		ID:          d.ID,
		GroupID:     d.GroupID,
		Title:       d.Title,
		Description: d.Description,
		CreatedBy:   d.CreatedBy,
		UpdatedBy:   d.UpdatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if len(d.Values) > 0 {
		it.Values = make(map[string]board.Value, len(d.Values))
		for col, vd := range d.Values {
			v := board.Value{Kind: board.ValueKind(vd.Kind), Text: vd.Text, Number: vd.Number, Bool: vd.Bool, Tags: vd.Tags}
			if vd.Date != nil {
				v.Date = *vd.Date
			}
			it.Values[col] = v
		}
	}
	return it
}
