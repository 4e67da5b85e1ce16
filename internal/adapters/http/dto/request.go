package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/ports"
)

const (
	msgRequired     = "is required"
	msgMustNotEmpty = "must not be empty"
	msgNonNegative  = "must not be negative"
)

// fieldErrors accumulates per-field validation messages.
type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) > 0 {
		return &domain.ValidationError{Fields: f}
	}
	return nil
}

func (f fieldErrors) requireText(field, v string) {
	if strings.TrimSpace(v) == "" {
		f[field] = msgRequired
	}
}

func (f fieldErrors) optionalText(field string, v *string) {
	if v != nil && strings.TrimSpace(*v) == "" {
		f[field] = msgMustNotEmpty
	}
}

func (f fieldErrors) position(p *int) {
	if p != nil && *p < 0 {
		f["position"] = msgNonNegative
	}
}

func (f fieldErrors) values(values map[string]ValueDTO) {
	for colID, v := range values {
		if msg := v.problem(); msg != "" {
			f["values."+colID] = msg
		}
	}
}

// CreateBoardRequest represents the JSON body for creating a board.
type CreateBoardRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateBoardRequest) Validate() error {
	f := fieldErrors{}
	f.requireText("title", r.Title)
	return f.err()
}

// ToInput maps the request onto the service input.
func (r *CreateBoardRequest) ToInput() ports.CreateBoardInput {
	return ports.CreateBoardInput{Title: r.Title, Description: r.Description, Settings: r.Settings}
}

// UpdateBoardRequest represents the JSON body for updating a board.
// All fields are optional; nil means "do not change this field". A null
// setting value removes that setting.
type UpdateBoardRequest struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// Validate checks that any provided fields have valid values.
func (r *UpdateBoardRequest) Validate() error {
	f := fieldErrors{}
	f.optionalText("title", r.Title)
	return f.err()
}

// ToPatch maps the request onto the service patch.
func (r *UpdateBoardRequest) ToPatch() ports.BoardPatch {
	return ports.BoardPatch{Title: r.Title, Description: r.Description, Settings: r.Settings}
}

// AddMemberRequest represents the JSON body for granting board access.
type AddMemberRequest struct {
	UserID string `json:"userId"`
}

// Validate checks that the user id is present.
func (r *AddMemberRequest) Validate() error {
	f := fieldErrors{}
	f.requireText("userId", r.UserID)
	return f.err()
}

// CreateColumnRequest represents the JSON body for adding a column. A missing
// position appends.
type CreateColumnRequest struct {
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
	Position *int           `json:"position,omitempty"`
}

// Validate checks required fields and the column type.
func (r *CreateColumnRequest) Validate() error {
	f := fieldErrors{}
	f.requireText("title", r.Title)
	if !board.ColumnType(r.Type).IsValid() {
		f["type"] = fmt.Sprintf("invalid: %q", r.Type)
	}
	f.position(r.Position)
	return f.err()
}

// ToInput maps the request onto the service input.
func (r *CreateColumnRequest) ToInput() ports.ColumnInput {
	return ports.ColumnInput{
		Title:    r.Title,
		Type:     board.ColumnType(r.Type),
		Settings: r.Settings,
		Position: r.Position,
	}
}

// UpdateColumnRequest represents the JSON body for changing a column.
type UpdateColumnRequest struct {
	Title    *string        `json:"title,omitempty"`
	Type     *string        `json:"type,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Validate checks that any provided fields have valid values.
func (r *UpdateColumnRequest) Validate() error {
	f := fieldErrors{}
	f.optionalText("title", r.Title)
	if r.Type != nil && !board.ColumnType(*r.Type).IsValid() {
		f["type"] = fmt.Sprintf("invalid: %q", *r.Type)
	}
	return f.err()
}

// ToPatch maps the request onto the service patch.
func (r *UpdateColumnRequest) ToPatch() ports.ColumnPatch {
	p := ports.ColumnPatch{Title: r.Title, Settings: r.Settings}
	if r.Type != nil {
		t := board.ColumnType(*r.Type)
		p.Type = &t
	}
	return p
}

// CreateGroupRequest represents the JSON body for adding a group.
type CreateGroupRequest struct {
	Title    string `json:"title"`
	Position *int   `json:"position,omitempty"`
}

// Validate checks required fields.
func (r *CreateGroupRequest) Validate() error {
	f := fieldErrors{}
	f.requireText("title", r.Title)
	f.position(r.Position)
	return f.err()
}

// UpdateGroupRequest represents the JSON body for renaming a group.
type UpdateGroupRequest struct {
	Title *string `json:"title,omitempty"`
}

// Validate checks that any provided fields have valid values.
func (r *UpdateGroupRequest) Validate() error {
	f := fieldErrors{}
	f.optionalText("title", r.Title)
	return f.err()
}

// ReorderRequest carries a complete new ordering of ids.
type ReorderRequest struct {
	Order []string `json:"order"`
}

// Validate checks that an order was sent. Whether it is a permutation of the
// current ids is decided by the service.
func (r *ReorderRequest) Validate() error {
	if r.Order == nil {
		return &domain.ValidationError{Fields: map[string]string{"order": msgRequired}}
	}
	return nil
}

// CreateItemRequest represents the JSON body for creating an item.
type CreateItemRequest struct {
	GroupID     string              `json:"groupId"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Values      map[string]ValueDTO `json:"values,omitempty"`
}

// Validate checks required fields and the shape of every value.
func (r *CreateItemRequest) Validate() error {
	f := fieldErrors{}
	f.requireText("groupId", r.GroupID)
	f.requireText("title", r.Title)
	f.values(r.Values)
	return f.err()
}

// ToInput maps the request onto the service input.
func (r *CreateItemRequest) ToInput() ports.ItemInput {
	return ports.ItemInput{
		GroupID:     r.GroupID,
		Title:       r.Title,
		Description: r.Description,
		Values:      valuesToDomain(r.Values),
	}
}

// UpdateItemRequest represents the JSON body for changing an item. GroupID is
// accepted so the service can reject it: items change groups by moving.
type UpdateItemRequest struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Values      map[string]ValueDTO `json:"values,omitempty"`
	GroupID     *string             `json:"groupId,omitempty"`
}

// Validate checks that any provided fields have valid values.
func (r *UpdateItemRequest) Validate() error {
	f := fieldErrors{}
	f.optionalText("title", r.Title)
	f.values(r.Values)
	return f.err()
}

// ToPatch maps the request onto the service patch.
func (r *UpdateItemRequest) ToPatch() ports.ItemPatch {
	return ports.ItemPatch{
		Title:       r.Title,
		Description: r.Description,
		Values:      valuesToDomain(r.Values),
		GroupID:     r.GroupID,
	}
}

// MoveItemRequest represents the JSON body for moving an item. Position
// counts within the target group after the item has been taken out of its
// current group; a missing position appends.
type MoveItemRequest struct {
	GroupID  string `json:"groupId"`
	Position *int   `json:"position,omitempty"`
}

// Validate checks required fields.
func (r *MoveItemRequest) Validate() error {
	f := fieldErrors{}
	f.requireText("groupId", r.GroupID)
	f.position(r.Position)
	return f.err()
}

// ValueDTO is the wire form of a cell value. Only the field belonging to Kind
// is read: Text for text, status, person and link values, Number, Date,
// Checked, or Tags for the rest.
type ValueDTO struct {
	Kind    string     `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
	Checked *bool      `json:"checked,omitempty"`
	Tags    []string   `json:"tags,omitempty"`
}

// problem returns a validation message for a malformed value, or "".
func (v ValueDTO) problem() string {
	switch board.ValueKind(v.Kind) {
	case board.KindText, board.KindStatus, board.KindTags:
		return ""
	case board.KindPerson, board.KindLink:
		if strings.TrimSpace(v.Text) == "" {
			return "text " + msgRequired
		}
	case board.KindNumber:
		if v.Number == nil {
			return "number " + msgRequired
		}
	case board.KindDate:
		if v.Date == nil || v.Date.IsZero() {
			return "date " + msgRequired
		}
	case board.KindCheckbox:
		if v.Checked == nil {
			return "checked " + msgRequired
		}
	default:
		return fmt.Sprintf("invalid kind: %q", v.Kind)
	}
	return ""
}

// ToDomain converts the wire value into a domain value.
func (v ValueDTO) ToDomain() board.Value {
	switch board.ValueKind(v.Kind) {
	case board.KindNumber:
		if v.Number != nil {
			return board.NumberValue(*v.Number)
		}
	case board.KindDate:
		if v.Date != nil {
			return board.DateValue(v.Date.UTC())
		}
	case board.KindCheckbox:
		if v.Checked != nil {
			return board.CheckboxValue(*v.Checked)
		}
	case board.KindTags:
		return board.TagsValue(v.Tags...)
	}
	return board.Value{Kind: board.ValueKind(v.Kind), Text: v.Text}
}

func valuesToDomain(in map[string]ValueDTO) map[string]board.Value {
	if in == nil {
		return nil
	}
	out := make(map[string]board.Value, len(in))
	for colID, v := range in {
		out[colID] = v.ToDomain()
	}
	return out
}
