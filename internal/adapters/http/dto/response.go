// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"time"

	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/ports"
)

// BoardResponse represents a full board snapshot. Items are listed in
// creation order; each group's itemIds gives its display order.
type BoardResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	OwnerID     string           `json:"ownerId"`
	MemberIDs   []string         `json:"memberIds"`
	Columns     []ColumnResponse `json:"columns"`
	Groups      []GroupResponse  `json:"groups"`
	Items       []ItemResponse   `json:"items"`
	Settings    map[string]any   `json:"settings,omitempty"`
	Version     int64            `json:"version"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
}

// BoardSummaryResponse is the list form of a board.
type BoardSummaryResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OwnerID     string `json:"ownerId"`
	Version     int64  `json:"version"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// BoardListResponse represents the boards visible to the caller.
type BoardListResponse struct {
	Boards []BoardSummaryResponse `json:"boards"`
	Count  int                    `json:"count"`
}

// ColumnResponse represents a column.
type ColumnResponse struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
}

// GroupResponse represents a group and the display order of its items.
type GroupResponse struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	ItemIDs []string `json:"itemIds"`
}

// ItemResponse represents an item.
type ItemResponse struct {
	ID          string              `json:"id"`
	GroupID     string              `json:"groupId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Values      map[string]ValueDTO `json:"values"`
	CreatedBy   string              `json:"createdBy"`
	UpdatedBy   string              `json:"updatedBy"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

// ItemListResponse represents a board's items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Count int            `json:"count"`
}

// CommittedResponse pairs a mutated entity with the board version the
// mutation produced.
type CommittedResponse[T any] struct {
	BoardID string `json:"boardId"`
	Version int64  `json:"version"`
	Data    T      `json:"data"`
}

// AckResponse identifies the board version a deletion produced.
type AckResponse struct {
	BoardID string `json:"boardId"`
	Version int64  `json:"version"`
}

// ToBoardResponse converts a board aggregate to its full HTTP form.
func ToBoardResponse(b *board.Board) BoardResponse {
	resp := BoardResponse{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		MemberIDs:   b.MemberIDs,
		Columns:     make([]ColumnResponse, len(b.Columns)),
		Groups:      make([]GroupResponse, len(b.Groups)),
		Settings:    b.Settings,
		Version:     b.Version,
		CreatedAt:   formatTime(b.CreatedAt),
		UpdatedAt:   formatTime(b.UpdatedAt),
	}
	if resp.MemberIDs == nil {
		resp.MemberIDs = []string{}
	}
	for i := range b.Columns {
		resp.Columns[i] = ToColumnResponse(b.Columns[i])
	}
	for i := range b.Groups {
		resp.Groups[i] = ToGroupResponse(b.Groups[i])
	}
	resp.Items = toItemResponses(b.SortedItems())
	return resp
}

// ToBoardListResponse converts boards to the list form.
func ToBoardListResponse(boards []board.Board) BoardListResponse {
	out := make([]BoardSummaryResponse, len(boards))
	for i := range boards {
		b := &boards[i]
		out[i] = BoardSummaryResponse{
			ID:          b.ID,
			Title:       b.Title,
			Description: b.Description,
			OwnerID:     b.OwnerID,
			Version:     b.Version,
			CreatedAt:   formatTime(b.CreatedAt),
			UpdatedAt:   formatTime(b.UpdatedAt),
		}
	}
	return BoardListResponse{Boards: out, Count: len(out)}
}

// ToColumnResponse converts a column.
func ToColumnResponse(c board.Column) ColumnResponse {
	return ColumnResponse{ID: c.ID, Title: c.Title, Type: string(c.Type), Settings: c.Settings}
}

// ToGroupResponse converts a group.
func ToGroupResponse(g board.Group) GroupResponse {
	ids := g.ItemIDs
	if ids == nil {
		ids = []string{}
	}
	return GroupResponse{ID: g.ID, Title: g.Title, ItemIDs: ids}
}

// ToItemResponse converts an item.
func ToItemResponse(it board.Item) ItemResponse {
	values := make(map[string]ValueDTO, len(it.Values))
	for colID, v := range it.Values {
		values[colID] = ToValueDTO(v)
	}
	return ItemResponse{
		ID:          it.ID,
		GroupID:     it.GroupID,
		Title:       it.Title,
		Description: it.Description,
		Values:      values,
		CreatedBy:   it.CreatedBy,
		UpdatedBy:   it.UpdatedBy,
		CreatedAt:   formatTime(it.CreatedAt),
		UpdatedAt:   formatTime(it.UpdatedAt),
	}
}

// ToItemListResponse converts items in the order given.
func ToItemListResponse(items []board.Item) ItemListResponse {
	out := toItemResponses(items)
	return ItemListResponse{Items: out, Count: len(out)}
}

// ToValueDTO converts a domain value to its wire form, populating only the
// field that belongs to its kind.
func ToValueDTO(v board.Value) ValueDTO {
	out := ValueDTO{Kind: string(v.Kind)}
	switch v.Kind {
	case board.KindNumber:
		n := v.Number
		out.Number = &n
	case board.KindDate:
		d := v.Date
		out.Date = &d
	case board.KindCheckbox:
		b := v.Bool
		out.Checked = &b
	case board.KindTags:
		out.Tags = v.Tags
	default:
		out.Text = v.Text
	}
	return out
}

// ToCommittedResponse wraps a committed entity after converting it with conv.
func ToCommittedResponse[T, R any](c *ports.Committed[T], conv func(T) R) CommittedResponse[R] {
	return CommittedResponse[R]{BoardID: c.BoardID, Version: c.Version, Data: conv(c.Value)}
}

// ToAckResponse converts a deletion acknowledgement.
func ToAckResponse(a *ports.Ack) AckResponse {
	return AckResponse{BoardID: a.BoardID, Version: a.Version}
}

func toItemResponses(items []board.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ToItemResponse(items[i])
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
