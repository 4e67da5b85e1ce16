package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Aidzix/Monday/internal/adapters/http/dto"
	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/ports"
)

// BoardHandler handles HTTP requests for boards, their members and their
// column and group structure.
type BoardHandler struct {
	svc ports.BoardService
}

// NewBoardHandler creates a new BoardHandler with the given service.
func NewBoardHandler(svc ports.BoardService) *BoardHandler {
	return &BoardHandler{svc: svc}
}

// ListBoards handles GET /api/v1/boards.
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	boards, err := h.svc.ListBoards(r.Context(), actor)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToBoardListResponse(boards))
}

// CreateBoard handles POST /api/v1/boards.
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req dto.CreateBoardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.svc.CreateBoard(r.Context(), actor, req.ToInput())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/boards/"+b.ID)
	setVersion(w, b.Version)
	writeJSON(w, http.StatusCreated, dto.ToBoardResponse(b))
}

// GetBoard handles GET /api/v1/boards/{boardId}.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	b, err := h.svc.GetBoard(r.Context(), actor, chi.URLParam(r, "boardId"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	setVersion(w, b.Version)
	writeJSON(w, http.StatusOK, dto.ToBoardResponse(b))
}

// UpdateBoard handles PATCH /api/v1/boards/{boardId}.
func (h *BoardHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.UpdateBoardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.svc.UpdateBoard(r.Context(), actor, chi.URLParam(r, "boardId"), req.ToPatch(), opts...)
	h.writeBoard(w, r, b, err)
}

// DeleteBoard handles DELETE /api/v1/boards/{boardId}.
func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteBoard(r.Context(), actor, chi.URLParam(r, "boardId"), opts...); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMember handles POST /api/v1/boards/{boardId}/members.
func (h *BoardHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.svc.AddMember(r.Context(), actor, chi.URLParam(r, "boardId"), req.UserID, opts...)
	h.writeBoard(w, r, b, err)
}

// RemoveMember handles DELETE /api/v1/boards/{boardId}/members/{userId}.
func (h *BoardHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}

	b, err := h.svc.RemoveMember(r.Context(), actor, chi.URLParam(r, "boardId"), chi.URLParam(r, "userId"), opts...)
	h.writeBoard(w, r, b, err)
}

// CreateColumn handles POST /api/v1/boards/{boardId}/columns.
func (h *BoardHandler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.CreateColumnRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.svc.CreateColumn(r.Context(), actor, chi.URLParam(r, "boardId"), req.ToInput(), opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeCommitted(w, http.StatusCreated, c, dto.ToColumnResponse)
}

// UpdateColumn handles PATCH /api/v1/boards/{boardId}/columns/{columnId}.
func (h *BoardHandler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.UpdateColumnRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.svc.UpdateColumn(r.Context(), actor, chi.URLParam(r, "boardId"), chi.URLParam(r, "columnId"), req.ToPatch(), opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeCommitted(w, http.StatusOK, c, dto.ToColumnResponse)
}

// DeleteColumn handles DELETE /api/v1/boards/{boardId}/columns/{columnId}.
func (h *BoardHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}

	a, err := h.svc.DeleteColumn(r.Context(), actor, chi.URLParam(r, "boardId"), chi.URLParam(r, "columnId"), opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeAck(w, a)
}

// ReorderColumns handles PUT /api/v1/boards/{boardId}/columns/order.
func (h *BoardHandler) ReorderColumns(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.ReorderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.svc.ReorderColumns(r.Context(), actor, chi.URLParam(r, "boardId"), req.Order, opts...)
	h.writeBoard(w, r, b, err)
}

// CreateGroup handles POST /api/v1/boards/{boardId}/groups.
func (h *BoardHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.CreateGroupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := ports.GroupInput{Title: req.Title, Position: req.Position}
	g, err := h.svc.CreateGroup(r.Context(), actor, chi.URLParam(r, "boardId"), in, opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeCommitted(w, http.StatusCreated, g, dto.ToGroupResponse)
}

// UpdateGroup handles PATCH /api/v1/boards/{boardId}/groups/{groupId}.
func (h *BoardHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.UpdateGroupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	patch := ports.GroupPatch{Title: req.Title}
	g, err := h.svc.UpdateGroup(r.Context(), actor, chi.URLParam(r, "boardId"), chi.URLParam(r, "groupId"), patch, opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeCommitted(w, http.StatusOK, g, dto.ToGroupResponse)
}

// DeleteGroup handles DELETE /api/v1/boards/{boardId}/groups/{groupId}.
// The cascade query parameter is required: cascade=delete_items deletes the
// group's items, cascade=reassign&target={groupId} moves them.
func (h *BoardHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	policy, err := cascadePolicy(r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	a, err := h.svc.DeleteGroup(r.Context(), actor, chi.URLParam(r, "boardId"), chi.URLParam(r, "groupId"), policy, opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeAck(w, a)
}

// ReorderGroups handles PUT /api/v1/boards/{boardId}/groups/order.
func (h *BoardHandler) ReorderGroups(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.ReorderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.svc.ReorderGroups(r.Context(), actor, chi.URLParam(r, "boardId"), req.Order, opts...)
	h.writeBoard(w, r, b, err)
}

// writeBoard answers a whole-board mutation with the resulting board.
func (h *BoardHandler) writeBoard(w http.ResponseWriter, r *http.Request, b *board.Board, err error) {
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	setVersion(w, b.Version)
	writeJSON(w, http.StatusOK, dto.ToBoardResponse(b))
}

func cascadePolicy(r *http.Request) (ports.CascadePolicy, error) {
	q := r.URL.Query()
	switch mode := ports.CascadeMode(q.Get("cascade")); mode {
	case ports.CascadeDeleteItems:
		return ports.DeleteItems(), nil
	case ports.CascadeReassign:
		target := q.Get("target")
		if target == "" {
			return ports.CascadePolicy{}, &domain.ValidationError{
				Fields: map[string]string{"target": "is required when cascade=reassign"},
			}
		}
		return ports.Reassign(target), nil
	default:
		return ports.CascadePolicy{}, &domain.ValidationError{
			Fields: map[string]string{"cascade": "must be delete_items or reassign"},
		}
	}
}
