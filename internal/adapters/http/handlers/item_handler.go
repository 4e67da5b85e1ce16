package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Aidzix/Monday/internal/adapters/http/dto"
	"github.com/Aidzix/Monday/internal/ports"
)

// ItemHandler handles HTTP requests for items. Items are addressed by their
// own id once created; the service resolves the board that holds them.
type ItemHandler struct {
	svc ports.BoardService
}

// NewItemHandler creates a new ItemHandler with the given service.
func NewItemHandler(svc ports.BoardService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// ListItems handles GET /api/v1/boards/{boardId}/items.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	items, err := h.svc.ListItems(r.Context(), actor, chi.URLParam(r, "boardId"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToItemListResponse(items))
}

// CreateItem handles POST /api/v1/boards/{boardId}/items.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.CreateItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	it, err := h.svc.CreateItem(r.Context(), actor, chi.URLParam(r, "boardId"), req.ToInput(), opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/items/"+it.Value.ID)
	writeCommitted(w, http.StatusCreated, it, dto.ToItemResponse)
}

// GetItem handles GET /api/v1/items/{itemId}.
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	it, err := h.svc.GetItem(r.Context(), actor, chi.URLParam(r, "itemId"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeCommitted(w, http.StatusOK, it, dto.ToItemResponse)
}

// UpdateItem handles PATCH /api/v1/items/{itemId}.
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	it, err := h.svc.UpdateItem(r.Context(), actor, chi.URLParam(r, "itemId"), req.ToPatch(), opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeCommitted(w, http.StatusOK, it, dto.ToItemResponse)
}

// DeleteItem handles DELETE /api/v1/items/{itemId}.
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}

	a, err := h.svc.DeleteItem(r.Context(), actor, chi.URLParam(r, "itemId"), opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeAck(w, a)
}

// MoveItem handles POST /api/v1/items/{itemId}/move.
func (h *ItemHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts, ok := mutationOptions(w, r)
	if !ok {
		return
	}
	var req dto.MoveItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	it, err := h.svc.MoveItem(r.Context(), actor, chi.URLParam(r, "itemId"), req.GroupID, req.Position, opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeCommitted(w, http.StatusOK, it, dto.ToItemResponse)
}

// ReorderItems handles PUT /api/v1/groups/{groupId}/items/order.
func (h *ItemHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
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

	g, err := h.svc.ReorderItemsWithinGroup(r.Context(), actor, chi.URLParam(r, "groupId"), req.Order, opts...)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeCommitted(w, http.StatusOK, g, dto.ToGroupResponse)
}
