// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Aidzix/Monday/internal/adapters/http/handlers"
	"github.com/Aidzix/Monday/internal/adapters/http/middleware"
)

// Handlers groups the route handlers the router mounts.
type Handlers struct {
	Boards *handlers.BoardHandler
	Items  *handlers.ItemHandler
	Events *handlers.EventsHandler
	Health *handlers.HealthHandler
}

// NewRouter creates an HTTP handler with all application routes registered.
// Middleware is applied globally in the order given. API routes additionally
// pass through authenticate, and all of them except the event stream are
// bounded by requestTimeout when it is positive.
func NewRouter(h Handlers, authenticate func(http.Handler) http.Handler, requestTimeout time.Duration, middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	// Health endpoints (outside /api/v1 prefix).
	r.Get("/health/live", h.Health.Liveness)
	r.Get("/health/ready", h.Health.Readiness)

	// API v1 routes.
	r.Route("/api/v1", func(r chi.Router) {
		if authenticate != nil {
			r.Use(authenticate)
		}

		// Change stream. Long-lived, so it stays outside the request timeout.
		r.Get("/boards/{boardId}/events", h.Events.Stream)

		r.Group(func(r chi.Router) {
			if requestTimeout > 0 {
				r.Use(middleware.Timeout(requestTimeout))
			}

			// Boards and membership.
			r.Get("/boards", h.Boards.ListBoards)
			r.Post("/boards", h.Boards.CreateBoard)
			r.Get("/boards/{boardId}", h.Boards.GetBoard)
			r.Patch("/boards/{boardId}", h.Boards.UpdateBoard)
			r.Delete("/boards/{boardId}", h.Boards.DeleteBoard)
			r.Post("/boards/{boardId}/members", h.Boards.AddMember)
			r.Delete("/boards/{boardId}/members/{userId}", h.Boards.RemoveMember)

			// Board structure.
			r.Post("/boards/{boardId}/columns", h.Boards.CreateColumn)
			r.Put("/boards/{boardId}/columns/order", h.Boards.ReorderColumns)
			r.Patch("/boards/{boardId}/columns/{columnId}", h.Boards.UpdateColumn)
			r.Delete("/boards/{boardId}/columns/{columnId}", h.Boards.DeleteColumn)
			r.Post("/boards/{boardId}/groups", h.Boards.CreateGroup)
			r.Put("/boards/{boardId}/groups/order", h.Boards.ReorderGroups)
			r.Patch("/boards/{boardId}/groups/{groupId}", h.Boards.UpdateGroup)
			r.Delete("/boards/{boardId}/groups/{groupId}", h.Boards.DeleteGroup)

			// Items.
			r.Get("/boards/{boardId}/items", h.Items.ListItems)
			r.Post("/boards/{boardId}/items", h.Items.CreateItem)
			r.Get("/items/{itemId}", h.Items.GetItem)
			r.Patch("/items/{itemId}", h.Items.UpdateItem)
			r.Delete("/items/{itemId}", h.Items.DeleteItem)
			r.Post("/items/{itemId}/move", h.Items.MoveItem)
			r.Put("/groups/{groupId}/items/order", h.Items.ReorderItems)
		})
	})

	return r
}
