package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Aidzix/Monday/internal/adapters/http/handlers"
	"github.com/Aidzix/Monday/internal/adapters/pubsub"
	"github.com/Aidzix/Monday/internal/adapters/repository/memory"
	"github.com/Aidzix/Monday/internal/app"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/platform/auth"
	"github.com/Aidzix/Monday/internal/platform/config"
)

const (
	ownerID    = "u-owner"
	memberID   = "u-member"
	strangerID = "u-stranger"
)

// testUserHeader stands in for the bearer token in handler tests; the real
// router resolves the actor through the auth middleware.
const testUserHeader = "X-Test-User"

type testAPI struct {
	handler http.Handler
	svc     *app.BoardService
	broker  *pubsub.Broker
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	broker := pubsub.NewBroker(pubsub.DefaultBuffer, nil, logger)
	t.Cleanup(func() { broker.Shutdown(context.Background()) })

	svc := app.NewBoardService(memory.New(), broker, config.EngineConfig{LockTimeout: time.Second}, logger)
	bh := handlers.NewBoardHandler(svc)
	ih := handlers.NewItemHandler(svc)
	eh := handlers.NewEventsHandler(svc, time.Hour)

	r := chi.NewRouter()
	r.Use(testActor)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/boards", bh.ListBoards)
		r.Post("/boards", bh.CreateBoard)
		r.Get("/boards/{boardId}", bh.GetBoard)
		r.Patch("/boards/{boardId}", bh.UpdateBoard)
		r.Delete("/boards/{boardId}", bh.DeleteBoard)
		r.Post("/boards/{boardId}/members", bh.AddMember)
		r.Delete("/boards/{boardId}/members/{userId}", bh.RemoveMember)
		r.Post("/boards/{boardId}/columns", bh.CreateColumn)
		r.Put("/boards/{boardId}/columns/order", bh.ReorderColumns)
		r.Patch("/boards/{boardId}/columns/{columnId}", bh.UpdateColumn)
		r.Delete("/boards/{boardId}/columns/{columnId}", bh.DeleteColumn)
		r.Post("/boards/{boardId}/groups", bh.CreateGroup)
		r.Put("/boards/{boardId}/groups/order", bh.ReorderGroups)
		r.Patch("/boards/{boardId}/groups/{groupId}", bh.UpdateGroup)
		r.Delete("/boards/{boardId}/groups/{groupId}", bh.DeleteGroup)
		r.Get("/boards/{boardId}/items", ih.ListItems)
		r.Post("/boards/{boardId}/items", ih.CreateItem)
		r.Get("/boards/{boardId}/events", eh.Stream)
		r.Get("/items/{itemId}", ih.GetItem)
		r.Patch("/items/{itemId}", ih.UpdateItem)
		r.Delete("/items/{itemId}", ih.DeleteItem)
		r.Post("/items/{itemId}/move", ih.MoveItem)
		r.Put("/groups/{groupId}/items/order", ih.ReorderItems)
	})

	return &testAPI{handler: r, svc: svc, broker: broker}
}

func testActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(testUserHeader); id != "" {
			r = r.WithContext(auth.WithActor(r.Context(), access.Actor{ID: id}))
		}
		next.ServeHTTP(w, r)
	})
}

// do sends a request as user and returns the recorded response. A nil body
// sends none.
func (a *testAPI) do(t *testing.T, user, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		rdr = jsonBody(t, body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// createBoard creates a board owned by ownerID and returns its response.
func (a *testAPI) createBoard(t *testing.T, title string) boardBody {
	t.Helper()
	rec := a.do(t, ownerID, http.MethodPost, "/api/v1/boards", map[string]any{"title": title})
	requireStatus(t, rec, http.StatusCreated)
	return decodeJSON[boardBody](t, rec)
}

type boardBody struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	OwnerID   string   `json:"ownerId"`
	MemberIDs []string `json:"memberIds"`
	Version   int64    `json:"version"`
	Columns   []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Type  string `json:"type"`
	} `json:"columns"`
	Groups []groupBody `json:"groups"`
	Items  []itemBody  `json:"items"`
}

type groupBody struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	ItemIDs []string `json:"itemIds"`
}

type itemBody struct {
	ID      string                    `json:"id"`
	GroupID string                    `json:"groupId"`
	Title   string                    `json:"title"`
	Values  map[string]map[string]any `json:"values"`
}

type committedBody[T any] struct {
	BoardID string `json:"boardId"`
	Version int64  `json:"version"`
	Data    T      `json:"data"`
}

type problemBody struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("failed to encode JSON body: %v", err)
	}
	return buf
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var result T
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return result
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}
