package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Aidzix/Monday/internal/adapters/http/dto"
	"github.com/Aidzix/Monday/internal/domain/change"
	"github.com/Aidzix/Monday/internal/platform/logging"
	"github.com/Aidzix/Monday/internal/ports"
)

const defaultHeartbeat = 15 * time.Second

// EventsHandler streams a board's change events as server-sent events.
//
// A stream opens with a "hello" frame carrying the board version the client
// should treat as its baseline, then one "change" frame per committed
// mutation with a higher version. It ends with a "close" frame naming the
// reason: the board was deleted, the client fell behind, or the server is
// shutting down.
type EventsHandler struct {
	svc       ports.BoardService
	heartbeat time.Duration
}

// NewEventsHandler creates an EventsHandler. A heartbeat of zero or less
// uses the 15 second default.
func NewEventsHandler(svc ports.BoardService, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &EventsHandler{svc: svc, heartbeat: heartbeat}
}

type helloFrame struct {
	BoardID string `json:"boardId"`
	Version int64  `json:"version"`
}

type closeFrame struct {
	Reason change.CloseReason `json:"reason"`
}

// Stream handles GET /api/v1/boards/{boardId}/events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	boardID := chi.URLParam(r, "boardId")
	ctx := r.Context()

	sub, err := h.svc.Subscribe(ctx, actor, boardID)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	defer sub.Close()

	// Events at or below the baseline are already part of the state the
	// client fetches, so they are skipped.
	b, err := h.svc.GetBoard(ctx, actor, boardID)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	baseline := b.Version

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logging.FromContext(ctx).DebugContext(ctx, "write deadline not adjustable", slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, "hello", "", helloFrame{BoardID: boardID, Version: baseline}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case e, open := <-sub.Events():
			if !open {
				if ctx.Err() == nil {
					_ = writeEvent(w, rc, "close", "", closeFrame{Reason: sub.Reason()})
				}
				return
			}
			if e.Version <= baseline {
				continue
			}
			if err := writeEvent(w, rc, "change", fmt.Sprint(e.Version), e); err != nil {
				logging.FromContext(ctx).DebugContext(ctx, "event stream write failed",
					slog.String("board_id", boardID),
					slog.Any("error", err),
				)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// writeEvent writes one SSE frame and flushes it to the client.
func writeEvent(w http.ResponseWriter, rc *http.ResponseController, event, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s frame: %w", event, err)
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return rc.Flush()
}
