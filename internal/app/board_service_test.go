package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Aidzix/Monday/internal/adapters/pubsub"
	"github.com/Aidzix/Monday/internal/adapters/repository/memory"
	"github.com/Aidzix/Monday/internal/adapters/repository/redisstore"
	"github.com/Aidzix/Monday/internal/adapters/repository/repotest"
	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/domain/change"
	"github.com/Aidzix/Monday/internal/platform/config"
	"github.com/Aidzix/Monday/internal/platform/telemetry"
	"github.com/Aidzix/Monday/internal/ports"
	"github.com/Aidzix/Monday/mocks"
)

var (
	owner    = access.Actor{ID: "u1"}
	member   = access.Actor{ID: "u2"}
	stranger = access.Actor{ID: "u3"}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// ticker is a deterministic clock that advances one second per call.
type ticker struct {
	mu  sync.Mutex
	now time.Time
}

func (c *ticker) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T, opts ...Option) (*BoardService, *pubsub.Broker) {
	t.Helper()
	broker := pubsub.NewBroker(pubsub.DefaultBuffer, nil, discardLogger())
	t.Cleanup(func() { broker.Shutdown(context.Background()) })

	clock := &ticker{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	svc := NewBoardService(memory.New(), broker, config.EngineConfig{LockTimeout: time.Second, ListWorkers: 4}, discardLogger(), opts...)
	return svc, broker
}

func mustCreateBoard(t *testing.T, svc *BoardService, actor access.Actor, title string) *board.Board {
	t.Helper()
	b, err := svc.CreateBoard(context.Background(), actor, ports.CreateBoardInput{Title: title})
	if err != nil {
		t.Fatalf("CreateBoard(%q) error = %v", title, err)
	}
	return b
}

func mustCreateGroup(t *testing.T, svc *BoardService, boardID, title string) board.Group {
	t.Helper()
	g, err := svc.CreateGroup(context.Background(), owner, boardID, ports.GroupInput{Title: title})
	if err != nil {
		t.Fatalf("CreateGroup(%q) error = %v", title, err)
	}
	return g.Value
}

func mustCreateItem(t *testing.T, svc *BoardService, boardID, groupID, title string) board.Item {
	t.Helper()
	it, err := svc.CreateItem(context.Background(), owner, boardID, ports.ItemInput{GroupID: groupID, Title: title})
	if err != nil {
		t.Fatalf("CreateItem(%q) error = %v", title, err)
	}
	return it.Value
}

func mustGetBoard(t *testing.T, svc *BoardService, boardID string) *board.Board {
	t.Helper()
	b, err := svc.GetBoard(context.Background(), owner, boardID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	return b
}

func groupByID(t *testing.T, b *board.Board, id string) board.Group {
	t.Helper()
	idx := b.GroupIndex(id)
	if idx < 0 {
		t.Fatalf("group %q not on board", id)
	}
	return b.Groups[idx]
}

// --- NewBoardService ---

func TestNewBoardService_Defaults(t *testing.T) {
	t.Parallel()

	svc := NewBoardService(memory.New(), pubsub.NewBroker(0, nil, nil), config.EngineConfig{}, nil)
	if svc.logger == nil {
		t.Fatal("NewBoardService(nil logger) should create a no-op logger, got nil")
	}
	if svc.cfg.LockTimeout != DefaultLockTimeout {
		t.Errorf("LockTimeout = %v, want %v", svc.cfg.LockTimeout, DefaultLockTimeout)
	}
	if svc.cfg.ListWorkers != DefaultListWorkers {
		t.Errorf("ListWorkers = %d, want %d", svc.cfg.ListWorkers, DefaultListWorkers)
	}
}

// --- CreateBoard ---

func TestBoardService_CreateBoard(t *testing.T) {
	t.Parallel()

	t.Run("builds default structure", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		b := mustCreateBoard(t, svc, owner, "Sprint 1")

		if b.OwnerID != owner.ID || b.Version != 1 {
			t.Errorf("CreateBoard() owner = %q version = %d, want %q and 1", b.OwnerID, b.Version, owner.ID)
		}
		if len(b.Columns) != 1 || b.Columns[0].Title != board.DefaultColumnTitle || b.Columns[0].Type != board.ColumnStatus {
			t.Errorf("Columns = %+v, want one default status column", b.Columns)
		}
		if len(b.Groups) != 1 || b.Groups[0].Title != board.DefaultGroupTitle || len(b.Groups[0].ItemIDs) != 0 {
			t.Errorf("Groups = %+v, want one empty default group", b.Groups)
		}
	})

	t.Run("rejects blank title", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		_, err := svc.CreateBoard(context.Background(), owner, ports.CreateBoardInput{Title: "  "})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("CreateBoard() error = %v, want ErrValidation", err)
		}
	})

	t.Run("rejects anonymous actor", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		_, err := svc.CreateBoard(context.Background(), access.Actor{}, ports.CreateBoardInput{Title: "Sprint 1"})
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("CreateBoard() error = %v, want ErrUnauthorized", err)
		}
	})
}

// --- Scenarios ---

func TestBoardService_SprintScenario(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	mainGroup := b.Groups[0].ID

	task := mustCreateItem(t, svc, b.ID, mainGroup, "Task A")
	if got := groupByID(t, mustGetBoard(t, svc, b.ID), mainGroup).ItemIDs; !slices.Equal(got, []string{task.ID}) {
		t.Fatalf("Main Group items = %v, want [%s]", got, task.ID)
	}

	done := mustCreateGroup(t, svc, b.ID, "Done")
	moved, err := svc.MoveItem(ctx, owner, task.ID, done.ID, nil)
	if err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	if moved.Value.GroupID != done.ID {
		t.Errorf("moved GroupID = %q, want %q", moved.Value.GroupID, done.ID)
	}
	if moved.Version != 4 {
		t.Errorf("moved Version = %d, want 4", moved.Version)
	}

	after := mustGetBoard(t, svc, b.ID)
	if got := groupByID(t, after, mainGroup).ItemIDs; len(got) != 0 {
		t.Errorf("Main Group items = %v, want empty", got)
	}
	if got := groupByID(t, after, done.ID).ItemIDs; !slices.Equal(got, []string{task.ID}) {
		t.Errorf("Done items = %v, want [%s]", got, task.ID)
	}
}

func TestBoardService_ReorderColumns(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	c1 := b.Columns[0].ID
	c2, err := svc.CreateColumn(ctx, owner, b.ID, ports.ColumnInput{Title: "Notes", Type: board.ColumnText})
	if err != nil {
		t.Fatalf("CreateColumn() error = %v", err)
	}

	got, err := svc.ReorderColumns(ctx, owner, b.ID, []string{c2.Value.ID, c1})
	if err != nil {
		t.Fatalf("ReorderColumns() error = %v", err)
	}
	if want := []string{c2.Value.ID, c1}; !slices.Equal(got.ColumnIDs(), want) {
		t.Errorf("ColumnIDs() = %v, want %v", got.ColumnIDs(), want)
	}

	_, err = svc.ReorderColumns(ctx, owner, b.ID, []string{c2.Value.ID})
	var rerr *domain.ReorderError
	if !errors.As(err, &rerr) {
		t.Fatalf("ReorderColumns(missing) error = %v, want *ReorderError", err)
	}
	if !slices.Equal(rerr.Missing, []string{c1}) {
		t.Errorf("Missing = %v, want [%s]", rerr.Missing, c1)
	}

	after := mustGetBoard(t, svc, b.ID)
	if after.Version != got.Version {
		t.Errorf("Version after failed reorder = %d, want %d", after.Version, got.Version)
	}
	if want := []string{c2.Value.ID, c1}; !slices.Equal(after.ColumnIDs(), want) {
		t.Errorf("ColumnIDs() after failed reorder = %v, want %v", after.ColumnIDs(), want)
	}
}

// --- Columns ---

func TestBoardService_Columns(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	status := b.Columns[0].ID

	head, err := svc.CreateColumn(ctx, owner, b.ID, ports.ColumnInput{Title: "Owner", Type: board.ColumnPerson, Position: intPtr(0)})
	if err != nil {
		t.Fatalf("CreateColumn() error = %v", err)
	}
	if got := mustGetBoard(t, svc, b.ID).ColumnIDs(); !slices.Equal(got, []string{head.Value.ID, status}) {
		t.Errorf("ColumnIDs() = %v, want new column first", got)
	}

	if _, err := svc.CreateColumn(ctx, owner, b.ID, ports.ColumnInput{Title: "Bad", Type: "spreadsheet"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CreateColumn(bad type) error = %v, want ErrValidation", err)
	}

	newType := board.ColumnText
	updated, err := svc.UpdateColumn(ctx, owner, b.ID, head.Value.ID, ports.ColumnPatch{
		Title:    strPtr("Assignee"),
		Type:     &newType,
		Settings: map[string]any{"width": 120},
	})
	if err != nil {
		t.Fatalf("UpdateColumn() error = %v", err)
	}
	if updated.Value.Title != "Assignee" || updated.Value.Type != board.ColumnText || updated.Value.Settings["width"] != 120 {
		t.Errorf("UpdateColumn() = %+v", updated.Value)
	}

	if _, err := svc.UpdateColumn(ctx, owner, b.ID, "nope", ports.ColumnPatch{Title: strPtr("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateColumn(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.DeleteColumn(ctx, owner, b.ID, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteColumn(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBoardService_DeleteColumnKeepsItemValues(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	status := b.Columns[0].ID
	it, err := svc.CreateItem(ctx, owner, b.ID, ports.ItemInput{
		GroupID: b.Groups[0].ID,
		Title:   "Task A",
		Values:  map[string]board.Value{status: board.StatusValue("Done")},
	})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	ack, err := svc.DeleteColumn(ctx, owner, b.ID, status)
	if err != nil {
		t.Fatalf("DeleteColumn() error = %v", err)
	}
	if ack.Version != it.Version+1 {
		t.Errorf("DeleteColumn() version = %d, want %d", ack.Version, it.Version+1)
	}

	got, err := svc.GetItem(ctx, owner, it.Value.ID)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if v := got.Value.Values[status]; v.Kind != board.KindStatus || v.Text != "Done" {
		t.Errorf("orphaned value = %+v, want status Done kept", v)
	}
}

// --- Groups ---

func TestBoardService_DeleteGroup(t *testing.T) {
	t.Parallel()

	// setup returns a board with groups src [a b] and dst [c].
	setup := func(t *testing.T) (*BoardService, string, board.Group, board.Group) {
		t.Helper()
		svc, _ := newTestService(t)
		b := mustCreateBoard(t, svc, owner, "Sprint 1")
		src := mustCreateGroup(t, svc, b.ID, "Src")
		dst := mustCreateGroup(t, svc, b.ID, "Dst")
		mustCreateItem(t, svc, b.ID, src.ID, "a")
		mustCreateItem(t, svc, b.ID, src.ID, "b")
		mustCreateItem(t, svc, b.ID, dst.ID, "c")
		after := mustGetBoard(t, svc, b.ID)
		return svc, b.ID, groupByID(t, after, src.ID), groupByID(t, after, dst.ID)
	}

	t.Run("delete items removes them", func(t *testing.T) {
		t.Parallel()
		svc, boardID, src, _ := setup(t)

		if _, err := svc.DeleteGroup(context.Background(), owner, boardID, src.ID, ports.DeleteItems()); err != nil {
			t.Fatalf("DeleteGroup() error = %v", err)
		}
		after := mustGetBoard(t, svc, boardID)
		if after.GroupIndex(src.ID) >= 0 {
			t.Error("group still present")
		}
		for _, id := range src.ItemIDs {
			if _, ok := after.Items[id]; ok {
				t.Errorf("item %q survived cascade delete", id)
			}
		}
		if len(after.Items) != 1 {
			t.Errorf("len(Items) = %d, want 1", len(after.Items))
		}
	})

	t.Run("reassign appends in order", func(t *testing.T) {
		t.Parallel()
		svc, boardID, src, dst := setup(t)

		if _, err := svc.DeleteGroup(context.Background(), owner, boardID, src.ID, ports.Reassign(dst.ID)); err != nil {
			t.Fatalf("DeleteGroup() error = %v", err)
		}
		after := mustGetBoard(t, svc, boardID)
		want := append(slices.Clone(dst.ItemIDs), src.ItemIDs...)
		got := groupByID(t, after, dst.ID).ItemIDs
		if !slices.Equal(got, want) {
			t.Errorf("target items = %v, want %v", got, want)
		}
		for _, id := range src.ItemIDs {
			if after.Items[id].GroupID != dst.ID {
				t.Errorf("item %q GroupID = %q, want %q", id, after.Items[id].GroupID, dst.ID)
			}
		}
	})

	errTests := []struct {
		name    string
		group   func(src, dst board.Group) string
		policy  func(src, dst board.Group) ports.CascadePolicy
		wantErr error
	}{
		{
			name:    "reassign to itself",
			group:   func(src, _ board.Group) string { return src.ID },
			policy:  func(src, _ board.Group) ports.CascadePolicy { return ports.Reassign(src.ID) },
			wantErr: domain.ErrInvalidOperation,
		},
		{
			name:    "reassign to missing group",
			group:   func(src, _ board.Group) string { return src.ID },
			policy:  func(board.Group, board.Group) ports.CascadePolicy { return ports.Reassign("ghost") },
			wantErr: domain.ErrInvalidOperation,
		},
		{
			name:    "no policy",
			group:   func(src, _ board.Group) string { return src.ID },
			policy:  func(board.Group, board.Group) ports.CascadePolicy { return ports.CascadePolicy{} },
			wantErr: domain.ErrInvalidOperation,
		},
		{
			name:    "missing group",
			group:   func(board.Group, board.Group) string { return "ghost" },
			policy:  func(board.Group, board.Group) ports.CascadePolicy { return ports.DeleteItems() },
			wantErr: domain.ErrNotFound,
		},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, boardID, src, dst := setup(t)
			before := mustGetBoard(t, svc, boardID)

			_, err := svc.DeleteGroup(context.Background(), owner, boardID, tt.group(src, dst), tt.policy(src, dst))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DeleteGroup() error = %v, want %v", err, tt.wantErr)
			}
			if after := mustGetBoard(t, svc, boardID); after.Version != before.Version {
				t.Errorf("Version = %d, want unchanged %d", after.Version, before.Version)
			}
		})
	}
}

func TestBoardService_Groups(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	main := b.Groups[0].ID
	first, err := svc.CreateGroup(ctx, owner, b.ID, ports.GroupInput{Title: "Urgent", Position: intPtr(0)})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if got := mustGetBoard(t, svc, b.ID).GroupIDs(); !slices.Equal(got, []string{first.Value.ID, main}) {
		t.Errorf("GroupIDs() = %v, want new group first", got)
	}

	renamed, err := svc.UpdateGroup(ctx, owner, b.ID, first.Value.ID, ports.GroupPatch{Title: strPtr("Today")})
	if err != nil {
		t.Fatalf("UpdateGroup() error = %v", err)
	}
	if renamed.Value.Title != "Today" {
		t.Errorf("Title = %q, want Today", renamed.Value.Title)
	}
	if _, err := svc.UpdateGroup(ctx, owner, b.ID, first.Value.ID, ports.GroupPatch{Title: strPtr("")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("UpdateGroup(blank) error = %v, want ErrValidation", err)
	}

	reordered, err := svc.ReorderGroups(ctx, owner, b.ID, []string{main, first.Value.ID})
	if err != nil {
		t.Fatalf("ReorderGroups() error = %v", err)
	}
	if got := reordered.GroupIDs(); !slices.Equal(got, []string{main, first.Value.ID}) {
		t.Errorf("GroupIDs() = %v", got)
	}
	if _, err := svc.ReorderGroups(ctx, owner, b.ID, []string{main, main}); !errors.Is(err, domain.ErrInvalidReorder) {
		t.Errorf("ReorderGroups(duplicate) error = %v, want ErrInvalidReorder", err)
	}
}

// --- Items ---

func TestBoardService_UpdateItem(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	if _, err := svc.AddMember(ctx, owner, b.ID, member.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	created, err := svc.CreateItem(ctx, owner, b.ID, ports.ItemInput{
		GroupID: b.Groups[0].ID,
		Title:   "Task A",
		Values:  map[string]board.Value{"notes": board.TextValue("draft"), "points": board.NumberValue(3)},
	})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	got, err := svc.UpdateItem(ctx, member, created.Value.ID, ports.ItemPatch{
		Title:  strPtr("Task A2"),
		Values: map[string]board.Value{"notes": board.TextValue("final")},
	})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if got.Value.Title != "Task A2" {
		t.Errorf("Title = %q, want Task A2", got.Value.Title)
	}
	if got.Value.Values["notes"].Text != "final" || got.Value.Values["points"].Number != 3 {
		t.Errorf("Values = %+v, want notes replaced and points kept", got.Value.Values)
	}
	if got.Value.UpdatedBy != member.ID || got.Value.CreatedBy != owner.ID {
		t.Errorf("CreatedBy/UpdatedBy = %q/%q, want %q/%q", got.Value.CreatedBy, got.Value.UpdatedBy, owner.ID, member.ID)
	}

	_, err = svc.UpdateItem(ctx, owner, created.Value.ID, ports.ItemPatch{GroupID: strPtr("elsewhere")})
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("UpdateItem(groupId) error = %v, want ErrInvalidOperation", err)
	}
	if _, err := svc.UpdateItem(ctx, owner, "ghost", ports.ItemPatch{Title: strPtr("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateItem(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBoardService_DeleteItem(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	group := b.Groups[0].ID
	a := mustCreateItem(t, svc, b.ID, group, "a")
	c := mustCreateItem(t, svc, b.ID, group, "c")

	if _, err := svc.DeleteItem(ctx, owner, a.ID); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if got := groupByID(t, mustGetBoard(t, svc, b.ID), group).ItemIDs; !slices.Equal(got, []string{c.ID}) {
		t.Errorf("group items = %v, want [%s]", got, c.ID)
	}
	if _, err := svc.GetItem(ctx, owner, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetItem(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.DeleteItem(ctx, owner, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteItem(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestBoardService_CreateItemInMissingGroup(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	_, err := svc.CreateItem(context.Background(), owner, b.ID, ports.ItemInput{GroupID: "ghost", Title: "a"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CreateItem() error = %v, want ErrNotFound", err)
	}
}

func TestBoardService_MoveItemPositions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sameList bool
		position *int
		want     func(x, a, b string) []string
	}{
		{name: "append by default", want: func(x, a, b string) []string { return []string{a, b, x} }},
		{name: "insert at head", position: intPtr(0), want: func(x, a, b string) []string { return []string{x, a, b} }},
		{name: "clamp past end", position: intPtr(99), want: func(x, a, b string) []string { return []string{a, b, x} }},
		{name: "clamp negative", position: intPtr(-3), want: func(x, a, b string) []string { return []string{x, a, b} }},
		{
			name: "reposition within group", sameList: true, position: intPtr(1),
			want: func(x, a, b string) []string { return []string{a, x, b} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newTestService(t)
			bd := mustCreateBoard(t, svc, owner, "Sprint 1")
			target := mustCreateGroup(t, svc, bd.ID, "Target")

			source := bd.Groups[0].ID
			if tt.sameList {
				source = target.ID
			}
			x := mustCreateItem(t, svc, bd.ID, source, "x")
			a := mustCreateItem(t, svc, bd.ID, target.ID, "a")
			b := mustCreateItem(t, svc, bd.ID, target.ID, "b")

			if _, err := svc.MoveItem(context.Background(), owner, x.ID, target.ID, tt.position); err != nil {
				t.Fatalf("MoveItem() error = %v", err)
			}
			got := groupByID(t, mustGetBoard(t, svc, bd.ID), target.ID).ItemIDs
			if want := tt.want(x.ID, a.ID, b.ID); !slices.Equal(got, want) {
				t.Errorf("target items = %v, want %v", got, want)
			}
		})
	}
}

func TestBoardService_MoveItemTargets(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b1 := mustCreateBoard(t, svc, owner, "One")
	b2 := mustCreateBoard(t, svc, owner, "Two")
	it := mustCreateItem(t, svc, b1.ID, b1.Groups[0].ID, "x")

	if _, err := svc.MoveItem(ctx, owner, it.ID, b2.Groups[0].ID, nil); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("MoveItem(other board) error = %v, want ErrInvalidOperation", err)
	}
	if _, err := svc.MoveItem(ctx, owner, it.ID, "ghost", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("MoveItem(missing group) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.MoveItem(ctx, owner, "ghost", b1.Groups[0].ID, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("MoveItem(missing item) error = %v, want ErrNotFound", err)
	}
	if got := mustGetBoard(t, svc, b1.ID).Items[it.ID].GroupID; got != b1.Groups[0].ID {
		t.Errorf("GroupID after failed moves = %q, want %q", got, b1.Groups[0].ID)
	}
}

func TestBoardService_ReorderItemsWithinGroup(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	bd := mustCreateBoard(t, svc, owner, "Sprint 1")
	group := bd.Groups[0].ID
	a := mustCreateItem(t, svc, bd.ID, group, "a")
	b := mustCreateItem(t, svc, bd.ID, group, "b")

	got, err := svc.ReorderItemsWithinGroup(ctx, owner, group, []string{b.ID, a.ID})
	if err != nil {
		t.Fatalf("ReorderItemsWithinGroup() error = %v", err)
	}
	if !slices.Equal(got.Value.ItemIDs, []string{b.ID, a.ID}) {
		t.Errorf("ItemIDs = %v, want [%s %s]", got.Value.ItemIDs, b.ID, a.ID)
	}

	_, err = svc.ReorderItemsWithinGroup(ctx, owner, group, []string{b.ID, a.ID, "extra"})
	var rerr *domain.ReorderError
	if !errors.As(err, &rerr) || !slices.Equal(rerr.Unexpected, []string{"extra"}) {
		t.Errorf("ReorderItemsWithinGroup(extra) error = %v, want ReorderError with unexpected [extra]", err)
	}
	if _, err := svc.ReorderItemsWithinGroup(ctx, owner, "ghost", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ReorderItemsWithinGroup(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBoardService_ListItems(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	bd := mustCreateBoard(t, svc, owner, "Sprint 1")
	other := mustCreateGroup(t, svc, bd.ID, "Other")
	a := mustCreateItem(t, svc, bd.ID, other.ID, "a")
	b := mustCreateItem(t, svc, bd.ID, bd.Groups[0].ID, "b")

	items, err := svc.ListItems(context.Background(), owner, bd.ID)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != a.ID || items[1].ID != b.ID {
		t.Errorf("ListItems() = %+v, want [a b] by creation time", items)
	}
}

// --- Boards and members ---

func TestBoardService_UpdateBoard(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.CreateBoard(ctx, owner, ports.CreateBoardInput{Title: "Sprint 1", Settings: map[string]any{"color": "blue", "icon": "rocket"}})
	if err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}

	got, err := svc.UpdateBoard(ctx, owner, b.ID, ports.BoardPatch{
		Description: strPtr("two weeks"),
		Settings:    map[string]any{"color": "red", "icon": nil},
	})
	if err != nil {
		t.Fatalf("UpdateBoard() error = %v", err)
	}
	if got.Title != "Sprint 1" || got.Description != "two weeks" {
		t.Errorf("UpdateBoard() title/description = %q/%q", got.Title, got.Description)
	}
	if got.Settings["color"] != "red" {
		t.Errorf("Settings[color] = %v, want red", got.Settings["color"])
	}
	if _, ok := got.Settings["icon"]; ok {
		t.Error("Settings[icon] present, want removed by nil patch value")
	}

	if _, err := svc.UpdateBoard(ctx, owner, b.ID, ports.BoardPatch{Title: strPtr(" ")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("UpdateBoard(blank title) error = %v, want ErrValidation", err)
	}
}

func TestBoardService_Members(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")

	added, err := svc.AddMember(ctx, owner, b.ID, member.ID)
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if !slices.Equal(added.MemberIDs, []string{member.ID}) || added.Version != 2 {
		t.Errorf("AddMember() members = %v version = %d", added.MemberIDs, added.Version)
	}

	again, err := svc.AddMember(ctx, owner, b.ID, owner.ID)
	if err != nil {
		t.Fatalf("AddMember(owner) error = %v", err)
	}
	if again.Version != 2 || slices.Contains(again.MemberIDs, owner.ID) {
		t.Errorf("AddMember(owner) = members %v version %d, want no-op", again.MemberIDs, again.Version)
	}

	if _, err := svc.RemoveMember(ctx, owner, b.ID, owner.ID); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("RemoveMember(owner) error = %v, want ErrInvalidOperation", err)
	}
	if _, err := svc.RemoveMember(ctx, owner, b.ID, stranger.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("RemoveMember(non-member) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.AddMember(ctx, owner, b.ID, " "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("AddMember(blank) error = %v, want ErrValidation", err)
	}

	if _, err := svc.GetBoard(ctx, member, b.ID); err != nil {
		t.Fatalf("GetBoard(member) error = %v", err)
	}
	if _, err := svc.RemoveMember(ctx, owner, b.ID, member.ID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if _, err := svc.GetBoard(ctx, member, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetBoard(removed member) error = %v, want ErrNotFound", err)
	}
}

func TestBoardService_MemberCapabilities(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	admin := access.Actor{ID: "u4", Roles: []string{"admin"}}

	svc, _ := newTestService(t, WithGuard(access.NewGuard(access.RoleElevation("admin"))))
	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	for _, id := range []string{member.ID, admin.ID} {
		if _, err := svc.AddMember(ctx, owner, b.ID, id); err != nil {
			t.Fatalf("AddMember(%q) error = %v", id, err)
		}
	}

	if _, err := svc.CreateGroup(ctx, member, b.ID, ports.GroupInput{Title: "Mine"}); err != nil {
		t.Errorf("CreateGroup(member) error = %v, want nil", err)
	}

	_, err := svc.AddMember(ctx, member, b.ID, "u9")
	if !errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AddMember(member) error = %v, want plain ErrUnauthorized", err)
	}
	if err := svc.DeleteBoard(ctx, member, b.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("DeleteBoard(member) error = %v, want ErrUnauthorized", err)
	}

	if _, err := svc.AddMember(ctx, admin, b.ID, "u9"); err != nil {
		t.Errorf("AddMember(elevated) error = %v, want nil", err)
	}
	if err := svc.DeleteBoard(ctx, admin, b.ID); err != nil {
		t.Errorf("DeleteBoard(elevated) error = %v, want nil", err)
	}
}

func TestBoardService_StrangerSeesNothing(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	group := b.Groups[0].ID
	column := b.Columns[0].ID
	it := mustCreateItem(t, svc, b.ID, group, "secret")
	before := mustGetBoard(t, svc, b.ID)

	ops := map[string]func() error{
		"GetBoard":      func() error { _, err := svc.GetBoard(ctx, stranger, b.ID); return err },
		"UpdateBoard":   func() error { _, err := svc.UpdateBoard(ctx, stranger, b.ID, ports.BoardPatch{Title: strPtr("x")}); return err },
		"DeleteBoard":   func() error { return svc.DeleteBoard(ctx, stranger, b.ID) },
		"AddMember":     func() error { _, err := svc.AddMember(ctx, stranger, b.ID, stranger.ID); return err },
		"RemoveMember":  func() error { _, err := svc.RemoveMember(ctx, stranger, b.ID, owner.ID); return err },
		"CreateColumn":  func() error { _, err := svc.CreateColumn(ctx, stranger, b.ID, ports.ColumnInput{Title: "x", Type: board.ColumnText}); return err },
		"UpdateColumn":  func() error { _, err := svc.UpdateColumn(ctx, stranger, b.ID, column, ports.ColumnPatch{Title: strPtr("x")}); return err },
		"DeleteColumn":  func() error { _, err := svc.DeleteColumn(ctx, stranger, b.ID, column); return err },
		"ReorderCols":   func() error { _, err := svc.ReorderColumns(ctx, stranger, b.ID, []string{column}); return err },
		"CreateGroup":   func() error { _, err := svc.CreateGroup(ctx, stranger, b.ID, ports.GroupInput{Title: "x"}); return err },
		"UpdateGroup":   func() error { _, err := svc.UpdateGroup(ctx, stranger, b.ID, group, ports.GroupPatch{Title: strPtr("x")}); return err },
		"DeleteGroup":   func() error { _, err := svc.DeleteGroup(ctx, stranger, b.ID, group, ports.DeleteItems()); return err },
		"ReorderGroups": func() error { _, err := svc.ReorderGroups(ctx, stranger, b.ID, []string{group}); return err },
		"CreateItem":    func() error { _, err := svc.CreateItem(ctx, stranger, b.ID, ports.ItemInput{GroupID: group, Title: "x"}); return err },
		"GetItem":       func() error { _, err := svc.GetItem(ctx, stranger, it.ID); return err },
		"ListItems":     func() error { _, err := svc.ListItems(ctx, stranger, b.ID); return err },
		"UpdateItem":    func() error { _, err := svc.UpdateItem(ctx, stranger, it.ID, ports.ItemPatch{Title: strPtr("x")}); return err },
		"DeleteItem":    func() error { _, err := svc.DeleteItem(ctx, stranger, it.ID); return err },
		"MoveItem":      func() error { _, err := svc.MoveItem(ctx, stranger, it.ID, group, intPtr(0)); return err },
		"ReorderItems":  func() error { _, err := svc.ReorderItemsWithinGroup(ctx, stranger, group, []string{it.ID}); return err },
		"WithReadLock":  func() error { return svc.WithReadLock(ctx, stranger, b.ID, func(*board.Board) error { return nil }) },
		"Subscribe":     func() error { _, err := svc.Subscribe(ctx, stranger, b.ID); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("%s() error = %v, want not-found equivalent", name, err)
			}
		})
	}

	if after := mustGetBoard(t, svc, b.ID); after.Version != before.Version {
		t.Errorf("Version = %d, want unchanged %d", after.Version, before.Version)
	}

	_, hidden := svc.GetBoard(ctx, stranger, b.ID)
	_, missing := svc.GetBoard(ctx, owner, "no-such-board")
	if hidden.Error() != missing.Error() {
		t.Errorf("hidden board message %q differs from missing board message %q", hidden, missing)
	}

	t.Run("MoveItemIntoHiddenGroup", func(t *testing.T) {
		own := mustCreateBoard(t, svc, stranger, "Stranger's board")
		mine, err := svc.CreateItem(ctx, stranger, own.ID, ports.ItemInput{GroupID: own.Groups[0].ID, Title: "mine"})
		if err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}

		_, hiddenErr := svc.MoveItem(ctx, stranger, mine.Value.ID, group, nil)
		if !errors.Is(hiddenErr, domain.ErrNotFound) || errors.Is(hiddenErr, domain.ErrInvalidOperation) {
			t.Fatalf("MoveItem(hidden group) error = %v, want not-found", hiddenErr)
		}
		_, missingErr := svc.MoveItem(ctx, stranger, mine.Value.ID, "no-such-group", nil)
		hiddenMsg := strings.ReplaceAll(hiddenErr.Error(), group, "<id>")
		missingMsg := strings.ReplaceAll(missingErr.Error(), "no-such-group", "<id>")
		if hiddenMsg != missingMsg {
			t.Errorf("hidden group message %q differs from missing group message %q", hiddenErr, missingErr)
		}
	})
}

func TestBoardService_ListBoards(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := mustCreateBoard(t, svc, owner, "First")
	second := mustCreateBoard(t, svc, owner, "Second")
	shared := mustCreateBoard(t, svc, member, "Shared")
	mustCreateBoard(t, svc, member, "Private")
	if _, err := svc.AddMember(ctx, member, shared.ID, owner.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	boards, err := svc.ListBoards(ctx, owner)
	if err != nil {
		t.Fatalf("ListBoards() error = %v", err)
	}
	got := make([]string, len(boards))
	for i, b := range boards {
		got[i] = b.ID
	}
	if want := []string{shared.ID, second.ID, first.ID}; !slices.Equal(got, want) {
		t.Errorf("ListBoards() = %v, want %v (newest first)", got, want)
	}

	if err := svc.DeleteBoard(ctx, owner, second.ID); err != nil {
		t.Fatalf("DeleteBoard() error = %v", err)
	}
	boards, err = svc.ListBoards(ctx, owner)
	if err != nil {
		t.Fatalf("ListBoards() after delete error = %v", err)
	}
	if len(boards) != 2 {
		t.Errorf("len(ListBoards()) = %d, want 2", len(boards))
	}
}

// --- Concurrency ---

func TestBoardService_ConcurrentMovesSerialize(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	g2 := mustCreateGroup(t, svc, b.ID, "G2")
	g3 := mustCreateGroup(t, svc, b.ID, "G3")
	x := mustCreateItem(t, svc, b.ID, b.Groups[0].ID, "x")
	before := mustGetBoard(t, svc, b.ID)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, target := range []string{g2.ID, g3.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.MoveItem(ctx, owner, x.ID, target, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("MoveItem() error = %v", err)
		}
	}

	after := mustGetBoard(t, svc, b.ID)
	if after.Version != before.Version+2 {
		t.Errorf("Version = %d, want %d", after.Version, before.Version+2)
	}
	in2 := slices.Contains(groupByID(t, after, g2.ID).ItemIDs, x.ID)
	in3 := slices.Contains(groupByID(t, after, g3.ID).ItemIDs, x.ID)
	if in2 == in3 {
		t.Errorf("item in G2 = %v, in G3 = %v; want exactly one", in2, in3)
	}
	if err := after.CheckIntegrity(); err != nil {
		t.Errorf("CheckIntegrity() = %v", err)
	}
}

func TestBoardService_ManyConcurrentMovesKeepIntegrity(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	groups := []string{b.Groups[0].ID, mustCreateGroup(t, svc, b.ID, "G2").ID, mustCreateGroup(t, svc, b.ID, "G3").ID}
	items := make([]string, 4)
	for i := range items {
		items[i] = mustCreateItem(t, svc, b.ID, groups[0], fmt.Sprintf("item-%d", i)).ID
	}

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 10 {
				itemID := items[(w+i)%len(items)]
				target := groups[(w*i+i)%len(groups)]
				if _, err := svc.MoveItem(ctx, owner, itemID, target, intPtr(i%3)); err != nil {
					t.Errorf("MoveItem() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()

	after := mustGetBoard(t, svc, b.ID)
	if err := after.CheckIntegrity(); err != nil {
		t.Fatalf("CheckIntegrity() = %v", err)
	}
	var total int
	for _, g := range after.Groups {
		total += len(g.ItemIDs)
	}
	if total != len(items) {
		t.Errorf("items across groups = %d, want %d", total, len(items))
	}
}

func TestBoardService_LockTimeoutReportsBusy(t *testing.T) {
	t.Parallel()
	broker := pubsub.NewBroker(0, nil, nil)
	svc := NewBoardService(memory.New(), broker, config.EngineConfig{LockTimeout: 20 * time.Millisecond}, discardLogger())
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")

	held := make(chan struct{})
	unblock := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- svc.WithReadLock(ctx, owner, b.ID, func(*board.Board) error {
			close(held)
			<-unblock
			return nil
		})
	}()
	<-held

	_, err := svc.UpdateBoard(ctx, owner, b.ID, ports.BoardPatch{Title: strPtr("Later")})
	if !errors.Is(err, domain.ErrBusy) {
		t.Errorf("UpdateBoard() while locked error = %v, want ErrBusy", err)
	}
	if !domain.Retryable(err) {
		t.Error("Retryable(busy) = false, want true")
	}

	close(unblock)
	if err := <-done; err != nil {
		t.Fatalf("WithReadLock() error = %v", err)
	}
	if _, err := svc.UpdateBoard(ctx, owner, b.ID, ports.BoardPatch{Title: strPtr("Later")}); err != nil {
		t.Errorf("UpdateBoard() after release error = %v", err)
	}
}

func TestBoardService_ExpectedVersion(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")

	_, err := svc.CreateGroup(ctx, owner, b.ID, ports.GroupInput{Title: "Late"}, ports.IfVersion(7))
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Errorf("CreateGroup(stale version) error = %v, want ErrVersionConflict", err)
	}

	g, err := svc.CreateGroup(ctx, owner, b.ID, ports.GroupInput{Title: "On time"}, ports.IfVersion(b.Version))
	if err != nil {
		t.Fatalf("CreateGroup(current version) error = %v", err)
	}
	if g.Version != b.Version+1 {
		t.Errorf("Version = %d, want %d", g.Version, b.Version+1)
	}
}

// newSharedInstance builds an engine instance on the shared Redis server mr,
// as deployed with the redis store and redis change relay.
func newSharedInstance(t *testing.T, mr *miniredis.Miniredis) *BoardService {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	broker := pubsub.NewBroker(pubsub.DefaultBuffer, nil, discardLogger())
	t.Cleanup(func() { broker.Shutdown(context.Background()) })
	relay := pubsub.NewRedisRelay(rdb, "test-events", broker, discardLogger())
	if err := relay.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = relay.Close() })

	return NewBoardService(redisstore.New(rdb, "test:"), relay, config.EngineConfig{LockTimeout: 5 * time.Second}, discardLogger(),
		WithLocker(redisstore.NewLeases(rdb, "test:", time.Second, discardLogger())),
	)
}

func TestBoardService_InstancesSharingRedisSerialize(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	a := newSharedInstance(t, mr)
	b := newSharedInstance(t, mr)
	ctx := context.Background()

	shared := mustCreateBoard(t, a, owner, "Shared")
	sub, err := b.Subscribe(ctx, owner, shared.ID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	t.Cleanup(sub.Close)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		svc := a
		if i%2 == 1 {
			svc = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateGroup(ctx, owner, shared.ID, ports.GroupInput{Title: fmt.Sprintf("G%d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("CreateGroup() error = %v", err)
		}
	}

	final, err := a.GetBoard(ctx, owner, shared.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if want := shared.Version + writers; final.Version != want || len(final.Groups) != writers+1 {
		t.Fatalf("Version = %d groups = %d, want %d and %d", final.Version, len(final.Groups), want, writers+1)
	}

	// Relayed and local events interleave, but the stream never goes back.
	var last int64
	for last < final.Version {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				t.Fatalf("stream closed at version %d, reason %q", last, sub.Reason())
			}
			if e.Version <= last {
				t.Fatalf("event version %d after %d", e.Version, last)
			}
			last = e.Version
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out at version %d, want %d", last, final.Version)
		}
	}
}

// --- Change propagation ---

func TestBoardService_PublishesInVersionOrder(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	sub, err := svc.Subscribe(ctx, owner, b.ID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	if _, err := svc.UpdateBoard(ctx, owner, b.ID, ports.BoardPatch{Title: strPtr("Sprint 2")}); err != nil {
		t.Fatalf("UpdateBoard() error = %v", err)
	}
	g := mustCreateGroup(t, svc, b.ID, "Done")
	it := mustCreateItem(t, svc, b.ID, g.ID, "Task")
	if err := svc.DeleteBoard(ctx, owner, b.ID); err != nil {
		t.Fatalf("DeleteBoard() error = %v", err)
	}

	want := []struct {
		op      change.Op
		version int64
		ids     []string
	}{
		{change.BoardUpdated, 2, []string{b.ID}},
		{change.GroupCreated, 3, []string{g.ID}},
		{change.ItemCreated, 4, []string{it.ID, g.ID}},
		{change.BoardDeleted, 5, []string{b.ID}},
	}
	for i, w := range want {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				t.Fatalf("event %d: stream closed early, reason %q", i, sub.Reason())
			}
			if e.Op != w.op || e.Version != w.version || !slices.Equal(e.EntityIDs, w.ids) || e.ActorID != owner.ID {
				t.Errorf("event %d = %+v, want op %s version %d ids %v", i, e, w.op, w.version, w.ids)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("received event after board deletion")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after board deletion")
	}
	if got := sub.Reason(); got != change.ClosedBoardDeleted {
		t.Errorf("Reason() = %q, want %q", got, change.ClosedBoardDeleted)
	}

	if _, err := svc.Subscribe(ctx, owner, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Subscribe(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestBoardService_FailedMutationPublishesNothing(t *testing.T) {
	t.Parallel()
	svc, broker := newTestService(t)
	ctx := context.Background()

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	sub, err := svc.Subscribe(ctx, owner, b.ID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()
	if n := broker.Subscribers(b.ID); n != 1 {
		t.Fatalf("Subscribers() = %d, want 1", n)
	}

	if _, err := svc.ReorderGroups(ctx, owner, b.ID, []string{"ghost"}); err == nil {
		t.Fatal("ReorderGroups(bad order) error = nil")
	}

	select {
	case e := <-sub.Events():
		t.Errorf("received %+v for a rejected mutation", e)
	case <-time.After(50 * time.Millisecond):
	}
}

// --- Repository and propagator failures ---

func TestBoardService_RepositoryFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("load failure is not concealed", func(t *testing.T) {
		t.Parallel()
		repo := mocks.NewMockBoardRepository(t)
		prop := mocks.NewMockChangePropagator(t)
		svc := NewBoardService(repo, prop, config.EngineConfig{}, discardLogger())

		repo.EXPECT().Load(mock.Anything, "b1").Return(nil, fmt.Errorf("dial: %w", domain.ErrUnavailable))

		_, err := svc.UpdateBoard(ctx, owner, "b1", ports.BoardPatch{Title: strPtr("x")})
		if !errors.Is(err, domain.ErrUnavailable) || errors.Is(err, domain.ErrNotFound) {
			t.Errorf("UpdateBoard() error = %v, want ErrUnavailable only", err)
		}
	})

	t.Run("save conflict publishes nothing", func(t *testing.T) {
		t.Parallel()
		repo := mocks.NewMockBoardRepository(t)
		prop := mocks.NewMockChangePropagator(t)
		svc := NewBoardService(repo, prop, config.EngineConfig{}, discardLogger())

		repo.EXPECT().Load(mock.Anything, "b1").Return(repotest.Fixture("b1", owner.ID), nil)
		repo.EXPECT().Save(mock.Anything, mock.Anything, int64(1)).Return(domain.ErrVersionConflict).Once()

		_, err := svc.UpdateBoard(ctx, owner, "b1", ports.BoardPatch{Title: strPtr("x")}, ports.IfVersion(1))
		if !errors.Is(err, domain.ErrVersionConflict) {
			t.Errorf("UpdateBoard() error = %v, want ErrVersionConflict", err)
		}
	})

	t.Run("unpinned write replays after a concurrent commit", func(t *testing.T) {
		t.Parallel()
		repo := mocks.NewMockBoardRepository(t)
		prop := mocks.NewMockChangePropagator(t)
		svc := NewBoardService(repo, prop, config.EngineConfig{}, discardLogger())

		stale := repotest.Fixture("b1", owner.ID)
		fresh := repotest.Fixture("b1", owner.ID)
		fresh.Version = 2
		repo.EXPECT().Load(mock.Anything, "b1").Return(stale, nil).Once()
		repo.EXPECT().Save(mock.Anything, mock.Anything, int64(1)).Return(domain.ErrVersionConflict).Once()
		repo.EXPECT().Load(mock.Anything, "b1").Return(fresh, nil).Once()
		repo.EXPECT().Save(mock.Anything, mock.Anything, int64(2)).Return(nil).Once()
		prop.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e change.Event) bool {
			return e.Version == 3
		})).Return(nil).Once()

		got, err := svc.UpdateBoard(ctx, owner, "b1", ports.BoardPatch{Title: strPtr("Renamed")})
		if err != nil {
			t.Fatalf("UpdateBoard() error = %v, want nil", err)
		}
		if got.Version != 3 || got.Title != "Renamed" {
			t.Errorf("board version %d title %q, want 3 and Renamed", got.Version, got.Title)
		}
	})

	t.Run("unpinned write gives up after repeated conflicts", func(t *testing.T) {
		t.Parallel()
		repo := mocks.NewMockBoardRepository(t)
		prop := mocks.NewMockChangePropagator(t)
		svc := NewBoardService(repo, prop, config.EngineConfig{}, discardLogger())

		repo.EXPECT().Load(mock.Anything, "b1").Return(repotest.Fixture("b1", owner.ID), nil).Times(maxCommitAttempts)
		repo.EXPECT().Save(mock.Anything, mock.Anything, int64(1)).Return(domain.ErrVersionConflict).Times(maxCommitAttempts)

		_, err := svc.UpdateBoard(ctx, owner, "b1", ports.BoardPatch{Title: strPtr("x")})
		if !errors.Is(err, domain.ErrVersionConflict) {
			t.Errorf("UpdateBoard() error = %v, want ErrVersionConflict", err)
		}
	})

	t.Run("publish failure keeps the commit", func(t *testing.T) {
		t.Parallel()
		repo := mocks.NewMockBoardRepository(t)
		prop := mocks.NewMockChangePropagator(t)
		svc := NewBoardService(repo, prop, config.EngineConfig{}, discardLogger())

		repo.EXPECT().Load(mock.Anything, "b1").Return(repotest.Fixture("b1", owner.ID), nil)
		repo.EXPECT().Save(mock.Anything, mock.Anything, int64(1)).
			Run(func(_ context.Context, b *board.Board, _ int64) {
				if b.Version != 2 || b.Title != "Renamed" {
					t.Errorf("Save() board version %d title %q, want 2 and Renamed", b.Version, b.Title)
				}
			}).
			Return(nil)
		prop.EXPECT().Publish(mock.Anything, mock.Anything).Return(fmt.Errorf("relay: %w", domain.ErrUnavailable))

		got, err := svc.UpdateBoard(ctx, owner, "b1", ports.BoardPatch{Title: strPtr("Renamed")})
		if err != nil {
			t.Fatalf("UpdateBoard() error = %v, want nil", err)
		}
		if got.Version != 2 {
			t.Errorf("Version = %d, want 2", got.Version)
		}
	})

	t.Run("delete uses repository delete", func(t *testing.T) {
		t.Parallel()
		repo := mocks.NewMockBoardRepository(t)
		prop := mocks.NewMockChangePropagator(t)
		svc := NewBoardService(repo, prop, config.EngineConfig{}, discardLogger())

		repo.EXPECT().Load(mock.Anything, "b1").Return(repotest.Fixture("b1", owner.ID), nil)
		repo.EXPECT().Delete(mock.Anything, "b1", int64(1)).Return(nil)
		prop.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e change.Event) bool {
			return e.Terminal() && e.Version == 2
		})).Return(nil)

		if err := svc.DeleteBoard(ctx, owner, "b1"); err != nil {
			t.Errorf("DeleteBoard() error = %v", err)
		}
	})

	t.Run("list propagates load failures", func(t *testing.T) {
		t.Parallel()
		repo := mocks.NewMockBoardRepository(t)
		prop := mocks.NewMockChangePropagator(t)
		svc := NewBoardService(repo, prop, config.EngineConfig{}, discardLogger())

		repo.EXPECT().ListForMember(mock.Anything, owner.ID).Return([]string{"b1", "b2", "gone"}, nil)
		repo.EXPECT().Load(mock.Anything, "b1").Return(repotest.Fixture("b1", owner.ID), nil)
		repo.EXPECT().Load(mock.Anything, "b2").Return(nil, fmt.Errorf("timeout: %w", domain.ErrUnavailable))
		repo.EXPECT().Load(mock.Anything, "gone").Return(nil, fmt.Errorf("board %q: %w", "gone", domain.ErrNotFound))

		_, err := svc.ListBoards(ctx, owner)
		if !errors.Is(err, domain.ErrUnavailable) {
			t.Errorf("ListBoards() error = %v, want ErrUnavailable", err)
		}
	})
}

func TestBoardService_RecordsMutationMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	reader := sdkmetric.NewManualReader()
	metrics, err := telemetry.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), "board-engine-test")
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	svc, _ := newTestService(t, WithMetrics(metrics))

	b := mustCreateBoard(t, svc, owner, "Sprint 1")
	if _, err := svc.UpdateBoard(ctx, stranger, b.ID, ports.BoardPatch{Title: strPtr("x")}); err == nil {
		t.Fatal("UpdateBoard(stranger) error = nil")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	results := map[string]int64{}
	var lockWaits uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name != "board.mutation.total" {
					continue
				}
				for _, dp := range data.DataPoints {
					v, _ := dp.Attributes.Value(telemetry.AttrResult)
					results[v.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				if m.Name != "board.lock.wait.duration" {
					continue
				}
				for _, dp := range data.DataPoints {
					lockWaits += dp.Count
				}
			}
		}
	}

	if results["success"] != 1 || results["rejected"] != 1 {
		t.Errorf("board.mutation.total by result = %v, want success=1 rejected=1", results)
	}
	if lockWaits != 2 {
		t.Errorf("board.lock.wait.duration count = %d, want 2", lockWaits)
	}
}
