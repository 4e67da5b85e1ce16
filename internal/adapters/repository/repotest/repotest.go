// Package repotest holds the behavioral suite every ports.BoardRepository
// implementation must pass.
package repotest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/board"
	"github.com/Aidzix/Monday/internal/ports"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// Fixture returns a board at version 1 with one item in the default group.
func Fixture(id, ownerID string) *board.Board {
	b := board.New(id, ownerID, "Roadmap", "Q3 plan", map[string]any{"color": "blue"}, id+"-c1", id+"-g1", t0)
	b.Version = 1
	item := board.Item{
		ID:        id + "-i1",
		GroupID:   id + "-g1",
		Title:     "Ship it",
		Values:    map[string]board.Value{id + "-c1": board.StatusValue("In Progress"), "due": board.DateValue(t0)},
		CreatedBy: ownerID,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	b.Items[item.ID] = item
	b.Groups[0].ItemIDs = []string{item.ID}
	return b
}

// Run exercises newRepo against the repository contract. newRepo must return
// an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) ports.BoardRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("save then load", func(t *testing.T) {
		repo := newRepo(t)
		in := Fixture("b1", "owner")
		mustSave(t, repo, in, 0)

		got, err := repo.Load(ctx, "b1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Title != in.Title || got.Description != in.Description || got.OwnerID != "owner" {
			t.Errorf("Load() board = %+v, want fields of %+v", got, in)
		}
		if got.Version != 1 {
			t.Errorf("Version = %d, want 1", got.Version)
		}
		if !slices.Equal(got.ColumnIDs(), in.ColumnIDs()) || !slices.Equal(got.GroupIDs(), in.GroupIDs()) {
			t.Errorf("structure = %v/%v, want %v/%v", got.ColumnIDs(), got.GroupIDs(), in.ColumnIDs(), in.GroupIDs())
		}
		item, ok := got.Items["b1-i1"]
		if !ok {
			t.Fatal("item b1-i1 missing after load")
		}
		if v := item.Values["b1-c1"]; v.Kind != board.KindStatus || v.Text != "In Progress" {
			t.Errorf("status value = %+v, want In Progress", v)
		}
		if v := item.Values["due"]; !v.Date.Equal(t0) {
			t.Errorf("date value = %v, want %v", v.Date, t0)
		}
		if err := got.CheckIntegrity(); err != nil {
			t.Errorf("CheckIntegrity() after load = %v", err)
		}
	})

	t.Run("load missing", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.Load(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("create twice conflicts", func(t *testing.T) {
		repo := newRepo(t)
		mustSave(t, repo, Fixture("b1", "owner"), 0)
		if err := repo.Save(ctx, Fixture("b1", "owner"), 0); !errors.Is(err, domain.ErrVersionConflict) {
			t.Errorf("second create error = %v, want ErrVersionConflict", err)
		}
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		repo := newRepo(t)
		b := Fixture("b1", "owner")
		mustSave(t, repo, b, 0)

		next := b.Clone()
		next.Version = 2
		next.Title = "Renamed"
		mustSave(t, repo, next, 1)

		stale := b.Clone()
		stale.Version = 2
		stale.Title = "Lost update"
		if err := repo.Save(ctx, stale, 1); !errors.Is(err, domain.ErrVersionConflict) {
			t.Fatalf("stale Save() error = %v, want ErrVersionConflict", err)
		}

		got, err := repo.Load(ctx, "b1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Title != "Renamed" || got.Version != 2 {
			t.Errorf("Load() = %q@%d, want Renamed@2", got.Title, got.Version)
		}
	})

	t.Run("loaded boards are private copies", func(t *testing.T) {
		repo := newRepo(t)
		mustSave(t, repo, Fixture("b1", "owner"), 0)

		first, err := repo.Load(ctx, "b1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		first.Title = "scribble"
		first.Groups[0].ItemIDs = nil
		delete(first.Items, "b1-i1")

		second, err := repo.Load(ctx, "b1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if second.Title != "Roadmap" || len(second.Items) != 1 || len(second.Groups[0].ItemIDs) != 1 {
			t.Errorf("second Load() saw mutations of the first: %+v", second)
		}
	})

	t.Run("locate follows saves", func(t *testing.T) {
		repo := newRepo(t)
		b := Fixture("b1", "owner")
		mustSave(t, repo, b, 0)

		for _, id := range []string{"b1-c1", "b1-g1", "b1-i1"} {
			got, err := repo.Locate(ctx, id)
			if err != nil || got != "b1" {
				t.Errorf("Locate(%q) = %q, %v; want b1", id, got, err)
			}
		}

		next := b.Clone()
		next.Version = 2
		delete(next.Items, "b1-i1")
		next.Groups[0].ItemIDs = []string{}
		mustSave(t, repo, next, 1)

		if _, err := repo.Locate(ctx, "b1-i1"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Locate(removed item) error = %v, want ErrNotFound", err)
		}
		if got, err := repo.Locate(ctx, "b1-g1"); err != nil || got != "b1" {
			t.Errorf("Locate(group) = %q, %v; want b1", got, err)
		}
	})

	t.Run("list for member", func(t *testing.T) {
		repo := newRepo(t)
		owned := Fixture("b1", "alice")
		shared := Fixture("b2", "bob")
		shared.MemberIDs = []string{"alice"}
		other := Fixture("b3", "bob")
		mustSave(t, repo, owned, 0)
		mustSave(t, repo, shared, 0)
		mustSave(t, repo, other, 0)

		got, err := repo.ListForMember(ctx, "alice")
		if err != nil {
			t.Fatalf("ListForMember() error = %v", err)
		}
		slices.Sort(got)
		if want := []string{"b1", "b2"}; !slices.Equal(got, want) {
			t.Errorf("ListForMember(alice) = %v, want %v", got, want)
		}

		revoked := shared.Clone()
		revoked.Version = 2
		revoked.MemberIDs = []string{}
		mustSave(t, repo, revoked, 1)

		got, err = repo.ListForMember(ctx, "alice")
		if err != nil {
			t.Fatalf("ListForMember() error = %v", err)
		}
		if want := []string{"b1"}; !slices.Equal(got, want) {
			t.Errorf("ListForMember(alice) after revoke = %v, want %v", got, want)
		}
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		mustSave(t, repo, Fixture("b1", "owner"), 0)

		if err := repo.Delete(ctx, "b1", 7); !errors.Is(err, domain.ErrVersionConflict) {
			t.Errorf("Delete(wrong version) error = %v, want ErrVersionConflict", err)
		}
		if err := repo.Delete(ctx, "b1", 1); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.Load(ctx, "b1"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Load() after Delete error = %v, want ErrNotFound", err)
		}
		if _, err := repo.Locate(ctx, "b1-i1"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Locate() after Delete error = %v, want ErrNotFound", err)
		}
		ids, err := repo.ListForMember(ctx, "owner")
		if err != nil || len(ids) != 0 {
			t.Errorf("ListForMember() after Delete = %v, %v; want empty", ids, err)
		}
		if err := repo.Delete(ctx, "b1", 1); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
	})
}

func mustSave(t *testing.T, repo ports.BoardRepository, b *board.Board, expected int64) {
	t.Helper()
	if err := repo.Save(context.Background(), b, expected); err != nil {
		t.Fatalf("Save(%q, %d) error = %v", b.ID, expected, err)
	}
}
