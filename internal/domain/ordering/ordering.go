// Package ordering implements the pure sequence operations used for columns,
// groups, and the item order inside a group. Every function returns a new
// slice and leaves its input untouched, so a failed operation never changes
// the caller's state.
package ordering

import (
	"fmt"
	"slices"

	"github.com/Aidzix/Monday/internal/domain"
)

// InsertAt returns seq with id inserted at position. A nil position appends.
// Positions are 0-based and clamped to [0, len(seq)]. Returns
// domain.ErrDuplicateID if id is already present.
func InsertAt(seq []string, id string, position *int) ([]string, error) {
	if slices.Contains(seq, id) {
		return nil, fmt.Errorf("inserting %q: %w", id, domain.ErrDuplicateID)
	}

	at := len(seq)
	if position != nil {
		at = Clamp(*position, len(seq))
	}

	out := make([]string, 0, len(seq)+1)
	out = append(out, seq[:at]...)
	out = append(out, id)
	out = append(out, seq[at:]...)
	return out, nil
}

// Remove returns seq without id. Returns domain.ErrNotFound if id is absent.
func Remove(seq []string, id string) ([]string, error) {
	idx := slices.Index(seq, id)
	if idx < 0 {
		return nil, fmt.Errorf("removing %q: %w", id, domain.ErrNotFound)
	}

	out := make([]string, 0, len(seq)-1)
	out = append(out, seq[:idx]...)
	out = append(out, seq[idx+1:]...)
	return out, nil
}

// Reorder validates that order is a permutation of seq and returns a copy of
// it. Otherwise it returns a *domain.ReorderError naming the ids missing from
// order and the ids in order that are unknown or repeated.
func Reorder(seq, order []string) ([]string, error) {
	remaining := make(map[string]int, len(seq))
	for _, id := range seq {
		remaining[id]++
	}

	var unexpected []string
	for _, id := range order {
		if remaining[id] == 0 {
			unexpected = append(unexpected, id)
			continue
		}
		remaining[id]--
	}

	var missing []string
	for _, id := range seq {
		if remaining[id] > 0 {
			missing = append(missing, id)
			remaining[id]--
		}
	}

	if len(missing) > 0 || len(unexpected) > 0 {
		return nil, &domain.ReorderError{Missing: missing, Unexpected: unexpected}
	}
	return slices.Clone(order), nil
}

// Arrange reorders items to follow order, using key to identify each item.
// It applies the same permutation rule as Reorder.
func Arrange[T any](items []T, key func(T) string, order []string) ([]T, error) {
	ids := make([]string, len(items))
	byID := make(map[string]T, len(items))
	for i, it := range items {
		ids[i] = key(it)
		byID[ids[i]] = it
	}

	if _, err := Reorder(ids, order); err != nil {
		return nil, err
	}

	out := make([]T, len(order))
	for i, id := range order {
		out[i] = byID[id]
	}
	return out, nil
}

// Clamp bounds a requested position to the valid insert range [0, n].
func Clamp(position, n int) int {
	return max(0, min(position, n))
}
