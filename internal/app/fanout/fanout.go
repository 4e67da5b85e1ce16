// Package fanout runs a function across a slice with bounded concurrency,
// keeping results in input order. The board service uses it to load the
// boards an actor belongs to.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of processing a single item.
// Either Value is populated (on success) or Err is non-nil (on failure).
type Result[R any] struct {
	Value R
	Err   error
}

// Run executes fn for each item using at most maxWorkers concurrent
// goroutines. Results are returned in the same order as the input items.
// One item's failure does not stop the others.
//
// Items that have not started when ctx is done record ctx.Err() and fn is not
// called for them. Items already running finish; fn should honor ctx itself.
//
// Run blocks until every started fn returns. An empty items slice yields an
// empty non-nil result slice. maxWorkers below 1 is treated as 1.
func Run[T, R any](ctx context.Context, maxWorkers int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(max(maxWorkers, 1))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			results[i] = Result[R]{Err: err}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result[R]{Err: err}
				return nil
			}
			val, err := fn(ctx, item)
			results[i] = Result[R]{Value: val, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Values splits results into the successful values, in order, and the
// failures. skip reports failures to drop silently.
func Values[R any](results []Result[R], skip func(error) bool) ([]R, []error) {
	values := make([]R, 0, len(results))
	var errs []error
	for _, r := range results {
		switch {
		case r.Err == nil:
			values = append(values, r.Value)
		case skip != nil && skip(r.Err):
		default:
			errs = append(errs, r.Err)
		}
	}
	return values, errs
}
