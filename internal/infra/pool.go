package infra

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the fan-out of multi-page scrapes.
const DefaultWorkers = 4

// FanOut runs fn for every index in [0, n) on at most workers goroutines and
// returns the results in index order. The first error cancels the context
// passed to the remaining calls and is returned.
func FanOut[T any](ctx context.Context, workers, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]T, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := fn(gctx, i)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
