package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEachRow runs fn for every index in [0,n) on at most workers goroutines.
// fn must only write to state owned by its own index.
func forEachRow(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	if workers < 1 {
		workers = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if gCtx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			return fn(gCtx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
