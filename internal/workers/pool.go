// Package workers runs a function over many inputs on a bounded pool and
// folds the results on a single goroutine.
package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for every item using at most n concurrent goroutines and
// hands each result to collect. collect is only ever called from one
// goroutine, so it may mutate state without locking. Items not yet started
// when ctx is cancelled are skipped; Run returns ctx.Err() in that case.
func Run[In, Out any](ctx context.Context, items []In, n int, fn func(context.Context, In) Out, collect func(Out)) error {
	if n < 1 {
		n = 1
	}
	results := make(chan Out, n)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			collect(r)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results <- fn(gctx, item)
			return nil
		})
	}
	err := g.Wait()
	close(results)
	<-done
	if err != nil {
		return err
	}
	return ctx.Err()
}
