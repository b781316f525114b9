package gsquare

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEachIndex calls fn for every index in [0, n) concurrently,
// and returns after all calls have finished.
// The first error cancels the calls that have not yet started.
func forEachIndex(ctx context.Context, n int, fn func(i int) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range n {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return eg.Wait()
}
