package dynamo

import (
	"golang.org/x/sync/errgroup"
)

// ParallelFor splits [0, n) into at most workers contiguous chunks and runs
// fn on each chunk concurrently. The worker index passed to fn is unique per
// chunk, so callers can index private buffers with it.
func ParallelFor(n, workers int, fn func(worker, start, end int) error) error {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return fn(0, 0, n)
	}

	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		w := w
		g.Go(func() error {
			return fn(w, start, end)
		})
	}

	return g.Wait()
}
