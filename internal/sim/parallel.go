package sim

import (
	"context"

	"github.com/san-kum/mdsim/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Factory builds an independent simulator and initial state for one seed.
type Factory func(seed uint64) (*Simulator, *dynamo.System, error)

// Ensemble runs replicas that differ only in their seed concurrently.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart uint64
}

func NewEnsemble(factory Factory, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

// Run returns one result per replica, in seed order. The first failing
// replica cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			s, sys, err := e.factory(e.seedStart + uint64(i))
			if err != nil {
				return err
			}
			results[i], err = s.Run(ctx, sys, cfg)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
