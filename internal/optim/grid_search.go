package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/experiment"
)

// GridSearch evaluates every combination of the candidate values of the
// named configuration parameters and keeps the one with the smallest
// metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d value ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("parameter %s has no candidate values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size returns the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Trial is one evaluated grid point. Runs that end in a fault score +Inf.
type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// Search runs one experiment per grid point, built from base with the
// point's parameters applied, and returns the best point and every trial.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, []Trial, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	trials := make([]Trial, 0, g.Size())

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &best, &bestParams, &trials)
	if err != nil {
		return nil, 0, trials, err
	}
	if bestParams == nil {
		return nil, 0, trials, fmt.Errorf("no grid point produced a finite %s", metricName)
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		trial, err := evaluate(ctx, current, base, metricName)
		if err != nil {
			return err
		}
		*trials = append(*trials, trial)
		if trial.Score < *best {
			*best = trial.Score
			*bestParams = trial.Params
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best, bestParams, trials); err != nil {
			return err
		}
	}
	return nil
}

// evaluate returns an error only for a bad grid definition: unknown
// parameters, invalid configurations or an unknown metric.
func evaluate(ctx context.Context, params map[string]float64, base *config.Config, metricName string) (Trial, error) {
	trial := Trial{Params: params, Score: math.Inf(1)}

	cfg := base.Clone()
	for name, v := range params {
		if err := cfg.SetParam(name, v); err != nil {
			return trial, err
		}
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(nil); err != nil {
		return trial, fmt.Errorf("%v: %w", params, err)
	}

	result, err := exp.Run(ctx)
	if ctx.Err() != nil {
		return trial, ctx.Err()
	}
	if err != nil {
		trial.Err = err
		return trial, nil
	}

	val, ok := result.Metrics[metricName]
	if !ok {
		return trial, fmt.Errorf("unknown metric: %s", metricName)
	}
	if !math.IsNaN(val) && !math.IsInf(val, 0) {
		trial.Score = val
	}
	return trial, nil
}
