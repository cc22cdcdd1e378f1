package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
)

// BatchResult holds independent runs in submission order.
type BatchResult struct {
	Runs []*genetic.Result `json:"runs"`
	// BestRun indexes the run with the highest best fitness; ties keep the
	// earliest run.
	BestRun int `json:"bestRun"`
}

// Best returns the winning run.
func (b *BatchResult) Best() *genetic.Result {
	if b.BestRun < 0 || b.BestRun >= len(b.Runs) {
		return nil
	}
	return b.Runs[b.BestRun]
}

// SolveBatch runs the engine runs times on the worker pool. Run i uses seed
// base+i, where base is opts.Seed or the clock, so every run is reproducible
// on its own; a sequence crossing 0 skips it. The first failing run fails the
// batch.
func (s *Service) SolveBatch(ctx context.Context, opts Options, runs int) (*BatchResult, error) {
	if runs < 1 || runs > s.batch.MaxRuns {
		return nil, api.NewError(api.ErrCodeInvalidParam,
			fmt.Sprintf("runs must be between 1 and %d, got %d", s.batch.MaxRuns, runs), nil)
	}
	base, err := s.Config(opts)
	if err != nil {
		return nil, err
	}
	seed := base.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	results := s.pool.Map(ctx, runs, func(ctx context.Context, i int) (interface{}, error) {
		cfg := *base
		cfg.Seed = batchSeed(seed, i)
		return s.run(ctx, &cfg)
	})

	batch := &BatchResult{Runs: make([]*genetic.Result, runs), BestRun: -1}
	for i, r := range results {
		if r.Error != nil {
			return nil, api.FromError(r.Error, fmt.Sprintf("batch run %d", i))
		}
		res := r.Value.(*genetic.Result)
		batch.Runs[i] = res
		if batch.BestRun < 0 || bestFitness(res) > bestFitness(batch.Runs[batch.BestRun]) {
			batch.BestRun = i
		}
	}
	return batch, nil
}

// batchSeed returns the seed of run i. 0 selects a clock seed in the engine,
// so a negative base steps over it.
func batchSeed(base int64, i int) int64 {
	seed := base + int64(i)
	if base < 0 && seed >= 0 {
		seed++
	}
	return seed
}
