package httpapi

import (
	"github.com/kasuganosora/knapsackga/pkg/knapsack"
	"github.com/kasuganosora/knapsackga/pkg/monitor"
	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
	"github.com/kasuganosora/knapsackga/pkg/solver"
)

// SolveRequest represents a POST /api/v1/solve body. Every field is optional;
// engine parameters that are present are validated by the solver as given.
type SolveRequest struct {
	PopulationSize   *int     `json:"populationSize"`
	MaxGenerations   *int     `json:"maxGenerations"`
	MutationRate     *float64 `json:"mutationRate"`
	DegeneratePolicy string   `json:"degeneratePolicy"`
	Seed             int64    `json:"seed"`
	// Runs > 1 solves independently on the worker pool.
	Runs *int `json:"runs" binding:"omitempty,min=1"`
}

// RunCount is the requested number of runs, 1 when absent.
func (r SolveRequest) RunCount() int {
	if r.Runs == nil {
		return 1
	}
	return *r.Runs
}

// Options converts the request into solver options.
func (r SolveRequest) Options() solver.Options {
	return solver.Options{
		PopulationSize:   r.PopulationSize,
		MaxGenerations:   r.MaxGenerations,
		MutationRate:     r.MutationRate,
		DegeneratePolicy: r.DegeneratePolicy,
		Seed:             r.Seed,
	}
}

// EvaluateRequest represents a POST /api/v1/evaluate body. The chromosome may
// be [0,1,...], [false,true,...] or "01...".
type EvaluateRequest struct {
	Chromosome genetic.Chromosome `json:"chromosome" binding:"required"`
}

// ItemsResponse represents the catalog
type ItemsResponse struct {
	Capacity float64         `json:"capacity"`
	Items    []knapsack.Item `json:"items"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version"`
	Stats   *monitor.RunMetrics `json:"stats,omitempty"`
}
