package genetic

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfig the run configuration is rejected before the run starts
	ErrInvalidConfig = errors.New("genetic: invalid configuration")
	// ErrDegeneratePopulation every individual has zero fitness and the
	// configured policy is DegenerateFail
	ErrDegeneratePopulation = errors.New("genetic: degenerate population (total fitness is zero)")
)

// DegeneratePolicy decides what roulette selection does when the population's
// total fitness is zero.
type DegeneratePolicy string

const (
	// DegenerateUniform samples uniformly with replacement.
	DegenerateUniform DegeneratePolicy = "uniform"
	// DegenerateFail aborts the run with ErrDegeneratePopulation.
	DegenerateFail DegeneratePolicy = "fail"
)

// GeneticAlgorithmConfig 遗传算法配置
type GeneticAlgorithmConfig struct {
	PopulationSize   int              `json:"populationSize"`
	MaxGenerations   int              `json:"maxGenerations"`
	MutationRate     float64          `json:"mutationRate"`
	DegeneratePolicy DegeneratePolicy `json:"degeneratePolicy"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// DefaultGeneticAlgorithmConfig 返回默认配置
func DefaultGeneticAlgorithmConfig() *GeneticAlgorithmConfig {
	return &GeneticAlgorithmConfig{
		PopulationSize:   10,
		MaxGenerations:   50,
		MutationRate:     0.3,
		DegeneratePolicy: DegenerateUniform,
	}
}

// Validate rejects configurations the engine cannot run. Nothing is clamped.
func (c *GeneticAlgorithmConfig) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("%w: population size must be at least 2, got %d", ErrInvalidConfig, c.PopulationSize)
	}
	if c.MaxGenerations < 1 {
		return fmt.Errorf("%w: max generations must be at least 1, got %d", ErrInvalidConfig, c.MaxGenerations)
	}
	if math.IsNaN(c.MutationRate) || c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0,1], got %v", ErrInvalidConfig, c.MutationRate)
	}
	switch c.DegeneratePolicy {
	case DegenerateUniform, DegenerateFail:
	default:
		return fmt.Errorf("%w: unknown degenerate policy %q", ErrInvalidConfig, c.DegeneratePolicy)
	}
	return nil
}

// Iterations is the number of evolution steps after the initial generation.
func (c *GeneticAlgorithmConfig) Iterations() int {
	return c.MaxGenerations - 1
}
