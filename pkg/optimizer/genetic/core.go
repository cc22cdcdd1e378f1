package genetic

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/kasuganosora/knapsackga/pkg/knapsack"
)

// GeneticAlgorithm 遗传算法，用于搜索背包问题的物品组合.
//
// A GeneticAlgorithm owns its random source and is not safe for concurrent
// use. Run keeps all per-run state local, so sequential runs on the same value
// never see each other's history.
type GeneticAlgorithm struct {
	config  *GeneticAlgorithmConfig
	problem *knapsack.Problem

	// 算子
	selector  SelectionOperator
	crossover CrossoverOperator
	mutator   MutationOperator

	rng    Rand
	logger Logger
}

// Option customizes a GeneticAlgorithm.
type Option func(*GeneticAlgorithm)

// WithRand replaces the random source; Seed is ignored.
func WithRand(rng Rand) Option {
	return func(ga *GeneticAlgorithm) { ga.rng = rng }
}

// WithLogger sets where progress lines go.
func WithLogger(logger Logger) Option {
	return func(ga *GeneticAlgorithm) {
		if logger != nil {
			ga.logger = logger
		}
	}
}

// WithSelectionOperator overrides roulette selection.
func WithSelectionOperator(op SelectionOperator) Option {
	return func(ga *GeneticAlgorithm) { ga.selector = op }
}

// WithCrossoverOperator overrides single-point crossover.
func WithCrossoverOperator(op CrossoverOperator) Option {
	return func(ga *GeneticAlgorithm) { ga.crossover = op }
}

// WithMutationOperator overrides bit-flip mutation.
func WithMutationOperator(op MutationOperator) Option {
	return func(ga *GeneticAlgorithm) { ga.mutator = op }
}

// NewGeneticAlgorithm 创建遗传算法实例. A nil config uses the defaults.
func NewGeneticAlgorithm(problem *knapsack.Problem, config *GeneticAlgorithmConfig, opts ...Option) (*GeneticAlgorithm, error) {
	if problem == nil || problem.Length() == 0 {
		return nil, fmt.Errorf("%w: no items", knapsack.ErrInvalidProblem)
	}
	if config == nil {
		config = DefaultGeneticAlgorithmConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ga := &GeneticAlgorithm{
		config:  config,
		problem: problem,
		logger:  nopLogger{},
	}
	for _, opt := range opts {
		opt(ga)
	}

	if ga.rng == nil {
		seed := config.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		ga.rng = rand.New(rand.NewSource(seed))
	}
	if ga.selector == nil {
		ga.selector = NewRouletteSelectionOperator(config.DegeneratePolicy, ga.rng)
	}
	if ga.crossover == nil {
		ga.crossover = NewSinglePointCrossoverOperator(problem.Evaluate, ga.rng)
	}
	if ga.mutator == nil {
		ga.mutator = NewBitFlipMutationOperator(config.MutationRate, problem.Evaluate, ga.rng)
	}

	return ga, nil
}

// GetConfig 获取配置
func (ga *GeneticAlgorithm) GetConfig() *GeneticAlgorithmConfig {
	return ga.config
}

// InitializePopulation 初始化种群: every gene is a fair coin flip and every
// individual is evaluated immediately.
func (ga *GeneticAlgorithm) InitializePopulation() *Population {
	pop := &Population{
		Individuals: make([]*Individual, 0, ga.config.PopulationSize),
	}
	for i := 0; i < ga.config.PopulationSize; i++ {
		pop.Individuals = append(pop.Individuals, ga.createIndividual())
	}
	return pop
}

// createIndividual 创建一个随机个体
func (ga *GeneticAlgorithm) createIndividual() *Individual {
	genes := make(Chromosome, ga.problem.Length())
	for i := range genes {
		genes[i] = ga.rng.Float64() < 0.5
	}
	return &Individual{
		Genes:   genes,
		Fitness: ga.problem.Evaluate(genes),
	}
}

// Run 运行遗传算法.
//
// The initial population is generation 1. Each of the MaxGenerations-1
// iterations records the selected population, then the crossed population,
// then (only when the mutation trial fires) the mutated population, each under
// the next generation index. Cancelling ctx aborts the run between iterations.
func (ga *GeneticAlgorithm) Run(ctx context.Context) (*Result, error) {
	iterations := ga.config.Iterations()
	state := newRunState(iterations)

	pop := ga.InitializePopulation()
	state.generation = 1
	initial := pop.snapshot(state.generation)
	state.observe(initial)

	for iter := 1; iter <= iterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("genetic: run aborted at generation %d: %w", state.generation, ctx.Err())
		default:
		}

		selected, err := ga.selector.Select(pop)
		if err != nil {
			return nil, fmt.Errorf("selection at generation %d: %w", state.generation+1, err)
		}
		pop = selected
		state.advance(pop)

		event, err := ga.crossover.Crossover(pop)
		if err != nil {
			return nil, fmt.Errorf("crossover at generation %d: %w", state.generation+1, err)
		}
		state.advance(pop)
		event.Generation = state.generation
		state.crossovers = append(state.crossovers, event)

		if mutation, ok := ga.mutator.Mutate(pop); ok {
			state.advance(pop)
			mutation.Generation = state.generation
			state.mutations = append(state.mutations, mutation)
		}

		if iter%progressInterval == 0 {
			best := pop.GetBest()
			ga.logger.Debug("[GeneticAlgorithm] Iteration %d, Generation %d, Best fitness: %.4f, Total fitness: %.4f",
				iter, state.generation, best.Fitness, pop.TotalFitness())
		}
	}

	return ga.buildResult(initial, state), nil
}

func (ga *GeneticAlgorithm) buildResult(initial Generation, state *runState) *Result {
	res := &Result{
		Config:            *ga.config,
		Capacity:          ga.problem.Capacity(),
		Items:             ga.problem.Items(),
		InitialGeneration: initial,
		Generations:       state.generations,
		Mutations:         state.mutations,
		Crossovers:        state.crossovers,
	}
	if state.best != nil {
		best := *state.best
		best.Weight = ga.problem.Weight(best.Chromosome)
		best.SelectedItems = ga.ExtractSolution(best.Chromosome)
		res.Best = &best
	}
	return res
}

// ExtractSolution 从染色体提取选中的物品下标
func (ga *GeneticAlgorithm) ExtractSolution(genes Chromosome) []int {
	selected := make([]int, 0, len(genes))
	for i, g := range genes {
		if g {
			selected = append(selected, i)
		}
	}
	return selected
}
