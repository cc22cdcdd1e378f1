// Package solver is the application service every front end goes through:
// it owns the catalog, merges per-request options with the configured
// defaults, runs the engine and records metrics, traces and logs.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/catalog"
	"github.com/kasuganosora/knapsackga/pkg/config"
	"github.com/kasuganosora/knapsackga/pkg/knapsack"
	"github.com/kasuganosora/knapsackga/pkg/monitor"
	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
	"github.com/kasuganosora/knapsackga/pkg/workerpool"
)

var tracer = otel.Tracer("knapsackga.solver")

// Options overrides the configured engine parameters for one request. A nil
// field keeps the default; a set field is validated as given, zero included.
type Options struct {
	PopulationSize   *int     `json:"populationSize,omitempty"`
	MaxGenerations   *int     `json:"maxGenerations,omitempty"`
	MutationRate     *float64 `json:"mutationRate,omitempty"`
	DegeneratePolicy string   `json:"degeneratePolicy,omitempty"`
	Seed             int64    `json:"seed,omitempty"`
}

// Service 求解服务
type Service struct {
	problem  *knapsack.Problem
	defaults genetic.GeneticAlgorithmConfig
	metrics  *monitor.MetricsCollector
	logger   api.Logger
	batch    config.BatchConfig
	pool     *workerpool.Pool
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger api.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics shares a metrics collector, typically with the HTTP server.
func WithMetrics(m *monitor.MetricsCollector) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithBatch sizes the worker pool used by SolveBatch.
func WithBatch(cfg config.BatchConfig) Option {
	return func(s *Service) { s.batch = cfg }
}

// New 创建求解服务. A nil defaults uses the engine defaults.
func New(problem *knapsack.Problem, defaults *genetic.GeneticAlgorithmConfig, opts ...Option) (*Service, error) {
	if problem == nil {
		return nil, api.NewError(api.ErrCodeInvalidProblem, "no catalog loaded", knapsack.ErrInvalidProblem)
	}
	if defaults == nil {
		defaults = genetic.DefaultGeneticAlgorithmConfig()
	}
	if err := defaults.Validate(); err != nil {
		return nil, api.FromError(err, "invalid engine defaults")
	}

	s := &Service{
		problem:  problem,
		defaults: *defaults,
		logger:   api.NewNoOpLogger(),
		batch:    config.DefaultConfig().Batch,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = monitor.NewMetricsCollector()
	}

	pool, err := workerpool.New(workerpool.Config{Size: s.batch.Workers, QueueSize: s.batch.QueueSize})
	if err != nil {
		return nil, api.WrapError(err, api.ErrCodeInvalidConfig, "batch worker pool")
	}
	if err := pool.Start(); err != nil {
		return nil, api.WrapError(err, api.ErrCodeInternal, "start worker pool")
	}
	s.pool = pool

	return s, nil
}

// NewFromConfig loads the configured catalog and builds a service around it.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger api.Logger, metrics *monitor.MetricsCollector) (*Service, error) {
	src, err := catalog.NewSource(cfg.Catalog)
	if err != nil {
		return nil, api.FromError(err, "catalog source")
	}
	problem, err := src.Load(ctx)
	if err != nil {
		return nil, api.FromError(err, "load catalog from "+src.Name())
	}
	if logger != nil {
		logger.Info("[Solver] loaded %d items from %s, capacity %.2f", problem.Length(), src.Name(), problem.Capacity())
	}
	return New(problem, cfg.Engine.Genetic(), WithLogger(logger), WithMetrics(metrics), WithBatch(cfg.Batch))
}

// Close stops the batch worker pool.
func (s *Service) Close() error {
	return s.pool.Close()
}

// Metrics returns the collector runs are recorded in.
func (s *Service) Metrics() *monitor.MetricsCollector {
	return s.metrics
}

// Items returns a copy of the catalog.
func (s *Service) Items() []knapsack.Item {
	return s.problem.Items()
}

// Capacity returns the weight limit.
func (s *Service) Capacity() float64 {
	return s.problem.Capacity()
}

// Defaults returns the configured engine parameters.
func (s *Service) Defaults() genetic.GeneticAlgorithmConfig {
	return s.defaults
}

// Config merges opts over the defaults and validates the result.
func (s *Service) Config(opts Options) (*genetic.GeneticAlgorithmConfig, error) {
	cfg := s.defaults
	if opts.PopulationSize != nil {
		cfg.PopulationSize = *opts.PopulationSize
	}
	if opts.MaxGenerations != nil {
		cfg.MaxGenerations = *opts.MaxGenerations
	}
	if opts.MutationRate != nil {
		cfg.MutationRate = *opts.MutationRate
	}
	if opts.DegeneratePolicy != "" {
		cfg.DegeneratePolicy = genetic.DegeneratePolicy(opts.DegeneratePolicy)
	}
	if opts.Seed != 0 {
		cfg.Seed = opts.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, api.FromError(err, "invalid run options")
	}
	return &cfg, nil
}

// Solve runs the engine once. Errors are *api.Error values.
func (s *Service) Solve(ctx context.Context, opts Options) (*genetic.Result, error) {
	cfg, err := s.Config(opts)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, cfg)
}

func (s *Service) run(ctx context.Context, cfg *genetic.GeneticAlgorithmConfig) (*genetic.Result, error) {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "solver.Solve", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("population_size", cfg.PopulationSize),
		attribute.Int("max_generations", cfg.MaxGenerations),
		attribute.Float64("mutation_rate", cfg.MutationRate),
		attribute.Int("items", s.problem.Length()),
	))
	defer span.End()

	s.metrics.StartRun()
	start := time.Now()

	res, err := s.execute(ctx, cfg)
	duration := time.Since(start)
	if err != nil {
		apiErr := api.FromError(err, "run "+runID)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apiErr.Code))
		s.metrics.EndRun(nil, duration, string(apiErr.Code))
		s.logger.Warn("[Solver] run %s failed after %s: %v", runID, duration, err)
		return nil, apiErr
	}

	res.RunID = runID
	s.metrics.EndRun(res, duration, "")
	if res.Best != nil {
		span.SetAttributes(
			attribute.Float64("best_fitness", res.Best.Fitness),
			attribute.Int("best_generation", res.Best.Generation),
		)
	}
	span.SetAttributes(attribute.Int("records", res.RecordCount()))
	s.logger.Info("[Solver] run %s finished in %s: records=%d crossovers=%d mutations=%d best=%.2f",
		runID, duration, res.RecordCount(), len(res.Crossovers), len(res.Mutations), bestFitness(res))
	return res, nil
}

func (s *Service) execute(ctx context.Context, cfg *genetic.GeneticAlgorithmConfig) (*genetic.Result, error) {
	ga, err := genetic.NewGeneticAlgorithm(s.problem, cfg, genetic.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	return ga.Run(ctx)
}

func bestFitness(res *genetic.Result) float64 {
	if res.Best == nil {
		return 0
	}
	return res.Best.Fitness
}

// Evaluation scores one chromosome against the catalog.
type Evaluation struct {
	Chromosome    genetic.Chromosome `json:"chromosome"`
	Fitness       float64            `json:"fitness"`
	Value         float64            `json:"value"`
	Weight        float64            `json:"weight"`
	Capacity      float64            `json:"capacity"`
	Feasible      bool               `json:"feasible"`
	SelectedItems []int              `json:"selectedItems"`
}

// Evaluate 计算染色体的适应度
func (s *Service) Evaluate(genes []bool) (*Evaluation, error) {
	if err := s.problem.Check(genes); err != nil {
		return nil, api.FromError(err, "evaluate")
	}
	selected := make([]int, 0, len(genes))
	for i, g := range genes {
		if g {
			selected = append(selected, i)
		}
	}
	weight := s.problem.Weight(genes)
	return &Evaluation{
		Chromosome:    genetic.Chromosome(genes).Clone(),
		Fitness:       s.problem.Evaluate(genes),
		Value:         s.problem.Value(genes),
		Weight:        weight,
		Capacity:      s.problem.Capacity(),
		Feasible:      weight <= s.problem.Capacity(),
		SelectedItems: selected,
	}, nil
}

// EvaluateString parses a bit string such as "01111" and evaluates it.
func (s *Service) EvaluateString(bits string) (*Evaluation, error) {
	genes, err := knapsack.ParseChromosome(bits)
	if err != nil {
		return nil, api.FromError(err, "parse chromosome")
	}
	return s.Evaluate(genes)
}

// String describes the service for startup logs.
func (s *Service) String() string {
	return fmt.Sprintf("solver(items=%d capacity=%.2f population=%d generations=%d)",
		s.problem.Length(), s.problem.Capacity(), s.defaults.PopulationSize, s.defaults.MaxGenerations)
}
