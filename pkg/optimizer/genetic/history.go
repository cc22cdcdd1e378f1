package genetic

import (
	"github.com/kasuganosora/knapsackga/pkg/knapsack"
)

// Generation is an immutable snapshot of a population.
type Generation struct {
	Index        int          `json:"index"`
	Population   []Individual `json:"population"`
	TotalFitness float64      `json:"totalFitness"`
}

// Best returns the fittest member of the snapshot and its position.
func (g *Generation) Best() (Individual, int) {
	bestIdx := -1
	for i := range g.Population {
		if bestIdx < 0 || g.Population[i].Fitness > g.Population[bestIdx].Fitness {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Individual{}, -1
	}
	return g.Population[bestIdx], bestIdx
}

// AverageFitness is TotalFitness divided by the population size.
func (g *Generation) AverageFitness() float64 {
	if len(g.Population) == 0 {
		return 0
	}
	return g.TotalFitness / float64(len(g.Population))
}

// CrossoverEvent records one crossover. Chromosomes are 0-based positions.
type CrossoverEvent struct {
	Generation     int    `json:"generation"`
	Chromosomes    [2]int `json:"chromosomes"`
	CrossoverPoint int    `json:"crossoverPoint"`
}

// MutationEvent records one bit flip. Both fields are 0-based.
type MutationEvent struct {
	Generation      int `json:"generation"`
	ChromosomeIndex int `json:"chromosomeIndex"`
	MutationPoint   int `json:"mutationPoint"`
}

// BestIndividual is the fittest chromosome seen in any record of a run.
type BestIndividual struct {
	Chromosome    Chromosome `json:"chromosome"`
	Fitness       float64    `json:"fitness"`
	Weight        float64    `json:"weight"`
	Generation    int        `json:"generation"`
	SelectedItems []int      `json:"selectedItems"`
}

// Result is the full history of one run. It shares no memory with the engine.
type Result struct {
	RunID             string                 `json:"runId,omitempty"`
	Config            GeneticAlgorithmConfig `json:"config"`
	Capacity          float64                `json:"capacity"`
	Items             []knapsack.Item        `json:"items"`
	InitialGeneration Generation             `json:"initialGeneration"`
	Generations       []Generation           `json:"generations"`
	Mutations         []MutationEvent        `json:"mutations"`
	Crossovers        []CrossoverEvent       `json:"crossovers"`
	Best              *BestIndividual        `json:"best,omitempty"`
}

// RecordCount counts the initial generation plus every evolved record.
func (r *Result) RecordCount() int {
	return 1 + len(r.Generations)
}

// LastGeneration returns the final record, or the initial one when the run
// had no iterations.
func (r *Result) LastGeneration() Generation {
	if len(r.Generations) == 0 {
		return r.InitialGeneration
	}
	return r.Generations[len(r.Generations)-1]
}

// runState is the bookkeeping owned by a single Run call.
type runState struct {
	generation  int
	generations []Generation
	crossovers  []CrossoverEvent
	mutations   []MutationEvent
	best        *BestIndividual
}

func newRunState(iterations int) *runState {
	return &runState{
		generations: make([]Generation, 0, 2*iterations),
		crossovers:  make([]CrossoverEvent, 0, iterations),
		mutations:   make([]MutationEvent, 0),
	}
}

// advance bumps the generation counter and appends the population as a record.
func (s *runState) advance(pop *Population) Generation {
	s.generation++
	g := pop.snapshot(s.generation)
	s.generations = append(s.generations, g)
	s.observe(g)
	return g
}

func (s *runState) observe(g Generation) {
	ind, idx := g.Best()
	if idx < 0 {
		return
	}
	if s.best == nil || ind.Fitness > s.best.Fitness {
		s.best = &BestIndividual{
			Chromosome: ind.Genes.Clone(),
			Fitness:    ind.Fitness,
			Generation: g.Index,
		}
	}
}
