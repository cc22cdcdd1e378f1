package genetic

import (
	"fmt"
)

// Rand is the random source the operators draw from. *math/rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// FitnessFunc scores a chromosome.
type FitnessFunc func(genes []bool) float64

// SelectionOperator 选择算子接口
type SelectionOperator interface {
	Select(population *Population) (*Population, error)
}

// CrossoverOperator recombines one pair of individuals in place. The returned
// event has no generation index; the loop stamps it.
type CrossoverOperator interface {
	Crossover(population *Population) (CrossoverEvent, error)
}

// MutationOperator runs one mutation trial against the population. ok is
// false when the trial did not fire and the population is untouched.
type MutationOperator interface {
	Mutate(population *Population) (event MutationEvent, ok bool)
}

// RouletteSelectionOperator 轮盘赌选择
type RouletteSelectionOperator struct {
	policy DegeneratePolicy
	rng    Rand
}

// NewRouletteSelectionOperator 创建轮盘赌选择算子
func NewRouletteSelectionOperator(policy DegeneratePolicy, rng Rand) *RouletteSelectionOperator {
	return &RouletteSelectionOperator{
		policy: policy,
		rng:    rng,
	}
}

// Select draws Size() individuals with replacement, each with probability
// proportional to its fitness. Selected individuals are copied unchanged.
func (s *RouletteSelectionOperator) Select(pop *Population) (*Population, error) {
	n := pop.Size()
	newPop := &Population{
		Individuals: make([]*Individual, 0, n),
	}
	if n == 0 {
		return newPop, nil
	}

	totalFitness := pop.TotalFitness()
	if !(totalFitness > 0) {
		if s.policy == DegenerateFail {
			return nil, ErrDegeneratePopulation
		}
		for i := 0; i < n; i++ {
			newPop.Individuals = append(newPop.Individuals, pop.Individuals[s.rng.Intn(n)].Clone())
		}
		return newPop, nil
	}

	wheel := cumulativeProbabilities(pop, totalFitness)
	for i := 0; i < n; i++ {
		idx := spin(wheel, s.rng.Float64())
		newPop.Individuals = append(newPop.Individuals, pop.Individuals[idx].Clone())
	}
	return newPop, nil
}

// cumulativeProbabilities builds the roulette breakpoints. The last breakpoint
// is pinned to 1 so rounding can never leave r past the end of the wheel.
func cumulativeProbabilities(pop *Population, totalFitness float64) []float64 {
	wheel := make([]float64, pop.Size())
	acc := 0.0
	for i, ind := range pop.Individuals {
		acc += ind.Fitness
		wheel[i] = acc / totalFitness
	}
	wheel[len(wheel)-1] = 1
	return wheel
}

// spin returns the first index whose breakpoint is >= r.
func spin(wheel []float64, r float64) int {
	for i, c := range wheel {
		if c >= r {
			return i
		}
	}
	return len(wheel) - 1
}

// SinglePointCrossoverOperator 单点交叉
type SinglePointCrossoverOperator struct {
	fitness FitnessFunc
	rng     Rand
}

// NewSinglePointCrossoverOperator 创建单点交叉算子
func NewSinglePointCrossoverOperator(fitness FitnessFunc, rng Rand) *SinglePointCrossoverOperator {
	return &SinglePointCrossoverOperator{
		fitness: fitness,
		rng:     rng,
	}
}

// Crossover picks two distinct positions, cuts both parents at one random gene
// index and writes the two offspring back at the parents' positions.
func (c *SinglePointCrossoverOperator) Crossover(pop *Population) (CrossoverEvent, error) {
	n := pop.Size()
	if n < 2 {
		return CrossoverEvent{}, fmt.Errorf("%w: crossover needs at least 2 individuals, got %d", ErrInvalidConfig, n)
	}

	first, second := distinctPair(c.rng, n)
	parent1 := pop.Individuals[first]
	parent2 := pop.Individuals[second]

	length := len(parent1.Genes)
	if length == 0 || len(parent2.Genes) != length {
		return CrossoverEvent{}, fmt.Errorf("genetic: cannot cross chromosomes of length %d and %d", length, len(parent2.Genes))
	}
	point := c.rng.Intn(length)

	genes1, genes2 := SinglePointCrossover(parent1.Genes, parent2.Genes, point)
	pop.Individuals[first] = &Individual{Genes: genes1, Fitness: c.fitness(genes1)}
	pop.Individuals[second] = &Individual{Genes: genes2, Fitness: c.fitness(genes2)}

	return CrossoverEvent{
		Chromosomes:    [2]int{first, second},
		CrossoverPoint: point,
	}, nil
}

// distinctPair samples two different indices in [0,n) without replacement.
func distinctPair(rng Rand, n int) (int, int) {
	first := rng.Intn(n)
	second := rng.Intn(n - 1)
	if second >= first {
		second++
	}
	return first, second
}

// SinglePointCrossover returns parent1[:point]+parent2[point:] and
// parent2[:point]+parent1[point:]. The parents are not modified.
func SinglePointCrossover(parent1, parent2 Chromosome, point int) (Chromosome, Chromosome) {
	child1 := make(Chromosome, len(parent1))
	child2 := make(Chromosome, len(parent2))

	copy(child1[:point], parent1[:point])
	copy(child1[point:], parent2[point:])

	copy(child2[:point], parent2[:point])
	copy(child2[point:], parent1[point:])

	return child1, child2
}

// BitFlipMutationOperator 单点变异
type BitFlipMutationOperator struct {
	mutationRate float64
	fitness      FitnessFunc
	rng          Rand
}

// NewBitFlipMutationOperator 创建单点变异算子
func NewBitFlipMutationOperator(mutationRate float64, fitness FitnessFunc, rng Rand) *BitFlipMutationOperator {
	return &BitFlipMutationOperator{
		mutationRate: mutationRate,
		fitness:      fitness,
		rng:          rng,
	}
}

// Mutate fires with probability mutationRate. When it fires it flips one random
// gene of one random individual and replaces that individual in place.
func (m *BitFlipMutationOperator) Mutate(pop *Population) (MutationEvent, bool) {
	if !(m.rng.Float64() < m.mutationRate) || pop.Size() == 0 {
		return MutationEvent{}, false
	}

	index := m.rng.Intn(pop.Size())
	mutated := pop.Individuals[index].Clone()
	if len(mutated.Genes) == 0 {
		return MutationEvent{}, false
	}
	point := m.rng.Intn(len(mutated.Genes))

	mutated.Genes[point] = !mutated.Genes[point]
	mutated.Fitness = m.fitness(mutated.Genes)
	pop.Individuals[index] = mutated

	return MutationEvent{
		ChromosomeIndex: index,
		MutationPoint:   point,
	}, true
}
