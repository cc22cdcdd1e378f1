package genetic

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/knapsackga/pkg/knapsack"
)

// Chromosome 染色体, one gene per catalog item; true = item included.
// It serializes as a JSON array of 0/1 integers.
type Chromosome []bool

// String renders the chromosome as a bit string, index 0 first.
func (c Chromosome) String() string {
	return knapsack.FormatChromosome(c)
}

// Clone returns an independent copy.
func (c Chromosome) Clone() Chromosome {
	if c == nil {
		return nil
	}
	out := make(Chromosome, len(c))
	copy(out, c)
	return out
}

// MarshalJSON encodes the genes as [0,1,...].
func (c Chromosome) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, g := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		if g {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts [0,1,...], [false,true,...] or a bit string "01".
func (c *Chromosome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		genes, err := knapsack.ParseChromosome(s)
		if err != nil {
			return err
		}
		*c = genes
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", knapsack.ErrInvalidChromosome, err)
	}
	genes := make(Chromosome, len(raw))
	for i, r := range raw {
		switch string(bytes.TrimSpace(r)) {
		case "0", "false":
			genes[i] = false
		case "1", "true":
			genes[i] = true
		default:
			return fmt.Errorf("%w: gene %d is %s", knapsack.ErrInvalidChromosome, i, r)
		}
	}
	*c = genes
	return nil
}

// Individual 个体（候选解）
type Individual struct {
	Genes   Chromosome `json:"chromosome"`
	Fitness float64    `json:"fitness"`
}

// Clone 克隆个体
func (ind *Individual) Clone() *Individual {
	return &Individual{
		Genes:   ind.Genes.Clone(),
		Fitness: ind.Fitness,
	}
}

// Population 种群. Positions are stable: operators replace individuals in
// place by index.
type Population struct {
	Individuals []*Individual
}

// Size 返回种群大小
func (p *Population) Size() int {
	return len(p.Individuals)
}

// TotalFitness sums the fitness of every individual.
func (p *Population) TotalFitness() float64 {
	total := 0.0
	for _, ind := range p.Individuals {
		total += ind.Fitness
	}
	return total
}

// GetBest 获取最优个体; ties resolve to the lowest index.
func (p *Population) GetBest() *Individual {
	if len(p.Individuals) == 0 {
		return nil
	}
	best := p.Individuals[0]
	for _, ind := range p.Individuals {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}

// GetAverageFitness 获取平均适应度
func (p *Population) GetAverageFitness() float64 {
	if len(p.Individuals) == 0 {
		return 0
	}
	return p.TotalFitness() / float64(len(p.Individuals))
}

// snapshot deep-copies the population into a generation record.
func (p *Population) snapshot(index int) Generation {
	members := make([]Individual, len(p.Individuals))
	for i, ind := range p.Individuals {
		members[i] = Individual{Genes: ind.Genes.Clone(), Fitness: ind.Fitness}
	}
	return Generation{
		Index:        index,
		Population:   members,
		TotalFitness: p.TotalFitness(),
	}
}
