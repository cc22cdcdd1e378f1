// Package knapsack defines the 0/1 knapsack problem instance: the item catalog,
// the weight capacity and the fitness function over bit-string selections.
package knapsack

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultCapacity is the capacity of the reference instance.
const DefaultCapacity = 15.0

var (
	// ErrInvalidProblem the catalog or capacity cannot describe a knapsack instance
	ErrInvalidProblem = errors.New("knapsack: invalid problem")
	// ErrLengthMismatch chromosome length differs from the catalog length
	ErrLengthMismatch = errors.New("knapsack: chromosome length does not match catalog")
	// ErrInvalidChromosome chromosome text contains something other than 0 and 1
	ErrInvalidChromosome = errors.New("knapsack: invalid chromosome encoding")
)

// Item is one catalog entry. Its position in the catalog is its identity.
type Item struct {
	Value  float64 `json:"value" yaml:"value"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Problem is an immutable knapsack instance.
type Problem struct {
	items    []Item
	capacity float64
}

// ReferenceItems returns the five-item reference catalog.
func ReferenceItems() []Item {
	return []Item{
		{Value: 4, Weight: 12},
		{Value: 2, Weight: 2},
		{Value: 2, Weight: 1},
		{Value: 1, Weight: 1},
		{Value: 10, Weight: 4},
	}
}

// ReferenceProblem returns the reference catalog with capacity 15.
func ReferenceProblem() *Problem {
	return &Problem{items: ReferenceItems(), capacity: DefaultCapacity}
}

// NewProblem validates the catalog and capacity and returns a problem that
// owns a private copy of items.
func NewProblem(items []Item, capacity float64) (*Problem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrInvalidProblem)
	}
	if math.IsNaN(capacity) || math.IsInf(capacity, 0) || capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be a positive number, got %v", ErrInvalidProblem, capacity)
	}
	for i, it := range items {
		if !validAmount(it.Value) || !validAmount(it.Weight) {
			return nil, fmt.Errorf("%w: item %d has value=%v weight=%v", ErrInvalidProblem, i, it.Value, it.Weight)
		}
	}

	owned := make([]Item, len(items))
	copy(owned, items)
	return &Problem{items: owned, capacity: capacity}, nil
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Length is the chromosome length, one gene per item.
func (p *Problem) Length() int {
	return len(p.items)
}

// Capacity returns the weight limit.
func (p *Problem) Capacity() float64 {
	return p.capacity
}

// Items returns a copy of the catalog.
func (p *Problem) Items() []Item {
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

// Weight sums the weights of the selected items.
func (p *Problem) Weight(genes []bool) float64 {
	total := 0.0
	for i, g := range genes {
		if g && i < len(p.items) {
			total += p.items[i].Weight
		}
	}
	return total
}

// Value sums the values of the selected items, ignoring capacity.
func (p *Problem) Value(genes []bool) float64 {
	total := 0.0
	for i, g := range genes {
		if g && i < len(p.items) {
			total += p.items[i].Value
		}
	}
	return total
}

// Evaluate returns the total value of the selection, or 0 when the selection
// is over capacity.
func (p *Problem) Evaluate(genes []bool) float64 {
	totalWeight, totalValue := 0.0, 0.0
	for i, g := range genes {
		if !g || i >= len(p.items) {
			continue
		}
		totalWeight += p.items[i].Weight
		totalValue += p.items[i].Value
	}
	if totalWeight > p.capacity {
		return 0
	}
	return totalValue
}

// Check verifies a chromosome has exactly one gene per item.
func (p *Problem) Check(genes []bool) error {
	if len(genes) != len(p.items) {
		return fmt.Errorf("%w: got %d genes, want %d", ErrLengthMismatch, len(genes), len(p.items))
	}
	return nil
}

// ParseChromosome decodes a bit string such as "01111"; index 0 is the first
// character. Spaces and commas are ignored.
func ParseChromosome(s string) ([]bool, error) {
	genes := make([]bool, 0, len(s))
	for _, c := range s {
		switch c {
		case '0':
			genes = append(genes, false)
		case '1':
			genes = append(genes, true)
		case ' ', ',', '[', ']':
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrInvalidChromosome, c)
		}
	}
	if len(genes) == 0 {
		return nil, fmt.Errorf("%w: %q has no genes", ErrInvalidChromosome, s)
	}
	return genes, nil
}

// FormatChromosome renders genes as a bit string.
func FormatChromosome(genes []bool) string {
	var sb strings.Builder
	sb.Grow(len(genes))
	for _, g := range genes {
		if g {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
