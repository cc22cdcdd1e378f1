// Package catalog loads knapsack item catalogs from the configured source.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/knapsackga/pkg/config"
	"github.com/kasuganosora/knapsackga/pkg/knapsack"
)

// ErrCatalog wraps every failure to reach or decode a catalog source.
var ErrCatalog = errors.New("catalog: cannot load items")

// Source produces a validated knapsack problem.
type Source interface {
	Load(ctx context.Context) (*knapsack.Problem, error)
	// Name identifies the source in logs.
	Name() string
}

// NewSource 根据配置创建目录来源
func NewSource(cfg config.CatalogConfig) (Source, error) {
	switch cfg.Source {
	case "", "reference":
		return &ReferenceSource{Capacity: cfg.Capacity}, nil
	case "json":
		return &FileSource{Path: cfg.Path, Capacity: cfg.Capacity}, nil
	case "xlsx":
		return &ExcelSource{
			Path:         cfg.Path,
			Sheet:        cfg.Sheet,
			ValueColumn:  cfg.ValueColumn,
			WeightColumn: cfg.WeightColumn,
			Capacity:     cfg.Capacity,
		}, nil
	case "sql":
		return NewSQLSource(SQLConfig{
			Driver:       cfg.Driver,
			DSN:          cfg.DSN,
			Table:        cfg.Table,
			ValueColumn:  cfg.ValueColumn,
			WeightColumn: cfg.WeightColumn,
			OrderColumn:  cfg.OrderColumn,
			Capacity:     cfg.Capacity,
			Retries:      cfg.Retries,
		})
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrCatalog, cfg.Source)
	}
}

// ReferenceSource serves the built-in five item catalog.
type ReferenceSource struct {
	// Capacity overrides the reference capacity when positive.
	Capacity float64
}

func (s *ReferenceSource) Name() string { return "reference" }

// Load never touches the outside world.
func (s *ReferenceSource) Load(ctx context.Context) (*knapsack.Problem, error) {
	if s.Capacity <= 0 || s.Capacity == knapsack.DefaultCapacity {
		return knapsack.ReferenceProblem(), nil
	}
	return knapsack.NewProblem(knapsack.ReferenceItems(), s.Capacity)
}

// capacityOr returns the first positive capacity, or the reference capacity.
func capacityOr(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return knapsack.DefaultCapacity
}
