package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/knapsackga/pkg/knapsack"
)

// ExcelSource reads items from a worksheet whose first row is a header.
type ExcelSource struct {
	Path string
	// Sheet defaults to the first worksheet.
	Sheet        string
	ValueColumn  string
	WeightColumn string
	Capacity     float64
}

func (s *ExcelSource) Name() string { return "xlsx:" + s.Path }

// Load 加载工作表. Rows whose value and weight cells are both blank are skipped.
func (s *ExcelSource) Load(ctx context.Context) (*knapsack.Problem, error) {
	file, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrCatalog, s.Path, err)
	}
	defer file.Close()

	sheet := s.Sheet
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found in %s", ErrCatalog, s.Path)
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := file.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("%w: sheet not found: %s", ErrCatalog, sheet)
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrCatalog, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet is empty: %s", ErrCatalog, sheet)
	}

	// 第一行是列头
	valueCol := columnIndex(rows[0], orDefault(s.ValueColumn, "value"))
	weightCol := columnIndex(rows[0], orDefault(s.WeightColumn, "weight"))
	if valueCol < 0 || weightCol < 0 {
		return nil, fmt.Errorf("%w: sheet %s needs %q and %q columns", ErrCatalog, sheet,
			orDefault(s.ValueColumn, "value"), orDefault(s.WeightColumn, "weight"))
	}

	items := make([]knapsack.Item, 0, len(rows)-1)
	for i, row := range rows[1:] {
		valueText, weightText := cell(row, valueCol), cell(row, weightCol)
		if valueText == "" && weightText == "" {
			continue
		}
		value, err := strconv.ParseFloat(valueText, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d value %q: %v", ErrCatalog, i+2, valueText, err)
		}
		weight, err := strconv.ParseFloat(weightText, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d weight %q: %v", ErrCatalog, i+2, weightText, err)
		}
		items = append(items, knapsack.Item{Value: value, Weight: weight})
	}

	return knapsack.NewProblem(items, capacityOr(s.Capacity))
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
