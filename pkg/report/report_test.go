package report

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/knapsackga/pkg/knapsack"
	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
)

func runResult(t *testing.T) *genetic.Result {
	t.Helper()
	cfg := genetic.DefaultGeneticAlgorithmConfig()
	cfg.MaxGenerations = 6
	cfg.MutationRate = 1
	cfg.Seed = 3
	ga, err := genetic.NewGeneticAlgorithm(knapsack.ReferenceProblem(), cfg)
	require.NoError(t, err)
	res, err := ga.Run(context.Background())
	require.NoError(t, err)
	res.RunID = "run-1"
	return res
}

func TestSummary_English(t *testing.T) {
	res := runResult(t)

	text := Summary(res, "en", false)
	assert.Contains(t, text, "Knapsack genetic algorithm run run-1")
	assert.Contains(t, text, "population 10, generations 6")
	assert.Contains(t, text, "best "+res.Best.Chromosome.String())
	assert.Contains(t, text, "16 records, 5 crossovers, 5 mutations")
	assert.NotContains(t, text, "generation  best")
}

func TestSummary_ChineseWithGenerations(t *testing.T) {
	res := runResult(t)

	text := Summary(res, "zh-CN", true)
	assert.Contains(t, text, "背包遗传算法运行 run-1")
	assert.Contains(t, text, "5 次交叉")
	// header plus one line per record
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Len(t, lines, 5+1+res.RecordCount())
}

func TestSummary_UnknownLanguageFallsBack(t *testing.T) {
	res := runResult(t)
	res.RunID = ""
	assert.Contains(t, Summary(res, "tlh", false), "Knapsack genetic algorithm run -")
}

func TestBuildWorkbook(t *testing.T) {
	res := runResult(t)

	f, err := BuildWorkbook(res)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetItems, SheetGenerations, SheetCrossovers, SheetMutations}, f.GetSheetList())

	rows, err := f.GetRows(SheetGenerations)
	require.NoError(t, err)
	assert.Len(t, rows, 1+res.RecordCount()*10)
	assert.Equal(t, []string{"Generation", "Position", "Chromosome", "Fitness"}, rows[0])
	assert.Equal(t, "1", rows[1][0])

	rows, err = f.GetRows(SheetCrossovers)
	require.NoError(t, err)
	assert.Len(t, rows, 1+len(res.Crossovers))

	rows, err = f.GetRows(SheetItems)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	assert.Equal(t, []string{"0", "4", "12"}, rows[1][:3])

	value, err := f.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", value)
}

func TestWriteAndSaveWorkbook(t *testing.T) {
	res := runResult(t)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, res))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	rows, err := f.GetRows(SheetMutations)
	require.NoError(t, err)
	assert.Len(t, rows, 1+len(res.Mutations))
	f.Close()

	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, SaveWorkbook(path, res))
	f, err = excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), SheetSummary)
}
