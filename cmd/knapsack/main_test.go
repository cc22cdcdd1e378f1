package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/config"
	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
	"github.com/kasuganosora/knapsackga/pkg/solver"
	"github.com/kasuganosora/knapsackga/server/httpapi"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestItemsCommand(t *testing.T) {
	out, _, err := execute(t, "items")

	require.NoError(t, err)
	assert.Contains(t, out, "capacity: 15")
	assert.Contains(t, out, "0\t4\t12")
	assert.Contains(t, out, "4\t10\t4")
}

func TestItemsCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "items", "--json")

	require.NoError(t, err)
	var resp httpapi.ItemsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 15.0, resp.Capacity)
	assert.Len(t, resp.Items, 5)
}

func TestItemsCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "items.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte("capacity: 3\nitems:\n  - {value: 5, weight: 2}\n  - {value: 1, weight: 1}\n"), 0644))
	configPath := filepath.Join(dir, "knapsack.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("catalog:\n  source: json\n  path: "+catalogPath+"\n"), 0644))

	out, _, err := execute(t, "--config", configPath, "items")

	require.NoError(t, err)
	assert.Contains(t, out, "capacity: 3")
	assert.Contains(t, out, "0\t5\t2")
}

func TestEvaluateCommand(t *testing.T) {
	out, _, err := execute(t, "evaluate", "01111")

	require.NoError(t, err)
	assert.Contains(t, out, "fitness:    15")
	assert.Contains(t, out, "weight:     8 / 15")
	assert.Contains(t, out, "feasible:   true")
}

func TestEvaluateCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "evaluate", "--json", "11111")

	require.NoError(t, err)
	var ev solver.Evaluation
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.Equal(t, 0.0, ev.Fitness)
	assert.Equal(t, 19.0, ev.Value)
	assert.False(t, ev.Feasible)
}

func TestEvaluateCommand_Errors(t *testing.T) {
	_, _, err := execute(t, "evaluate", "0101")
	assert.Error(t, err)

	_, _, err = execute(t, "evaluate", "01x11")
	assert.Error(t, err)

	_, _, err = execute(t, "evaluate")
	assert.Error(t, err)
}

func TestSolveCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "solve", "--json", "-p", "4", "-g", "6", "-m", "1", "--seed", "3")

	require.NoError(t, err)
	var res genetic.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 4, res.Config.PopulationSize)
	assert.Len(t, res.Crossovers, 5)
	assert.Len(t, res.Mutations, 5)
	assert.Equal(t, 16, res.RecordCount())
}

func TestSolveCommand_ZeroMutationRate(t *testing.T) {
	out, _, err := execute(t, "solve", "--json", "-g", "8", "-m", "0", "--seed", "2")

	require.NoError(t, err)
	var res genetic.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 0.0, res.Config.MutationRate)
	assert.Empty(t, res.Mutations)
	assert.Equal(t, 1+2*7, res.RecordCount())
}

func TestSolveCommand_Summary(t *testing.T) {
	out, _, err := execute(t, "solve", "-g", "5", "--seed", "9", "--history")

	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSolveCommand_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")

	_, _, err := execute(t, "solve", "-g", "3", "--seed", "1", "--xlsx", path)

	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSolveCommand_Batch(t *testing.T) {
	out, _, err := execute(t, "solve", "--json", "-g", "4", "--seed", "10", "--runs", "3")

	require.NoError(t, err)
	var batch solver.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	require.Len(t, batch.Runs, 3)
	for i, res := range batch.Runs {
		assert.Equal(t, int64(10+i), res.Config.Seed)
	}
}

func TestSolveCommand_InvalidOptions(t *testing.T) {
	_, _, err := execute(t, "solve", "-p", "1")
	assert.Error(t, err)

	_, _, err = execute(t, "solve", "-m", "1.5")
	assert.Error(t, err)

	_, _, err = execute(t, "solve", "--policy", "retry")
	assert.Error(t, err)
}

func TestSolveCommand_ExplicitZerosRejected(t *testing.T) {
	for _, args := range [][]string{
		{"solve", "--generations", "0"},
		{"solve", "--population", "0"},
		{"solve", "-p", "0", "-g", "0", "--json"},
		{"solve", "-g", "0", "--runs", "2"},
	} {
		out, _, err := execute(t, args...)

		require.Error(t, err, "%v", args)
		assert.True(t, api.IsErrorCode(err, api.ErrCodeInvalidConfig), "%v: %v", args, err)
		assert.Empty(t, out)
	}
}

func TestSolveCommand_InvalidRuns(t *testing.T) {
	for _, runs := range []string{"0", "-3"} {
		out, _, err := execute(t, "solve", "--runs", runs)

		require.Error(t, err, runs)
		assert.True(t, api.IsErrorCode(err, api.ErrCodeInvalidParam), "%s: %v", runs, err)
		assert.Empty(t, out)
	}
}

func TestRootCommand_LogLevel(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "items")
	assert.Error(t, err)

	_, stderr, err := execute(t, "--log-level", "debug", "items")
	require.NoError(t, err)
	assert.Contains(t, stderr, "loaded 5 items")
}

func TestMCPCommand_UnknownTransport(t *testing.T) {
	_, _, err := execute(t, "mcp", "--transport", "sse")
	assert.Error(t, err)
}
