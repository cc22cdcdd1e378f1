package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/report"
	"github.com/kasuganosora/knapsackga/pkg/solver"
)

// ToolDeps holds shared dependencies for MCP tool handlers
type ToolDeps struct {
	Solver *solver.Service
	Logger api.Logger
}

// HandleSolve runs the genetic algorithm. format=json returns the full
// history, anything else a localized summary.
func (d *ToolDeps) HandleSolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := request.GetArguments()

	opts, err := solveOptions(request)
	if err != nil {
		d.logToolCall("solve_knapsack", args, time.Since(start), false)
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := d.Solver.Solve(ctx, opts)
	if err != nil {
		d.logToolCall("solve_knapsack", args, time.Since(start), false)
		return mcp.NewToolResultError(fmt.Sprintf("solve failed: %v", err)), nil
	}

	var text string
	switch request.GetString("format", "text") {
	case "json":
		data, err := json.Marshal(res)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		text = string(data)
	default:
		text = report.Summary(res, request.GetString("lang", "en"), request.GetBool("history", false))
	}

	d.logToolCall("solve_knapsack", args, time.Since(start), true)
	return mcp.NewToolResultText(text), nil
}

func solveOptions(request mcp.CallToolRequest) (solver.Options, error) {
	var opts solver.Options
	args := request.GetArguments()

	if _, ok := args["population_size"]; ok {
		v, err := request.RequireInt("population_size")
		if err != nil {
			return opts, err
		}
		opts.PopulationSize = &v
	}
	if _, ok := args["max_generations"]; ok {
		v, err := request.RequireInt("max_generations")
		if err != nil {
			return opts, err
		}
		opts.MaxGenerations = &v
	}
	if _, ok := args["mutation_rate"]; ok {
		v, err := request.RequireFloat("mutation_rate")
		if err != nil {
			return opts, err
		}
		opts.MutationRate = &v
	}
	if _, ok := args["seed"]; ok {
		v, err := request.RequireInt("seed")
		if err != nil {
			return opts, err
		}
		opts.Seed = int64(v)
	}
	opts.DegeneratePolicy = request.GetString("degenerate_policy", "")
	return opts, nil
}

// HandleEvaluate scores a bit string such as "01111"
func (d *ToolDeps) HandleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bits := request.GetString("chromosome", "")
	if bits == "" {
		return mcp.NewToolResultError("chromosome parameter is required"), nil
	}
	start := time.Now()
	args := map[string]interface{}{"chromosome": bits}

	ev, err := d.Solver.EvaluateString(bits)
	if err != nil {
		d.logToolCall("evaluate_chromosome", args, time.Since(start), false)
		return mcp.NewToolResultError(fmt.Sprintf("evaluate failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Chromosome: %s\n", bits))
	sb.WriteString(fmt.Sprintf("Fitness: %g\n", ev.Fitness))
	sb.WriteString(fmt.Sprintf("Value: %g\n", ev.Value))
	sb.WriteString(fmt.Sprintf("Weight: %g / %g\n", ev.Weight, ev.Capacity))
	sb.WriteString(fmt.Sprintf("Feasible: %t\n", ev.Feasible))
	sb.WriteString(fmt.Sprintf("Selected items: %v\n", ev.SelectedItems))

	d.logToolCall("evaluate_chromosome", args, time.Since(start), true)
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleListItems lists the catalog
func (d *ToolDeps) HandleListItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Capacity: %g\n", d.Solver.Capacity()))
	sb.WriteString("index\tvalue\tweight\n")
	for i, item := range d.Solver.Items() {
		sb.WriteString(fmt.Sprintf("%d\t%g\t%g\n", i, item.Value, item.Weight))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleStats reports the runs served by this process
func (d *ToolDeps) HandleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := d.Solver.Metrics().GetSnapshot()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Runs: %d\n", stats.RunCount))
	sb.WriteString(fmt.Sprintf("Succeeded: %d\n", stats.RunSuccess))
	sb.WriteString(fmt.Sprintf("Failed: %d\n", stats.RunError))
	sb.WriteString(fmt.Sprintf("Success rate: %.1f%%\n", stats.SuccessRate))
	sb.WriteString(fmt.Sprintf("Average duration: %s\n", stats.AvgDuration))
	sb.WriteString(fmt.Sprintf("Best fitness: %g\n", stats.BestFitness))
	if code := request.GetString("error_code", ""); code != "" {
		sb.WriteString(fmt.Sprintf("Errors %s: %d\n", code, d.Solver.Metrics().GetErrorCount(code)))
		return mcp.NewToolResultText(sb.String()), nil
	}
	codes := make([]string, 0, len(stats.ErrorCount))
	for code := range stats.ErrorCount {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		sb.WriteString(fmt.Sprintf("Errors %s: %d\n", code, stats.ErrorCount[code]))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (d *ToolDeps) logToolCall(toolName string, args map[string]interface{}, duration time.Duration, success bool) {
	if d.Logger == nil {
		return
	}
	if success {
		d.Logger.Info("[MCP] tool=%s args=%v duration=%s", toolName, args, duration)
		return
	}
	d.Logger.Warn("[MCP] tool=%s args=%v duration=%s failed", toolName, args, duration)
}
