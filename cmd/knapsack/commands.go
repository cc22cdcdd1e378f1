package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
	"github.com/kasuganosora/knapsackga/pkg/report"
	"github.com/kasuganosora/knapsackga/pkg/solver"
	"github.com/kasuganosora/knapsackga/server/httpapi"
	mcpserver "github.com/kasuganosora/knapsackga/server/mcp"
)

const shutdownTimeout = 10 * time.Second

type solveFlags struct {
	population   int
	generations  int
	mutationRate float64
	seed         int64
	policy       string
	runs         int
	asJSON       bool
	xlsxPath     string
	lang         string
	history      bool
}

func newSolveCmd(a *app) *cobra.Command {
	f := &solveFlags{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run the genetic algorithm on the configured catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSolve(cmd, f)
		},
	}
	cmd.Flags().IntVarP(&f.population, "population", "p", 0, "population size (default from config)")
	cmd.Flags().IntVarP(&f.generations, "generations", "g", 0, "generation budget (default from config)")
	cmd.Flags().Float64VarP(&f.mutationRate, "mutation-rate", "m", 0, "mutation probability per generation (default from config)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed, 0 for the clock")
	cmd.Flags().StringVar(&f.policy, "policy", "", "all-zero fitness policy: uniform or fail")
	cmd.Flags().IntVar(&f.runs, "runs", 1, "independent runs on the worker pool")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().StringVar(&f.xlsxPath, "xlsx", "", "also write the run (the best run of a batch) to this workbook")
	cmd.Flags().StringVar(&f.lang, "lang", "en", "summary language: en or zh")
	cmd.Flags().BoolVar(&f.history, "history", false, "list every generation in the summary")
	return cmd
}

func (a *app) runSolve(cmd *cobra.Command, f *solveFlags) error {
	if f.runs < 1 {
		return api.NewError(api.ErrCodeInvalidParam, fmt.Sprintf("--runs must be at least 1, got %d", f.runs), nil)
	}

	opts := solver.Options{
		DegeneratePolicy: f.policy,
		Seed:             f.seed,
	}
	if cmd.Flags().Changed("population") {
		population := f.population
		opts.PopulationSize = &population
	}
	if cmd.Flags().Changed("generations") {
		generations := f.generations
		opts.MaxGenerations = &generations
	}
	if cmd.Flags().Changed("mutation-rate") {
		rate := f.mutationRate
		opts.MutationRate = &rate
	}

	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	if f.runs > 1 {
		batch, err := svc.SolveBatch(cmd.Context(), opts, f.runs)
		if err != nil {
			return err
		}
		if err := a.saveWorkbook(f.xlsxPath, batch.Best()); err != nil {
			return err
		}
		if f.asJSON {
			return writeJSON(out, batch)
		}
		for i, res := range batch.Runs {
			fmt.Fprintf(out, "run %d  seed %d  best %g  %s\n", i, res.Config.Seed, res.Best.Fitness, res.Best.Chromosome)
		}
		fmt.Fprintf(out, "best run: %d\n", batch.BestRun)
		return nil
	}

	res, err := svc.Solve(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if err := a.saveWorkbook(f.xlsxPath, res); err != nil {
		return err
	}
	if f.asJSON {
		return writeJSON(out, res)
	}
	fmt.Fprint(out, report.Summary(res, f.lang, f.history))
	return nil
}

func (a *app) saveWorkbook(path string, res *genetic.Result) error {
	if path == "" {
		return nil
	}
	if err := report.SaveWorkbook(path, res); err != nil {
		return err
	}
	a.logger.Info("workbook written to %s", path)
	return nil
}

func newItemsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the catalog items and the capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, httpapi.ItemsResponse{Capacity: svc.Capacity(), Items: svc.Items()})
			}
			fmt.Fprintf(out, "capacity: %g\n", svc.Capacity())
			fmt.Fprintln(out, "index\tvalue\tweight")
			for i, item := range svc.Items() {
				fmt.Fprintf(out, "%d\t%g\t%g\n", i, item.Value, item.Weight)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "evaluate <bits>",
		Short:   "Score a selection given as a bit string such as 01111",
		Example: "  knapsack evaluate 01111",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ev, err := svc.EvaluateString(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, ev)
			}
			fmt.Fprintf(out, "chromosome: %s\n", ev.Chromosome)
			fmt.Fprintf(out, "fitness:    %g\n", ev.Fitness)
			fmt.Fprintf(out, "value:      %g\n", ev.Value)
			fmt.Fprintf(out, "weight:     %g / %g\n", ev.Weight, ev.Capacity)
			fmt.Fprintf(out, "feasible:   %t\n", ev.Feasible)
			fmt.Fprintf(out, "selected:   %v\n", ev.SelectedItems)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var withMCP bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, and the MCP endpoint when enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if withMCP {
				a.cfg.MCP.Enabled = true
				a.cfg.MCP.Transport = "http"
			}
			return a.serve(cmd)
		},
	}
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "also serve MCP over streamable HTTP")
	return cmd
}

// serve 启动 HTTP API 和可选的 MCP 服务，直到收到信号
func (a *app) serve(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()
	a.logger.Info("%s", svc)

	errCh := make(chan error, 2)

	httpServer := httpapi.NewServer(svc, a.cfg.HTTPAPI, a.logger)
	go func() {
		errCh <- httpServer.Start(a.cfg.GetListenAddress())
	}()

	var mcpSrv *mcpserver.Server
	if a.cfg.MCP.Enabled && a.cfg.MCP.Transport == "http" {
		mcpSrv = mcpserver.NewServer(svc, a.cfg.MCP, a.logger)
		go func() {
			errCh <- mcpSrv.Start()
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("服务器停止")
	case err = <-errCh:
		if err != nil {
			a.logger.Error("服务器退出: %v", err)
		}
	}

	metrics := svc.Metrics()
	a.logger.Info("served %d runs, success rate %.1f%%", metrics.GetRunCount(), metrics.GetSuccessRate())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if mcpSrv != nil {
		shutdownErr = errors.Join(shutdownErr, mcpSrv.Shutdown(shutdownCtx))
	}
	return errors.Join(err, shutdownErr)
}

func newMCPCmd(a *app) *cobra.Command {
	var transport string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if transport != "stdio" && transport != "http" {
				return fmt.Errorf("unknown transport %q, want stdio or http", transport)
			}
			a.cfg.MCP.Transport = transport

			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			return mcpserver.NewServer(svc, a.cfg.MCP, a.logger).Start()
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "stdio or http")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
