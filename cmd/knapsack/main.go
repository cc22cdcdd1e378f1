package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/config"
	"github.com/kasuganosora/knapsackga/pkg/solver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries the state every subcommand shares.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *api.DefaultLogger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "knapsack",
		Short: "Solve 0/1 knapsack problems with a genetic algorithm",
		Long: `knapsack evolves a population of item selections with roulette selection,
single-point crossover and bit-flip mutation, and reports every generation.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: $"+config.EnvConfigPath+" or ./knapsack.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")

	rootCmd.AddCommand(
		newSolveCmd(a),
		newItemsCmd(a),
		newEvaluateCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
	)
	return rootCmd
}

// setup 加载配置并创建日志器
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.configPath != "" {
		cfg, err := config.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else {
		a.cfg = config.LoadConfigOrDefault()
	}

	level := a.cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	lvl, err := api.ParseLogLevel(level)
	if err != nil {
		return err
	}
	a.logger = api.NewDefaultLoggerWithOutput(lvl, cmd.ErrOrStderr(), a.cfg.Log.Format)
	return nil
}

// service loads the catalog and builds a solver. The caller closes it.
func (a *app) service(cmd *cobra.Command) (*solver.Service, error) {
	return solver.NewFromConfig(cmd.Context(), a.cfg, a.logger, nil)
}
