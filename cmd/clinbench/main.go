// Command clinbench benchmarks binary classifiers on a clinical CSV cohort.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinbench/clinbench/bench"
	"github.com/clinbench/clinbench/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "clinbench",
		Short: "Benchmark binary classifiers on a clinical CSV dataset",
		Long: `clinbench loads a clinical CSV cohort, filters missing data, one-hot
encodes categorical predictors, splits the rows once, then tunes, trains and
evaluates a fixed set of classifiers on that shared split.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			log.Setup(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"log level: debug, info, warn or error")

	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		configPath       string
		input            string
		outcome          string
		indexColumn      string
		missingThreshold float64
		testFraction     float64
		seed             int64
		cvFolds          int
		noTune           bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark and print the per-model report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := bench.DefaultConfig()
			if configPath != "" {
				loaded, err := bench.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			// Explicit flags win over the config file.
			if cmd.Flags().Changed("input") {
				cfg.Input = input
			}
			if cmd.Flags().Changed("outcome") {
				cfg.Outcome = outcome
			}
			if cmd.Flags().Changed("index-column") {
				cfg.IndexColumn = indexColumn
			}
			if cmd.Flags().Changed("missing-threshold") {
				cfg.MissingThreshold = missingThreshold
			}
			if cmd.Flags().Changed("test-fraction") {
				cfg.TestFraction = testFraction
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("cv-folds") {
				cfg.CVFolds = cvFolds
			}
			if noTune {
				cfg.Tune = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			runner := bench.NewRunner(cfg, bench.DefaultSpecs())
			results, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			return results.Report(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path of a YAML config file")
	cmd.Flags().StringVar(&input, "input", "", "path of the CSV file to load")
	cmd.Flags().StringVar(&outcome, "outcome", "", "name of the binary outcome column")
	cmd.Flags().StringVar(&indexColumn, "index-column", "", "row-identifier column to drop on load")
	cmd.Flags().Float64Var(&missingThreshold, "missing-threshold", 0.3,
		"drop columns with a higher fraction of missing values")
	cmd.Flags().Float64Var(&testFraction, "test-fraction", 0.25, "held-out share of rows")
	cmd.Flags().Int64Var(&seed, "seed", 42, "seed for splitting, folding and model initialization")
	cmd.Flags().IntVar(&cvFolds, "cv-folds", 5, "folds used by grid search")
	cmd.Flags().BoolVar(&noTune, "no-tune", false, "skip grid search and use default hyperparameters")

	return cmd
}
