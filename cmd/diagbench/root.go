package main

import (
	"github.com/spf13/cobra"

	"github.com/hmizuno-lab/diagbench/pkg/log"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "diagbench",
		Short: "Benchmark binary diagnosis classifiers on a clinical dataset",
		Long: `diagbench loads a tabular clinical dataset, explores it, and benchmarks
decision tree, random forest, k-nearest-neighbors, support vector machine,
and gradient boosting classifiers on a binary diagnosis label.

Model selection uses grid search with repeated stratified k-fold
cross-validation on the training subset only; the winner is refit and scored
on a held-out test subset. A fixed seed makes the whole run reproducible.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetLevel(log.ParseLevel(logLevel))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, error")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newExploreCmd())
	return cmd
}
