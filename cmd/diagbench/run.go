package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hmizuno-lab/diagbench/dataset"
	"github.com/hmizuno-lab/diagbench/experiment"
	"github.com/hmizuno-lab/diagbench/report"
)

func newRunCmd() *cobra.Command {
	var (
		dataPath   string
		configPath string
		plotModel  string
		plotParam  string
		plotOut    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark described by a YAML configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := experiment.LoadConfig(configPath)
			if err != nil {
				return err
			}

			ds, err := dataset.LoadFile(dataPath, dataset.WithDropColumns(cfg.DropColumns...))
			if err != nil {
				return err
			}

			result, err := experiment.New().RunConfig(ds, cfg)
			if err != nil {
				return err
			}
			if err := report.Render(os.Stdout, result); err != nil {
				return err
			}

			if plotOut != "" {
				rep := result.Reports[plotModel]
				if rep == nil {
					return fmt.Errorf("no report for model %q to plot", plotModel)
				}
				if err := report.ParamCurvePlot(rep, plotParam, cfg.Resampling.Scoring, plotOut); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "\nwrote %s\n", plotOut)
			}

			if len(result.Reports) == 0 {
				return fmt.Errorf("all %d models failed", len(result.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "path to the CSV dataset")
	cmd.Flags().StringVar(&configPath, "config", "", "path to the YAML experiment configuration")
	cmd.Flags().StringVar(&plotModel, "plot-model", "", "model whose hyperparameter curve to plot")
	cmd.Flags().StringVar(&plotParam, "plot-param", "", "numeric hyperparameter for the curve")
	cmd.Flags().StringVar(&plotOut, "plot-out", "", "output image path; empty disables plotting")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
