package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hmizuno-lab/diagbench/dataset"
	"github.com/hmizuno-lab/diagbench/stats"
)

func newExploreCmd() *cobra.Command {
	var (
		dataPath    string
		target      string
		dropColumns []string
		zThreshold  float64
		spearman    bool
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Print summary statistics, correlations, and outliers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.LoadFile(dataPath, dataset.WithDropColumns(dropColumns...))
			if err != nil {
				return err
			}

			summaries, err := stats.Describe(ds)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "column\tcount\tmean\tstd\tmin\tq1\tmedian\tq3\tmax")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
					s.Column, s.Count, s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			corrFn := stats.CorrelationMatrix
			corrName := "pearson"
			if spearman {
				corrFn = stats.SpearmanMatrix
				corrName = "spearman"
			}
			corr, names, err := corrFn(ds)
			if err != nil {
				return err
			}
			fmt.Printf("\n%s correlation:\n", corrName)
			cw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(cw, "\t%s\n", joinTabs(names))
			for i, name := range names {
				fmt.Fprintf(cw, "%s", name)
				for j := range names {
					fmt.Fprintf(cw, "\t%.3f", corr.At(i, j))
				}
				fmt.Fprintln(cw)
			}
			if err := cw.Flush(); err != nil {
				return err
			}

			outliers, err := stats.Outliers(ds, zThreshold)
			if err != nil {
				return err
			}
			fmt.Printf("\noutliers beyond %.1f standard deviations: %d\n", zThreshold, len(outliers))
			for _, o := range outliers {
				fmt.Printf("  %s row %d: value %.3f (z = %.2f)\n", o.Column, o.Row, o.Value, o.ZScore)
			}

			if target != "" {
				balance, err := ds.ClassBalance(target)
				if err != nil {
					return err
				}
				labels := make([]float64, 0, len(balance))
				for label := range balance {
					labels = append(labels, label)
				}
				sort.Float64s(labels)
				fmt.Printf("\nclass balance of %s:\n", target)
				for _, label := range labels {
					fmt.Printf("  class %g: %.3f\n", label, balance[label])
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "path to the CSV dataset")
	cmd.Flags().StringVar(&target, "target", "", "target column for class balance")
	cmd.Flags().StringSliceVar(&dropColumns, "drop", nil, "columns to exclude")
	cmd.Flags().Float64Var(&zThreshold, "z-threshold", 3.0, "z-score magnitude flagged as an outlier")
	cmd.Flags().BoolVar(&spearman, "spearman", false, "use rank correlation instead of Pearson")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func joinTabs(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += "\t"
		}
		out += n
	}
	return out
}
