package report

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/hmizuno-lab/diagbench/experiment"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// ParamCurvePlot draws the mean cross-validation score against one numeric
// hyperparameter of a model's grid and saves it to path (format chosen by
// the file extension). When the grid varies other parameters too, each value
// of the chosen parameter is plotted at its best score.
func ParamCurvePlot(rep *experiment.EvaluationReport, param, scoring, path string) error {
	if rep == nil || len(rep.GridScores) == 0 {
		return errors.NewValueError("report.ParamCurvePlot", "report has no grid scores")
	}

	best := make(map[float64]float64)
	for _, gs := range rep.GridScores {
		raw, ok := gs.Params[param]
		if !ok {
			return errors.NewValueError("report.ParamCurvePlot",
				fmt.Sprintf("parameter %q not in the grid", param))
		}
		v, ok := asFloat(raw)
		if !ok {
			return errors.NewValueError("report.ParamCurvePlot",
				fmt.Sprintf("parameter %q is not numeric", param))
		}
		if score, seen := best[v]; !seen || gs.Score > score {
			best[v] = gs.Score
		}
	}

	values := make([]float64, 0, len(best))
	for v := range best {
		values = append(values, v)
	}
	sort.Float64s(values)

	points := make(plotter.XYs, len(values))
	for i, v := range values {
		points[i].X = v
		points[i].Y = best[v]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s vs %s", rep.Model, scoring, param)
	p.X.Label.Text = param
	p.Y.Label.Text = fmt.Sprintf("mean cv %s", scoring)

	line, pts, err := plotter.NewLinePoints(points)
	if err != nil {
		return errors.Wrap(err, "report.ParamCurvePlot")
	}
	p.Add(line, pts)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "report.ParamCurvePlot: save")
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
