package dataset

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// CVFold is one train/validation assignment of a k-fold scheme.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedKFold partitions rows into k folds preserving class proportions.
// Within each class, rows are shuffled by seed and dealt round-robin, so
// every fold's class mix matches the whole within one sample. Each fold is
// the validation set exactly once.
//
// Classes with fewer samples than folds are rejected with a DataError: such
// a class would be missing from some validation folds.
func StratifiedKFold(y *mat.VecDense, folds int, seed int64) ([]CVFold, error) {
	if y == nil || y.Len() == 0 {
		return nil, errors.NewDataError("StratifiedKFold", "", "empty label vector")
	}
	if folds < 2 {
		return nil, errors.NewValueError("StratifiedKFold", "folds must be at least 2")
	}
	n := y.Len()
	if folds > n {
		return nil, errors.NewValueError("StratifiedKFold", "folds exceeds the number of samples")
	}

	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		classIndices[y.AtVec(i)] = append(classIndices[y.AtVec(i)], i)
	}

	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	assignment := make([][]int, folds)
	for _, label := range labels {
		indices := classIndices[label]
		if len(indices) < folds {
			return nil, errors.NewDataError("StratifiedKFold", "",
				"a class has fewer samples than folds")
		}
		shuffled := make([]int, len(indices))
		copy(shuffled, indices)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for k, idx := range shuffled {
			assignment[k%folds] = append(assignment[k%folds], idx)
		}
	}

	out := make([]CVFold, folds)
	for f := 0; f < folds; f++ {
		test := make([]int, len(assignment[f]))
		copy(test, assignment[f])
		sort.Ints(test)

		var train []int
		for g := 0; g < folds; g++ {
			if g != f {
				train = append(train, assignment[g]...)
			}
		}
		sort.Ints(train)

		out[f] = CVFold{TrainIndices: train, TestIndices: test}
	}
	return out, nil
}
