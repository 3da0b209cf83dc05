package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// Split is a partition of row indices into disjoint train and test subsets
// whose union covers the original dataset.
type Split struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedSplit partitions rows into train and test subsets, preserving
// the class proportions of y within rounding. trainFraction must lie in
// (0, 1). The split is fully determined by seed.
//
// Every class present in y receives at least one sample in each subset; a
// class with fewer than two samples makes that infeasible and is rejected
// with a DataError.
func StratifiedSplit(y *mat.VecDense, trainFraction float64, seed int64) (*Split, error) {
	if y == nil || y.Len() == 0 {
		return nil, errors.NewDataError("StratifiedSplit", "", "empty label vector")
	}
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, errors.NewValueError("StratifiedSplit", "train fraction must be in (0, 1)")
	}

	n := y.Len()
	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		label := y.AtVec(i)
		classIndices[label] = append(classIndices[label], i)
	}
	if len(classIndices) < 2 {
		return nil, errors.NewDataError("StratifiedSplit", "", "labels contain fewer than two classes")
	}

	// Iterate classes in sorted label order so the RNG stream is stable.
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	split := &Split{}
	for _, label := range labels {
		indices := classIndices[label]
		if len(indices) < 2 {
			return nil, errors.NewDataError("StratifiedSplit", "",
				"a class has fewer than two samples; cannot allocate it to both subsets")
		}

		shuffled := make([]int, len(indices))
		copy(shuffled, indices)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		nTrain := int(math.Floor(trainFraction * float64(len(indices))))
		if nTrain < 1 {
			nTrain = 1
		}
		if nTrain > len(indices)-1 {
			nTrain = len(indices) - 1
		}

		split.TrainIndices = append(split.TrainIndices, shuffled[:nTrain]...)
		split.TestIndices = append(split.TestIndices, shuffled[nTrain:]...)
	}

	// Sorted index order keeps downstream row extraction deterministic.
	sort.Ints(split.TrainIndices)
	sort.Ints(split.TestIndices)
	return split, nil
}

// SelectRows copies the given rows of X into a new dense matrix.
func SelectRows(X mat.Matrix, indices []int) *mat.Dense {
	_, cols := X.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

// SelectVec copies the given entries of y into a new vector.
func SelectVec(y *mat.VecDense, indices []int) *mat.VecDense {
	out := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		out.SetVec(i, y.AtVec(idx))
	}
	return out
}
