package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// SplitMethod selects how validation rows are held out.
type SplitMethod string

const (
	// SplitRandom holds out a random fraction of individual rows.
	SplitRandom SplitMethod = "random"

	// SplitLeaveOneOut holds out whole experiments, so no rows of a
	// held-out experiment ever appear in the training set.
	SplitLeaveOneOut SplitMethod = "leaveoneout"
)

// Split is a partition of dataset row indices.
type Split struct {
	Train []int
	Val   []int
}

// Split partitions the dataset rows for validation. frac is the
// held-out fraction (of rows for SplitRandom, of experiments for
// SplitLeaveOneOut). The same seed always yields the same partition.
func (d *Dataset) Split(frac float64, method SplitMethod, seed int64) (Split, error) {
	if frac <= 0 || frac >= 1 {
		return Split{}, fmt.Errorf("dataset: validation fraction %v outside (0, 1)", frac)
	}
	rng := rand.New(rand.NewSource(seed))

	switch method {
	case SplitRandom:
		idx := rng.Perm(d.Len())
		nVal := int(math.Ceil(frac * float64(d.Len())))
		if nVal >= d.Len() {
			nVal = d.Len() - 1
		}
		s := Split{Train: idx[nVal:], Val: idx[:nVal]}
		sort.Ints(s.Train)
		sort.Ints(s.Val)
		return s, nil

	case SplitLeaveOneOut:
		seen := make(map[int]struct{})
		var ids []int
		for _, id := range d.DoeIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
		sort.Ints(ids)
		if len(ids) < 2 {
			return Split{}, fmt.Errorf("dataset: leave-one-out needs at least two experiments, got %d", len(ids))
		}
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		nVal := int(math.Ceil(frac * float64(len(ids))))
		if nVal >= len(ids) {
			nVal = len(ids) - 1
		}
		held := make(map[int]struct{}, nVal)
		for _, id := range ids[:nVal] {
			held[id] = struct{}{}
		}
		var s Split
		for i, id := range d.DoeIDs {
			if _, ok := held[id]; ok {
				s.Val = append(s.Val, i)
			} else {
				s.Train = append(s.Train, i)
			}
		}
		return s, nil

	default:
		return Split{}, fmt.Errorf("dataset: unknown split method %q", method)
	}
}

// Batch copies the given rows of X and Y into fresh matrices.
func (d *Dataset) Batch(rows []int) (x, y *mat.Dense) {
	x = mat.NewDense(len(rows), d.FeatureDim(), nil)
	y = mat.NewDense(len(rows), d.OutputDim(), nil)
	for i, r := range rows {
		copy(x.RawRowView(i), d.X.RawRowView(r))
		copy(y.RawRowView(i), d.Y.RawRowView(r))
	}
	return x, y
}
