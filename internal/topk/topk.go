// internal/topk/topk.go
package topk

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidArgument is returned when k is outside [1, len(scores)].
var ErrInvalidArgument = errors.New("invalid top-k argument")

// Result holds the k best scores in descending order; Indices[i] is the
// position of Scores[i] in the original score buffer.
type Result struct {
	Indices []int
	Scores  []float32
}

// Len returns the number of entries.
func (r Result) Len() int {
	return len(r.Indices)
}

// Select returns the k highest scores with their original indices.
// Equal scores keep ascending index order; NaN scores rank last.
func Select(scores []float32, k int) (Result, error) {
	if k <= 0 || k > len(scores) {
		return Result{}, fmt.Errorf("%w: k=%d, scores=%d", ErrInvalidArgument, k, len(scores))
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return greater(scores[order[a]], scores[order[b]])
	})

	res := Result{
		Indices: make([]int, k),
		Scores:  make([]float32, k),
	}
	for i := 0; i < k; i++ {
		res.Indices[i] = order[i]
		res.Scores[i] = scores[order[i]]
	}
	return res, nil
}

// greater orders a before b. NaN sorts after every number.
func greater(a, b float32) bool {
	aNaN, bNaN := a != a, b != b
	if aNaN || bNaN {
		return !aNaN && bNaN
	}
	return a > b
}
