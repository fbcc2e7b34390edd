package numeric

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Batch is the vectorised float64 backend. Every operation works on whole
// slices so the per-particle loop runs as a handful of array passes per edge.
type Batch struct{}

var _ Backend[float64, []float64, []bool] = Batch{}

func (Batch) Lift(s float64) []float64 { return []float64{s} }

func (Batch) Const(f float64) []float64 { return []float64{f} }

func (Batch) Len(v []float64) int { return len(v) }

func (Batch) Broadcast(v []float64, n int) []float64 {
	if len(v) == n {
		return v
	}
	if len(v) != 1 {
		panic(fmt.Sprintf("numeric: cannot broadcast %d values to %d: %v", len(v), n, ErrShapeMismatch))
	}
	out := make([]float64, n)
	floats.AddConst(v[0], out)
	return out
}

// pair broadcasts a and b to a common length.
func (bk Batch) pair(a, b []float64) ([]float64, []float64) {
	n := common(len(a), len(b))
	if n < 0 {
		panic(fmt.Sprintf("numeric: operands of length %d and %d: %v", len(a), len(b), ErrShapeMismatch))
	}
	return bk.Broadcast(a, n), bk.Broadcast(b, n)
}

func (bk Batch) Sub(a, b []float64) []float64 {
	a, b = bk.pair(a, b)
	return floats.SubTo(make([]float64, len(a)), a, b)
}

func (bk Batch) Mul(a, b []float64) []float64 {
	a, b = bk.pair(a, b)
	return floats.MulTo(make([]float64, len(a)), a, b)
}

func (bk Batch) Less(a, b []float64) []bool {
	a, b = bk.pair(a, b)
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] < b[i]
	}
	return out
}

func (Batch) Xor(a, b []bool) []bool {
	if len(a) != len(b) {
		panic(fmt.Sprintf("numeric: masks of length %d and %d: %v", len(a), len(b), ErrShapeMismatch))
	}
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] != b[i]
	}
	return out
}

func (Batch) And(a, b []bool) []bool {
	if len(a) != len(b) {
		panic(fmt.Sprintf("numeric: masks of length %d and %d: %v", len(a), len(b), ErrShapeMismatch))
	}
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] && b[i]
	}
	return out
}

func (Batch) Bit(m []bool, i int) bool { return m[i] }

func (Batch) Tally(counts []int, m []bool) {
	for i, set := range m {
		if set {
			counts[i]++
		}
	}
}
