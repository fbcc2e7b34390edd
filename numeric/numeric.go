// Package numeric provides the elementwise arithmetic backends the aperture
// geometry is written against.
//
// Three representations are supported: a single float64 (Scalar), a batch of
// float64 values processed as whole slices (Batch), and a single
// arbitrary-precision value (Big). The geometry code never performs arithmetic
// directly; it only calls the primitives of Backend.
package numeric

import "errors"

// ErrShapeMismatch is returned when per-particle sequences that must line up
// have different lengths.
var ErrShapeMismatch = errors.New("shape mismatch")

// Backend supplies elementwise arithmetic over values of type V.
//
// S is the scalar type polygon vertices are stored in, V the particle value
// type (one value or a whole batch) and M the mask produced by comparisons.
// A value of length 1 broadcasts against a value of any length.
type Backend[S, V, M any] interface {
	// Lift turns a vertex coordinate into a value of length 1.
	Lift(s S) V
	// Const returns f as a value of length 1.
	Const(f float64) V
	// Len reports the number of elements in v.
	Len(v V) int
	// Broadcast expands a length-1 value to n elements. Values that already
	// have n elements are returned unchanged.
	Broadcast(v V, n int) V

	Sub(a, b V) V
	Mul(a, b V) V
	Less(a, b V) M

	Xor(a, b M) M
	And(a, b M) M
	// Bit reports element i of m.
	Bit(m M, i int) bool
	// Tally adds 1 to counts[i] for every set element i of m.
	Tally(counts []int, m M)
}

// common returns the length two values broadcast to, or -1 when they cannot.
func common(na, nb int) int {
	switch {
	case na == nb:
		return na
	case na == 1:
		return nb
	case nb == 1:
		return na
	}
	return -1
}
