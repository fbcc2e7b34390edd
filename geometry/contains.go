package geometry

import (
	"fmt"
	"math/big"

	"github.com/pthm-cable/collimation/numeric"
)

var (
	scalarBackend numeric.Backend[float64, float64, bool]     = numeric.Scalar{}
	batchBackend  numeric.Backend[float64, []float64, []bool] = numeric.Batch{}
)

// Contains classifies p against poly using a reference point built with
// policy. The result has one entry per particle: one for scalar backends, one
// per batch element otherwise.
func Contains[S, V, M any](b numeric.Backend[S, V, M], poly Polygon[S], p Point[V], policy RefPolicy) ([]bool, error) {
	ref, err := ReferencePoint(b, poly, policy)
	if err != nil {
		return nil, err
	}
	return ContainsFrom(b, poly, p, ref)
}

// ContainsFrom classifies p against poly using the caller's reference point,
// which must lie outside the polygon. Every edge is evaluated for every
// particle; the crossing count must be exact for the parity rule.
func ContainsFrom[S, V, M any](b numeric.Backend[S, V, M], poly Polygon[S], p Point[V], ref Point[V]) ([]bool, error) {
	if poly.Len() < 3 || len(poly.Y) != poly.Len() {
		return nil, fmt.Errorf("%w: %d vertices", ErrInvalidPolygon, poly.Len())
	}
	n := b.Len(p.X)
	if b.Len(p.Y) != n {
		return nil, fmt.Errorf("%w: %d x positions, %d y positions", ErrShapeMismatch, n, b.Len(p.Y))
	}
	if n == 0 {
		return []bool{}, nil
	}
	ref = Point[V]{b.Broadcast(ref.X, n), b.Broadcast(ref.Y, n)}

	crossings := make([]int, n)
	for i := 0; i < poly.Len(); i++ {
		start, end := poly.Edge(i)
		b.Tally(crossings, Crosses(b, p, ref, lift(b, start), lift(b, end)))
	}

	inside := make([]bool, n)
	for i, c := range crossings {
		inside[i] = c%2 == 1
	}
	return inside, nil
}

// ContainsPoint classifies a single float64 position.
func ContainsPoint(poly Polygon[float64], x, y float64, policy RefPolicy) (bool, error) {
	inside, err := Contains(scalarBackend, poly, Point[float64]{x, y}, policy)
	if err != nil {
		return false, err
	}
	return inside[0], nil
}

// ContainsBatch classifies equal-length position slices in one vectorised pass.
func ContainsBatch(poly Polygon[float64], xs, ys []float64, policy RefPolicy) ([]bool, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x positions, %d y positions", ErrShapeMismatch, len(xs), len(ys))
	}
	return Contains(batchBackend, poly, Point[[]float64]{xs, ys}, policy)
}

// ContainsBig classifies an arbitrary-precision position. prec is the working
// precision in bits; 0 selects numeric.DefaultPrec.
func ContainsBig(poly Polygon[*big.Float], x, y *big.Float, prec uint, policy RefPolicy) (bool, error) {
	var b numeric.Backend[*big.Float, *big.Float, bool] = numeric.Big{Prec: prec}
	inside, err := Contains(b, poly, Point[*big.Float]{x, y}, policy)
	if err != nil {
		return false, err
	}
	return inside[0], nil
}
