// Package geometry classifies particle positions against simple polygonal
// apertures.
//
// Containment counts how many polygon edges the segment from the particle to
// a point outside the polygon properly crosses; an odd count means inside.
// The orientation and crossing predicates are written once against
// numeric.Backend and run unchanged on a single float64, a batch of float64
// and arbitrary-precision values.
package geometry

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/pthm-cable/collimation/numeric"
)

var (
	// ErrInvalidPolygon is returned for polygons with fewer than 3 vertices or
	// mismatched coordinate lists.
	ErrInvalidPolygon = errors.New("invalid polygon")
	// ErrShapeMismatch is returned for particle coordinate lists of unequal length.
	ErrShapeMismatch = numeric.ErrShapeMismatch
	// ErrReferencePointDegenerate is returned when the reference point cannot
	// be guaranteed to lie outside the polygon.
	ErrReferencePointDegenerate = errors.New("degenerate reference point")
)

// Point is a coordinate pair. With a batch backend X and Y hold one entry per
// particle.
type Point[V any] struct {
	X, Y V
}

// Polygon is an ordered ring of vertices. Edge i joins vertex i to vertex
// i+1, and the last vertex joins the first; no closing vertex is stored.
// Winding direction does not matter.
type Polygon[S any] struct {
	X, Y []S
}

// NewPolygon builds a polygon from separate x and y lists. The lists are copied.
func NewPolygon[S any](xs, ys []S) (Polygon[S], error) {
	if len(xs) != len(ys) {
		return Polygon[S]{}, fmt.Errorf("%w: %d x coordinates, %d y coordinates", ErrInvalidPolygon, len(xs), len(ys))
	}
	if len(xs) < 3 {
		return Polygon[S]{}, fmt.Errorf("%w: %d vertices, need at least 3", ErrInvalidPolygon, len(xs))
	}
	return Polygon[S]{
		X: append([]S(nil), xs...),
		Y: append([]S(nil), ys...),
	}, nil
}

// FromPairs builds a polygon from (x, y) pairs.
func FromPairs[S any](pairs [][2]S) (Polygon[S], error) {
	xs := make([]S, len(pairs))
	ys := make([]S, len(pairs))
	for i, p := range pairs {
		xs[i], ys[i] = p[0], p[1]
	}
	return NewPolygon(xs, ys)
}

// MustPolygon is like NewPolygon but panics on error.
func MustPolygon[S any](xs, ys []S) Polygon[S] {
	p, err := NewPolygon(xs, ys)
	if err != nil {
		panic(fmt.Sprintf("geometry: %v", err))
	}
	return p
}

// Len returns the number of vertices (and edges).
func (p Polygon[S]) Len() int { return len(p.X) }

// Edge returns the endpoints of edge i.
func (p Polygon[S]) Edge(i int) (start, end Point[S]) {
	j := (i + 1) % len(p.X)
	return Point[S]{p.X[i], p.Y[i]}, Point[S]{p.X[j], p.Y[j]}
}

// Reversed returns the polygon with opposite winding.
func (p Polygon[S]) Reversed() Polygon[S] {
	n := len(p.X)
	out := Polygon[S]{X: make([]S, n), Y: make([]S, n)}
	for i := range p.X {
		out.X[n-1-i] = p.X[i]
		out.Y[n-1-i] = p.Y[i]
	}
	return out
}

// ToBig converts a float64 polygon into arbitrary precision. Conversion is exact.
func ToBig(p Polygon[float64], prec uint) Polygon[*big.Float] {
	out := Polygon[*big.Float]{X: make([]*big.Float, len(p.X)), Y: make([]*big.Float, len(p.Y))}
	for i := range p.X {
		out.X[i] = new(big.Float).SetPrec(prec).SetFloat64(p.X[i])
		out.Y[i] = new(big.Float).SetPrec(prec).SetFloat64(p.Y[i])
	}
	return out
}
