package geometry

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/collimation/numeric"
)

// RefPolicy selects how the point outside the polygon is placed.
type RefPolicy uint8

const (
	// RefScaled places the point at (1.1·|max x|, 1.1·|max y|). It is outside
	// the polygon unless a maximum coordinate is exactly zero.
	RefScaled RefPolicy = iota
	// RefBoundingBox offsets from the bounding-box corner by 1.1 times the
	// polygon extent, which is outside for any polygon with non-zero extent.
	RefBoundingBox
)

// refScale is the factor applied when pushing the reference point outward.
const refScale = 1.1

func (p RefPolicy) String() string {
	switch p {
	case RefScaled:
		return "scaled"
	case RefBoundingBox:
		return "bbox"
	}
	return fmt.Sprintf("RefPolicy(%d)", uint8(p))
}

// ParseRefPolicy parses the names produced by String.
func ParseRefPolicy(s string) (RefPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scaled":
		return RefScaled, nil
	case "bbox", "bounding_box":
		return RefBoundingBox, nil
	}
	return 0, fmt.Errorf("unknown reference policy %q", s)
}

// extent holds the per-axis vertex extremes as backend values.
type extent[V any] struct {
	minX, maxX, minY, maxY V
}

func vertexExtent[S, V, M any](b numeric.Backend[S, V, M], poly Polygon[S]) extent[V] {
	e := extent[V]{
		minX: b.Lift(poly.X[0]), maxX: b.Lift(poly.X[0]),
		minY: b.Lift(poly.Y[0]), maxY: b.Lift(poly.Y[0]),
	}
	for i := 1; i < poly.Len(); i++ {
		x, y := b.Lift(poly.X[i]), b.Lift(poly.Y[i])
		if b.Bit(b.Less(e.maxX, x), 0) {
			e.maxX = x
		}
		if b.Bit(b.Less(x, e.minX), 0) {
			e.minX = x
		}
		if b.Bit(b.Less(e.maxY, y), 0) {
			e.maxY = y
		}
		if b.Bit(b.Less(y, e.minY), 0) {
			e.minY = y
		}
	}
	return e
}

// ReferencePoint derives a point outside poly. The result has length 1 and is
// recomputed on every call.
func ReferencePoint[S, V, M any](b numeric.Backend[S, V, M], poly Polygon[S], policy RefPolicy) (Point[V], error) {
	if poly.Len() < 3 || len(poly.Y) != poly.Len() {
		return Point[V]{}, fmt.Errorf("%w: %d vertices", ErrInvalidPolygon, poly.Len())
	}
	e := vertexExtent(b, poly)
	zero := b.Const(0)
	scale := b.Const(refScale)

	switch policy {
	case RefScaled:
		if isZero(b, e.maxX) || isZero(b, e.maxY) {
			return Point[V]{}, fmt.Errorf("%w: maximum vertex coordinate is zero", ErrReferencePointDegenerate)
		}
		return Point[V]{
			X: b.Mul(scale, abs(b, e.maxX)),
			Y: b.Mul(scale, abs(b, e.maxY)),
		}, nil
	case RefBoundingBox:
		w, h := b.Sub(e.maxX, e.minX), b.Sub(e.maxY, e.minY)
		if !b.Bit(b.Less(zero, w), 0) || !b.Bit(b.Less(zero, h), 0) {
			return Point[V]{}, fmt.Errorf("%w: polygon has zero extent", ErrReferencePointDegenerate)
		}
		return Point[V]{
			X: add(b, e.maxX, b.Mul(scale, w)),
			Y: add(b, e.maxY, b.Mul(scale, h)),
		}, nil
	}
	return Point[V]{}, fmt.Errorf("reference point: unknown policy %v", policy)
}

func isZero[S, V, M any](b numeric.Backend[S, V, M], v V) bool {
	zero := b.Const(0)
	return !b.Bit(b.Less(v, zero), 0) && !b.Bit(b.Less(zero, v), 0)
}

func abs[S, V, M any](b numeric.Backend[S, V, M], v V) V {
	zero := b.Const(0)
	if b.Bit(b.Less(v, zero), 0) {
		return b.Sub(zero, v)
	}
	return v
}

// add is a + c written with subtraction only.
func add[S, V, M any](b numeric.Backend[S, V, M], a, c V) V {
	return b.Sub(a, b.Sub(b.Const(0), c))
}
