package elements

import (
	"fmt"
	"math/big"

	"github.com/pthm-cable/collimation/beam"
	"github.com/pthm-cable/collimation/geometry"
	"github.com/pthm-cable/collimation/numeric"
)

// LimitPolygon is an aperture bounded by a simple polygon. A particle passes
// when it lies inside the polygon.
type LimitPolygon struct {
	Polygon   geometry.Polygon[float64]
	Reference geometry.RefPolicy
	// Prec is the working precision for TrackBig, in bits; 0 selects
	// numeric.DefaultPrec.
	Prec uint
	// Exact holds the vertices TrackBig compares against. Built from decimal
	// literals it keeps edges such as 0.03 exact instead of their float64
	// rounding. When empty TrackBig converts Polygon on every call.
	Exact geometry.Polygon[*big.Float]
}

// NewLimitPolygon builds a polygon aperture from x and y vertex lists.
func NewLimitPolygon(xs, ys []float64, ref geometry.RefPolicy) (*LimitPolygon, error) {
	poly, err := geometry.NewPolygon(xs, ys)
	if err != nil {
		return nil, err
	}
	// 53 bits hold any float64 exactly.
	return &LimitPolygon{Polygon: poly, Reference: ref, Exact: geometry.ToBig(poly, 53)}, nil
}

// NewLimitPolygonDecimal builds a polygon aperture from decimal vertex
// literals. The arbitrary-precision path uses the literals parsed at prec
// bits; the float64 paths use their nearest float64.
func NewLimitPolygonDecimal(xs, ys []string, ref geometry.RefPolicy, prec uint) (*LimitPolygon, error) {
	bk := numeric.Big{Prec: prec}
	parse := func(axis string, vs []string) ([]*big.Float, []float64, error) {
		exact := make([]*big.Float, len(vs))
		approx := make([]float64, len(vs))
		for i, s := range vs {
			v, err := bk.Parse(s)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: vertex %d %s %q: %v", geometry.ErrInvalidPolygon, i, axis, s, err)
			}
			exact[i] = v
			approx[i], _ = v.Float64()
		}
		return exact, approx, nil
	}
	bx, fx, err := parse("x", xs)
	if err != nil {
		return nil, err
	}
	by, fy, err := parse("y", ys)
	if err != nil {
		return nil, err
	}

	poly, err := geometry.NewPolygon(fx, fy)
	if err != nil {
		return nil, err
	}
	exact, err := geometry.NewPolygon(bx, by)
	if err != nil {
		return nil, err
	}
	return &LimitPolygon{Polygon: poly, Reference: ref, Prec: prec, Exact: exact}, nil
}

// Inside classifies the positions of a batch without touching it.
func (l *LimitPolygon) Inside(b *beam.Batch) ([]bool, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return geometry.ContainsBatch(l.Polygon, b.X, b.Y, l.Reference)
}

func (l *LimitPolygon) Track(b *beam.Batch) (Status, error) {
	if b.Empty() {
		return StatusOK, nil
	}
	inside, err := l.Inside(b)
	if err != nil {
		return StatusOK, err
	}
	return applyLimit(b, inside)
}

func (l *LimitPolygon) TrackParticle(p *beam.Particle) (Status, error) {
	inside, err := geometry.ContainsPoint(l.Polygon, p.X, p.Y, l.Reference)
	if err != nil {
		return StatusOK, err
	}
	p.State = boolState(inside && p.Alive())
	return particleStatus(p), nil
}

// TrackBig classifies an arbitrary-precision particle against Exact.
func (l *LimitPolygon) TrackBig(p *beam.BigParticle) (Status, error) {
	prec := l.Prec
	if prec == 0 {
		prec = numeric.DefaultPrec
	}
	poly := l.Exact
	if poly.Len() == 0 {
		poly = geometry.ToBig(l.Polygon, prec)
	}
	inside, err := geometry.ContainsBig(poly, p.X, p.Y, prec, l.Reference)
	if err != nil {
		return StatusOK, err
	}
	p.State = boolState(inside && p.Alive())
	if p.Alive() {
		return StatusOK, nil
	}
	return StatusLost, nil
}
