package elements

import "github.com/pthm-cable/collimation/beam"

// LimitRect is an axis-aligned rectangular aperture. Bounds are inclusive.
type LimitRect struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

func (l *LimitRect) contains(x, y float64) bool {
	return x >= l.MinX && x <= l.MaxX && y >= l.MinY && y <= l.MaxY
}

func (l *LimitRect) Track(b *beam.Batch) (Status, error) {
	if b.Empty() {
		return StatusOK, nil
	}
	if err := b.Validate(); err != nil {
		return StatusOK, err
	}
	inside := make([]bool, b.Len())
	for i := range inside {
		inside[i] = l.contains(b.X[i], b.Y[i])
	}
	return applyLimit(b, inside)
}

func (l *LimitRect) TrackParticle(p *beam.Particle) (Status, error) {
	p.State = boolState(p.Alive() && l.contains(p.X, p.Y))
	return particleStatus(p), nil
}

// LimitEllipse is an elliptical aperture centred on the axis with half axes
// A (horizontal) and B (vertical).
type LimitEllipse struct {
	A, B float64
}

func (l *LimitEllipse) contains(x, y float64) bool {
	u, v := x/l.A, y/l.B
	return u*u+v*v <= 1
}

func (l *LimitEllipse) Track(b *beam.Batch) (Status, error) {
	if b.Empty() {
		return StatusOK, nil
	}
	if err := b.Validate(); err != nil {
		return StatusOK, err
	}
	inside := make([]bool, b.Len())
	for i := range inside {
		inside[i] = l.contains(b.X[i], b.Y[i])
	}
	return applyLimit(b, inside)
}

func (l *LimitEllipse) TrackParticle(p *beam.Particle) (Status, error) {
	p.State = boolState(p.Alive() && l.contains(p.X, p.Y))
	return particleStatus(p), nil
}

// LimitRectEllipse is the intersection of a centred rectangle and ellipse.
type LimitRectEllipse struct {
	MaxX, MaxY float64
	A, B       float64
}

func (l *LimitRectEllipse) contains(x, y float64) bool {
	rect := LimitRect{MinX: -l.MaxX, MaxX: l.MaxX, MinY: -l.MaxY, MaxY: l.MaxY}
	ellipse := LimitEllipse{A: l.A, B: l.B}
	return rect.contains(x, y) && ellipse.contains(x, y)
}

func (l *LimitRectEllipse) Track(b *beam.Batch) (Status, error) {
	if b.Empty() {
		return StatusOK, nil
	}
	if err := b.Validate(); err != nil {
		return StatusOK, err
	}
	inside := make([]bool, b.Len())
	for i := range inside {
		inside[i] = l.contains(b.X[i], b.Y[i])
	}
	return applyLimit(b, inside)
}

func (l *LimitRectEllipse) TrackParticle(p *beam.Particle) (Status, error) {
	p.State = boolState(p.Alive() && l.contains(p.X, p.Y))
	return particleStatus(p), nil
}
