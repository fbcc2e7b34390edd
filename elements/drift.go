package elements

import "github.com/pthm-cable/collimation/beam"

// Drift moves particles in a straight line over Length metres.
type Drift struct {
	Length float64
}

func (d *Drift) Track(b *beam.Batch) (Status, error) {
	if err := b.Validate(); err != nil {
		return StatusOK, err
	}
	for i := range b.State {
		b.X[i] += b.Px[i] * d.Length
		b.Y[i] += b.Py[i] * d.Length
	}
	return StatusOK, nil
}

func (d *Drift) TrackParticle(p *beam.Particle) (Status, error) {
	p.X += p.Px * d.Length
	p.Y += p.Py * d.Length
	return particleStatus(p), nil
}

// Multipole is a thin-lens multipole kick. KNL and KSL hold the integrated
// normal and skew strengths, index n being the 2(n+1)-pole. Kickers are
// multipoles with only a dipole component.
type Multipole struct {
	KNL []float64
	KSL []float64
}

// kick evaluates the field at (x, y) for a particle with charge ratio chi.
func (m *Multipole) kick(x, y, chi float64) (dpx, dpy float64) {
	order := max(len(m.KNL), len(m.KSL))
	if order == 0 {
		return 0, 0
	}
	kn := make([]float64, order)
	ks := make([]float64, order)
	fact := 1.0
	for n := range order {
		if n > 0 {
			fact *= float64(n)
		}
		if n < len(m.KNL) {
			kn[n] = m.KNL[n] / fact
		}
		if n < len(m.KSL) {
			ks[n] = m.KSL[n] / fact
		}
	}

	// Horner evaluation of sum (kn + i ks) (x + i y)^n.
	re, im := kn[order-1], ks[order-1]
	for n := order - 2; n >= 0; n-- {
		zre := re*x - im*y
		zim := re*y + im*x
		re = kn[n] + zre
		im = ks[n] + zim
	}
	return -chi * re, chi * im
}

func (m *Multipole) Track(b *beam.Batch) (Status, error) {
	if err := b.Validate(); err != nil {
		return StatusOK, err
	}
	for i := range b.State {
		dpx, dpy := m.kick(b.X[i], b.Y[i], b.QRatio[i])
		b.Px[i] += dpx
		b.Py[i] += dpy
	}
	return StatusOK, nil
}

func (m *Multipole) TrackParticle(p *beam.Particle) (Status, error) {
	dpx, dpy := m.kick(p.X, p.Y, p.QRatio)
	p.Px += dpx
	p.Py += dpy
	return particleStatus(p), nil
}
