// Package beam holds particle state for aperture tracking: a single Particle,
// an arbitrary-precision BigParticle, and a Batch stored as parallel arrays.
package beam

import "math/big"

// AtomicMassUnitEV is the atomic mass constant energy equivalent in eV.
const AtomicMassUnitEV = 931.49410242e6

// Reference describes the reference particle shared by a beam.
type Reference struct {
	Q0    float64 // reference charge [e]
	Mass0 float64 // rest mass [eV]
	A     float64 // mass number; 0 derives it from Mass0
}

// MassNumber returns A, falling back to Mass0 expressed in atomic mass units.
func (r Reference) MassNumber() float64 {
	if r.A > 0 {
		return r.A
	}
	return r.Mass0 / AtomicMassUnitEV
}

// Particle is one tracked particle. State is nonzero while the particle is
// tracked.
type Particle struct {
	Ref Reference

	X, Y   float64 // transverse position [m]
	Px, Py float64 // transverse momentum relative to the reference

	QRatio float64 // charge relative to Ref.Q0
	Energy float64 // total energy [eV]
	Z      int     // atomic number; 0 for particles that are not ions

	State int
}

// Alive reports whether the particle is still tracked.
func (p *Particle) Alive() bool { return p.State != 0 }

// Charge returns the charge state in units of e.
func (p *Particle) Charge() float64 { return p.Ref.Q0 * p.QRatio }

// KineticPerNucleon returns the kinetic energy per nucleon [eV/u].
func (p *Particle) KineticPerNucleon() float64 {
	return (p.Energy - p.Ref.Mass0) / p.Ref.MassNumber()
}

// AddEnergy changes the total energy by dE [eV].
func (p *Particle) AddEnergy(dE float64) { p.Energy += dE }

// BigParticle is a particle whose position carries arbitrary precision.
type BigParticle struct {
	X, Y  *big.Float
	State int
}

// Alive reports whether the particle is still tracked.
func (p *BigParticle) Alive() bool { return p.State != 0 }
