package elements

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/collimation/beam"
	"github.com/pthm-cable/collimation/chargex"
)

// ErrNoAtomicNumber is returned by scatter functions that need ion data when
// a particle carries none.
var ErrNoAtomicNumber = errors.New("particle has no atomic number")

// Scatter decides what happens to particles that hit a foil.
type Scatter interface {
	ScatterParticle(f *LimitFoil, p *beam.Particle) error
	// ScatterBatch handles the particles at idx. It may mark them lost but
	// must not compact the batch.
	ScatterBatch(f *LimitFoil, b *beam.Batch, idx []int) error
}

// LimitFoil is a rectangular opening surrounded by foil. Particles outside the
// opening hit the foil and are handed to Scatter.
type LimitFoil struct {
	MinX, MaxX float64 // [m]
	MinY, MaxY float64 // [m]

	Thickness float64 // [m]
	Density   float64 // [g/cm^3]
	Z         int     // atomic number of the foil material
	A         float64 // standard atomic weight of the foil material

	Scatter Scatter // nil behaves like BlackHole
}

// NewLimitFoil returns a 1 mm carbon foil around a ±1 m opening.
func NewLimitFoil() *LimitFoil {
	return &LimitFoil{
		MinX: -1, MaxX: 1,
		MinY: -1, MaxY: 1,
		Thickness: 0.001,
		Density:   1.86,
		Z:         6,
		A:         12.0096,
	}
}

// TargetDensity is the areal density of the foil [mg/cm^2].
func (f *LimitFoil) TargetDensity() float64 {
	return 1e3 * f.Density * 1e2 * f.Thickness
}

func (f *LimitFoil) scatter() Scatter {
	if f.Scatter == nil {
		return BlackHole{}
	}
	return f.Scatter
}

func (f *LimitFoil) Track(b *beam.Batch) (Status, error) {
	if b.Empty() {
		return StatusOK, nil
	}
	if err := b.Validate(); err != nil {
		return StatusOK, err
	}

	var hits []int
	for i := range b.State {
		x, y := b.X[i], b.Y[i]
		if x <= f.MinX || x >= f.MaxX || y <= f.MinY || y >= f.MaxY {
			hits = append(hits, i)
		}
	}
	if len(hits) == 0 {
		return StatusOK, nil
	}
	if err := f.scatter().ScatterBatch(f, b, hits); err != nil {
		return StatusOK, err
	}
	if b.RemoveLost() {
		return StatusBeamLost, nil
	}
	return StatusOK, nil
}

func (f *LimitFoil) TrackParticle(p *beam.Particle) (Status, error) {
	if p.X < f.MinX || p.X > f.MaxX || p.Y < f.MinY || p.Y > f.MaxY {
		if err := f.scatter().ScatterParticle(f, p); err != nil {
			return particleStatus(p), err
		}
	}
	return particleStatus(p), nil
}

// BlackHole absorbs every particle that hits the foil.
type BlackHole struct{}

func (BlackHole) ScatterParticle(_ *LimitFoil, p *beam.Particle) error {
	p.State = 0
	return nil
}

func (BlackHole) ScatterBatch(_ *LimitFoil, b *beam.Batch, idx []int) error {
	for _, i := range idx {
		b.State[i] = 0
	}
	return nil
}

// StripElectron removes one electron from every ion that hits the foil.
type StripElectron struct{}

func (StripElectron) ScatterParticle(_ *LimitFoil, p *beam.Particle) error {
	if p.Z == 0 {
		return ErrNoAtomicNumber
	}
	p.QRatio = float64(p.Z-1) / p.Ref.Q0
	return nil
}

func (StripElectron) ScatterBatch(_ *LimitFoil, b *beam.Batch, idx []int) error {
	for _, i := range idx {
		if b.Z[i] == 0 {
			return fmt.Errorf("particle %d: %w", b.ID[i], ErrNoAtomicNumber)
		}
		b.QRatio[i] = float64(b.Z[i]-1) / b.Ref.Q0
	}
	return nil
}

// Exchanger computes the charge-state distribution behind a target.
// *chargex.Runner implements it.
type Exchanger interface {
	Run(ctx context.Context, in chargex.Input) (chargex.Result, error)
}

// ChargeExchange samples a new charge state and energy for every ion hitting
// the foil from the distribution an Exchanger computes. Particles that are
// not ions pass unchanged.
type ChargeExchange struct {
	Exchanger Exchanger
	Src       rand.Source
	// Ctx bounds every Exchanger run; cancelling it stops a running
	// calculation. nil means context.Background().
	Ctx context.Context
}

func (c *ChargeExchange) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *ChargeExchange) exchange(f *LimitFoil, ref beam.Reference, z int, qratio, kinetic float64) (electrons int, energyOut float64, err error) {
	res, err := c.Exchanger.Run(c.context(), chargex.Input{
		ProjectileA:      ref.MassNumber(),
		ProjectileZ:      z,
		ProjectileQ:      ref.Q0 * qratio,
		EnergyPerNucleon: kinetic,
		TargetA:          f.A,
		TargetZ:          f.Z,
		TargetDt:         f.TargetDensity(),
	})
	if err != nil {
		return 0, 0, err
	}
	return res.Sample(c.Src), res.EnergyOut, nil
}

func (c *ChargeExchange) ScatterParticle(f *LimitFoil, p *beam.Particle) error {
	if p.Z == 0 {
		return nil
	}
	kinetic := p.KineticPerNucleon()
	electrons, energyOut, err := c.exchange(f, p.Ref, p.Z, p.QRatio, kinetic)
	if err != nil {
		return err
	}
	p.QRatio = float64(p.Z-electrons) / p.Ref.Q0
	p.AddEnergy((energyOut - kinetic) * p.Ref.MassNumber())
	return nil
}

func (c *ChargeExchange) ScatterBatch(f *LimitFoil, b *beam.Batch, idx []int) error {
	a := b.Ref.MassNumber()
	for _, i := range idx {
		if b.Z[i] == 0 {
			continue
		}
		kinetic := (b.Energy[i] - b.Ref.Mass0) / a
		electrons, energyOut, err := c.exchange(f, b.Ref, b.Z[i], b.QRatio[i], kinetic)
		if err != nil {
			return fmt.Errorf("particle %d: %w", b.ID[i], err)
		}
		b.QRatio[i] = float64(b.Z[i]-electrons) / b.Ref.Q0
		b.Energy[i] += (energyOut - kinetic) * a
	}
	return nil
}
