package beam

import (
	"fmt"

	"github.com/pthm-cable/collimation/numeric"
)

// ErrShapeMismatch is returned when per-particle arrays disagree in length.
var ErrShapeMismatch = numeric.ErrShapeMismatch

// Lost records a particle removed from a batch.
type Lost struct {
	ID   uint64
	X, Y float64
}

// Batch is a set of particles stored as parallel arrays, one entry per
// particle. The caller owns the batch; elements read positions and write
// State during a single call.
type Batch struct {
	Ref Reference

	ID     []uint64
	X, Y   []float64
	Px, Py []float64
	QRatio []float64
	Energy []float64
	Z      []int
	State  []int

	lost []Lost
}

// NewBatch returns n alive particles at the origin with the reference charge
// and energy. IDs run from 0 to n-1.
func NewBatch(n int, ref Reference) *Batch {
	b := &Batch{
		Ref:    ref,
		ID:     make([]uint64, n),
		X:      make([]float64, n),
		Y:      make([]float64, n),
		Px:     make([]float64, n),
		Py:     make([]float64, n),
		QRatio: make([]float64, n),
		Energy: make([]float64, n),
		Z:      make([]int, n),
		State:  make([]int, n),
	}
	for i := range n {
		b.ID[i] = uint64(i)
		b.QRatio[i] = 1
		b.Energy[i] = ref.Mass0
		b.State[i] = 1
	}
	return b
}

// Len returns the number of particles.
func (b *Batch) Len() int { return len(b.State) }

// Empty reports whether no particles remain.
func (b *Batch) Empty() bool { return len(b.State) == 0 }

// Validate checks that every per-particle array has the same length as State.
func (b *Batch) Validate() error {
	n := len(b.State)
	for _, f := range []struct {
		name string
		n    int
	}{
		{"id", len(b.ID)},
		{"x", len(b.X)},
		{"y", len(b.Y)},
		{"px", len(b.Px)},
		{"py", len(b.Py)},
		{"qratio", len(b.QRatio)},
		{"energy", len(b.Energy)},
		{"z", len(b.Z)},
	} {
		if f.n != n {
			return fmt.Errorf("%w: %s has %d entries, state has %d", ErrShapeMismatch, f.name, f.n, n)
		}
	}
	return nil
}

// Alive counts particles with nonzero state.
func (b *Batch) Alive() int {
	alive := 0
	for _, s := range b.State {
		if s != 0 {
			alive++
		}
	}
	return alive
}

// Project applies a containment classification: a particle stays alive only
// if it was alive and inside is set. It returns the number still alive.
func (b *Batch) Project(inside []bool) (int, error) {
	if b.Empty() {
		return 0, nil
	}
	if len(inside) != len(b.State) {
		return 0, fmt.Errorf("%w: %d classifications for %d particles", ErrShapeMismatch, len(inside), len(b.State))
	}
	alive := 0
	for i, in := range inside {
		if b.State[i] != 0 && in {
			b.State[i] = 1
			alive++
		} else {
			b.State[i] = 0
		}
	}
	return alive, nil
}

// RemoveLost compacts the batch in a single pass, keeping the order of the
// survivors, and reports whether the batch is now empty. Removed particles are
// kept for DrainLost.
func (b *Batch) RemoveLost() bool {
	keep := 0
	for i, s := range b.State {
		if s == 0 {
			b.lost = append(b.lost, Lost{ID: b.ID[i], X: b.X[i], Y: b.Y[i]})
			continue
		}
		if keep != i {
			b.ID[keep] = b.ID[i]
			b.X[keep], b.Y[keep] = b.X[i], b.Y[i]
			b.Px[keep], b.Py[keep] = b.Px[i], b.Py[i]
			b.QRatio[keep] = b.QRatio[i]
			b.Energy[keep] = b.Energy[i]
			b.Z[keep] = b.Z[i]
			b.State[keep] = s
		}
		keep++
	}
	b.ID = b.ID[:keep]
	b.X, b.Y = b.X[:keep], b.Y[:keep]
	b.Px, b.Py = b.Px[:keep], b.Py[:keep]
	b.QRatio = b.QRatio[:keep]
	b.Energy = b.Energy[:keep]
	b.Z = b.Z[:keep]
	b.State = b.State[:keep]
	return keep == 0
}

// DrainLost returns the particles removed since the previous call.
func (b *Batch) DrainLost() []Lost {
	lost := b.lost
	b.lost = nil
	return lost
}

// Particle returns a copy of particle i.
func (b *Batch) Particle(i int) Particle {
	return Particle{
		Ref:    b.Ref,
		X:      b.X[i],
		Y:      b.Y[i],
		Px:     b.Px[i],
		Py:     b.Py[i],
		QRatio: b.QRatio[i],
		Energy: b.Energy[i],
		Z:      b.Z[i],
		State:  b.State[i],
	}
}

// SetParticle writes p back to slot i.
func (b *Batch) SetParticle(i int, p Particle) {
	b.X[i], b.Y[i] = p.X, p.Y
	b.Px[i], b.Py[i] = p.Px, p.Py
	b.QRatio[i] = p.QRatio
	b.Energy[i] = p.Energy
	b.Z[i] = p.Z
	b.State[i] = p.State
}

// Copy returns a deep copy without the pending lost records.
func (b *Batch) Copy() *Batch { return b.Slice(0, b.Len()) }

// Slice returns a deep copy of particles [lo, hi).
func (b *Batch) Slice(lo, hi int) *Batch {
	return &Batch{
		Ref:    b.Ref,
		ID:     append([]uint64(nil), b.ID[lo:hi]...),
		X:      append([]float64(nil), b.X[lo:hi]...),
		Y:      append([]float64(nil), b.Y[lo:hi]...),
		Px:     append([]float64(nil), b.Px[lo:hi]...),
		Py:     append([]float64(nil), b.Py[lo:hi]...),
		QRatio: append([]float64(nil), b.QRatio[lo:hi]...),
		Energy: append([]float64(nil), b.Energy[lo:hi]...),
		Z:      append([]int(nil), b.Z[lo:hi]...),
		State:  append([]int(nil), b.State[lo:hi]...),
	}
}

// Append adds the particles of o after those of b. Pending lost records of o
// are not carried over.
func (b *Batch) Append(o *Batch) {
	b.ID = append(b.ID, o.ID...)
	b.X = append(b.X, o.X...)
	b.Y = append(b.Y, o.Y...)
	b.Px = append(b.Px, o.Px...)
	b.Py = append(b.Py, o.Py...)
	b.QRatio = append(b.QRatio, o.QRatio...)
	b.Energy = append(b.Energy, o.Energy...)
	b.Z = append(b.Z, o.Z...)
	b.State = append(b.State, o.State...)
}
