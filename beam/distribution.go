package beam

import (
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Bounds is an axis-aligned sampling region.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Species fills in the ion data of a generated beam.
type Species struct {
	Z                 int     // atomic number; 0 for non-ions
	KineticPerNucleon float64 // [eV/u]
}

// Uniform samples n particles uniformly over bounds with zero momentum.
func Uniform(n int, bounds Bounds, ref Reference, sp Species, src rand.Source) *Batch {
	b := NewBatch(n, ref)
	xDist := distuv.Uniform{Min: bounds.MinX, Max: bounds.MaxX, Src: src}
	yDist := distuv.Uniform{Min: bounds.MinY, Max: bounds.MaxY, Src: src}

	energy := ref.Mass0 + sp.KineticPerNucleon*ref.MassNumber()
	for i := range n {
		b.X[i] = xDist.Rand()
		b.Y[i] = yDist.Rand()
		b.Z[i] = sp.Z
		b.Energy[i] = energy
	}
	return b
}

// Stats summarises the transverse distribution of the alive particles.
type Stats struct {
	N           int
	MeanX, StdX float64
	MeanY, StdY float64
}

// ComputeStats returns position moments of the alive particles in b.
func ComputeStats(b *Batch) Stats {
	xs := make([]float64, 0, b.Len())
	ys := make([]float64, 0, b.Len())
	for i, s := range b.State {
		if s != 0 {
			xs = append(xs, b.X[i])
			ys = append(ys, b.Y[i])
		}
	}

	st := Stats{N: len(xs)}
	switch {
	case st.N == 0:
	case st.N == 1:
		st.MeanX, st.MeanY = xs[0], ys[0]
	default:
		st.MeanX, st.StdX = stat.MeanStdDev(xs, nil)
		st.MeanY, st.StdY = stat.MeanStdDev(ys, nil)
	}
	return st
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("n", s.N),
		slog.Float64("mean_x", s.MeanX),
		slog.Float64("std_x", s.StdX),
		slog.Float64("mean_y", s.MeanY),
		slog.Float64("std_y", s.StdY),
	)
}
