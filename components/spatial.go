package components

// Position is a particle's transverse position [m].
type Position struct {
	X, Y float64
}

// Momentum is a particle's transverse momentum relative to the reference.
type Momentum struct {
	Px, Py float64
}
