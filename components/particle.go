// Package components defines ECS components for tracked particles.
package components

// Charge holds the ion state a foil can change.
type Charge struct {
	QRatio float64 // charge relative to the reference charge
	Energy float64 // total energy [eV]
	Z      int     // atomic number; 0 for particles that are not ions
}

// Tag identifies a particle across turns.
type Tag struct {
	ID    uint64
	Alive bool
	Turn  int32 // turn the particle was lost on, or the last turn survived
}
