// Package elements defines the beam-line elements particles are tracked
// through: apertures, a scattering foil, drifts and thin multipoles.
//
// Every element tracks a single particle or a whole batch. Batch tracking
// compacts lost particles out of the batch and reports StatusBeamLost once
// nothing is left, so the caller can stop the step early.
package elements

import (
	"fmt"

	"github.com/pthm-cable/collimation/beam"
)

// Status is the outcome of tracking through one element.
type Status uint8

const (
	StatusOK       Status = iota // particle or beam continues
	StatusLost                   // the single particle was lost
	StatusBeamLost               // every particle of the batch was lost
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusLost:
		return "particle lost"
	case StatusBeamLost:
		return "all particles lost"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Element is anything a particle can be tracked through.
type Element interface {
	Track(b *beam.Batch) (Status, error)
	TrackParticle(p *beam.Particle) (Status, error)
}

// particleStatus maps a particle's state to a Status.
func particleStatus(p *beam.Particle) Status {
	if p.Alive() {
		return StatusOK
	}
	return StatusLost
}

// applyLimit projects an aperture classification onto the batch and removes
// the particles that fell outside.
func applyLimit(b *beam.Batch, inside []bool) (Status, error) {
	if _, err := b.Project(inside); err != nil {
		return StatusOK, err
	}
	if b.RemoveLost() {
		return StatusBeamLost, nil
	}
	return StatusOK, nil
}

func boolState(inside bool) int {
	if inside {
		return 1
	}
	return 0
}
