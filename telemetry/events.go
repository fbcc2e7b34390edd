// Package telemetry records particle losses and per-turn beam statistics and
// writes them as CSV.
package telemetry

import (
	"math"

	"github.com/pthm-cable/collimation/beam"
)

// LossEvent is one particle removed by an element.
type LossEvent struct {
	Turn    int32   `csv:"turn"`
	Element string  `csv:"element"`
	ID      uint64  `csv:"id"`
	X       float64 `csv:"x"`
	Y       float64 `csv:"y"`
}

// Radius is the distance of the loss position from the axis.
func (e LossEvent) Radius() float64 { return math.Hypot(e.X, e.Y) }

// NewLossEvents converts the lost log of a batch into events.
func NewLossEvents(turn int32, element string, lost []beam.Lost) []LossEvent {
	events := make([]LossEvent, len(lost))
	for i, l := range lost {
		events[i] = LossEvent{Turn: turn, Element: element, ID: l.ID, X: l.X, Y: l.Y}
	}
	return events
}
