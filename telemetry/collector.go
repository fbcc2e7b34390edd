package telemetry

import (
	"maps"

	"github.com/pthm-cable/collimation/beam"
)

// Collector accumulates losses within windows of turns and produces TurnStats.
type Collector struct {
	initial  int
	interval int32

	windowStart int32
	lostTotal   int
	byElement   map[string]int // cumulative

	// Current window
	lost      int
	radii     []float64
	winByElem map[string]int
}

// NewCollector creates a collector for a beam of initial particles that
// flushes every interval turns.
func NewCollector(initial, interval int) *Collector {
	if interval < 1 {
		interval = 1
	}
	return &Collector{
		initial:   initial,
		interval:  int32(interval),
		byElement: make(map[string]int),
		winByElem: make(map[string]int),
	}
}

// RecordLoss records particles removed by element during turn and returns
// them as events.
func (c *Collector) RecordLoss(turn int32, element string, lost []beam.Lost) []LossEvent {
	if len(lost) == 0 {
		return nil
	}
	events := NewLossEvents(turn, element, lost)
	for _, e := range events {
		c.radii = append(c.radii, e.Radius())
	}
	c.lost += len(lost)
	c.lostTotal += len(lost)
	c.byElement[element] += len(lost)
	c.winByElem[element] += len(lost)
	return events
}

// ShouldFlush returns true if enough turns have passed to flush the window.
func (c *Collector) ShouldFlush(turn int32) bool {
	return turn-c.windowStart >= c.interval
}

// Flush produces TurnStats from the surviving distribution and resets the
// window.
func (c *Collector) Flush(turn int32, survivors beam.Stats) TurnStats {
	mean, p10, p50, p90 := ComputeSpread(c.radii)

	s := TurnStats{
		WindowStartTurn: c.windowStart,
		Turn:            turn,
		Alive:           survivors.N,
		Lost:            c.lost,
		LostTotal:       c.lostTotal,
		MeanX:           survivors.MeanX,
		StdX:            survivors.StdX,
		MeanY:           survivors.MeanY,
		StdY:            survivors.StdY,
		LossRadiusMean:  mean,
		LossRadiusP10:   p10,
		LossRadiusP50:   p50,
		LossRadiusP90:   p90,
	}
	if c.initial > 0 {
		s.Survival = float64(survivors.N) / float64(c.initial)
	}
	for name, n := range c.winByElem {
		if n > s.TopElementLost || (n == s.TopElementLost && name < s.TopElement) {
			s.TopElement, s.TopElementLost = name, n
		}
	}

	c.windowStart = turn
	c.lost = 0
	c.radii = c.radii[:0]
	clear(c.winByElem)
	return s
}

// LostTotal returns the number of particles lost so far.
func (c *Collector) LostTotal() int { return c.lostTotal }

// LostByElement returns cumulative losses per element.
func (c *Collector) LostByElement() map[string]int {
	return maps.Clone(c.byElement)
}

// Pending reports whether turns since the last flush are unreported.
func (c *Collector) Pending(turn int32) bool { return turn > c.windowStart }
