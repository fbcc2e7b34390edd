// Package tracking runs a beam through a line of elements turn after turn.
//
// Particles live as entities in an ark world. Each turn the alive entities are
// snapshotted into a beam.Batch, the batch is tracked through the line, and
// the result is written back: survivors get their new state, lost particles
// are marked dead and removed once the query has finished.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/collimation/beam"
	"github.com/pthm-cable/collimation/components"
	"github.com/pthm-cable/collimation/lattice"
	"github.com/pthm-cable/collimation/telemetry"
)

// ErrBeamLost is returned once no particle is left.
var ErrBeamLost = errors.New("all particles lost")

// Options configures a Tracker.
type Options struct {
	// Workers tracks chunks of the beam concurrently. Elements whose scatter
	// calls out to an external process must run with a single worker.
	// 0 or 1 means one worker.
	Workers int
	// ParallelThreshold is the smallest beam split across workers.
	ParallelThreshold int

	StatsInterval int // turns per telemetry window
	PerfWindow    int
	RecordLosses  bool

	Output *telemetry.OutputManager // nil disables file output
	Logger *slog.Logger             // nil uses slog.Default()
}

// Tracker holds the particle world and the line it is tracked through.
type Tracker struct {
	world *ecs.World
	ref   beam.Reference
	line  []lattice.Entry
	opts  Options

	particles *ecs.Map4[components.Position, components.Momentum, components.Charge, components.Tag]
	filter    *ecs.Filter4[components.Position, components.Momentum, components.Charge, components.Tag]
	posMap    *ecs.Map1[components.Position]
	momMap    *ecs.Map1[components.Momentum]
	chargeMap *ecs.Map1[components.Charge]
	tagMap    *ecs.Map1[components.Tag]

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	logger    *slog.Logger

	// Snapshot of the current turn; batch index i belongs to entities[i].
	entities []ecs.Entity
	ids      []uint64

	turn       int32
	spawned    int
	aliveCount int
	deadCount  int
}

// New creates a tracker for particles with the given reference.
func New(line []lattice.Entry, ref beam.Reference, opts Options) *Tracker {
	world := ecs.NewWorld()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		world: world,
		ref:   ref,
		line:  line,
		opts:  opts,
		particles: ecs.NewMap4[
			components.Position,
			components.Momentum,
			components.Charge,
			components.Tag,
		](world),
		filter: ecs.NewFilter4[
			components.Position,
			components.Momentum,
			components.Charge,
			components.Tag,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		momMap:    ecs.NewMap1[components.Momentum](world),
		chargeMap: ecs.NewMap1[components.Charge](world),
		tagMap:    ecs.NewMap1[components.Tag](world),
		perf:      telemetry.NewPerfCollector(opts.PerfWindow),
		logger:    logger,
	}
}

// Spawn adds the alive particles of b to the world. Particle IDs are taken
// from b.ID.
func (t *Tracker) Spawn(b *beam.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	for i := range b.State {
		if b.State[i] == 0 {
			continue
		}
		pos := components.Position{X: b.X[i], Y: b.Y[i]}
		mom := components.Momentum{Px: b.Px[i], Py: b.Py[i]}
		charge := components.Charge{QRatio: b.QRatio[i], Energy: b.Energy[i], Z: b.Z[i]}
		tag := components.Tag{ID: b.ID[i], Alive: true, Turn: t.turn}
		t.particles.NewEntity(&pos, &mom, &charge, &tag)
		t.aliveCount++
		t.spawned++
	}
	t.collector = telemetry.NewCollector(t.spawned, t.opts.StatsInterval)
	return nil
}

// Alive returns the number of particles still tracked.
func (t *Tracker) Alive() int { return t.aliveCount }

// Lost returns the number of particles removed so far.
func (t *Tracker) Lost() int { return t.deadCount }

// Turns returns the number of completed turns.
func (t *Tracker) Turns() int32 { return t.turn }

// Collector exposes loss statistics.
func (t *Tracker) Collector() *telemetry.Collector { return t.collector }

// Survivors returns the alive particles as a batch, ordered as stored in the
// world.
func (t *Tracker) Survivors() *beam.Batch {
	b := t.snapshot()
	for i, idx := range b.ID {
		b.ID[i] = t.ids[idx]
	}
	return b
}

// snapshot copies the alive entities into a batch. Batch IDs are indices into
// t.entities and t.ids.
func (t *Tracker) snapshot() *beam.Batch {
	t.entities = t.entities[:0]
	t.ids = t.ids[:0]
	b := beam.NewBatch(0, t.ref)

	query := t.filter.Query()
	for query.Next() {
		pos, mom, charge, tag := query.Get()
		if !tag.Alive {
			continue
		}
		b.ID = append(b.ID, uint64(len(t.entities)))
		b.X = append(b.X, pos.X)
		b.Y = append(b.Y, pos.Y)
		b.Px = append(b.Px, mom.Px)
		b.Py = append(b.Py, mom.Py)
		b.QRatio = append(b.QRatio, charge.QRatio)
		b.Energy = append(b.Energy, charge.Energy)
		b.Z = append(b.Z, charge.Z)
		b.State = append(b.State, 1)
		t.entities = append(t.entities, query.Entity())
		t.ids = append(t.ids, tag.ID)
	}
	return b
}

// Turn tracks every alive particle once through the line.
func (t *Tracker) Turn() error {
	if t.collector == nil {
		t.collector = telemetry.NewCollector(0, t.opts.StatsInterval)
	}
	t.perf.StartTurn()
	t.turn++

	t.perf.StartPhase(telemetry.PhaseSnapshot)
	b := t.snapshot()

	t.perf.StartPhase(telemetry.PhaseTrack)
	res, err := t.trackLine(b)
	if err != nil {
		t.perf.EndTurn()
		return fmt.Errorf("turn %d: %w", t.turn, err)
	}

	t.perf.StartPhase(telemetry.PhaseWriteBack)
	t.writeBack(res)

	t.perf.StartPhase(telemetry.PhaseCleanup)
	t.cleanupDead()

	t.perf.StartPhase(telemetry.PhaseTelemetry)
	if err := t.recordTurn(res); err != nil {
		t.perf.EndTurn()
		return err
	}
	t.perf.EndTurn()

	if t.aliveCount == 0 {
		return ErrBeamLost
	}
	return nil
}

// writeBack stores survivor state and marks the lost.
func (t *Tracker) writeBack(res lineResult) {
	b := res.survivors
	for i, idx := range b.ID {
		e := t.entities[idx]
		pos := t.posMap.Get(e)
		pos.X, pos.Y = b.X[i], b.Y[i]
		mom := t.momMap.Get(e)
		mom.Px, mom.Py = b.Px[i], b.Py[i]
		charge := t.chargeMap.Get(e)
		charge.QRatio, charge.Energy, charge.Z = b.QRatio[i], b.Energy[i], b.Z[i]
		t.tagMap.Get(e).Turn = t.turn
	}

	for _, el := range res.losses {
		for _, l := range el.lost {
			e := t.entities[l.ID]
			pos := t.posMap.Get(e)
			pos.X, pos.Y = l.X, l.Y
			tag := t.tagMap.Get(e)
			tag.Alive = false
			tag.Turn = t.turn
		}
	}
}

// cleanupDead removes entities of lost particles.
func (t *Tracker) cleanupDead() {
	// Collect first; the world must not change during a query.
	var toRemove []ecs.Entity
	query := t.filter.Query()
	for query.Next() {
		_, _, _, tag := query.Get()
		if !tag.Alive {
			toRemove = append(toRemove, query.Entity())
		}
	}

	for _, e := range toRemove {
		t.particles.Remove(e)
		t.aliveCount--
		t.deadCount++
	}
}

// recordTurn feeds losses and, at window ends, beam statistics to telemetry.
func (t *Tracker) recordTurn(res lineResult) error {
	for _, el := range res.losses {
		lost := make([]beam.Lost, len(el.lost))
		for i, l := range el.lost {
			lost[i] = beam.Lost{ID: t.ids[l.ID], X: l.X, Y: l.Y}
		}
		events := t.collector.RecordLoss(t.turn, t.line[el.entry].Name, lost)
		if t.opts.RecordLosses {
			if err := t.opts.Output.WriteLosses(events); err != nil {
				return err
			}
		}
	}

	if t.collector.ShouldFlush(t.turn) || t.aliveCount == 0 {
		return t.flush(beam.ComputeStats(res.survivors))
	}
	return nil
}

func (t *Tracker) flush(survivors beam.Stats) error {
	stats := t.collector.Flush(t.turn, survivors)
	t.logger.Info("turn", "stats", stats)
	if err := t.opts.Output.WriteTurn(stats); err != nil {
		return err
	}
	return t.opts.Output.WritePerf(t.perf.Stats(), t.turn)
}

// Run tracks up to turns turns. It stops early when ctx is cancelled or the
// beam is lost, and always reports the last partial stats window.
func (t *Tracker) Run(ctx context.Context, turns int) error {
	t.logger.Info("tracking",
		"particles", t.aliveCount,
		"elements", len(t.line),
		"turns", turns,
	)

	var err error
	for range turns {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = t.Turn(); err != nil {
			break
		}
	}

	if t.collector != nil && t.collector.Pending(t.turn) && !errors.Is(err, ErrBeamLost) {
		b := t.snapshot()
		if ferr := t.flush(beam.ComputeStats(b)); ferr != nil && err == nil {
			err = ferr
		}
	}

	t.logger.Info("tracking done",
		"turns", t.turn,
		"alive", t.aliveCount,
		"lost", t.deadCount,
		"perf", t.perf.Stats(),
	)
	return err
}
