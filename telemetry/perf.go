package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one tracking turn.
const (
	PhaseSnapshot  = "snapshot"
	PhaseTrack     = "track"
	PhaseWriteBack = "write_back"
	PhaseCleanup   = "cleanup"
	PhaseTelemetry = "telemetry"
)

// PerfSample holds timing data for a single turn.
type PerfSample struct {
	TurnDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks turn timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	turnStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize turns.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// SetClock replaces the time source.
func (p *PerfCollector) SetClock(now func() time.Time) { p.now = now }

// StartTurn begins timing a new turn.
func (p *PerfCollector) StartTurn() {
	p.turnStart = p.now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTurn finishes timing the current turn and records the sample.
func (p *PerfCollector) EndTurn() {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		TurnDuration: now.Sub(p.turnStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated timing statistics.
type PerfStats struct {
	AvgTurnDuration time.Duration
	MinTurnDuration time.Duration
	MaxTurnDuration time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // of the average turn

	TurnsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return s
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := range p.sampleCount {
		d := p.samples[i].TurnDuration
		total += d
		if i == 0 || d < s.MinTurnDuration {
			s.MinTurnDuration = d
		}
		if d > s.MaxTurnDuration {
			s.MaxTurnDuration = d
		}
		for phase, pd := range p.samples[i].Phases {
			phaseSum[phase] += pd
		}
	}

	s.AvgTurnDuration = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		avg := sum / time.Duration(p.sampleCount)
		s.PhaseAvg[phase] = avg
		if s.AvgTurnDuration > 0 {
			s.PhasePct[phase] = float64(avg) / float64(s.AvgTurnDuration) * 100
		}
	}
	if s.AvgTurnDuration > 0 {
		s.TurnsPerSecond = float64(time.Second) / float64(s.AvgTurnDuration)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_turn_us", s.AvgTurnDuration.Microseconds()),
		slog.Int64("min_turn_us", s.MinTurnDuration.Microseconds()),
		slog.Int64("max_turn_us", s.MaxTurnDuration.Microseconds()),
		slog.Float64("turns_per_sec", s.TurnsPerSecond),
	}
	for _, phase := range []string{PhaseSnapshot, PhaseTrack, PhaseWriteBack, PhaseCleanup, PhaseTelemetry} {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Turn         int32   `csv:"turn"`
	AvgTurnUS    int64   `csv:"avg_turn_us"`
	MinTurnUS    int64   `csv:"min_turn_us"`
	MaxTurnUS    int64   `csv:"max_turn_us"`
	TurnsPerSec  float64 `csv:"turns_per_sec"`
	SnapshotPct  float64 `csv:"snapshot_pct"`
	TrackPct     float64 `csv:"track_pct"`
	WriteBackPct float64 `csv:"write_back_pct"`
	CleanupPct   float64 `csv:"cleanup_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(turn int32) PerfStatsCSV {
	return PerfStatsCSV{
		Turn:         turn,
		AvgTurnUS:    s.AvgTurnDuration.Microseconds(),
		MinTurnUS:    s.MinTurnDuration.Microseconds(),
		MaxTurnUS:    s.MaxTurnDuration.Microseconds(),
		TurnsPerSec:  s.TurnsPerSecond,
		SnapshotPct:  s.PhasePct[PhaseSnapshot],
		TrackPct:     s.PhasePct[PhaseTrack],
		WriteBackPct: s.PhasePct[PhaseWriteBack],
		CleanupPct:   s.PhasePct[PhaseCleanup],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
