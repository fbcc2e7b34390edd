package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TurnStats summarises the beam at the end of a stats window.
type TurnStats struct {
	WindowStartTurn int32 `csv:"-"`
	Turn            int32 `csv:"turn"`

	Alive     int     `csv:"alive"`
	Lost      int     `csv:"lost"` // during the window
	LostTotal int     `csv:"lost_total"`
	Survival  float64 `csv:"survival"` // alive / initial

	// Surviving distribution
	MeanX float64 `csv:"mean_x"`
	StdX  float64 `csv:"std_x"`
	MeanY float64 `csv:"mean_y"`
	StdY  float64 `csv:"std_y"`

	// Loss radii during the window
	LossRadiusMean float64 `csv:"loss_r_mean"`
	LossRadiusP10  float64 `csv:"loss_r_p10"`
	LossRadiusP50  float64 `csv:"loss_r_p50"`
	LossRadiusP90  float64 `csv:"loss_r_p90"`

	// Element that removed the most particles during the window
	TopElement     string `csv:"top_element"`
	TopElementLost int    `csv:"top_element_lost"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSpread calculates mean and percentiles of values.
func ComputeSpread(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s TurnStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("window_start", int(s.WindowStartTurn)),
		slog.Int("turn", int(s.Turn)),
		slog.Int("alive", s.Alive),
		slog.Int("lost", s.Lost),
		slog.Int("lost_total", s.LostTotal),
		slog.Float64("survival", s.Survival),
		slog.Float64("mean_x", s.MeanX),
		slog.Float64("std_x", s.StdX),
		slog.Float64("mean_y", s.MeanY),
		slog.Float64("std_y", s.StdY),
	}
	if s.Lost > 0 {
		attrs = append(attrs,
			slog.Float64("loss_r_p50", s.LossRadiusP50),
			slog.String("top_element", s.TopElement),
			slog.Int("top_element_lost", s.TopElementLost),
		)
	}
	return slog.GroupValue(attrs...)
}
