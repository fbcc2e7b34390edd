package tracking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/collimation/beam"
	"github.com/pthm-cable/collimation/elements"
	"github.com/pthm-cable/collimation/geometry"
	"github.com/pthm-cable/collimation/lattice"
)

var proton = beam.Reference{Q0: 1, Mass0: 938.272e6}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func squareLine(t *testing.T) []lattice.Entry {
	t.Helper()
	poly, err := elements.NewLimitPolygon(
		[]float64{0.03, -0.03, -0.03, 0.03},
		[]float64{0.04, 0.04, -0.04, -0.04},
		geometry.RefScaled,
	)
	if err != nil {
		t.Fatal(err)
	}
	return []lattice.Entry{
		{Name: "drift_0", Element: &elements.Drift{Length: 1}},
		{Name: "tcp_aperture", Element: poly},
	}
}

func uniformBeam(n int) *beam.Batch {
	bounds := beam.Bounds{MinX: -0.06, MaxX: 0.06, MinY: -0.06, MaxY: 0.06}
	return beam.Uniform(n, bounds, proton, beam.Species{}, rand.NewPCG(11, 12))
}

func inside(x, y float64) bool {
	return x >= -0.03 && x <= 0.03 && y >= -0.04 && y <= 0.04
}

func TestTurnRemovesLost(t *testing.T) {
	b := uniformBeam(2000)
	want := 0
	for i := range b.X {
		if inside(b.X[i], b.Y[i]) {
			want++
		}
	}

	tr := New(squareLine(t), proton, Options{StatsInterval: 1, Logger: quietLogger()})
	if err := tr.Spawn(b); err != nil {
		t.Fatal(err)
	}
	if err := tr.Turn(); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if tr.Alive() != want || tr.Lost() != 2000-want {
		t.Errorf("alive=%d lost=%d, want alive %d", tr.Alive(), tr.Lost(), want)
	}
	if got := tr.Collector().LostByElement()["tcp_aperture"]; got != 2000-want {
		t.Errorf("aperture losses = %d, want %d", got, 2000-want)
	}

	survivors := tr.Survivors()
	if survivors.Len() != want {
		t.Fatalf("survivors = %d", survivors.Len())
	}
	for i := range survivors.X {
		if !inside(survivors.X[i], survivors.Y[i]) {
			t.Errorf("particle %d survived at (%v, %v)", survivors.ID[i], survivors.X[i], survivors.Y[i])
		}
	}

	// A second turn with no momentum loses nothing more.
	if err := tr.Turn(); err != nil {
		t.Fatal(err)
	}
	if tr.Alive() != want || tr.Turns() != 2 {
		t.Errorf("second turn: alive=%d turns=%d", tr.Alive(), tr.Turns())
	}
}

func TestTurnWritesBackState(t *testing.T) {
	b := beam.NewBatch(2, proton)
	b.Px[0] = 0.001
	b.Px[1] = 0.05 // leaves the aperture after the drift

	tr := New(squareLine(t), proton, Options{Logger: quietLogger()})
	if err := tr.Spawn(b); err != nil {
		t.Fatal(err)
	}
	if err := tr.Turn(); err != nil {
		t.Fatal(err)
	}
	s := tr.Survivors()
	if s.Len() != 1 || s.ID[0] != 0 || s.X[0] != 0.001 {
		t.Errorf("survivors = %+v", s)
	}
}

func TestBeamLost(t *testing.T) {
	b := beam.NewBatch(3, proton)
	for i := range b.X {
		b.X[i] = 1
	}
	tr := New(squareLine(t), proton, Options{Logger: quietLogger()})
	if err := tr.Spawn(b); err != nil {
		t.Fatal(err)
	}
	err := tr.Run(context.Background(), 10)
	if !errors.Is(err, ErrBeamLost) {
		t.Fatalf("err = %v, want ErrBeamLost", err)
	}
	if tr.Turns() != 1 || tr.Alive() != 0 || tr.Lost() != 3 {
		t.Errorf("turns=%d alive=%d lost=%d", tr.Turns(), tr.Alive(), tr.Lost())
	}
}

func TestRunCancelled(t *testing.T) {
	tr := New(squareLine(t), proton, Options{Logger: quietLogger()})
	if err := tr.Spawn(beam.NewBatch(4, proton)); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tr.Run(ctx, 5); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if tr.Turns() != 0 {
		t.Errorf("turns = %d", tr.Turns())
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	b := uniformBeam(5000)
	for i := range b.Px {
		b.Px[i] = float64(i%7-3) * 1e-3
	}

	run := func(workers int) *beam.Batch {
		tr := New(squareLine(t), proton, Options{
			Workers:           workers,
			ParallelThreshold: 100,
			Logger:            quietLogger(),
		})
		if err := tr.Spawn(b.Copy()); err != nil {
			t.Fatal(err)
		}
		if err := tr.Run(context.Background(), 3); err != nil {
			t.Fatal(err)
		}
		return tr.Survivors()
	}

	serial, parallel := run(1), run(4)
	if serial.Len() != parallel.Len() {
		t.Fatalf("serial kept %d, parallel kept %d", serial.Len(), parallel.Len())
	}
	ids := make(map[uint64]float64, serial.Len())
	for i, id := range serial.ID {
		ids[id] = serial.X[i]
	}
	for i, id := range parallel.ID {
		if x, ok := ids[id]; !ok || x != parallel.X[i] {
			t.Errorf("particle %d differs between serial and parallel runs", id)
		}
	}
}

type failing struct{}

func (failing) Track(*beam.Batch) (elements.Status, error) {
	return elements.StatusOK, errors.New("boom")
}

func (failing) TrackParticle(*beam.Particle) (elements.Status, error) {
	return elements.StatusOK, errors.New("boom")
}

func TestTurnError(t *testing.T) {
	tr := New([]lattice.Entry{{Name: "bad", Element: failing{}}}, proton, Options{Logger: quietLogger()})
	if err := tr.Spawn(beam.NewBatch(1, proton)); err != nil {
		t.Fatal(err)
	}
	if err := tr.Turn(); err == nil || tr.Alive() != 1 {
		t.Errorf("err = %v, alive = %d", err, tr.Alive())
	}
}
