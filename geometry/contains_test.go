package geometry

import (
	"errors"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/collimation/numeric"
)

const (
	rectMinX = -0.04
	rectMaxX = 0.03
	rectMinY = -0.02
	rectMaxY = 0.01
)

func rectPolygon(t *testing.T) Polygon[float64] {
	t.Helper()
	poly, err := FromPairs([][2]float64{
		{rectMaxX, rectMaxY},
		{rectMaxX, rectMinY},
		{rectMinX, rectMinY},
		{rectMinX, rectMaxY},
	})
	if err != nil {
		t.Fatalf("FromPairs: %v", err)
	}
	return poly
}

// notchPolygon is a U shape opening upwards; concave.
func notchPolygon(t *testing.T) Polygon[float64] {
	t.Helper()
	poly, err := NewPolygon(
		[]float64{0, 3, 3, 2, 2, 1, 1, 0},
		[]float64{0, 0, 3, 3, 1, 1, 3, 3},
	)
	if err != nil {
		t.Fatalf("NewPolygon: %v", err)
	}
	return poly
}

func samplePoints(rng *rand.Rand, n int, lo, hi float64) ([]float64, []float64) {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = lo + (hi-lo)*rng.Float64()
		ys[i] = lo + (hi-lo)*rng.Float64()
	}
	return xs, ys
}

// evenOdd is an independent horizontal ray cast used as a reference.
func evenOdd(poly Polygon[float64], x, y float64) bool {
	inside := false
	n := poly.Len()
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := poly.X[i], poly.Y[i]
		xj, yj := poly.X[j], poly.Y[j]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func TestIsRightOf(t *testing.T) {
	start := Point[float64]{0, 0}
	end := Point[float64]{1, 0}

	tests := []struct {
		name  string
		point Point[float64]
		want  bool
	}{
		{"below is right", Point[float64]{0.5, -1}, true},
		{"above is left", Point[float64]{0.5, 1}, false},
		{"on line", Point[float64]{2, 0}, false},
		{"behind start below", Point[float64]{-3, -0.1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRightOf(scalarBackend, start, end, tt.point); got != tt.want {
				t.Errorf("IsRightOf(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestIsRightOfDegenerateLine(t *testing.T) {
	p := Point[float64]{1, 1}
	for _, q := range []Point[float64]{{0, 0}, {5, -5}, {-2, 3}} {
		if IsRightOf(scalarBackend, p, p, q) {
			t.Errorf("zero-length line reported %v as right", q)
		}
	}
}

func TestIsRightOfBroadcastsEdge(t *testing.T) {
	start := Point[[]float64]{[]float64{0}, []float64{0}}
	end := Point[[]float64]{[]float64{0}, []float64{1}}
	pts := Point[[]float64]{[]float64{1, -1, 0}, []float64{0.5, 0.5, 2}}

	got := IsRightOf(batchBackend, start, end, pts)
	want := []bool{true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCrosses(t *testing.T) {
	edgeStart := Point[float64]{1, -1}
	edgeEnd := Point[float64]{1, 1}

	tests := []struct {
		name     string
		particle Point[float64]
		ref      Point[float64]
		want     bool
	}{
		{"straddles edge", Point[float64]{0, 0}, Point[float64]{2, 0}, true},
		{"stops short", Point[float64]{0, 0}, Point[float64]{0.5, 0}, false},
		{"passes beyond end", Point[float64]{0, 2}, Point[float64]{2, 2}, false},
		{"parallel", Point[float64]{0, -1}, Point[float64]{0, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Crosses(scalarBackend, tt.particle, tt.ref, edgeStart, edgeEnd)
			if got != tt.want {
				t.Errorf("Crosses = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEndToEnd(t *testing.T) {
	poly := rectPolygon(t)

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"origin inside", 0, 0, true},
		{"right of aperture", 0.05, 0, false},
		{"below aperture", 0, -0.03, false},
		{"near corner inside", -0.0399, 0.0099, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContainsPoint(poly, tt.x, tt.y, RefScaled)
			if err != nil {
				t.Fatalf("ContainsPoint: %v", err)
			}
			if got != tt.want {
				t.Errorf("ContainsPoint(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRectangleEquivalence(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	xs, ys := samplePoints(rng, 20000, -0.085, 0.085)

	for _, poly := range []Polygon[float64]{rectPolygon(t), rectPolygon(t).Reversed()} {
		got, err := ContainsBatch(poly, xs, ys, RefScaled)
		if err != nil {
			t.Fatalf("ContainsBatch: %v", err)
		}
		for i := range xs {
			want := xs[i] >= rectMinX && xs[i] <= rectMaxX && ys[i] >= rectMinY && ys[i] <= rectMaxY
			if got[i] != want {
				t.Fatalf("point %d (%v, %v): polygon %v, rectangle %v", i, xs[i], ys[i], got[i], want)
			}
		}
	}
}

func TestConcaveMatchesRayCast(t *testing.T) {
	poly := notchPolygon(t)
	rng := rand.New(rand.NewPCG(3, 5))
	xs, ys := samplePoints(rng, 5000, -1, 4)

	got, err := ContainsBatch(poly, xs, ys, RefScaled)
	if err != nil {
		t.Fatalf("ContainsBatch: %v", err)
	}
	for i := range xs {
		if want := evenOdd(poly, xs[i], ys[i]); got[i] != want {
			t.Errorf("point (%v, %v) = %v, ray cast says %v", xs[i], ys[i], got[i], want)
		}
	}

	notch, err := ContainsPoint(poly, 1.5, 2, RefScaled)
	if err != nil {
		t.Fatal(err)
	}
	if notch {
		t.Error("point in the notch classified inside")
	}
}

func TestWindingInvariance(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	xs, ys := samplePoints(rng, 2000, -1, 4)

	for _, poly := range []Polygon[float64]{rectPolygon(t), notchPolygon(t)} {
		forward, err := ContainsBatch(poly, xs, ys, RefScaled)
		if err != nil {
			t.Fatal(err)
		}
		backward, err := ContainsBatch(poly.Reversed(), xs, ys, RefScaled)
		if err != nil {
			t.Fatal(err)
		}
		for i := range forward {
			if forward[i] != backward[i] {
				t.Errorf("point (%v, %v): forward %v, reversed %v", xs[i], ys[i], forward[i], backward[i])
			}
		}
	}
}

func TestScalarBatchConsistency(t *testing.T) {
	poly := notchPolygon(t)
	rng := rand.New(rand.NewPCG(9, 9))
	xs, ys := samplePoints(rng, 1000, -1, 4)

	batch, err := ContainsBatch(poly, xs, ys, RefScaled)
	if err != nil {
		t.Fatal(err)
	}
	for i := range xs {
		single, err := ContainsPoint(poly, xs[i], ys[i], RefScaled)
		if err != nil {
			t.Fatal(err)
		}
		if single != batch[i] {
			t.Errorf("point %d: scalar %v, batch %v", i, single, batch[i])
		}
	}
}

func TestReferencePointIndependence(t *testing.T) {
	poly := notchPolygon(t)
	rng := rand.New(rand.NewPCG(4, 4))
	xs, ys := samplePoints(rng, 3000, -1, 4)
	p := Point[[]float64]{xs, ys}

	scaled, err := Contains(batchBackend, poly, p, RefScaled)
	if err != nil {
		t.Fatal(err)
	}
	bbox, err := Contains(batchBackend, poly, p, RefBoundingBox)
	if err != nil {
		t.Fatal(err)
	}
	far, err := ContainsFrom(batchBackend, poly, p, Point[[]float64]{[]float64{-7.3}, []float64{11.9}})
	if err != nil {
		t.Fatal(err)
	}
	for i := range scaled {
		if scaled[i] != bbox[i] || scaled[i] != far[i] {
			t.Errorf("point (%v, %v): scaled %v, bbox %v, far %v", xs[i], ys[i], scaled[i], bbox[i], far[i])
		}
	}
}

func TestIdempotent(t *testing.T) {
	poly := rectPolygon(t)
	xs := []float64{0, 0.03, 0.05, -0.04, 0.01}
	ys := []float64{0, 0, 0, 0.01, -0.02}

	first, err := ContainsBatch(poly, xs, ys, RefScaled)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ContainsBatch(poly, xs, ys, RefScaled)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("point %d changed between calls", i)
		}
	}

	// Exact-boundary points are implementation defined but must agree
	// across representations.
	for i := range xs {
		single, err := ContainsPoint(poly, xs[i], ys[i], RefScaled)
		if err != nil {
			t.Fatal(err)
		}
		if single != first[i] {
			t.Errorf("boundary point %d: scalar %v, batch %v", i, single, first[i])
		}
	}
}

func TestPrecisionBoundary(t *testing.T) {
	b := numeric.NewBig(25)
	poly := ToBig(MustPolygon(
		[]float64{-0.03, 0.03, 0.03, -0.03},
		[]float64{0.04, 0.04, -0.04, -0.04},
	), b.Prec)
	edge := b.Lift(big.NewFloat(0.03))
	eps, err := b.Parse("1e-27")
	if err != nil {
		t.Fatal(err)
	}
	y := b.Lift(big.NewFloat(0.01))

	tests := []struct {
		name string
		x    *big.Float
		want bool
	}{
		{"just inside", b.Sub(edge, eps), true},
		{"just outside", add(numeric.Backend[*big.Float, *big.Float, bool](b), edge, eps), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContainsBig(poly, tt.x, y, b.Prec, RefScaled)
			if err != nil {
				t.Fatalf("ContainsBig: %v", err)
			}
			if got != tt.want {
				t.Errorf("x = %s: got %v, want %v", tt.x.Text('g', 30), got, tt.want)
			}
		})
	}
}

func TestBigMatchesFloat(t *testing.T) {
	poly := notchPolygon(t)
	bigPoly := ToBig(poly, 128)
	rng := rand.New(rand.NewPCG(8, 1))
	xs, ys := samplePoints(rng, 200, -1, 4)

	for i := range xs {
		want, err := ContainsPoint(poly, xs[i], ys[i], RefScaled)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ContainsBig(bigPoly, big.NewFloat(xs[i]), big.NewFloat(ys[i]), 128, RefScaled)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("(%v, %v): big %v, float %v", xs[i], ys[i], got, want)
		}
	}
}

func TestInvalidPolygon(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
	}{
		{"two vertices", []float64{0, 1}, []float64{0, 1}},
		{"mismatched", []float64{0, 1, 1}, []float64{0, 1}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPolygon(tt.xs, tt.ys); !errors.Is(err, ErrInvalidPolygon) {
				t.Errorf("err = %v, want ErrInvalidPolygon", err)
			}
		})
	}
}

func TestShapeMismatch(t *testing.T) {
	poly := rectPolygon(t)
	_, err := ContainsBatch(poly, []float64{0, 0.01}, []float64{0}, RefScaled)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestEmptyBatch(t *testing.T) {
	got, err := ContainsBatch(rectPolygon(t), nil, nil, RefScaled)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestReferencePoint(t *testing.T) {
	poly := rectPolygon(t)

	ref, err := ReferencePoint(scalarBackend, poly, RefScaled)
	if err != nil {
		t.Fatal(err)
	}
	scale, mx, my := 1.1, rectMaxX, rectMaxY
	if ref.X != scale*mx || ref.Y != scale*my {
		t.Errorf("scaled ref = %v, want (%v, %v)", ref, scale*mx, scale*my)
	}

	// Maximum below zero: |max| pushes the point to the positive side.
	neg := MustPolygon([]float64{-3, -1, -1, -3}, []float64{-3, -3, -1, -1})
	ref, err = ReferencePoint(scalarBackend, neg, RefScaled)
	if err != nil {
		t.Fatal(err)
	}
	if evenOdd(neg, ref.X, ref.Y) {
		t.Errorf("reference point %v lies inside the polygon", ref)
	}
}

func TestReferencePointDegenerate(t *testing.T) {
	// Top edge on y = 0.
	poly := MustPolygon([]float64{1, 1, -1, -1}, []float64{0, -1, -1, 0})

	if _, err := ReferencePoint(scalarBackend, poly, RefScaled); !errors.Is(err, ErrReferencePointDegenerate) {
		t.Errorf("scaled: err = %v, want ErrReferencePointDegenerate", err)
	}
	if _, err := ContainsPoint(poly, 0, -0.5, RefScaled); !errors.Is(err, ErrReferencePointDegenerate) {
		t.Errorf("ContainsPoint: err = %v, want ErrReferencePointDegenerate", err)
	}

	inside, err := ContainsPoint(poly, 0.1, -0.5, RefBoundingBox)
	if err != nil {
		t.Fatalf("bbox: %v", err)
	}
	if !inside {
		t.Error("bbox policy misclassified interior point")
	}

	flat := MustPolygon([]float64{0, 1, 2}, []float64{1, 1, 1})
	if _, err := ReferencePoint(scalarBackend, flat, RefBoundingBox); !errors.Is(err, ErrReferencePointDegenerate) {
		t.Errorf("flat bbox: err = %v, want ErrReferencePointDegenerate", err)
	}
}

func TestDegenerateEdgeIgnored(t *testing.T) {
	// Repeated vertex produces a zero-length edge.
	poly := MustPolygon(
		[]float64{rectMaxX, rectMaxX, rectMaxX, rectMinX, rectMinX},
		[]float64{rectMaxY, rectMaxY, rectMinY, rectMinY, rectMaxY},
	)
	for _, pt := range [][2]float64{{0.01, -0.015}, {-0.01, -0.01}} {
		inside, err := ContainsPoint(poly, pt[0], pt[1], RefScaled)
		if err != nil {
			t.Fatal(err)
		}
		if !inside {
			t.Errorf("%v should be inside", pt)
		}
	}
}

func TestParseRefPolicy(t *testing.T) {
	for _, p := range []RefPolicy{RefScaled, RefBoundingBox} {
		got, err := ParseRefPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseRefPolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseRefPolicy("ray"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func BenchmarkContainsScalar(b *testing.B) {
	poly := MustPolygon([]float64{0, 3, 3, 2, 2, 1, 1, 0}, []float64{0, 0, 3, 3, 1, 1, 3, 3})
	rng := rand.New(rand.NewPCG(1, 1))
	xs, ys := samplePoints(rng, 4096, -1, 4)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		for i := range xs {
			_, _ = ContainsPoint(poly, xs[i], ys[i], RefScaled)
		}
	}
}

func BenchmarkContainsBatch(b *testing.B) {
	poly := MustPolygon([]float64{0, 3, 3, 2, 2, 1, 1, 0}, []float64{0, 0, 3, 3, 1, 1, 3, 3})
	rng := rand.New(rand.NewPCG(1, 1))
	xs, ys := samplePoints(rng, 4096, -1, 4)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_, _ = ContainsBatch(poly, xs, ys, RefScaled)
	}
}
