package numeric

import (
	"math/big"
	"testing"
)

func TestBatchBroadcast(t *testing.T) {
	var b Batch

	got := b.Broadcast([]float64{2.5}, 4)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i, v := range got {
		if v != 2.5 {
			t.Errorf("got[%d] = %v, want 2.5", i, v)
		}
	}

	same := []float64{1, 2, 3}
	if out := b.Broadcast(same, 3); &out[0] != &same[0] {
		t.Error("broadcast to own length should not copy")
	}
}

func TestBatchBroadcastMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic broadcasting 2 values to 3")
		}
	}()
	Batch{}.Broadcast([]float64{1, 2}, 3)
}

func TestBatchArithmetic(t *testing.T) {
	var b Batch
	x := []float64{1, 2, 3}
	one := b.Const(1)

	diff := b.Sub(x, one)
	prod := b.Mul(x, []float64{2, 2, 2})
	less := b.Less(x, b.Const(2))

	wantDiff := []float64{0, 1, 2}
	wantProd := []float64{2, 4, 6}
	wantLess := []bool{true, false, false}
	for i := range x {
		if diff[i] != wantDiff[i] {
			t.Errorf("diff[%d] = %v, want %v", i, diff[i], wantDiff[i])
		}
		if prod[i] != wantProd[i] {
			t.Errorf("prod[%d] = %v, want %v", i, prod[i], wantProd[i])
		}
		if less[i] != wantLess[i] {
			t.Errorf("less[%d] = %v, want %v", i, less[i], wantLess[i])
		}
	}
	// Inputs untouched.
	if x[0] != 1 || x[2] != 3 {
		t.Errorf("input mutated: %v", x)
	}
}

func TestBatchMasks(t *testing.T) {
	var b Batch
	a := []bool{true, true, false, false}
	c := []bool{true, false, true, false}

	xor := b.Xor(a, c)
	and := b.And(a, c)
	counts := make([]int, 4)
	b.Tally(counts, xor)
	b.Tally(counts, and)

	want := []int{1, 1, 1, 0}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %d, want %d", i, counts[i], want[i])
		}
	}
}

func TestScalarMatchesBatch(t *testing.T) {
	var s Scalar
	var b Batch
	xs := []float64{-0.3, 0, 0.7}
	ys := []float64{0.1, 0, -0.2}

	prod := b.Mul(b.Sub(xs, ys), ys)
	less := b.Less(prod, b.Const(0))
	for i := range xs {
		p := s.Mul(s.Sub(xs[i], ys[i]), ys[i])
		if p != prod[i] {
			t.Errorf("[%d] scalar %v != batch %v", i, p, prod[i])
		}
		if s.Less(p, 0) != less[i] {
			t.Errorf("[%d] scalar less differs", i)
		}
	}
}

func TestPrecisionForDigits(t *testing.T) {
	tests := []struct {
		digits int
		want   uint
	}{
		{15, 53},
		{25, 86},
		{50, 169},
		{0, 7},
	}
	for _, tt := range tests {
		if got := PrecisionForDigits(tt.digits); got != tt.want {
			t.Errorf("PrecisionForDigits(%d) = %d, want %d", tt.digits, got, tt.want)
		}
	}
}

func TestBigResolvesBelowFloat64(t *testing.T) {
	b := NewBig(25)
	edge := b.Lift(big.NewFloat(0.03))
	eps := b.Const(1e-27)

	inner := b.Sub(edge, eps)
	if !b.Less(inner, edge) {
		t.Errorf("0.03 - 1e-27 should be below 0.03 at %d bits", b.Prec)
	}
	if b.Less(edge, inner) {
		t.Error("ordering reversed")
	}

	// The same subtraction in float64 collapses onto the edge.
	var s Scalar
	if s.Less(s.Sub(0.03, 1e-27), 0.03) {
		t.Error("float64 unexpectedly resolved 1e-27 at 0.03")
	}
}

func TestBigConstIsDecimal(t *testing.T) {
	b := Big{Prec: 200}
	want, err := b.Parse("1.1")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Const(1.1); got.Cmp(want) != 0 {
		t.Errorf("Const(1.1) = %s, want %s", got.Text('g', 40), want.Text('g', 40))
	}
}

func TestBigZeroPrecUsesDefault(t *testing.T) {
	var b Big
	if got := b.Const(2).Prec(); got != DefaultPrec {
		t.Errorf("prec = %d, want %d", got, DefaultPrec)
	}
}
