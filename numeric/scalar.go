package numeric

// Scalar is the plain float64 backend used for a single particle.
type Scalar struct{}

var _ Backend[float64, float64, bool] = Scalar{}

func (Scalar) Lift(s float64) float64             { return s }
func (Scalar) Const(f float64) float64            { return f }
func (Scalar) Len(float64) int                    { return 1 }
func (Scalar) Broadcast(v float64, _ int) float64 { return v }

func (Scalar) Sub(a, b float64) float64 { return a - b }

// Mul rounds explicitly so the product is never fused into a later
// subtraction; the scalar and batch paths must agree bit for bit.
func (Scalar) Mul(a, b float64) float64 { return float64(a * b) }
func (Scalar) Less(a, b float64) bool   { return a < b }

func (Scalar) Xor(a, b bool) bool     { return a != b }
func (Scalar) And(a, b bool) bool     { return a && b }
func (Scalar) Bit(m bool, _ int) bool { return m }

func (Scalar) Tally(counts []int, m bool) {
	if m {
		counts[0]++
	}
}
