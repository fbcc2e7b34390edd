package numeric

import (
	"math"
	"math/big"
	"strconv"
)

// DefaultPrec is the precision used when a Big backend is created with Prec 0.
const DefaultPrec = 128

// Big is the arbitrary-precision backend. Every intermediate result is rounded
// to Prec bits, so comparisons are exact at the precision the caller asks for
// rather than at float64 granularity.
type Big struct {
	Prec uint
}

var _ Backend[*big.Float, *big.Float, bool] = Big{}

// NewBig returns a backend carrying the given number of significant decimal
// digits.
func NewBig(digits int) Big {
	return Big{Prec: PrecisionForDigits(digits)}
}

// PrecisionForDigits converts decimal digits to mantissa bits, keeping one
// guard digit.
func PrecisionForDigits(digits int) uint {
	if digits < 1 {
		digits = 1
	}
	return uint(math.Round(float64(digits+1) * math.Log2(10)))
}

func (b Big) prec() uint {
	if b.Prec == 0 {
		return DefaultPrec
	}
	return b.Prec
}

func (b Big) float() *big.Float {
	return new(big.Float).SetPrec(b.prec())
}

// Lift copies s at the backend precision.
func (b Big) Lift(s *big.Float) *big.Float { return b.float().Set(s) }

// Const goes through the shortest decimal form of f, so 1.1 becomes 1.1 at
// full precision instead of the nearest float64.
func (b Big) Const(f float64) *big.Float {
	v, _, err := b.float().Parse(strconv.FormatFloat(f, 'g', -1, 64), 10)
	if err != nil {
		return b.float().SetFloat64(f)
	}
	return v
}

// Parse reads a decimal literal at the backend precision.
func (b Big) Parse(s string) (*big.Float, error) {
	v, _, err := b.float().Parse(s, 10)
	return v, err
}

func (Big) Len(*big.Float) int { return 1 }

func (Big) Broadcast(v *big.Float, _ int) *big.Float { return v }

func (b Big) Sub(x, y *big.Float) *big.Float { return b.float().Sub(x, y) }
func (b Big) Mul(x, y *big.Float) *big.Float { return b.float().Mul(x, y) }
func (Big) Less(x, y *big.Float) bool        { return x.Cmp(y) < 0 }

func (Big) Xor(x, y bool) bool     { return x != y }
func (Big) And(x, y bool) bool     { return x && y }
func (Big) Bit(m bool, _ int) bool { return m }

func (Big) Tally(counts []int, m bool) {
	if m {
		counts[0]++
	}
}
