package chargex

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Result is the outcome of one GLOBAL run.
type Result struct {
	// Probabilities[i] is the probability of leaving the target with i bound
	// electrons. The entries sum to 1.
	Probabilities []float64
	// EnergyOut is the kinetic energy behind the target [eV/u].
	EnergyOut float64
}

// Sample draws a number of bound electrons from the distribution.
func (r Result) Sample(src rand.Source) int {
	return int(distuv.NewCategorical(r.Probabilities, src).Rand())
}

// echoCheck compares one value GLOBAL echoes back against what was sent.
type echoCheck struct {
	name       string
	start, end string
	want       float64
	relative   bool
}

// tolerance for echoed values; GLOBAL rounds its echo.
func (c echoCheck) tolerance() float64 {
	if c.relative {
		return 0.05 * math.Abs(c.want)
	}
	return 0.1
}

// ParseOutput reads a GLOBAL output file, checks that GLOBAL echoed the
// projectile and target of in, and extracts the result row that follows the
// Q(0 ) Q(1 ) ... header.
func ParseOutput(r io.Reader, in Input) (Result, error) {
	var echo, row string
	inResults := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.Contains(line, "(Z=") && strings.Contains(line, "A=") && strings.Contains(line, "Qe="):
			echo = line
		case strings.Contains(line, "Q(0 )") && strings.Contains(line, "Q(1 )") && strings.Contains(line, "Q(2 )"):
			inResults = true
		case inResults && strings.TrimSpace(line) != "":
			row = line
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("reading GLOBAL output: %w", err)
	}
	if echo == "" {
		return Result{}, fmt.Errorf("%w: no projectile/target line", ErrMalformedOutput)
	}
	if row == "" {
		return Result{}, fmt.Errorf("%w: no result row", ErrMalformedOutput)
	}

	if err := verifyEcho(echo, in); err != nil {
		return Result{}, err
	}
	return parseRow(row)
}

func verifyEcho(line string, in Input) error {
	split := strings.Index(line, "on")
	if split < 0 {
		return fmt.Errorf("%w: cannot split projectile and target in %q", ErrMalformedOutput, line)
	}
	projectile, target := line[:split], line[split:]

	projectileChecks := []echoCheck{
		{"projectile Z", "(Z=", ", ", float64(in.ProjectileZ), false},
		{"projectile A", "A=", ", ", in.ProjectileA, false},
		{"projectile Q", "Qe=", ") at E", in.ProjectileQ, false},
		{"energy", "E = ", " MeV/u", in.EnergyPerNucleon / 1e6, true},
	}
	targetChecks := []echoCheck{
		{"target Z", "(Z=", ", ", float64(in.TargetZ), false},
		{"target A", "A=", ", ", in.TargetA, false},
		{"target Dt", "D=", "mg/cm^2", in.TargetDt, true},
	}

	for _, part := range []struct {
		text   string
		checks []echoCheck
	}{{projectile, projectileChecks}, {target, targetChecks}} {
		for _, c := range part.checks {
			got, err := between(part.text, c.start, c.end)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMalformedOutput, c.name, err)
			}
			if !(math.Abs(got-c.want) < c.tolerance()) {
				return fmt.Errorf("%w: %s is %v, should be %v", ErrInputMismatch, c.name, got, c.want)
			}
		}
	}
	return nil
}

// between parses the number found after start and before the next end.
func between(s, start, end string) (float64, error) {
	i := strings.Index(s, start)
	if i < 0 {
		return 0, fmt.Errorf("missing %q", start)
	}
	i += len(start)
	j := strings.Index(s[i:], end)
	if j < 0 {
		return 0, fmt.Errorf("missing %q after %q", end, start)
	}
	return strconv.ParseFloat(strings.TrimSpace(s[i:i+j]), 64)
}

func parseRow(row string) (Result, error) {
	fields := strings.Fields(row)
	if len(fields) < 3+NumChargeStates {
		return Result{}, fmt.Errorf("%w: result row has %d columns, want %d", ErrMalformedOutput, len(fields), 3+NumChargeStates)
	}
	cols := make([]float64, 3+NumChargeStates)
	for i := range cols {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Result{}, fmt.Errorf("%w: column %d: %v", ErrMalformedOutput, i, err)
		}
		cols[i] = v
	}

	probs := cols[3 : 3+NumChargeStates]
	sum := floats.Sum(probs)
	if sum <= 0 {
		return Result{}, fmt.Errorf("%w: charge-state probabilities sum to %v", ErrMalformedOutput, sum)
	}
	// GLOBAL rounds its output, so renormalise.
	floats.Scale(1/sum, probs)

	return Result{
		Probabilities: probs,
		EnergyOut:     cols[2] * 1e6,
	}, nil
}
