// Package stream defines the one-in, one-out per bar computation contract
// shared by indicators, signal generators and metrics.
//
// A Unit must be called exactly once per bar advance, including bars where
// the caller has nothing new to say, so windowed state stays aligned with
// the bar index. NaN means "not computable yet" and propagates; use Nz to
// replace it explicitly.
package stream

import "math"

// Unit consumes one input per bar and produces one output.
type Unit[I, O any] interface {
	Next(in I) O
}

// Func adapts a plain function to Unit.
type Func[I, O any] func(I) O

func (f Func[I, O]) Next(in I) O { return f(in) }

type chain[A, B, C any] struct {
	first  Unit[A, B]
	second Unit[B, C]
}

func (c chain[A, B, C]) Next(in A) C { return c.second.Next(c.first.Next(in)) }

// Chain feeds a's output into b. Both units advance on every call.
func Chain[A, B, C any](a Unit[A, B], b Unit[B, C]) Unit[A, C] {
	return chain[A, B, C]{first: a, second: b}
}

// Map applies u to every element of in, in order.
func Map[I, O any](u Unit[I, O], in []I) []O {
	out := make([]O, len(in))
	for i, v := range in {
		out[i] = u.Next(v)
	}
	return out
}

// Nz replaces NaN with Fallback.
type Nz struct {
	Fallback float64
}

func (n Nz) Next(x float64) float64 {
	if math.IsNaN(x) {
		return n.Fallback
	}
	return x
}

// AnyNaN reports whether any of xs is NaN.
func AnyNaN(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
