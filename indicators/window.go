package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barsim/stream"
)

// Lag returns the input from n bars ago.
type Lag struct {
	n      int
	window *stream.Ring[float64]
}

func NewLag(n int) *Lag {
	if n < 0 {
		n = 0
	}
	return &Lag{n: n, window: stream.NewRing[float64](n + 1)}
}

func (l *Lag) Name() string { return fmt.Sprintf("Lag(%d)", l.n) }
func (l *Lag) Warmup() int  { return l.n + 1 }
func (l *Lag) Reset()       { l.window.Reset() }

func (l *Lag) Next(x float64) float64 {
	l.window.Push(x)
	v, ok := l.window.Back(l.n)
	if !ok {
		return nan
	}
	return v
}

// Change is x minus its value n bars ago.
type Change struct {
	lag *Lag
}

func NewChange(n int) *Change { return &Change{lag: NewLag(n)} }

func (c *Change) Name() string { return fmt.Sprintf("Change(%d)", c.lag.n) }
func (c *Change) Warmup() int  { return c.lag.Warmup() }
func (c *Change) Reset()       { c.lag.Reset() }

func (c *Change) Next(x float64) float64 {
	return x - c.lag.Next(x)
}

// extreme tracks the max or min over a window; a NaN anywhere in the
// window yields NaN.
type extreme struct {
	period int
	window *stream.Ring[float64]
	better func(a, b float64) bool
}

func (e *extreme) Next(x float64) float64 {
	e.window.Push(x)
	if !e.window.Full() {
		return nan
	}
	out := e.window.At(0)
	for i := 0; i < e.window.Len(); i++ {
		v := e.window.At(i)
		if math.IsNaN(v) {
			return nan
		}
		if e.better(v, out) {
			out = v
		}
	}
	return out
}

// Highest is the maximum over the last period inputs.
type Highest struct{ extreme }

func NewHighest(period int) *Highest {
	if period < 1 {
		period = 1
	}
	return &Highest{extreme{
		period: period,
		window: stream.NewRing[float64](period),
		better: func(a, b float64) bool { return a > b },
	}}
}

func (h *Highest) Name() string { return fmt.Sprintf("Highest(%d)", h.period) }
func (h *Highest) Warmup() int  { return h.period }
func (h *Highest) Reset()       { h.window.Reset() }

// Lowest is the minimum over the last period inputs.
type Lowest struct{ extreme }

func NewLowest(period int) *Lowest {
	if period < 1 {
		period = 1
	}
	return &Lowest{extreme{
		period: period,
		window: stream.NewRing[float64](period),
		better: func(a, b float64) bool { return a < b },
	}}
}

func (l *Lowest) Name() string { return fmt.Sprintf("Lowest(%d)", l.period) }
func (l *Lowest) Warmup() int  { return l.period }
func (l *Lowest) Reset()       { l.window.Reset() }
