package metrics

import (
	"math"
	"time"
)

// EquitySample is one bar of the equity curve.
type EquitySample struct {
	Bar       int
	Time      time.Time
	Equity    float64
	NetEquity float64
}

type extremes struct {
	minEquity, maxEquity float64
	minNet, maxNet       float64
}

func (x *extremes) add(eq, net float64) {
	if finite(eq) {
		x.minEquity = math.Min(x.minEquity, eq)
		x.maxEquity = math.Max(x.maxEquity, eq)
	}
	x.minNet = math.Min(x.minNet, net)
	x.maxNet = math.Max(x.maxNet, net)
}

// Equity is the base layer: it records one equity and net equity sample
// per bar and tracks their running extremes.
type Equity struct {
	samples []EquitySample

	cur  extremes
	prev extremes // before the latest bar
}

func NewEquity() *Equity {
	inf := math.Inf(1)
	x := extremes{minEquity: inf, maxEquity: -inf, minNet: inf, maxNet: -inf}
	return &Equity{cur: x, prev: x}
}

func (e *Equity) Next(s State) EquitySample {
	sample := EquitySample{
		Bar:       s.Bar,
		Time:      s.Time,
		Equity:    s.Equity(),
		NetEquity: s.NetEquity(),
	}
	if n := len(e.samples); n > 0 && e.samples[n-1].Bar == s.Bar {
		e.samples[n-1] = sample
		e.cur = e.prev
	} else {
		e.samples = append(e.samples, sample)
		e.prev = e.cur
	}
	e.cur.add(sample.Equity, sample.NetEquity)
	return sample
}

func (e *Equity) Len() int { return len(e.samples) }

// Last returns the latest sample.
func (e *Equity) Last() (EquitySample, bool) {
	if len(e.samples) == 0 {
		return EquitySample{}, false
	}
	return e.samples[len(e.samples)-1], true
}

func (e *Equity) Samples() []EquitySample {
	return append([]EquitySample(nil), e.samples...)
}

// EquitySeries returns the per-bar equity values.
func (e *Equity) EquitySeries() []float64 {
	out := make([]float64, len(e.samples))
	for i, s := range e.samples {
		out[i] = s.Equity
	}
	return out
}

// NetEquitySeries returns the per-bar net equity values.
func (e *Equity) NetEquitySeries() []float64 {
	out := make([]float64, len(e.samples))
	for i, s := range e.samples {
		out[i] = s.NetEquity
	}
	return out
}

// MinEquity and the other extremes are NaN before the first sample.
func (e *Equity) MinEquity() float64    { return e.extreme(e.cur.minEquity) }
func (e *Equity) MaxEquity() float64    { return e.extreme(e.cur.maxEquity) }
func (e *Equity) MinNetEquity() float64 { return e.extreme(e.cur.minNet) }
func (e *Equity) MaxNetEquity() float64 { return e.extreme(e.cur.maxNet) }

func (e *Equity) extreme(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
