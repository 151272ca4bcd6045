package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barsim/stream"
)

// SMA is a streaming simple moving average. Any NaN inside the window makes
// the output NaN until it rolls out.
type SMA struct {
	period int
	window *stream.Ring[float64]
}

// NewSMA creates a simple moving average over period inputs.
func NewSMA(period int) *SMA {
	if period < 1 {
		period = 1
	}
	return &SMA{
		period: period,
		window: stream.NewRing[float64](period),
	}
}

func (m *SMA) Name() string { return fmt.Sprintf("SMA(%d)", m.period) }
func (m *SMA) Warmup() int  { return m.period }
func (m *SMA) Reset()       { m.window.Reset() }

func (m *SMA) Next(x float64) float64 {
	m.window.Push(x)
	if !m.window.Full() {
		return nan
	}
	sum := 0.0
	m.window.Each(func(v float64) { sum += v })
	return sum / float64(m.period)
}

// EMA is a streaming exponential moving average seeded with the simple
// average of its first period inputs. A NaN input yields NaN and leaves the
// state untouched.
type EMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

// NewEMA creates an exponential moving average over period inputs.
func NewEMA(period int) *EMA {
	if period < 1 {
		period = 1
	}
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *EMA) Warmup() int  { return e.period }

func (e *EMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *EMA) Next(x float64) float64 {
	if math.IsNaN(x) {
		return nan
	}
	if e.count < e.period {
		e.warmupSum += x
		e.count++
		if e.count < e.period {
			return nan
		}
		e.ema = e.warmupSum / float64(e.period)
		return e.ema
	}
	e.ema = (x-e.ema)*e.multiplier + e.ema
	return e.ema
}

// Ready reports whether the seed average has been taken.
func (e *EMA) Ready() bool { return e.count >= e.period }

// SMAOf returns the simple moving average of the last period values.
func SMAOf(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("not enough values: need %d, got %d", period, len(values))
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// EMAOf runs an EMA over values and returns the final value.
func EMAOf(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("not enough values: need %d, got %d", period, len(values))
	}
	e := NewEMA(period)
	v := nan
	for _, x := range values {
		v = e.Next(x)
	}
	return v, nil
}
