package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barsim/market"
)

// ATR is a streaming Average True Range with Wilder smoothing.
type ATR struct {
	period      int
	atr         float64
	count       int
	warmupSum   float64
	prevBar     market.Bar
	hasPrevious bool
}

// NewATR creates an Average True Range over period bars.
func NewATR(period int) *ATR {
	if period < 1 {
		period = 1
	}
	return &ATR{period: period}
}

func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }

// Warmup needs one extra bar because the true range uses the previous close.
func (a *ATR) Warmup() int { return a.period + 1 }

func (a *ATR) Reset() {
	a.atr = 0
	a.count = 0
	a.warmupSum = 0
	a.hasPrevious = false
}

func (a *ATR) Next(b market.Bar) float64 {
	if !a.hasPrevious {
		a.prevBar = b
		a.hasPrevious = true
		return nan
	}

	tr := trueRange(b, a.prevBar)
	a.prevBar = b
	if math.IsNaN(tr) {
		return nan
	}

	if a.count < a.period {
		a.warmupSum += tr
		a.count++
		if a.count < a.period {
			return nan
		}
		a.atr = a.warmupSum / float64(a.period)
		return a.atr
	}
	a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	return a.atr
}

// trueRange is the widest of high-low and the gaps to the previous close.
func trueRange(current, previous market.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}
