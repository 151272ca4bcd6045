package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barsim/market"
)

// ADX implements Wilder's Average Directional Index (trend strength).
// Usage:
//
//	adx := indicators.NewADX(14)
//	if v := adx.Next(bar); v >= 20 { ... }
//
// Comparisons against NaN are false, so warm-up bars never pass a filter.
type ADX struct {
	period int

	prev     market.Bar
	havePrev bool

	// smoothed true range
	atr *ATR

	// Wilder-smoothed values after warmup
	pdm   float64
	mdm   float64
	adx   float64
	dxSum float64

	// bars processed, including the first seed
	count int
	ready bool
}

func NewADX(period int) *ADX {
	if period < 1 {
		period = 1
	}
	return &ADX{period: period, atr: NewATR(period)}
}

func (a *ADX) Name() string { return fmt.Sprintf("ADX(%d)", a.period) }
func (a *ADX) Warmup() int  { return 2*a.period + 1 }

func (a *ADX) Reset() { *a = *NewADX(a.period) }

// Next consumes the next bar. Values are finite after Period bars seed the
// smoothed ranges and Period more seed the ADX itself.
func (a *ADX) Next(b market.Bar) float64 {
	tr := a.atr.Next(b)
	if !a.havePrev {
		a.prev = b
		a.havePrev = true
		a.count = 1
		return nan
	}

	upMove := b.High - a.prev.High
	downMove := a.prev.Low - b.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}

	a.prev = b
	a.count++

	p := float64(a.period)
	if a.count <= a.period+1 {
		a.pdm += pdm
		a.mdm += mdm
		if a.count == a.period+1 {
			a.pdm /= p
			a.mdm /= p
		}
		return nan
	}

	a.pdm = (a.pdm*(p-1) + pdm) / p
	a.mdm = (a.mdm*(p-1) + mdm) / p

	if math.IsNaN(tr) {
		return nan
	}

	dx := 0.0
	if tr > 0 {
		pdi := 100 * a.pdm / tr
		mdi := 100 * a.mdm / tr
		if den := pdi + mdi; den != 0 {
			dx = 100 * math.Abs(pdi-mdi) / den
		}
	}

	// first DX at count == period+2; seed after period DX values
	if !a.ready {
		a.dxSum += dx
		if a.count == 2*a.period+1 {
			a.adx = a.dxSum / p
			a.ready = true
			return a.adx
		}
		return nan
	}

	a.adx = (a.adx*(p-1) + dx) / p
	return a.adx
}
