package market

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrConfig marks a configuration problem that must stop a run before it
// starts (bad rounding parameters, bad capital, ...).
var ErrConfig = errors.New("configuration error")

// SymInfo carries the per-instrument rounding and validity parameters.
type SymInfo struct {
	MinTick    float64 // smallest price increment
	MinQty     float64 // smallest tradable quantity; also the quantity grid
	PointValue float64 // account value of a one point move for one contract
}

// DefaultSymInfo is used when a provider does not supply symbol info.
func DefaultSymInfo() SymInfo {
	return SymInfo{
		MinTick:    0.01,
		MinQty:     0.000001,
		PointValue: 1,
	}
}

// Validate rejects parameters the rounding functions cannot work with.
func (s SymInfo) Validate() error {
	if !(s.MinTick > 0) || math.IsInf(s.MinTick, 0) {
		return fmt.Errorf("%w: min_tick must be positive, got %v", ErrConfig, s.MinTick)
	}
	if !(s.MinQty > 0) || math.IsInf(s.MinQty, 0) {
		return fmt.Errorf("%w: min_qty must be positive, got %v", ErrConfig, s.MinQty)
	}
	if !(s.PointValue > 0) || math.IsInf(s.PointValue, 0) {
		return fmt.Errorf("%w: point_value must be positive, got %v", ErrConfig, s.PointValue)
	}
	return nil
}

// RoundQty snaps q to the nearest multiple of MinQty. NaN and infinities
// are returned unchanged.
func (s SymInfo) RoundQty(q float64) float64 {
	return roundToStep(q, s.MinQty, false)
}

// FloorQty truncates q toward zero onto the MinQty grid.
func (s SymInfo) FloorQty(q float64) float64 {
	return roundToStep(q, s.MinQty, true)
}

// RoundPrice snaps p to the nearest multiple of MinTick.
func (s SymInfo) RoundPrice(p float64) float64 {
	return roundToStep(p, s.MinTick, false)
}

// IsZeroQty reports whether q rounds to nothing tradable.
func (s SymInfo) IsZeroQty(q float64) bool {
	r := s.RoundQty(q)
	return r == 0
}

func roundToStep(x, step float64, truncate bool) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || !(step > 0) {
		return x
	}
	if x == 0 {
		return 0
	}
	d := decimal.NewFromFloat(x)
	st := decimal.NewFromFloat(step)
	n := d.Div(st)
	if truncate {
		n = n.Truncate(0)
	} else {
		n = n.Round(0)
	}
	out, _ := n.Mul(st).Float64()
	if out == 0 {
		// avoid -0 leaking into comparisons and output
		return 0
	}
	return out
}
