// Package strategies holds the strategies bundled with barsim.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/barsim/backtest"
)

// Params carries the knobs ByName understands. Zero values pick each
// strategy's defaults.
type Params struct {
	Fast      int
	Slow      int
	ADX       int     // ADX period for the ema-cross trend filter; 0 disables it
	MinADX    float64 // minimum ADX to act on a cross
	Qty       float64
	EquityPct float64
}

// Names lists the names ByName accepts.
var Names = []string{"noop", "open-once", "ema-cross", "percent-of-equity"}

// ByName builds a bundled strategy.
func ByName(name string, p Params) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "open-once":
		qty := p.Qty
		if qty == 0 {
			qty = 1
		}
		return &OpenOnce{Qty: qty}, nil

	case "ema-cross", "emacross":
		cfg := EMACrossDefaults()
		if p.Fast > 0 {
			cfg.FastPeriod = p.Fast
		}
		if p.Slow > 0 {
			cfg.SlowPeriod = p.Slow
		}
		cfg.ADXPeriod = p.ADX
		cfg.MinADX = p.MinADX
		return NewEMACross(cfg)

	case "percent-of-equity", "pct":
		pct := p.EquityPct
		if pct == 0 {
			pct = 1
		}
		return &PercentOfEquity{Pct: pct}, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names, ", "))
	}
}
