package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barsim/backtest"
	"github.com/rustyeddy/barsim/indicators"
	"github.com/rustyeddy/barsim/sim"
)

// EMACross goes long when the fast EMA of the close crosses above the slow
// one and short when it crosses below, reversing any open position. With
// ADXPeriod set, crosses are ignored while the ADX is below MinADX.
type EMACross struct {
	EMACrossConfig

	fast  *indicators.EMA
	slow  *indicators.EMA
	cross *indicators.Cross
	adx   *indicators.ADX
}

type EMACrossConfig struct {
	FastPeriod int     `json:"fast-period"`
	SlowPeriod int     `json:"slow-period"`
	ADXPeriod  int     `json:"adx-period,omitempty"`
	MinADX     float64 `json:"min-adx,omitempty"`
}

func EMACrossDefaults() EMACrossConfig {
	return EMACrossConfig{
		FastPeriod: 10,
		SlowPeriod: 30,
	}
}

func NewEMACross(cfg EMACrossConfig) (*EMACross, error) {
	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= 0 {
		return nil, fmt.Errorf("ema-cross: periods must be positive (fast=%d slow=%d)", cfg.FastPeriod, cfg.SlowPeriod)
	}
	if cfg.FastPeriod >= cfg.SlowPeriod {
		return nil, fmt.Errorf("ema-cross: fast period %d must be less than slow period %d", cfg.FastPeriod, cfg.SlowPeriod)
	}
	if cfg.ADXPeriod < 0 {
		return nil, fmt.Errorf("ema-cross: adx period must not be negative")
	}
	s := &EMACross{EMACrossConfig: cfg}
	s.Reset()
	return s, nil
}

func (s *EMACross) Name() string {
	if s.ADXPeriod > 0 {
		return fmt.Sprintf("ema-cross(%d,%d,adx%d)", s.FastPeriod, s.SlowPeriod, s.ADXPeriod)
	}
	return fmt.Sprintf("ema-cross(%d,%d)", s.FastPeriod, s.SlowPeriod)
}

func (s *EMACross) Reset() {
	s.fast = indicators.NewEMA(s.FastPeriod)
	s.slow = indicators.NewEMA(s.SlowPeriod)
	s.cross = indicators.NewCross()
	s.adx = nil
	if s.ADXPeriod > 0 {
		s.adx = indicators.NewADX(s.ADXPeriod)
	}
}

func (s *EMACross) OnBar(ctx *backtest.Context) sim.Signal {
	px := ctx.Close(0)
	dir := s.cross.Next(indicators.Pair{A: s.fast.Next(px), B: s.slow.Next(px)})

	trending := true
	if s.adx != nil {
		bar, _ := ctx.Candle(0)
		v := s.adx.Next(bar)
		trending = !math.IsNaN(v) && v >= s.MinADX
	}
	if !trending {
		return sim.Hold()
	}

	switch dir {
	case 1:
		return sim.Long().WithTag("ema-cross-long")
	case -1:
		return sim.Short().WithTag("ema-cross-short")
	}
	return sim.Hold()
}
