package strategies

import (
	"github.com/rustyeddy/barsim/backtest"
	"github.com/rustyeddy/barsim/sim"
)

// Noop holds on every bar.
type Noop struct{}

func (Noop) Name() string                       { return "noop" }
func (Noop) Reset()                             {}
func (Noop) OnBar(*backtest.Context) sim.Signal { return sim.Hold() }

// OpenOnce orders Qty contracts on the first bar and holds afterwards.
type OpenOnce struct {
	Qty float64

	opened bool
}

func (s *OpenOnce) Name() string { return "open-once" }
func (s *OpenOnce) Reset()       { s.opened = false }

func (s *OpenOnce) OnBar(*backtest.Context) sim.Signal {
	if s.opened {
		return sim.Hold()
	}
	s.opened = true
	return sim.SizedContracts(s.Qty).WithTag("open-once")
}

// PercentOfEquity keeps the position at Pct of equity, resizing whenever
// the target moves by at least one quantity step.
type PercentOfEquity struct {
	Pct float64
}

func (s *PercentOfEquity) Name() string { return "percent-of-equity" }
func (s *PercentOfEquity) Reset()       {}

func (s *PercentOfEquity) OnBar(*backtest.Context) sim.Signal {
	return sim.EquityPercent(s.Pct)
}
