package backtest

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/rustyeddy/barsim/journal"
	"github.com/rustyeddy/barsim/market"
	"github.com/rustyeddy/barsim/sim"
)

// Config controls one engine run.
type Config struct {
	InitialCapital float64
	FillsOnClose   bool // fill at bar close instead of the next bar's open
	Debug          bool // log fills, dropped orders and trade closes

	DefaultQty   float64 // contracts for Long/Short/LongEntry/ShortEntry; 0 means 1
	ExchangeRate float64 // account to quote currency; 0 means 1
	RiskFreeRate float64 // per-trade rate for Sharpe, Sortino and Omega

	// SymInfo overrides what the provider reports. When both are missing
	// market.DefaultSymInfo is used.
	SymInfo *market.SymInfo

	RunID      string
	Instrument string

	Logger  *slog.Logger
	Journal journal.Journal // nil means journal.Discard

	// Progress is called by Run after every bar.
	Progress func(bar, last int)
}

// Validate reports configuration errors wrapping market.ErrConfig.
func (c Config) Validate() error {
	if !(c.InitialCapital > 0) || math.IsInf(c.InitialCapital, 0) {
		return fmt.Errorf("%w: initial capital must be positive, got %v", market.ErrConfig, c.InitialCapital)
	}
	if c.DefaultQty < 0 || math.IsNaN(c.DefaultQty) || math.IsInf(c.DefaultQty, 0) {
		return fmt.Errorf("%w: default qty must be >= 0, got %v", market.ErrConfig, c.DefaultQty)
	}
	if c.ExchangeRate < 0 || math.IsNaN(c.ExchangeRate) || math.IsInf(c.ExchangeRate, 0) {
		return fmt.Errorf("%w: exchange rate must be >= 0, got %v", market.ErrConfig, c.ExchangeRate)
	}
	if math.IsNaN(c.RiskFreeRate) || math.IsInf(c.RiskFreeRate, 0) {
		return fmt.Errorf("%w: risk free rate must be finite", market.ErrConfig)
	}
	if c.SymInfo != nil {
		if err := c.SymInfo.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) defaultQty() float64 {
	if c.DefaultQty == 0 {
		return 1
	}
	return c.DefaultQty
}

func (c Config) exchangeRate() float64 {
	if c.ExchangeRate == 0 {
		return 1
	}
	return c.ExchangeRate
}

func (c Config) fillMode() sim.FillMode {
	if c.FillsOnClose {
		return sim.FillOnClose
	}
	return sim.FillOnOpen
}
