package backtest

import (
	"github.com/rustyeddy/barsim/metrics"
	"github.com/rustyeddy/barsim/sim"
)

// Equity is initial capital plus realized and open profit as of the last
// mark.
func (e *Engine) Equity() float64 {
	return e.cfg.InitialCapital + e.ledger.NetProfit() + e.ledger.OpenProfit()
}

// NetEquity is initial capital plus realized profit.
func (e *Engine) NetEquity() float64 {
	return e.cfg.InitialCapital + e.ledger.NetProfit()
}

func (e *Engine) InitialCapital() float64 { return e.cfg.InitialCapital }

// EquitySeries has one sample per closed bar.
func (e *Engine) EquitySeries() []float64    { return e.stack.Equity.EquitySeries() }
func (e *Engine) NetEquitySeries() []float64 { return e.stack.Equity.NetEquitySeries() }

// EquitySamples returns the equity curve with bar indexes and times.
func (e *Engine) EquitySamples() []metrics.EquitySample { return e.stack.Equity.Samples() }

func (e *Engine) OpenTrades() []sim.Trade   { return e.ledger.OpenTrades() }
func (e *Engine) ClosedTrades() []sim.Trade { return e.ledger.ClosedTrades() }
func (e *Engine) OpenTradesCount() int      { return e.ledger.OpenCount() }
func (e *Engine) ClosedTradesCount() int    { return e.ledger.ClosedCount() }

func (e *Engine) PositionSize() float64 { return e.ledger.PositionSize() }
func (e *Engine) NetProfit() float64    { return e.ledger.NetProfit() }
func (e *Engine) OpenProfit() float64   { return e.ledger.OpenProfit() }
func (e *Engine) GrossProfit() float64  { return e.ledger.GrossProfit() }
func (e *Engine) GrossLoss() float64    { return e.ledger.GrossLoss() }

// WinRate is NaN until a trade has closed.
func (e *Engine) WinRate() float64      { return e.stack.Summary.Stats().WinRate }
func (e *Engine) ProfitFactor() float64 { return e.stack.Summary.Stats().ProfitFactor }
func (e *Engine) Sharpe() float64       { return e.stack.Summary.Stats().Sharpe }
func (e *Engine) Sortino() float64      { return e.stack.Summary.Stats().Sortino }
func (e *Engine) Omega() float64        { return e.stack.Summary.Stats().Omega }

// MaxDrawdown is the largest peak to trough equity decline so far.
func (e *Engine) MaxDrawdown() float64 { return e.stack.Risk.Stats().MaxDrawdown }

func (e *Engine) Summary() metrics.SummaryStats { return e.stack.Summary.Stats() }
func (e *Engine) Risk() metrics.RiskStats       { return e.stack.Risk.Stats() }

// Snapshot is the metrics output of the last closed bar.
func (e *Engine) Snapshot() metrics.Snapshot { return e.snap }

// Fills lists executed orders in fill order.
func (e *Engine) Fills() []sim.Fill { return e.ledger.Fills() }

// PendingOrders lists queued orders, oldest first.
func (e *Engine) PendingOrders() []sim.Order { return e.queue.Pending() }
