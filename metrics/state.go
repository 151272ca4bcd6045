// Package metrics holds the per-bar accumulators a run feeds from ledger
// state: the equity curve, the trade summary and the risk layer. Each layer
// is a stream.Unit[State, T] and is called once per bar. Calling a layer
// again for the same bar replaces that bar's sample.
package metrics

import (
	"math"
	"time"
)

// State is a value copy of the ledger aggregates for one bar. Layers must
// not keep references into it past the call.
type State struct {
	Bar            int
	Time           time.Time
	InitialCapital float64

	NetProfit   float64
	OpenProfit  float64
	GrossProfit float64
	GrossLoss   float64
	Position    float64
	OpenTrades  int

	Wins   int
	Losses int
	Evens  int

	// Trades closed since the previous call, in close order.
	Closed []ClosedTrade
}

// ClosedTrade is the part of a closed trade the metrics need.
type ClosedTrade struct {
	ID  int
	PnL float64
}

// Equity is initial capital plus realized and open profit.
func (s State) Equity() float64 {
	return s.InitialCapital + s.NetProfit + s.OpenProfit
}

// NetEquity is initial capital plus realized profit.
func (s State) NetEquity() float64 {
	return s.InitialCapital + s.NetProfit
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
