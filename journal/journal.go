// Package journal persists closed trades and per-bar equity samples of a
// backtest run, and renders run reports.
package journal

import "time"

// TradeRecord is one closed trade.
type TradeRecord struct {
	RunID      string
	TradeID    int
	Instrument string
	Direction  string // long or short
	Size       float64
	EntryBar   int
	ExitBar    int
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	MaxRunUp   float64
	MaxDD      float64
	Reason     string // tag of the closing order
}

// EquitySnapshot is one bar of the equity curve.
type EquitySnapshot struct {
	RunID      string
	Bar        int
	Time       time.Time
	Equity     float64
	NetEquity  float64
	OpenProfit float64
	Position   float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Discard is a Journal that drops everything.
var Discard Journal = discard{}

type discard struct{}

func (discard) RecordTrade(TradeRecord) error     { return nil }
func (discard) RecordEquity(EquitySnapshot) error { return nil }
func (discard) Close() error                      { return nil }
