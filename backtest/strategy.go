package backtest

import (
	"context"
	"time"

	"github.com/rustyeddy/barsim/market"
	"github.com/rustyeddy/barsim/sim"
)

// Strategy is called once per bar after queued orders have filled at the
// open. It returns the signal for that bar.
type Strategy interface {
	Name() string
	Reset()
	OnBar(ctx *Context) sim.Signal
}

// Context is a strategy's read-only view of the run on the current bar.
type Context struct {
	e *Engine
}

// Bar is the current bar index.
func (c *Context) Bar() int { return c.e.cur.Index() }

// First is the first bar index of the data.
func (c *Context) First() int { return c.e.cur.First() }

func (c *Context) Time() time.Time { return c.e.cur.Time(0) }

func (c *Context) Open(n int) float64   { return c.e.cur.Open(n) }
func (c *Context) High(n int) float64   { return c.e.cur.High(n) }
func (c *Context) Low(n int) float64    { return c.e.cur.Low(n) }
func (c *Context) Close(n int) float64  { return c.e.cur.Close(n) }
func (c *Context) Volume(n int) float64 { return c.e.cur.Volume(n) }

// Candle returns the bar n bars back; see market.Cursor.Bar.
func (c *Context) Candle(n int) (market.Bar, bool) { return c.e.cur.Bar(n) }

func (c *Context) Position() float64       { return c.e.ledger.PositionSize() }
func (c *Context) Equity() float64         { return c.e.Equity() }
func (c *Context) NetEquity() float64      { return c.e.NetEquity() }
func (c *Context) OpenProfit() float64     { return c.e.ledger.OpenProfit() }
func (c *Context) OpenTrades() int         { return c.e.ledger.OpenCount() }
func (c *Context) SymInfo() market.SymInfo { return c.e.sym }

// Run drives s over every remaining bar. Order errors drop that bar's
// order and the run continues; trade state and journal errors stop it.
// ctx is checked between bars.
func (e *Engine) Run(ctx context.Context, s Strategy) error {
	s.Reset()
	sc := &Context{e: e}
	e.log.Info("run started", "strategy", s.Name(), "bars", e.cur.Len(), "fill", e.mode.String())

	for e.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.OnBarOpen(); err != nil {
			return err
		}
		sig := s.OnBar(sc)
		if _, err := e.Signal(sig); err != nil && !isOrderError(err) {
			return err
		}
		if err := e.OnBarClose(); err != nil {
			return err
		}
		if e.cfg.Progress != nil {
			e.cfg.Progress(e.cur.Index(), e.cur.Last())
		}
	}
	if err := e.finishOrErr(); err != nil {
		return err
	}

	e.log.Info("run finished",
		"strategy", s.Name(),
		"trades", e.ledger.ClosedCount(),
		"open", e.ledger.OpenCount(),
		"net_profit", e.ledger.NetProfit(),
		"equity", e.Equity(),
	)
	return nil
}
