// Package backtest runs a strategy bar by bar over a market.DataProvider:
// signals become queued orders, orders fill at the next eligible bar
// boundary, and the ledger and metrics are updated once per bar.
package backtest

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rustyeddy/barsim/internal/logging"
	"github.com/rustyeddy/barsim/journal"
	"github.com/rustyeddy/barsim/market"
	"github.com/rustyeddy/barsim/metrics"
	"github.com/rustyeddy/barsim/sim"
)

var ErrNoBar = errors.New("cursor is not on a bar")

// Engine owns the cursor, the order queue, the ledger and the metrics of
// one run. It is not safe for concurrent use; run one engine per goroutine.
type Engine struct {
	cfg  Config
	log  *slog.Logger
	jrnl journal.Journal

	cur     *market.Cursor
	sym     market.SymInfo
	mode    sim.FillMode
	queue   *sim.OrderQueue
	adapter *sim.SignalAdapter
	ledger  *sim.Ledger
	stack   *metrics.Stack

	openedBar int
	closedBar int
	barClosed []metrics.ClosedTrade // trades closed during the current bar

	snap    metrics.Snapshot
	pending *journal.EquitySnapshot // last bar's equity, written when the bar is left

	err error
}

// New validates cfg and returns an engine positioned before the first bar.
func New(p market.DataProvider, cfg Config) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil data provider", market.ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sym := market.DefaultSymInfo()
	if si, ok := p.SymInfo(); ok {
		sym = si
	}
	if cfg.SymInfo != nil {
		sym = *cfg.SymInfo
	}
	if err := sym.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	j := cfg.Journal
	if j == nil {
		j = journal.Discard
	}

	cur := market.NewCursor(p)
	e := &Engine{
		cfg:       cfg,
		log:       log.With("run", cfg.RunID),
		jrnl:      j,
		cur:       cur,
		sym:       sym,
		mode:      cfg.fillMode(),
		queue:     sim.NewOrderQueue(sym),
		adapter:   sim.NewSignalAdapter(sym, cfg.defaultQty(), cfg.exchangeRate()),
		ledger:    sim.NewLedger(sym, cfg.exchangeRate()),
		stack:     metrics.NewStack(cfg.RiskFreeRate),
		openedBar: cur.First() - 1,
		closedBar: cur.First() - 1,
	}
	return e, nil
}

// Next closes the current bar if that has not happened yet and advances
// the cursor. It returns false at the end of the data or after an error;
// check Err afterwards.
func (e *Engine) Next() bool {
	if e.err != nil {
		return false
	}
	if e.cur.OnBar() && e.closedBar != e.cur.Index() {
		if err := e.OnBarClose(); err != nil {
			return false
		}
	}
	if err := e.flushEquity(); err != nil {
		e.err = err
		return false
	}
	return e.cur.Next()
}

// Err returns the first error that stopped the run.
func (e *Engine) Err() error { return e.err }

// Bar is the current bar index.
func (e *Engine) Bar() int { return e.cur.Index() }

// Cursor exposes the engine's cursor for read access.
func (e *Engine) Cursor() *market.Cursor { return e.cur }

func (e *Engine) SymInfo() market.SymInfo { return e.sym }

func (e *Engine) Config() Config { return e.cfg }

// OnBarOpen fills queued orders at the current bar's open. It runs once
// per bar; later calls for the same bar do nothing.
func (e *Engine) OnBarOpen() error {
	if e.err != nil {
		return e.err
	}
	if !e.cur.OnBar() {
		return ErrNoBar
	}
	if e.openedBar == e.cur.Index() {
		return nil
	}
	e.openedBar = e.cur.Index()
	e.barClosed = e.barClosed[:0]
	if e.mode == sim.FillOnOpen {
		return e.fail(e.drain())
	}
	return nil
}

// Signal converts sig into an order for the current bar. It returns nil
// and no error when the signal asks for nothing. Orders that cannot be
// sized come back as sim.ErrInvalidQty or sim.ErrIgnoredSize and leave the
// run untouched.
func (e *Engine) Signal(sig sim.Signal) (*sim.Order, error) {
	if err := e.OnBarOpen(); err != nil {
		return nil, err
	}
	size, ok := e.adapter.Size(sig, sim.Account{
		Equity:   e.Equity(),
		Position: e.ledger.PositionSize(),
		Price:    e.cur.Close(0),
	})
	if !ok {
		return nil, nil
	}
	o, err := e.queue.Enqueue(size, sig.Tag, sig.Comment, e.cur.Index())
	if err != nil {
		if e.cfg.Debug {
			e.log.Debug("order dropped", "bar", e.cur.Index(), "signal", sig.String(), "size", size, "err", err)
		}
		return nil, err
	}
	if e.cfg.Debug {
		e.log.Debug("order queued", "bar", o.BarIndex, "id", o.ID, "size", o.Size, "tag", o.Tag)
	}
	return &o, nil
}

// OnBarClose fills queued orders at the close when the run fills on close,
// marks open trades at the close and feeds the metrics. Calling it again
// for the same bar recomputes that bar's sample.
func (e *Engine) OnBarClose() error {
	if err := e.OnBarOpen(); err != nil {
		return err
	}
	if e.mode == sim.FillOnClose {
		if err := e.fail(e.drain()); err != nil {
			return err
		}
	}
	if err := e.ledger.Mark(e.cur.Close(0)); err != nil {
		return e.fail(fmt.Errorf("bar %d: mark: %w", e.cur.Index(), err))
	}

	st := e.state()
	e.snap = e.stack.Next(st)
	e.closedBar = e.cur.Index()
	e.pending = &journal.EquitySnapshot{
		RunID:      e.cfg.RunID,
		Bar:        st.Bar,
		Time:       st.Time,
		Equity:     e.snap.Equity.Equity,
		NetEquity:  e.snap.Equity.NetEquity,
		OpenProfit: st.OpenProfit,
		Position:   st.Position,
	}
	return nil
}

// Step processes one bar with sig: advance, open, signal, close. It
// reports whether a bar was processed. Order errors are returned with
// the bar still processed.
func (e *Engine) Step(sig sim.Signal) (bool, error) {
	if !e.Next() {
		return false, e.err
	}
	_, serr := e.Signal(sig)
	if err := e.OnBarClose(); err != nil {
		return true, err
	}
	return true, serr
}

// Finish closes the last bar and writes its equity sample.
func (e *Engine) Finish() error {
	if e.err != nil {
		return e.err
	}
	if e.cur.OnBar() && e.closedBar != e.cur.Index() {
		if err := e.OnBarClose(); err != nil {
			return err
		}
	}
	return e.fail(e.flushEquity())
}

func (e *Engine) drain() error {
	bar := e.cur.Index()
	price := sim.ExecutionPrice(e.cur, e.mode)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		if e.cfg.Debug && e.queue.Len() > 0 {
			e.log.Debug("no price, orders stay queued", "bar", bar, "pending", e.queue.Len())
		}
		return nil
	}
	ex := sim.Execution{BarIndex: bar, Price: price, Time: e.fillTime()}

	// Orders meeting at one open are netted so no trade opens and closes
	// on the same fill.
	if e.mode == sim.FillOnOpen {
		pending := e.queue.Len()
		o, ok := e.queue.Net(bar, e.mode)
		if n := pending - e.queue.Len(); e.cfg.Debug && n > 1 {
			e.log.Debug("orders netted", "bar", bar, "count", n, "size", o.Size)
		}
		if !ok {
			return nil
		}
		return e.fill(o, ex)
	}
	for {
		o, ok := e.queue.Next(bar, e.mode)
		if !ok {
			return nil
		}
		if err := e.fill(o, ex); err != nil {
			return err
		}
	}
}

func (e *Engine) fill(o sim.Order, ex sim.Execution) error {
	res, err := e.ledger.Match(o, ex)
	if err != nil {
		return fmt.Errorf("bar %d: order %d: %w", ex.BarIndex, o.ID, err)
	}
	if e.cfg.Debug {
		e.log.Debug("order filled", "bar", ex.BarIndex, "id", o.ID, "size", o.Size, "price", ex.Price,
			"closed", len(res.Closed), "opened", res.Opened != nil)
	}
	for _, t := range res.Closed {
		e.barClosed = append(e.barClosed, metrics.ClosedTrade{ID: t.ID, PnL: t.PnL})
		if e.cfg.Debug {
			e.log.Debug("trade closed", "bar", ex.BarIndex, "trade", t.ID, "dir", t.Direction.String(), "size", t.Size, "pnl", t.PnL)
		}
		if err := e.jrnl.RecordTrade(e.tradeRecord(t)); err != nil {
			return fmt.Errorf("journal trade %d: %w", t.ID, err)
		}
	}
	return nil
}

func (e *Engine) fillTime() time.Time {
	if e.mode == sim.FillOnClose {
		if b, ok := e.cur.Bar(0); ok && !b.CloseTime.IsZero() {
			return b.CloseTime
		}
	}
	return e.cur.Time(0)
}

func (e *Engine) state() metrics.State {
	return metrics.State{
		Bar:            e.cur.Index(),
		Time:           e.cur.Time(0),
		InitialCapital: e.cfg.InitialCapital,
		NetProfit:      e.ledger.NetProfit(),
		OpenProfit:     e.ledger.OpenProfit(),
		GrossProfit:    e.ledger.GrossProfit(),
		GrossLoss:      e.ledger.GrossLoss(),
		Position:       e.ledger.PositionSize(),
		OpenTrades:     e.ledger.OpenCount(),
		Wins:           e.ledger.Wins(),
		Losses:         e.ledger.Losses(),
		Evens:          e.ledger.Evens(),
		Closed:         append([]metrics.ClosedTrade(nil), e.barClosed...),
	}
}

func (e *Engine) tradeRecord(t sim.Trade) journal.TradeRecord {
	r := journal.TradeRecord{
		RunID:      e.cfg.RunID,
		TradeID:    t.ID,
		Instrument: e.cfg.Instrument,
		Direction:  t.Direction.String(),
		Size:       t.Size,
		EntryBar:   t.Entry.FillBarIndex,
		EntryPrice: t.Entry.Price,
		OpenTime:   t.Entry.Time,
		RealizedPL: t.PnL,
		MaxRunUp:   t.MaxRunUp,
		MaxDD:      t.MaxDrawdown,
	}
	if t.Exit != nil {
		r.ExitBar = t.Exit.FillBarIndex
		r.ExitPrice = t.Exit.Price
		r.CloseTime = t.Exit.Time
		r.Reason = t.Exit.ID
	}
	return r
}

// flushEquity writes the equity sample of the bar being left.
func (e *Engine) flushEquity() error {
	if e.pending == nil {
		return nil
	}
	snap := *e.pending
	e.pending = nil
	if err := e.jrnl.RecordEquity(snap); err != nil {
		return fmt.Errorf("journal equity bar %d: %w", snap.Bar, err)
	}
	return nil
}

// fail records err as the run's terminal error.
func (e *Engine) fail(err error) error {
	if err != nil && e.err == nil {
		e.err = err
	}
	return err
}
