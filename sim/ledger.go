package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/barsim/market"
)

// Execution is where and at what price an order is filled.
type Execution struct {
	BarIndex int
	Price    float64
	Time     time.Time
}

// Fill is the record of one executed order.
type Fill struct {
	OrderID       int
	Tag           string
	Comment       string
	Size          float64
	Price         float64
	OrderBarIndex int
	FillBarIndex  int
	Time          time.Time
}

// MatchResult lists the trades an order touched.
type MatchResult struct {
	Closed []Trade
	Opened *Trade
}

// Ledger owns every trade of a run and the aggregates derived from them.
// It is the only code that mutates trades.
type Ledger struct {
	sym            market.SymInfo
	quoteToAccount float64

	open   []*Trade
	closed []*Trade
	fills  []Fill
	nextID int

	positionSize float64
	netProfit    float64
	grossProfit  float64
	grossLoss    float64
	openProfit   float64
	wins         int
	losses       int
	evens        int
}

// NewLedger returns an empty ledger. exchangeRate converts account currency
// into quote currency; 0 means 1.
func NewLedger(sym market.SymInfo, exchangeRate float64) *Ledger {
	if exchangeRate == 0 {
		exchangeRate = 1
	}
	return &Ledger{
		sym:            sym,
		quoteToAccount: 1 / exchangeRate,
		nextID:         1,
	}
}

// Match fills o at ex against the open trades, oldest first. Opposite
// trades are closed in full while the order covers them; the first one it
// cannot cover is split and the matched part closed. Whatever is left opens
// a new trade. A zero order changes nothing and is not recorded.
func (l *Ledger) Match(o Order, ex Execution) (MatchResult, error) {
	var res MatchResult
	if math.IsNaN(ex.Price) || math.IsInf(ex.Price, 0) {
		return res, fmt.Errorf("order %d: %w", o.ID, ErrNoPrice)
	}

	remaining := l.sym.RoundQty(o.Size)
	if remaining == 0 || math.IsNaN(remaining) || math.IsInf(remaining, 0) {
		return res, nil
	}

	ev := TradeEvent{
		OrderBarIndex: o.BarIndex,
		FillBarIndex:  ex.BarIndex,
		Price:         ex.Price,
		Time:          ex.Time,
		ID:            o.Tag,
		Comment:       o.Comment,
	}
	l.fills = append(l.fills, Fill{
		OrderID:       o.ID,
		Tag:           o.Tag,
		Comment:       o.Comment,
		Size:          remaining,
		Price:         ex.Price,
		OrderBarIndex: o.BarIndex,
		FillBarIndex:  ex.BarIndex,
		Time:          ex.Time,
	})

	for i := 0; i < len(l.open) && remaining != 0; {
		t := l.open[i]
		ts := t.SignedSize()
		if (ts > 0) == (remaining > 0) {
			i++
			continue
		}

		if t.Size <= math.Abs(remaining) {
			if err := l.closeTrade(t, ev); err != nil {
				return res, err
			}
			res.Closed = append(res.Closed, t.copyOut())
			l.open = append(l.open[:i], l.open[i+1:]...)
			remaining = l.sym.RoundQty(remaining + ts)
			continue
		}

		part, err := t.split(l.nextID, math.Abs(remaining), l.sym.RoundQty)
		if err != nil {
			return res, err
		}
		l.nextID++
		if err := l.closeTrade(part, ev); err != nil {
			return res, err
		}
		res.Closed = append(res.Closed, part.copyOut())
		remaining = 0
	}

	if math.Abs(remaining) >= l.sym.MinQty {
		t := &Trade{ID: l.nextID}
		if err := t.enter(remaining, ev); err != nil {
			return res, err
		}
		l.nextID++
		l.open = append(l.open, t)
		opened := t.copyOut()
		res.Opened = &opened
	}

	l.recompute()
	return res, nil
}

func (l *Ledger) closeTrade(t *Trade, ev TradeEvent) error {
	pnl := t.UnrealizedPL(ev.Price, l.sym.PointValue, l.quoteToAccount)
	if err := t.close(ev, pnl); err != nil {
		return fmt.Errorf("close trade: %w", err)
	}
	l.closed = append(l.closed, t)

	l.netProfit += pnl
	switch {
	case pnl > 0:
		l.grossProfit += pnl
		l.wins++
	case pnl < 0:
		l.grossLoss -= pnl
		l.losses++
	default:
		l.evens++
	}
	return nil
}

// Mark revalues every open trade at price. A NaN price leaves open profit
// NaN until the next finite mark.
func (l *Ledger) Mark(price float64) error {
	l.openProfit = 0
	for _, t := range l.open {
		pnl := t.UnrealizedPL(price, l.sym.PointValue, l.quoteToAccount)
		if err := t.mark(pnl); err != nil {
			return err
		}
		l.openProfit += pnl
	}
	return nil
}

// recompute refreshes the aggregates derived from the open set. New trades
// contribute zero open profit until the next mark.
func (l *Ledger) recompute() {
	size, profit := 0.0, 0.0
	for _, t := range l.open {
		size += t.SignedSize()
		profit += t.PnL
	}
	l.positionSize = l.sym.RoundQty(size)
	l.openProfit = profit
}

func (l *Ledger) PositionSize() float64 { return l.positionSize }
func (l *Ledger) NetProfit() float64    { return l.netProfit }
func (l *Ledger) GrossProfit() float64  { return l.grossProfit }
func (l *Ledger) GrossLoss() float64    { return l.grossLoss }
func (l *Ledger) OpenProfit() float64   { return l.openProfit }
func (l *Ledger) Wins() int             { return l.wins }
func (l *Ledger) Losses() int           { return l.losses }
func (l *Ledger) Evens() int            { return l.evens }
func (l *Ledger) OpenCount() int        { return len(l.open) }
func (l *Ledger) ClosedCount() int      { return len(l.closed) }
func (l *Ledger) SymInfo() market.SymInfo {
	return l.sym
}

// OpenTrades returns copies of the open trades, oldest first.
func (l *Ledger) OpenTrades() []Trade { return copyTrades(l.open) }

// ClosedTrades returns copies of the closed trades in close order.
func (l *Ledger) ClosedTrades() []Trade { return copyTrades(l.closed) }

// Fills returns the executed orders in fill order.
func (l *Ledger) Fills() []Fill { return append([]Fill(nil), l.fills...) }

func copyTrades(ts []*Trade) []Trade {
	out := make([]Trade, len(ts))
	for i, t := range ts {
		out[i] = t.copyOut()
	}
	return out
}
