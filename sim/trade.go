package sim

import (
	"fmt"
	"math"
	"time"
)

// Direction is the side of a trade.
type Direction int

const (
	DirShort Direction = -1
	DirLong  Direction = 1
)

func (d Direction) String() string {
	if d == DirShort {
		return "short"
	}
	return "long"
}

func directionOf(size float64) Direction {
	if size < 0 {
		return DirShort
	}
	return DirLong
}

// TradeEvent records one side of a trade.
type TradeEvent struct {
	OrderBarIndex int
	FillBarIndex  int
	Price         float64
	Time          time.Time
	ID            string // tag of the order that caused the event
	Comment       string
}

// Trade is one position leg with its own entry price. PnL is realized once
// Closed is set and unrealized (as of the last mark) before that.
type Trade struct {
	ID        int
	Direction Direction
	Size      float64 // magnitude
	Entry     TradeEvent
	Exit      *TradeEvent
	PnL       float64
	Closed    bool

	// Largest open profit and largest open loss (as a positive number) seen
	// while the trade was open, in account currency.
	MaxRunUp    float64
	MaxDrawdown float64

	entered bool
}

// SignedSize is Size with the direction applied.
func (t *Trade) SignedSize() float64 {
	return float64(t.Direction) * t.Size
}

// Active reports whether the trade is entered and not yet closed.
func (t *Trade) Active() bool { return t.entered && !t.Closed }

// UnrealizedPL is the profit of the open trade at price. pointValue scales
// one point to quote currency and quoteToAccount converts quote currency to
// account currency.
func (t *Trade) UnrealizedPL(price, pointValue, quoteToAccount float64) float64 {
	return t.SignedSize() * (price - t.Entry.Price) * pointValue * quoteToAccount
}

func (t *Trade) enter(size float64, ev TradeEvent) error {
	if t.entered {
		return fmt.Errorf("trade %d: %w", t.ID, ErrAlreadyEntered)
	}
	if size == 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return fmt.Errorf("trade %d: enter size %v: %w", t.ID, size, ErrInvalidSize)
	}
	t.Direction = directionOf(size)
	t.Size = math.Abs(size)
	t.Entry = ev
	t.entered = true
	return nil
}

func (t *Trade) close(ev TradeEvent, pnl float64) error {
	if !t.entered {
		return fmt.Errorf("trade %d: %w", t.ID, ErrNotEntered)
	}
	if t.Closed {
		return fmt.Errorf("trade %d: %w", t.ID, ErrAlreadyClosed)
	}
	t.PnL = pnl
	t.excursion(pnl)
	t.Exit = &ev
	t.Closed = true
	return nil
}

func (t *Trade) mark(pnl float64) error {
	if !t.Active() {
		return fmt.Errorf("trade %d: mark: %w", t.ID, ErrNotActive)
	}
	t.PnL = pnl
	t.excursion(pnl)
	return nil
}

func (t *Trade) excursion(pnl float64) {
	if math.IsNaN(pnl) {
		return
	}
	if pnl > t.MaxRunUp {
		t.MaxRunUp = pnl
	}
	if -pnl > t.MaxDrawdown {
		t.MaxDrawdown = -pnl
	}
}

// split carves size (magnitude) off t into a new trade with the given id.
// The new trade shares t's entry; excursions are shared pro rata.
func (t *Trade) split(id int, size float64, shrink func(float64) float64) (*Trade, error) {
	if !t.Active() {
		return nil, fmt.Errorf("trade %d: split: %w", t.ID, ErrNotActive)
	}
	if !(size > 0) || size >= t.Size {
		return nil, fmt.Errorf("trade %d: split %v of %v: %w", t.ID, size, t.Size, ErrInvalidSize)
	}
	frac := size / t.Size
	part := &Trade{
		ID:          id,
		Direction:   t.Direction,
		Size:        size,
		Entry:       t.Entry,
		MaxRunUp:    t.MaxRunUp * frac,
		MaxDrawdown: t.MaxDrawdown * frac,
		entered:     true,
	}
	t.Size = shrink(t.Size - size)
	t.PnL -= t.PnL * frac
	t.MaxRunUp -= part.MaxRunUp
	t.MaxDrawdown -= part.MaxDrawdown
	return part, nil
}

// copyOut returns a detached copy safe to hand to callers.
func (t *Trade) copyOut() Trade {
	c := *t
	if t.Exit != nil {
		ev := *t.Exit
		c.Exit = &ev
	}
	return c
}
