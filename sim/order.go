package sim

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barsim/market"
)

// Order is a pending request to change the position by Size (signed).
type Order struct {
	ID       int
	Size     float64
	Tag      string
	Comment  string
	BarIndex int // bar on which the order was created
}

// FillMode picks the reference price every order of a run fills at.
type FillMode int

const (
	FillOnOpen FillMode = iota
	FillOnClose
)

func (m FillMode) String() string {
	if m == FillOnClose {
		return "close"
	}
	return "open"
}

// ExecutionPrice resolves the fill price for the cursor's current bar.
func ExecutionPrice(c *market.Cursor, mode FillMode) float64 {
	if mode == FillOnClose {
		return c.Close(0)
	}
	return c.Open(0)
}

// Eligible reports whether o may fill at bar. Under FillOnOpen an order
// waits for the next bar's open; under FillOnClose it fills on the close of
// the bar that created it.
func (o Order) Eligible(bar int, mode FillMode) bool {
	if mode == FillOnClose {
		return o.BarIndex <= bar
	}
	return o.BarIndex < bar
}

// OrderQueue is a FIFO of pending orders. Sizes are rounded to the symbol's
// quantity grid on the way in.
type OrderQueue struct {
	sym    market.SymInfo
	orders []Order
	nextID int
}

func NewOrderQueue(sym market.SymInfo) *OrderQueue {
	return &OrderQueue{sym: sym, nextID: 1}
}

// Enqueue creates an order for bar. Non-finite sizes return ErrInvalidQty
// and sizes that round to zero return ErrIgnoredSize; neither is queued.
func (q *OrderQueue) Enqueue(size float64, tag, comment string, bar int) (Order, error) {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return Order{}, fmt.Errorf("%w: %v", ErrInvalidQty, size)
	}
	rounded := q.sym.RoundQty(size)
	if rounded == 0 {
		return Order{}, fmt.Errorf("%w: %v", ErrIgnoredSize, size)
	}
	o := Order{
		ID:       q.nextID,
		Size:     rounded,
		Tag:      tag,
		Comment:  comment,
		BarIndex: bar,
	}
	q.nextID++
	q.orders = append(q.orders, o)
	return o, nil
}

// Next pops the oldest order if it may fill at bar.
func (q *OrderQueue) Next(bar int, mode FillMode) (Order, bool) {
	if len(q.orders) == 0 || !q.orders[0].Eligible(bar, mode) {
		return Order{}, false
	}
	o := q.orders[0]
	q.orders = q.orders[1:]
	return o, true
}

// Net pops every order that may fill at bar and folds them into one order
// carrying the first order's id, tag, comment and bar index. It reports
// false when nothing is eligible or the sizes cancel out; the popped orders
// are consumed either way.
func (q *OrderQueue) Net(bar int, mode FillMode) (Order, bool) {
	var (
		net   Order
		found bool
	)
	for {
		o, ok := q.Next(bar, mode)
		if !ok {
			break
		}
		if !found {
			net, found = o, true
			continue
		}
		net.Size += o.Size
	}
	if !found {
		return Order{}, false
	}
	net.Size = q.sym.RoundQty(net.Size)
	return net, net.Size != 0
}

// Dequeue pops the oldest order regardless of eligibility.
func (q *OrderQueue) Dequeue() (Order, bool) {
	if len(q.orders) == 0 {
		return Order{}, false
	}
	o := q.orders[0]
	q.orders = q.orders[1:]
	return o, true
}

func (q *OrderQueue) Len() int { return len(q.orders) }

// Pending returns a copy of the queued orders, oldest first.
func (q *OrderQueue) Pending() []Order {
	return append([]Order(nil), q.orders...)
}
