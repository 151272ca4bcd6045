package market

import (
	"math"
	"time"
)

// Cursor walks a DataProvider one bar at a time. A new cursor is unstarted;
// the first Next moves it to FirstTick. Lookback reads take n bars back from
// the current bar (0 = current) and return NaN whenever that bar is not
// available, so consumers never special-case warm-up.
type Cursor struct {
	data  DataProvider
	first int
	last  int
	idx   int
}

// NewCursor returns an unstarted cursor over p.
func NewCursor(p DataProvider) *Cursor {
	return &Cursor{
		data:  p,
		first: p.FirstTick(),
		last:  p.LastTick(),
		idx:   p.FirstTick() - 1,
	}
}

// Next advances one bar. It returns false once the cursor is past the last
// bar and keeps returning false afterwards.
func (c *Cursor) Next() bool {
	if c.idx > c.last {
		return false
	}
	c.idx++
	return c.idx <= c.last
}

// Index is the current tick. Before the first Next it is First()-1; after
// the end it is Last()+1.
func (c *Cursor) Index() int { return c.idx }

func (c *Cursor) First() int { return c.first }
func (c *Cursor) Last() int  { return c.last }

// Started reports whether Next has been called at least once.
func (c *Cursor) Started() bool { return c.idx >= c.first }

// Done reports whether the cursor has moved past the last bar.
func (c *Cursor) Done() bool { return c.idx > c.last }

// OnBar reports whether the cursor currently points at a bar.
func (c *Cursor) OnBar() bool { return c.idx >= c.first && c.idx <= c.last }

// Remaining is the number of bars Next will still visit.
func (c *Cursor) Remaining() int {
	if c.idx >= c.last {
		return 0
	}
	return c.last - c.idx
}

// Len is the number of bars in the underlying provider.
func (c *Cursor) Len() int {
	if c.last < c.first {
		return 0
	}
	return c.last - c.first + 1
}

func (c *Cursor) Provider() DataProvider { return c.data }

// back resolves n bars back to a tick, or false when unavailable.
func (c *Cursor) back(n int) (int, bool) {
	if n < 0 || !c.OnBar() {
		return 0, false
	}
	t := c.idx - n
	if t < c.first {
		return 0, false
	}
	return t, true
}

func (c *Cursor) Open(n int) float64 {
	t, ok := c.back(n)
	if !ok {
		return math.NaN()
	}
	return c.data.Open(t)
}

func (c *Cursor) High(n int) float64 {
	t, ok := c.back(n)
	if !ok {
		return math.NaN()
	}
	return c.data.High(t)
}

func (c *Cursor) Low(n int) float64 {
	t, ok := c.back(n)
	if !ok {
		return math.NaN()
	}
	return c.data.Low(t)
}

func (c *Cursor) Close(n int) float64 {
	t, ok := c.back(n)
	if !ok {
		return math.NaN()
	}
	return c.data.Close(t)
}

func (c *Cursor) Volume(n int) float64 {
	t, ok := c.back(n)
	if !ok {
		return math.NaN()
	}
	return c.data.Volume(t)
}

// Time returns the bar time n bars back, or the zero time.
func (c *Cursor) Time(n int) time.Time {
	t, ok := c.back(n)
	if !ok {
		return time.Time{}
	}
	return c.data.Time(t)
}

// Bar returns the full bar n bars back. Unavailable bars come back with NaN
// prices and ok=false.
func (c *Cursor) Bar(n int) (Bar, bool) {
	t, ok := c.back(n)
	if !ok {
		nan := math.NaN()
		return Bar{Open: nan, High: nan, Low: nan, Close: nan, Volume: nan}, false
	}
	return BarAt(c.data, t), true
}
