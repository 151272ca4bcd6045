package indicators

import "math"

// Pair is two aligned series values for one bar.
type Pair struct {
	A, B float64
}

// Cross emits +1 on the bar where A moves above B, -1 where it moves below,
// and 0 otherwise. A bar with either side NaN emits 0 and is not used as the
// previous reference.
type Cross struct {
	prevDiff float64
	havePrev bool
}

func NewCross() *Cross { return &Cross{} }

func (c *Cross) Name() string { return "Cross" }
func (c *Cross) Warmup() int  { return 2 }

func (c *Cross) Reset() {
	c.prevDiff = 0
	c.havePrev = false
}

func (c *Cross) Next(p Pair) int {
	if math.IsNaN(p.A) || math.IsNaN(p.B) {
		return 0
	}
	diff := p.A - p.B
	defer func() {
		c.prevDiff = diff
		c.havePrev = true
	}()
	if !c.havePrev {
		return 0
	}
	switch {
	case c.prevDiff <= 0 && diff > 0:
		return 1
	case c.prevDiff >= 0 && diff < 0:
		return -1
	}
	return 0
}
