package backtest

import (
	"errors"

	"github.com/rustyeddy/barsim/sim"
)

// SignalBatch processes one signal per bar starting at the first bar and
// then runs to the end of the data. Order errors skip that bar's signal;
// any other error stops the run.
func (e *Engine) SignalBatch(signals []sim.Signal) error {
	for _, sig := range signals {
		ok, err := e.Step(sig)
		if err != nil && !isOrderError(err) {
			return err
		}
		if !ok {
			return e.finishOrErr()
		}
	}
	return e.SkipRemaining()
}

// SignalMap processes m[bar] on the bars it names and Hold elsewhere,
// through the end of the data.
func (e *Engine) SignalMap(m map[int]sim.Signal) error {
	for {
		bar := e.cur.Index() + 1
		sig, ok := m[bar]
		if !ok {
			sig = sim.Hold()
		}
		stepped, err := e.Step(sig)
		if err != nil && !isOrderError(err) {
			return err
		}
		if !stepped {
			return e.finishOrErr()
		}
	}
}

// SkipToBar processes every bar before idx with no signal and leaves the
// cursor on the bar before idx, so the next Step or Next lands on idx.
func (e *Engine) SkipToBar(idx int) error {
	for e.cur.Index()+1 < idx {
		ok, err := e.Step(sim.Hold())
		if err != nil {
			return err
		}
		if !ok {
			return e.finishOrErr()
		}
	}
	return nil
}

// SkipBars processes the next n bars with no signal.
func (e *Engine) SkipBars(n int) error {
	return e.SkipToBar(e.cur.Index() + 1 + n)
}

// SkipRemaining processes every remaining bar with no signal and writes
// the last equity sample.
func (e *Engine) SkipRemaining() error {
	for {
		ok, err := e.Step(sim.Hold())
		if err != nil {
			return err
		}
		if !ok {
			return e.finishOrErr()
		}
	}
}

func (e *Engine) finishOrErr() error {
	if e.err != nil {
		return e.err
	}
	return e.Finish()
}

func isOrderError(err error) bool {
	return errors.Is(err, sim.ErrInvalidQty) || errors.Is(err, sim.ErrIgnoredSize)
}
