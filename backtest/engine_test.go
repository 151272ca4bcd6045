package backtest

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barsim/journal"
	"github.com/rustyeddy/barsim/market"
	"github.com/rustyeddy/barsim/sim"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// flatBars builds bars whose open, high, low and close all equal the given
// price, one hour apart.
func flatBars(prices ...float64) *market.Series {
	bars := make([]market.Bar, len(prices))
	for i, p := range prices {
		bars[i] = market.Bar{
			Open: p, High: p, Low: p, Close: p, Volume: 100,
			OpenTime:  t0.Add(time.Duration(i) * time.Hour),
			CloseTime: t0.Add(time.Duration(i+1) * time.Hour),
		}
	}
	return market.NewSeries(bars, market.WithInstrument("TEST"))
}

func newEngine(t *testing.T, p market.DataProvider, cfg Config) *Engine {
	t.Helper()
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = 1000
	}
	e, err := New(p, cfg)
	require.NoError(t, err)
	return e
}

func TestConstantPriceRoundTrip(t *testing.T) {
	t.Parallel()

	e := newEngine(t, flatBars(10, 10, 10, 10, 10), Config{})
	err := e.SignalMap(map[int]sim.Signal{
		0: sim.SizedContracts(5),
		3: sim.ExitAll(),
	})
	require.NoError(t, err)

	closed := e.ClosedTrades()
	require.Len(t, closed, 1)
	tr := closed[0]
	assert.Equal(t, 0, tr.Entry.OrderBarIndex)
	assert.Equal(t, 1, tr.Entry.FillBarIndex)
	assert.Equal(t, 3, tr.Exit.OrderBarIndex)
	assert.Equal(t, 4, tr.Exit.FillBarIndex)
	assert.Equal(t, 10.0, tr.Entry.Price)
	assert.Equal(t, 10.0, tr.Exit.Price)
	assert.Equal(t, 0.0, tr.PnL)

	assert.Equal(t, 1, e.ClosedTradesCount())
	assert.Equal(t, 0, e.OpenTradesCount())
	assert.Equal(t, 0.0, e.PositionSize())
	assert.Equal(t, []float64{1000, 1000, 1000, 1000, 1000}, e.EquitySeries())
	assert.Equal(t, []float64{1000, 1000, 1000, 1000, 1000}, e.NetEquitySeries())
	assert.Equal(t, 1000.0, e.Equity())
}

func TestFillModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		onClose   bool
		entryBar  int
		exitBar   int
		wantPnL   float64
		wantEqEnd float64
	}{
		// prices 10 11 12 13 14; long 1 on bar 0, exit on bar 2
		{name: "open", onClose: false, entryBar: 1, exitBar: 3, wantPnL: 2, wantEqEnd: 1002},
		{name: "close", onClose: true, entryBar: 0, exitBar: 2, wantPnL: 2, wantEqEnd: 1002},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEngine(t, flatBars(10, 11, 12, 13, 14), Config{FillsOnClose: tt.onClose})
			require.NoError(t, e.SignalBatch([]sim.Signal{sim.Long(), sim.Hold(), sim.ExitAll()}))

			closed := e.ClosedTrades()
			require.Len(t, closed, 1)
			assert.Equal(t, tt.entryBar, closed[0].Entry.FillBarIndex)
			assert.Equal(t, tt.exitBar, closed[0].Exit.FillBarIndex)
			assert.InDelta(t, tt.wantPnL, closed[0].PnL, 1e-9)
			assert.InDelta(t, tt.wantEqEnd, e.Equity(), 1e-9)

			// exit fill bar >= entry fill bar + (0 on close, 1 on open)
			gap := 1
			if tt.onClose {
				gap = 0
			}
			assert.GreaterOrEqual(t, closed[0].Exit.FillBarIndex, closed[0].Entry.FillBarIndex+gap)
		})
	}
}

func TestEquityIdentity(t *testing.T) {
	t.Parallel()

	e := newEngine(t, flatBars(10, 12, 9, 11, 15, 14, 8), Config{})
	signals := []sim.Signal{sim.Long(), sim.Hold(), sim.Short(), sim.Hold(), sim.SizedContracts(3), sim.ExitAll(), sim.Hold()}
	for _, sig := range signals {
		ok, err := e.Step(sig)
		require.NoError(t, err)
		require.True(t, ok)

		eq := e.EquitySeries()
		net := e.NetEquitySeries()
		assert.InDelta(t, 1000+e.NetProfit()+e.OpenProfit(), eq[len(eq)-1], 1e-9)
		assert.InDelta(t, 1000+e.NetProfit(), net[len(net)-1], 1e-9)
		assert.Equal(t, e.Bar()+1, len(eq), "one sample per bar")

		var open float64
		for _, tr := range e.OpenTrades() {
			open += tr.SignedSize()
		}
		assert.InDelta(t, open, e.PositionSize(), 1e-9)
	}
	require.NoError(t, e.Finish())
}

func TestDeterministic(t *testing.T) {
	t.Parallel()

	data := flatBars(100, 101, 99, 104, 103, 98, 97, 105, 110, 108)
	signals := []sim.Signal{
		sim.EquityPercent(0.5), sim.Hold(), sim.Short(), sim.Hold(), sim.Long(),
		sim.SizedContracts(-2.5), sim.ExitAll(), sim.LongEntry(), sim.Hold(), sim.Hold(),
	}
	run := func() *Engine {
		e := newEngine(t, data, Config{SymInfo: &market.SymInfo{MinTick: 0.01, MinQty: 0.1, PointValue: 1}})
		require.NoError(t, e.SignalBatch(signals))
		return e
	}
	a, b := run(), run()
	assert.Equal(t, a.ClosedTrades(), b.ClosedTrades())
	assert.Equal(t, a.OpenTrades(), b.OpenTrades())
	assert.Equal(t, a.EquitySeries(), b.EquitySeries())
	assert.Equal(t, a.Fills(), b.Fills())
}

func TestOnBarCloseIdempotent(t *testing.T) {
	t.Parallel()

	e := newEngine(t, flatBars(10, 11, 12), Config{FillsOnClose: true})
	require.True(t, e.Next())
	_, err := e.Signal(sim.SizedContracts(2))
	require.NoError(t, err)
	require.NoError(t, e.OnBarClose())
	first := e.Snapshot()
	require.NoError(t, e.OnBarClose())

	assert.Len(t, e.EquitySeries(), 1)
	assert.Equal(t, first.Equity, e.Snapshot().Equity)
	assert.Equal(t, first.Risk, e.Snapshot().Risk)
	assert.Equal(t, 2.0, e.PositionSize())
	assert.Len(t, e.Fills(), 1)
}

func TestSkipToBar(t *testing.T) {
	t.Parallel()

	e := newEngine(t, flatBars(10, 11, 12, 13, 14, 15), Config{})
	require.NoError(t, e.SkipToBar(3))
	assert.Equal(t, 2, e.Bar())
	assert.Len(t, e.EquitySeries(), 3)

	ok, err := e.Step(sim.Long())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, e.PendingOrders(), 1)
	assert.Equal(t, 3, e.PendingOrders()[0].BarIndex)

	require.NoError(t, e.SkipBars(1))
	assert.Equal(t, 4, e.Bar())
	require.Len(t, e.OpenTrades(), 1)
	assert.Equal(t, 4, e.OpenTrades()[0].Entry.FillBarIndex)

	require.NoError(t, e.SkipRemaining())
	assert.Len(t, e.EquitySeries(), 6)
	assert.InDelta(t, 1001, e.Equity(), 1e-9)
	assert.False(t, e.Next())
}

func TestOrderErrors(t *testing.T) {
	t.Parallel()

	e := newEngine(t, flatBars(10, 10, 10), Config{SymInfo: &market.SymInfo{MinTick: 0.01, MinQty: 1, PointValue: 1}})
	require.True(t, e.Next())

	o, err := e.Signal(sim.SizedContracts(0.4))
	assert.ErrorIs(t, err, sim.ErrIgnoredSize)
	assert.Nil(t, o)

	o, err = e.Signal(sim.SizedContracts(math.NaN()))
	assert.ErrorIs(t, err, sim.ErrInvalidQty)
	assert.Nil(t, o)

	o, err = e.Signal(sim.Hold())
	assert.NoError(t, err)
	assert.Nil(t, o)

	require.NoError(t, e.SkipRemaining())
	assert.Equal(t, 0.0, e.PositionSize())
	assert.Empty(t, e.Fills())
	assert.NoError(t, e.Err())
}

func TestNaNOpenKeepsOrderQueued(t *testing.T) {
	t.Parallel()

	bars := flatBars(10, 11, 12, 13).Bars()
	bars[1].Open = math.NaN()
	e := newEngine(t, market.NewSeries(bars), Config{})

	ok, err := e.Step(sim.SizedContracts(1))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = e.Step(sim.Hold())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, e.PendingOrders(), 1)

	require.NoError(t, e.SkipRemaining())
	fills := e.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, 0, fills[0].OrderBarIndex)
	assert.Equal(t, 2, fills[0].FillBarIndex)
	assert.Equal(t, 12.0, fills[0].Price)
}

func TestConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero capital", cfg: Config{}},
		{name: "negative capital", cfg: Config{InitialCapital: -1}},
		{name: "negative qty", cfg: Config{InitialCapital: 1000, DefaultQty: -1}},
		{name: "nan rate", cfg: Config{InitialCapital: 1000, ExchangeRate: math.NaN()}},
		{name: "bad symbol", cfg: Config{InitialCapital: 1000, SymInfo: &market.SymInfo{MinTick: 0.01, PointValue: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(flatBars(1, 2), tt.cfg)
			assert.ErrorIs(t, err, market.ErrConfig)
		})
	}

	_, err := New(nil, Config{InitialCapital: 1})
	assert.ErrorIs(t, err, market.ErrConfig)
}

func TestProviderSymInfo(t *testing.T) {
	t.Parallel()

	si := market.SymInfo{MinTick: 0.25, MinQty: 1, PointValue: 50}
	bars := flatBars(4000, 4001, 4002).Bars()
	e := newEngine(t, market.NewSeries(bars, market.WithSymInfo(si)), Config{InitialCapital: 100000})
	assert.Equal(t, si, e.SymInfo())

	require.NoError(t, e.SignalBatch([]sim.Signal{sim.SizedContracts(1)}))
	// one contract, one point, fifty per point
	assert.InDelta(t, 50, e.OpenProfit(), 1e-9)
}

type memJournal struct {
	trades []journal.TradeRecord
	equity []journal.EquitySnapshot
}

func (m *memJournal) RecordTrade(r journal.TradeRecord) error {
	m.trades = append(m.trades, r)
	return nil
}

func (m *memJournal) RecordEquity(s journal.EquitySnapshot) error {
	m.equity = append(m.equity, s)
	return nil
}

func (m *memJournal) Close() error { return nil }

func TestJournalHooks(t *testing.T) {
	t.Parallel()

	j := &memJournal{}
	e := newEngine(t, flatBars(10, 11, 12, 13, 14), Config{Journal: j, RunID: "run-1", Instrument: "TEST"})
	require.NoError(t, e.SignalMap(map[int]sim.Signal{
		0: sim.SizedContracts(2).WithTag("in"),
		2: sim.ExitAll().WithTag("out"),
	}))

	require.Len(t, j.trades, 1)
	tr := j.trades[0]
	assert.Equal(t, "run-1", tr.RunID)
	assert.Equal(t, "TEST", tr.Instrument)
	assert.Equal(t, "long", tr.Direction)
	assert.Equal(t, 1, tr.EntryBar)
	assert.Equal(t, 3, tr.ExitBar)
	assert.Equal(t, "out", tr.Reason)
	assert.InDelta(t, 4, tr.RealizedPL, 1e-9)
	assert.InDelta(t, 4, tr.MaxRunUp, 1e-9)
	assert.Equal(t, t0.Add(time.Hour), tr.OpenTime)

	require.Len(t, j.equity, 5)
	for i, s := range j.equity {
		assert.Equal(t, i, s.Bar)
		assert.Equal(t, "run-1", s.RunID)
	}
	assert.InDelta(t, 1004, j.equity[4].Equity, 1e-9)
	assert.InDelta(t, 1002, j.equity[2].Equity, 1e-9)
}

type scriptedStrategy struct {
	resets int
	bars   []int
	want   map[int]sim.Signal
}

func (s *scriptedStrategy) Name() string { return "scripted" }
func (s *scriptedStrategy) Reset()       { s.resets++ }

func (s *scriptedStrategy) OnBar(ctx *Context) sim.Signal {
	s.bars = append(s.bars, ctx.Bar())
	if sig, ok := s.want[ctx.Bar()]; ok {
		return sig
	}
	return sim.Hold()
}

func TestRunStrategy(t *testing.T) {
	t.Parallel()

	var progress []int
	e := newEngine(t, flatBars(10, 11, 12, 13), Config{Progress: func(bar, last int) {
		progress = append(progress, bar)
		assert.Equal(t, 3, last)
	}})
	s := &scriptedStrategy{want: map[int]sim.Signal{0: sim.Long(), 1: sim.Long()}}
	require.NoError(t, e.Run(context.Background(), s))

	assert.Equal(t, 1, s.resets)
	assert.Equal(t, []int{0, 1, 2, 3}, s.bars)
	assert.Equal(t, []int{0, 1, 2, 3}, progress)
	// the second Long is ignored: already long
	assert.Len(t, e.Fills(), 1)
	assert.Equal(t, 1.0, e.PositionSize())
	assert.InDelta(t, 2, e.OpenProfit(), 1e-9)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(t, flatBars(10, 11), Config{})
	err := e.Run(ctx, &scriptedStrategy{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBacktestRunAndReport(t *testing.T) {
	t.Parallel()

	e := newEngine(t, flatBars(10, 11, 12, 13, 14), Config{RunID: "r1", Instrument: "TEST"})
	require.NoError(t, e.SignalMap(map[int]sim.Signal{0: sim.Long(), 2: sim.ExitAll()}))

	r := e.BacktestRun(RunMeta{Strategy: "scripted", Dataset: "flat.csv"})
	assert.Equal(t, "r1", r.RunID)
	assert.Equal(t, 5, r.Bars)
	assert.Equal(t, 1, r.Trades)
	assert.Equal(t, 1, r.Wins)
	assert.InDelta(t, 2, r.NetPL, 1e-9)
	assert.InDelta(t, 0.2, r.ReturnPct, 1e-9)
	assert.Equal(t, t0, r.Start)
	assert.Equal(t, t0.Add(4*time.Hour), r.End)
	assert.False(t, r.Created.IsZero())

	var buf bytes.Buffer
	PrintReport(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "Run ID:        r1")
	assert.Contains(t, out, "Win Rate:      100.00%")
	assert.Contains(t, out, "Net P/L:       2.00")
	assert.Contains(t, out, "Fills On:      open")
}

func TestFillTimes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		onClose   bool
		wantEntry time.Time
		wantExit  time.Time
	}{
		// bar i opens at t0+i and closes at t0+i+1
		{name: "open", onClose: false, wantEntry: t0.Add(time.Hour), wantExit: t0.Add(2 * time.Hour)},
		{name: "close", onClose: true, wantEntry: t0.Add(time.Hour), wantExit: t0.Add(2 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			j := &memJournal{}
			e := newEngine(t, flatBars(10, 11, 12), Config{FillsOnClose: tt.onClose, Journal: j})
			require.NoError(t, e.SignalBatch([]sim.Signal{sim.SizedContracts(1), sim.ExitAll(), sim.Hold()}))

			fills := e.Fills()
			require.NotEmpty(t, fills)
			assert.Equal(t, tt.wantEntry, fills[0].Time)

			require.Len(t, j.trades, 1)
			assert.Equal(t, tt.wantEntry, j.trades[0].OpenTime)
			assert.Equal(t, tt.wantExit, j.trades[0].CloseTime)
		})
	}
}

func TestSameOpenOrdersNet(t *testing.T) {
	t.Parallel()

	step := func(t *testing.T, e *Engine, sigs ...sim.Signal) {
		t.Helper()
		require.True(t, e.Next())
		for _, sig := range sigs {
			_, err := e.Signal(sig)
			require.NoError(t, err)
		}
		require.NoError(t, e.OnBarClose())
	}

	t.Run("same bar cancels", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, flatBars(10, 11, 12, 13), Config{})
		step(t, e, sim.SizedContracts(1), sim.SizedContracts(-1))
		step(t, e)
		assert.Empty(t, e.Fills())
		assert.Empty(t, e.OpenTrades())
		assert.Empty(t, e.ClosedTrades())
		assert.Empty(t, e.PendingOrders())
	})

	t.Run("same bar flips", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, flatBars(10, 11, 12, 13), Config{})
		step(t, e, sim.SizedContracts(1).WithTag("a"), sim.SizedContracts(-3).WithTag("b"))
		step(t, e)
		require.Len(t, e.Fills(), 1)
		assert.Equal(t, "a", e.Fills()[0].Tag)
		assert.Empty(t, e.ClosedTrades())
		require.Len(t, e.OpenTrades(), 1)
		assert.InDelta(t, -2, e.PositionSize(), 1e-9)
	})

	t.Run("delayed by nan open", func(t *testing.T) {
		t.Parallel()
		bars := flatBars(10, 11, 12, 13).Bars()
		bars[1].Open = math.NaN()
		e := newEngine(t, market.NewSeries(bars), Config{})
		step(t, e, sim.SizedContracts(1))
		step(t, e, sim.SizedContracts(-1))
		step(t, e)
		assert.Empty(t, e.Fills())
		assert.Empty(t, e.ClosedTrades())
		assert.InDelta(t, 0, e.PositionSize(), 1e-9)
	})

	t.Run("close mode keeps each order", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, flatBars(10, 11, 12), Config{FillsOnClose: true})
		step(t, e, sim.SizedContracts(1), sim.SizedContracts(-1))
		assert.Len(t, e.Fills(), 2)
		require.Len(t, e.ClosedTrades(), 1)
		closed := e.ClosedTrades()[0]
		assert.Equal(t, closed.Entry.FillBarIndex, closed.Exit.FillBarIndex)
	})
}
