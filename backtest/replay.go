package backtest

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rustyeddy/barsim/sim"
)

// WriteReplayScript writes a Pine script that reproduces the run's fills on
// the charting platform: the trade list as a flat array and one
// strategy.order call per fill, grouped by the bar that created the order.
func (e *Engine) WriteReplayScript(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "//@version=5")
	fmt.Fprintf(bw, "strategy(\"barsim replay\", overlay=true, initial_capital=%s, process_orders_on_close=%t)\n",
		num(e.cfg.InitialCapital), e.cfg.FillsOnClose)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "// trades: entry_bar, entry_price, exit_bar, exit_price, size")
	fmt.Fprintf(bw, "var array<float> trades = %s\n", tradesArray(e.replayTrades()))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "// orders")
	fills := e.ledger.Fills()
	for i := 0; i < len(fills); {
		bar := fills[i].OrderBarIndex
		fmt.Fprintf(bw, "if bar_index == %d\n", bar)
		for ; i < len(fills) && fills[i].OrderBarIndex == bar; i++ {
			f := fills[i]
			fmt.Fprintf(bw, "    strategy.order(%q, strategy.%s, %s)\n", orderID(f), side(f.Size), num(abs(f.Size)))
		}
	}
	return bw.Flush()
}

// replayTrades lists closed trades then open trades, each by trade id.
func (e *Engine) replayTrades() []sim.Trade {
	closed := e.ledger.ClosedTrades()
	sort.SliceStable(closed, func(i, j int) bool { return closed[i].ID < closed[j].ID })
	open := e.ledger.OpenTrades()
	sort.SliceStable(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return append(closed, open...)
}

func tradesArray(trades []sim.Trade) string {
	if len(trades) == 0 {
		return "array.new<float>(0)"
	}
	vals := make([]string, 0, 5*len(trades))
	for _, t := range trades {
		exitBar, exitPrice := "-1", "na"
		if t.Exit != nil {
			exitBar = strconv.Itoa(t.Exit.FillBarIndex)
			exitPrice = num(t.Exit.Price)
		}
		vals = append(vals,
			strconv.Itoa(t.Entry.FillBarIndex),
			num(t.Entry.Price),
			exitBar,
			exitPrice,
			num(t.SignedSize()),
		)
	}
	return "array.from(" + strings.Join(vals, ", ") + ")"
}

func orderID(f sim.Fill) string {
	if f.Tag != "" {
		return f.Tag
	}
	return "order-" + strconv.Itoa(f.OrderID)
}

func side(size float64) string {
	if size < 0 {
		return "short"
	}
	return "long"
}

func num(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
