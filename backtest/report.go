package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rustyeddy/barsim/journal"
)

// RunMeta describes a run for its report row.
type RunMeta struct {
	Dataset  string
	Strategy string
	Config   []byte
	OrgPath  string
	Notes    []string
	Created  time.Time
}

// BacktestRun summarizes the engine's results as a journal row. ReturnPct
// and MaxDDPct are percentages, WinRate a fraction.
func (e *Engine) BacktestRun(meta RunMeta) journal.BacktestRun {
	sum := e.Summary()
	risk := e.Risk()
	end := e.Equity()

	r := journal.BacktestRun{
		RunID:        e.cfg.RunID,
		Created:      meta.Created,
		Dataset:      meta.Dataset,
		Instrument:   e.cfg.Instrument,
		Strategy:     meta.Strategy,
		Config:       meta.Config,
		FillsOnClose: e.cfg.FillsOnClose,
		Bars:         e.stack.Equity.Len(),
		Trades:       sum.TotalTrades,
		Wins:         sum.Wins,
		Losses:       sum.Losses,
		StartBalance: e.cfg.InitialCapital,
		EndBalance:   end,
		NetPL:        end - e.cfg.InitialCapital,
		ReturnPct:    (end - e.cfg.InitialCapital) / e.cfg.InitialCapital * 100,
		WinRate:      sum.WinRate,
		ProfitFactor: sum.ProfitFactor,
		Sharpe:       sum.Sharpe,
		MaxDDPct:     risk.MaxDrawdownPct * 100,
		OrgPath:      meta.OrgPath,
		Notes:        meta.Notes,
	}
	if r.Created.IsZero() {
		r.Created = time.Now().UTC()
	}
	if samples := e.stack.Equity.Samples(); len(samples) > 0 {
		r.Start = samples[0].Time
		r.End = samples[len(samples)-1].Time
	}
	return r
}

// PrintReport writes a plain text summary of r.
func PrintReport(w io.Writer, r journal.BacktestRun) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Instrument:    %s\n", r.Instrument)
	fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	fmt.Fprintf(w, "Fills On:      %s\n", fillName(r.FillsOnClose))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %s\n", pct(r.WinRate*100))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.StartBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.EndBalance)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)

	if r.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}
	if !math.IsNaN(r.Sharpe) {
		fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Sharpe)
	}
	if r.MaxDDPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDDPct)
	}

	if r.OrgPath != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Org Report:    %s\n", r.OrgPath)
	}

	if len(r.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, note := range r.Notes {
			fmt.Fprintf(w, "- %s\n", note)
		}
	}

	fmt.Fprintln(w)
}

func pct(x float64) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", x)
}

func fillName(onClose bool) string {
	if onClose {
		return "close"
	}
	return "open"
}
