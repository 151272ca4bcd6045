package cmd

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/barsim/backtest"
	"github.com/rustyeddy/barsim/pkg/id"
	"github.com/rustyeddy/barsim/strategies"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run an ema-cross fast/slow grid in parallel",
	Long: `Sweep loads the bars once and runs one engine per fast/slow pair on a
pool of goroutines, then prints the pairs ranked by net profit.

Example:
  barsim sweep --data data/es-1h.csv --fast 5:20:5 --slow 20:60:10`,
	RunE: runSweep,
}

var (
	swData    string
	swFast    string
	swSlow    string
	swWorkers int
	swTop     int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&swData, "data", "i", "", "bar file (.csv, .csv.xz or .parquet)")
	sweepCmd.Flags().StringVar(&swFast, "fast", "5:20:5", "fast periods as min:max:step")
	sweepCmd.Flags().StringVar(&swSlow, "slow", "20:60:10", "slow periods as min:max:step")
	sweepCmd.Flags().IntVarP(&swWorkers, "workers", "w", runtime.NumCPU(), "parallel runs")
	sweepCmd.Flags().IntVar(&swTop, "top", 10, "rows to print (0 = all)")
}

type sweepResult struct {
	Fast, Slow int
	RunID      string
	Trades     int
	NetProfit  float64
	WinRate    float64
	Sharpe     float64
	MaxDD      float64
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data") {
		cfg.Data.Path = swData
		cfg.Data.Format = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg)

	fasts, err := parseRange(swFast)
	if err != nil {
		return fmt.Errorf("--fast: %w", err)
	}
	slows, err := parseRange(swSlow)
	if err != nil {
		return fmt.Errorf("--slow: %w", err)
	}

	series, err := cfg.Data.Load(ctx)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	var grid []sweepResult
	for _, f := range fasts {
		for _, s := range slows {
			if f < s {
				grid = append(grid, sweepResult{Fast: f, Slow: s})
			}
		}
	}
	if len(grid) == 0 {
		return fmt.Errorf("no fast < slow pairs in the grid")
	}
	log.Info("sweep started", "runs", len(grid), "bars", series.Len(), "workers", swWorkers)

	bar := newProgressBar(len(grid), "Sweeping")
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(swWorkers, 1))
	for i := range grid {
		g.Go(func() error {
			r := &grid[i]
			strat, err := strategies.NewEMACross(strategies.EMACrossConfig{
				FastPeriod: r.Fast,
				SlowPeriod: r.Slow,
				ADXPeriod:  cfg.Strategy.ADX,
				MinADX:     cfg.Strategy.MinADX,
			})
			if err != nil {
				return err
			}
			bc := cfg.EngineConfig()
			bc.RunID = id.At(started)
			bc.Logger = log
			e, err := backtest.New(series, bc)
			if err != nil {
				return err
			}
			if err := e.Run(gctx, strat); err != nil {
				return fmt.Errorf("fast=%d slow=%d: %w", r.Fast, r.Slow, err)
			}
			sum := e.Summary()
			r.RunID = bc.RunID
			r.Trades = sum.TotalTrades
			r.NetProfit = e.NetProfit()
			r.WinRate = sum.WinRate
			r.Sharpe = sum.Sharpe
			r.MaxDD = e.MaxDrawdown()
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())

	rankSweep(grid)
	printSweep(cmd, grid, swTop)
	return nil
}

// rankSweep orders by net profit, best first; ties keep grid order.
func rankSweep(rs []sweepResult) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].NetProfit > rs[j].NetProfit })
}

func printSweep(cmd *cobra.Command, rs []sweepResult, top int) {
	if top > 0 && top < len(rs) {
		rs = rs[:top]
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "fast\tslow\ttrades\tnet\twin%\tsharpe\tmax dd\t")
	for _, r := range rs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.2f\t%s\t%s\t%.2f\t\n",
			r.Fast, r.Slow, r.Trades, r.NetProfit, orNA(r.WinRate*100), orNA(r.Sharpe), r.MaxDD)
	}
	tw.Flush()
}

func orNA(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", x)
}

// parseRange parses "min:max:step" (or a single value) into the values it
// covers, inclusive.
func parseRange(s string) ([]int, error) {
	var lo, hi, step int
	n, err := fmt.Sscanf(s, "%d:%d:%d", &lo, &hi, &step)
	switch {
	case n == 1:
		return []int{lo}, nil
	case n == 2 && err != nil:
		step = 1
	case err != nil:
		return nil, fmt.Errorf("bad range %q: %w", s, err)
	}
	if lo <= 0 || hi < lo || step <= 0 {
		return nil, fmt.Errorf("bad range %q", s)
	}
	var out []int
	for v := lo; v <= hi; v += step {
		out = append(out, v)
	}
	return out, nil
}
