package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/barsim/backtest"
	"github.com/rustyeddy/barsim/config"
	"github.com/rustyeddy/barsim/journal"
	"github.com/rustyeddy/barsim/pkg/id"
	"github.com/rustyeddy/barsim/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one strategy over a bar file",
	Long: `Backtest runs a bundled strategy over historical bars and prints a
summary. Flags override the matching config file settings.

Supported strategies:
  - noop: holds on every bar (baseline)
  - open-once: buys --qty contracts on the first bar
  - ema-cross: long/short on fast/slow EMA crossovers
  - percent-of-equity: holds --pct of equity long

Example:
  barsim backtest --data data/es-1h.csv --strategy ema-cross --fast 10 --slow 30`,
	RunE: runBacktest,
}

var (
	btData         string
	btTicker       string
	btStrategy     string
	btFast         int
	btSlow         int
	btQty          float64
	btPct          float64
	btCapital      float64
	btFillsOnClose bool
	btJournal      string
	btDBPath       string
	btTradesFile   string
	btEquityFile   string
	btReplay       string
	btOrg          string
	btProgress     bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btData, "data", "i", "", "bar file (.csv, .csv.xz or .parquet)")
	backtestCmd.Flags().StringVar(&btTicker, "ticker", "", "instrument name")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (noop, open-once, ema-cross, percent-of-equity)")
	backtestCmd.Flags().IntVar(&btFast, "fast", 0, "ema-cross: fast EMA period")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 0, "ema-cross: slow EMA period")
	backtestCmd.Flags().Float64Var(&btQty, "qty", 0, "contracts per entry")
	backtestCmd.Flags().Float64Var(&btPct, "pct", 0, "percent-of-equity: fraction of equity (0.5 = half)")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "b", 0, "initial capital")
	backtestCmd.Flags().BoolVar(&btFillsOnClose, "fills-on-close", false, "fill orders at the bar close instead of the next open")

	backtestCmd.Flags().StringVarP(&btJournal, "journal", "j", "", "journal type: none, csv or sqlite")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "", "SQLite journal path")
	backtestCmd.Flags().StringVar(&btTradesFile, "trades", "", "CSV trades journal path")
	backtestCmd.Flags().StringVar(&btEquityFile, "equity", "", "CSV equity journal path")

	backtestCmd.Flags().StringVar(&btReplay, "replay", "", "write a replay script to this path")
	backtestCmd.Flags().StringVar(&btOrg, "org", "", "write an org-mode report to this path")
	backtestCmd.Flags().BoolVar(&btProgress, "progress", true, "show a progress bar")
}

// applyBacktestFlags copies the flags the user set over cfg.
func applyBacktestFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("data") {
		cfg.Data.Path = btData
		cfg.Data.Format = ""
	}
	if f.Changed("ticker") {
		cfg.Data.Ticker = btTicker
	}
	if f.Changed("strategy") {
		cfg.Strategy.Name = btStrategy
	}
	if f.Changed("fast") {
		cfg.Strategy.Fast = btFast
	}
	if f.Changed("slow") {
		cfg.Strategy.Slow = btSlow
	}
	if f.Changed("qty") {
		cfg.Strategy.Qty = btQty
		cfg.Engine.DefaultQty = btQty
	}
	if f.Changed("pct") {
		cfg.Strategy.EquityPct = btPct
	}
	if f.Changed("capital") {
		cfg.Engine.InitialCapital = btCapital
	}
	if f.Changed("fills-on-close") {
		cfg.Engine.FillsOnClose = btFillsOnClose
	}
	if f.Changed("journal") {
		cfg.Journal.Type = btJournal
	}
	if f.Changed("db") {
		cfg.Journal.DBPath = btDBPath
	}
	if f.Changed("trades") {
		cfg.Journal.TradesFile = btTradesFile
	}
	if f.Changed("equity") {
		cfg.Journal.EquityFile = btEquityFile
	}
	if f.Changed("replay") {
		cfg.Report.ReplayScript = btReplay
	}
	if f.Changed("org") {
		cfg.Report.OrgPath = btOrg
	}
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBacktestFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg)

	series, err := cfg.Data.Load(ctx)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	strat, err := strategies.ByName(cfg.Strategy.Name, strategyParams(cfg))
	if err != nil {
		return err
	}

	runID := id.New()
	bc := cfg.EngineConfig()
	bc.RunID = runID
	bc.Logger = log
	if bc.Instrument == "" {
		bc.Instrument = series.Instrument
	}

	var sqlJ *journal.SQLiteJournal
	switch cfg.Journal.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		bc.Journal = j
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer j.Close()
		bc.Journal = j
		sqlJ = j
	}

	if btProgress {
		bar := newProgressBar(series.Len(), "Backtesting "+strat.Name())
		bc.Progress = func(i, last int) { _ = bar.Set(i + 1) }
		defer bar.Finish()
	}

	e, err := backtest.New(series, bc)
	if err != nil {
		return err
	}
	if err := e.Run(ctx, strat); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	run := e.BacktestRun(backtest.RunMeta{
		Dataset:  cfg.Data.Path,
		Strategy: strat.Name(),
		Config:   cfgYAML,
		OrgPath:  cfg.Report.OrgPath,
		Created:  time.Now().UTC(),
	})

	if sqlJ != nil {
		if err := sqlJ.RecordBacktest(ctx, run); err != nil {
			return fmt.Errorf("record backtest: %w", err)
		}
	}
	if run.OrgPath != "" {
		if err := run.WriteBacktestOrg(); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}
	if cfg.Report.ReplayScript != "" {
		if err := writeReplay(e, cfg.Report.ReplayScript); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.ErrOrStderr())
	backtest.PrintReport(cmd.OutOrStdout(), run)
	return nil
}

func strategyParams(cfg *config.Config) strategies.Params {
	return strategies.Params{
		Fast:      cfg.Strategy.Fast,
		Slow:      cfg.Strategy.Slow,
		ADX:       cfg.Strategy.ADX,
		MinADX:    cfg.Strategy.MinADX,
		Qty:       cfg.Strategy.Qty,
		EquityPct: cfg.Strategy.EquityPct,
	}
}

func writeReplay(e *backtest.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create replay script: %w", err)
	}
	if err := e.WriteReplayScript(f); err != nil {
		f.Close()
		return fmt.Errorf("write replay script: %w", err)
	}
	return f.Close()
}

func newProgressBar(max int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
