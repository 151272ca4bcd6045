package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/barsim/backtest"
	"github.com/rustyeddy/barsim/market"
)

// Config is the complete run configuration.
type Config struct {
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Symbol   SymbolConfig   `json:"symbol" yaml:"symbol"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Report   ReportConfig   `json:"report" yaml:"report"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// EngineConfig mirrors backtest.Config.
type EngineConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	FillsOnClose   bool    `json:"fills_on_close" yaml:"fills_on_close"`
	Debug          bool    `json:"debug,omitempty" yaml:"debug,omitempty"`
	DefaultQty     float64 `json:"default_qty,omitempty" yaml:"default_qty,omitempty"`
	ExchangeRate   float64 `json:"exchange_rate,omitempty" yaml:"exchange_rate,omitempty"`
	RiskFreeRate   float64 `json:"risk_free_rate,omitempty" yaml:"risk_free_rate,omitempty"`
}

// SymbolConfig overrides the instrument parameters of the data source.
// All zero means use the source's (or the default) parameters.
type SymbolConfig struct {
	MinTick    float64 `json:"min_tick,omitempty" yaml:"min_tick,omitempty"`
	MinQty     float64 `json:"min_qty,omitempty" yaml:"min_qty,omitempty"`
	PointValue float64 `json:"point_value,omitempty" yaml:"point_value,omitempty"`
}

// DataConfig selects the bar source.
type DataConfig struct {
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"` // csv, parquet or postgres; empty guesses from path
	DSN      string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Ticker   string `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"`
	Start    string `json:"start,omitempty" yaml:"start,omitempty"` // RFC3339 or 2006-01-02
	End      string `json:"end,omitempty" yaml:"end,omitempty"`
}

// StrategyConfig names a bundled strategy and its parameters.
type StrategyConfig struct {
	Name      string  `json:"name" yaml:"name"`
	Fast      int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow      int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	ADX       int     `json:"adx,omitempty" yaml:"adx,omitempty"`
	MinADX    float64 `json:"min_adx,omitempty" yaml:"min_adx,omitempty"`
	Qty       float64 `json:"qty,omitempty" yaml:"qty,omitempty"`
	EquityPct float64 `json:"equity_pct,omitempty" yaml:"equity_pct,omitempty"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // none, csv or sqlite
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ReportConfig names optional output files.
type ReportConfig struct {
	ReplayScript string `json:"replay_script,omitempty" yaml:"replay_script,omitempty"`
	OrgPath      string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // text or json
}

// LoadFromFile loads configuration from a YAML or JSON file and validates
// it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, falling back to JSON, on top of Default and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration. Every error wraps market.ErrConfig.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{market.ErrConfig}, args...)...)
	}

	if c.Engine.InitialCapital <= 0 {
		return bad("engine.initial_capital must be positive")
	}
	if c.Engine.DefaultQty < 0 {
		return bad("engine.default_qty must not be negative")
	}
	if c.Engine.ExchangeRate < 0 {
		return bad("engine.exchange_rate must not be negative")
	}
	if si, ok := c.SymInfo(); ok {
		if err := si.Validate(); err != nil {
			return err
		}
	}

	switch c.Data.format() {
	case "csv", "parquet":
		if c.Data.Path == "" {
			return bad("data.path is required for %s data", c.Data.format())
		}
	case "postgres":
		if c.Data.DSN == "" || c.Data.Ticker == "" {
			return bad("data.dsn and data.ticker are required for postgres data")
		}
	case "":
	default:
		return bad("data.format must be csv, parquet or postgres, got %q", c.Data.Format)
	}

	if c.Strategy.Name == "" {
		return bad("strategy.name is required")
	}
	if c.Strategy.Fast < 0 || c.Strategy.Slow < 0 {
		return bad("strategy periods must not be negative")
	}
	if c.Strategy.Fast > 0 && c.Strategy.Slow > 0 && c.Strategy.Fast >= c.Strategy.Slow {
		return bad("strategy.fast must be less than strategy.slow")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return bad("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return bad("journal db_path required for SQLite type")
		}
	default:
		return bad("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return bad("log.format must be text or json")
	}
	return nil
}

// SymInfo returns the symbol override, if any field is set.
func (c *Config) SymInfo() (market.SymInfo, bool) {
	s := c.Symbol
	if s.MinTick == 0 && s.MinQty == 0 && s.PointValue == 0 {
		return market.SymInfo{}, false
	}
	si := market.DefaultSymInfo()
	if s.MinTick != 0 {
		si.MinTick = s.MinTick
	}
	if s.MinQty != 0 {
		si.MinQty = s.MinQty
	}
	if s.PointValue != 0 {
		si.PointValue = s.PointValue
	}
	return si, true
}

// EngineConfig converts to the engine's configuration. Logger, journal
// and run id are left for the caller.
func (c *Config) EngineConfig() backtest.Config {
	bc := backtest.Config{
		InitialCapital: c.Engine.InitialCapital,
		FillsOnClose:   c.Engine.FillsOnClose,
		Debug:          c.Engine.Debug,
		DefaultQty:     c.Engine.DefaultQty,
		ExchangeRate:   c.Engine.ExchangeRate,
		RiskFreeRate:   c.Engine.RiskFreeRate,
		Instrument:     c.Data.Ticker,
	}
	if si, ok := c.SymInfo(); ok {
		bc.SymInfo = &si
	}
	return bc
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			InitialCapital: 10000,
			DefaultQty:     1,
			ExchangeRate:   1,
		},
		Data: DataConfig{
			Path:     "./data/bars.csv",
			Interval: "1h",
		},
		Strategy: StrategyConfig{
			Name: "ema-cross",
			Fast: 10,
			Slow: 30,
			Qty:  1,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
