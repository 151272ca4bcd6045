package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/barsim/market"
)

// format returns the configured format or guesses it from the path.
func (d DataConfig) format() string {
	if d.Format != "" {
		return strings.ToLower(d.Format)
	}
	switch {
	case d.DSN != "":
		return "postgres"
	case strings.HasSuffix(d.Path, ".parquet"):
		return "parquet"
	case d.Path != "":
		return "csv"
	}
	return ""
}

// Load reads the configured bars.
func (d DataConfig) Load(ctx context.Context, opts ...market.SeriesOption) (*market.Series, error) {
	switch d.format() {
	case "csv":
		if d.Ticker != "" {
			opts = append(opts, market.WithInstrument(d.Ticker))
		}
		return market.LoadCSV(d.Path, opts...)
	case "parquet":
		return market.LoadParquet(d.Path, opts...)
	case "postgres":
		start, err := parseDate(d.Start)
		if err != nil {
			return nil, fmt.Errorf("data.start: %w", err)
		}
		end, err := parseDate(d.End)
		if err != nil {
			return nil, fmt.Errorf("data.end: %w", err)
		}
		if end.IsZero() {
			end = time.Now().UTC()
		}
		return market.LoadPostgres(ctx, d.DSN, market.PostgresQuery{
			Ticker:   d.Ticker,
			Interval: d.Interval,
			Start:    start,
			End:      end,
		}, opts...)
	}
	return nil, fmt.Errorf("%w: no data source configured", market.ErrConfig)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}
