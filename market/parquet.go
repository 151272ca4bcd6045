package market

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
)

// BarRecord is the Parquet schema for bar files.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms, bar open
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// LoadParquet reads a bar file written by WriteParquet (or any file with the
// BarRecord schema). Rows are sorted by timestamp.
func LoadParquet(path string, opts ...SeriesOption) (*Series, error) {
	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read parquet %s: %w", path, ErrNoBars)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp < records[j].Timestamp })

	bars := make([]Bar, len(records))
	for i, r := range records {
		bars[i] = Bar{
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			OpenTime: time.UnixMilli(r.Timestamp).UTC(),
		}
	}
	fillCloseTimes(bars)

	if records[0].Symbol != "" {
		opts = append([]SeriesOption{WithInstrument(records[0].Symbol)}, opts...)
	}
	return NewSeries(bars, opts...), nil
}

// WriteParquet stores bars for symbol at path, creating parent directories.
func WriteParquet(path, symbol string, bars []Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Symbol:    symbol,
			Timestamp: b.OpenTime.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return parquet.WriteFile(path, records)
}
