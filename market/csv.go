package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

var ErrNoBars = errors.New("no bars found in datasource")

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadCSV reads bars from a CSV file with the columns
// time,open,high,low,close[,volume]. A header row is detected and skipped.
// Files ending in .xz are decompressed on the fly.
func LoadCSV(path string, opts ...SeriesOption) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		r = xr
	}

	bars, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return NewSeries(bars, opts...), nil
}

// ReadCSV parses bars from r. Rows must be in ascending time order.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && isHeader(row) {
			continue
		}
		b, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(bars); n > 0 && !b.OpenTime.IsZero() && b.OpenTime.Before(bars[n-1].OpenTime) {
			return nil, fmt.Errorf("line %d: time %s before previous bar", line, b.OpenTime.Format(time.RFC3339))
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	fillCloseTimes(bars)
	return bars, nil
}

// WriteCSV writes bars in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		err := cw.Write([]string{
			b.OpenTime.UTC().Format(time.RFC3339),
			ff(b.Open), ff(b.High), ff(b.Low), ff(b.Close), ff(b.Volume),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isHeader(row []string) bool {
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "time" || first == "timestamp" || first == "date"
}

func parseBarRow(row []string) (Bar, error) {
	if len(row) < 5 {
		return Bar{}, fmt.Errorf("bad row (need time,open,high,low,close): %v", row)
	}
	t, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return Bar{}, err
	}
	var px [5]float64
	px[4] = math.NaN()
	names := []string{"open", "high", "low", "close", "volume"}
	for i := 1; i < len(row) && i <= 5; i++ {
		v, err := parseFloat(row[i])
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", names[i-1], row[i], err)
		}
		px[i-1] = v
	}
	return Bar{
		Open:     px[0],
		High:     px[1],
		Low:      px[2],
		Close:    px[3],
		Volume:   px[4],
		OpenTime: t,
	}, nil
}

// parseFloat accepts empty cells and "na"/"nan" as NaN.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTime(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// milliseconds once the value is past year 2286 in seconds
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// fillCloseTimes sets each bar's close time to the next bar's open time and
// extrapolates the last one from the previous spacing.
func fillCloseTimes(bars []Bar) {
	for i := range bars {
		if i+1 < len(bars) {
			bars[i].CloseTime = bars[i+1].OpenTime
			continue
		}
		bars[i].CloseTime = bars[i].OpenTime
		if i > 0 {
			bars[i].CloseTime = bars[i].OpenTime.Add(bars[i].OpenTime.Sub(bars[i-1].OpenTime))
		}
	}
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
