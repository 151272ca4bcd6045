package market

import (
	"fmt"
	"math"
	"time"
)

// DataProvider is the read-only source of bars an engine runs over. Ticks
// are indexes in [FirstTick, LastTick]. Implementations must not change
// after a run has started.
type DataProvider interface {
	Open(tick int) float64
	High(tick int) float64
	Low(tick int) float64
	Close(tick int) float64
	Volume(tick int) float64
	Time(tick int) time.Time

	FirstTick() int
	LastTick() int

	// SymInfo returns the instrument parameters when the source knows them.
	SymInfo() (SymInfo, bool)
}

// Compile-time interface check.
var _ DataProvider = (*Series)(nil)

// Series is an immutable in-memory DataProvider. It is safe to share one
// Series between concurrent runs.
type Series struct {
	Instrument string

	bars []Bar
	sym  *SymInfo
}

// SeriesOption configures a Series at construction.
type SeriesOption func(*Series)

// WithSymInfo attaches instrument rounding parameters.
func WithSymInfo(si SymInfo) SeriesOption {
	return func(s *Series) { s.sym = &si }
}

// WithInstrument names the series.
func WithInstrument(name string) SeriesOption {
	return func(s *Series) { s.Instrument = name }
}

// NewSeries copies bars into a new Series.
func NewSeries(bars []Bar, opts ...SeriesOption) *Series {
	s := &Series{bars: append([]Bar(nil), bars...)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewSeriesFromArrays builds a Series from parallel OHLCV arrays. times may
// be nil.
func NewSeriesFromArrays(open, high, low, close, volume []float64, times []time.Time, opts ...SeriesOption) (*Series, error) {
	n := len(close)
	if len(open) != n || len(high) != n || len(low) != n {
		return nil, fmt.Errorf("%w: ohlc arrays differ in length", ErrConfig)
	}
	if volume != nil && len(volume) != n {
		return nil, fmt.Errorf("%w: volume array length %d, want %d", ErrConfig, len(volume), n)
	}
	if times != nil && len(times) != n {
		return nil, fmt.Errorf("%w: time array length %d, want %d", ErrConfig, len(times), n)
	}
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{Open: open[i], High: high[i], Low: low[i], Close: close[i], Volume: math.NaN()}
		if volume != nil {
			bars[i].Volume = volume[i]
		}
		if times != nil {
			bars[i].OpenTime = times[i]
			bars[i].CloseTime = times[i]
		}
	}
	s := &Series{bars: bars}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Series) Len() int { return len(s.bars) }

// Bars returns a copy of the underlying bars.
func (s *Series) Bars() []Bar { return append([]Bar(nil), s.bars...) }

// Bar returns a copy of the bar at tick.
func (s *Series) Bar(tick int) (Bar, bool) {
	if tick < 0 || tick >= len(s.bars) {
		return Bar{}, false
	}
	return s.bars[tick], true
}

func (s *Series) Open(tick int) float64   { return s.field(tick, func(b *Bar) float64 { return b.Open }) }
func (s *Series) High(tick int) float64   { return s.field(tick, func(b *Bar) float64 { return b.High }) }
func (s *Series) Low(tick int) float64    { return s.field(tick, func(b *Bar) float64 { return b.Low }) }
func (s *Series) Close(tick int) float64  { return s.field(tick, func(b *Bar) float64 { return b.Close }) }
func (s *Series) Volume(tick int) float64 { return s.field(tick, func(b *Bar) float64 { return b.Volume }) }

func (s *Series) Time(tick int) time.Time {
	if tick < 0 || tick >= len(s.bars) {
		return time.Time{}
	}
	return s.bars[tick].OpenTime
}

func (s *Series) FirstTick() int { return 0 }
func (s *Series) LastTick() int  { return len(s.bars) - 1 }

func (s *Series) SymInfo() (SymInfo, bool) {
	if s.sym == nil {
		return SymInfo{}, false
	}
	return *s.sym, true
}

func (s *Series) field(tick int, get func(*Bar) float64) float64 {
	if tick < 0 || tick >= len(s.bars) {
		return math.NaN()
	}
	return get(&s.bars[tick])
}

// BarSource is implemented by providers that store whole bars, close time
// included.
type BarSource interface {
	Bar(tick int) (Bar, bool)
}

// BarAt reads a full bar from any provider. CloseTime is only known when p
// is a BarSource; otherwise it is left zero.
func BarAt(p DataProvider, tick int) Bar {
	if bs, ok := p.(BarSource); ok {
		if b, ok := bs.Bar(tick); ok {
			return b
		}
	}
	return Bar{
		Open:     p.Open(tick),
		High:     p.High(tick),
		Low:      p.Low(tick),
		Close:    p.Close(tick),
		Volume:   p.Volume(tick),
		OpenTime: p.Time(tick),
	}
}
