package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries(t *testing.T, closes ...float64) *Series {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = Bar{
			Open:     c - 1,
			High:     c + 1,
			Low:      c - 2,
			Close:    c,
			Volume:   100,
			OpenTime: base.Add(time.Duration(i) * time.Hour),
		}
	}
	fillCloseTimes(bars)
	return NewSeries(bars)
}

func TestCursorNext(t *testing.T) {
	t.Parallel()

	c := NewCursor(testSeries(t, 10, 11, 12))
	assert.False(t, c.Started())
	assert.False(t, c.OnBar())
	assert.Equal(t, -1, c.Index())
	assert.Equal(t, 3, c.Remaining())
	assert.Equal(t, 3, c.Len())

	var seen []int
	for c.Next() {
		seen = append(seen, c.Index())
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.True(t, c.Done())
	assert.Equal(t, 0, c.Remaining())

	// stays done
	assert.False(t, c.Next())
	assert.Equal(t, 3, c.Index())
}

func TestCursorLookback(t *testing.T) {
	t.Parallel()

	c := NewCursor(testSeries(t, 10, 11, 12))

	// not on a bar yet
	assert.True(t, math.IsNaN(c.Close(0)))
	assert.True(t, c.Time(0).IsZero())

	require.True(t, c.Next())
	require.True(t, c.Next())

	tests := []struct {
		name string
		n    int
		want float64
	}{
		{"current", 0, 11},
		{"one back", 1, 10},
		{"past history", 2, math.NaN()},
		{"negative", -1, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Close(tt.n)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 10.0, c.Open(0))
	assert.Equal(t, 12.0, c.High(0))
	assert.Equal(t, 8.0, c.Low(1))
	assert.Equal(t, 100.0, c.Volume(1))
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), c.Time(0))

	b, ok := c.Bar(1)
	require.True(t, ok)
	assert.Equal(t, 10.0, b.Close)

	b, ok = c.Bar(5)
	assert.False(t, ok)
	assert.True(t, math.IsNaN(b.Open))
}

func TestCursorEmptySeries(t *testing.T) {
	t.Parallel()

	c := NewCursor(NewSeries(nil))
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Next())
	assert.True(t, c.Done())
	assert.True(t, math.IsNaN(c.Close(0)))
}

func TestSeriesFromArrays(t *testing.T) {
	t.Parallel()

	s, err := NewSeriesFromArrays(
		[]float64{1, 2}, []float64{2, 3}, []float64{0.5, 1.5}, []float64{1.5, 2.5},
		nil, nil, WithInstrument("TEST"), WithSymInfo(SymInfo{MinTick: 0.5, MinQty: 1, PointValue: 2}),
	)
	require.NoError(t, err)
	assert.Equal(t, "TEST", s.Instrument)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2.5, s.Close(1))
	assert.True(t, math.IsNaN(s.Volume(0)))
	assert.True(t, math.IsNaN(s.Close(2)))

	si, ok := s.SymInfo()
	require.True(t, ok)
	assert.Equal(t, 2.0, si.PointValue)

	_, err = NewSeriesFromArrays([]float64{1}, []float64{1, 2}, []float64{1}, []float64{1}, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestBarValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Bar{Open: 10, High: 11, Low: 9, Close: 10.5}.Valid())
	assert.False(t, Bar{Open: 10, High: 9, Low: 11, Close: 10}.Valid())
	assert.False(t, Bar{Open: math.NaN(), High: 11, Low: 9, Close: 10}.Valid())
}

// plainProvider hides Series.Bar so BarAt falls back to the field accessors.
type plainProvider struct{ DataProvider }

func TestBarAtCloseTime(t *testing.T) {
	t.Parallel()

	s := testSeries(t, 10, 11, 12)
	open := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)

	b := BarAt(s, 1)
	assert.Equal(t, open, b.OpenTime)
	assert.Equal(t, open.Add(time.Hour), b.CloseTime)

	b = BarAt(plainProvider{s}, 1)
	assert.Equal(t, 11.0, b.Close)
	assert.Equal(t, open, b.OpenTime)
	assert.True(t, b.CloseTime.IsZero())

	c := NewCursor(s)
	require.True(t, c.Next())
	got, ok := c.Bar(0)
	require.True(t, ok)
	assert.Equal(t, open, got.CloseTime)
}
