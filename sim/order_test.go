package sim

import (
	"math"
	"testing"

	"github.com/rustyeddy/barsim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderQueueEnqueue(t *testing.T) {
	t.Parallel()

	q := NewOrderQueue(market.SymInfo{MinTick: 0.01, MinQty: 1, PointValue: 1})

	tests := []struct {
		name    string
		size    float64
		wantErr error
		want    float64
	}{
		{"whole", 5, nil, 5},
		{"rounded", -2.6, nil, -3},
		{"below min qty", 0.4, ErrIgnoredSize, 0},
		{"nan", math.NaN(), ErrInvalidQty, 0},
		{"inf", math.Inf(1), ErrInvalidQty, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := q.Enqueue(tt.size, "", "", 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.Size)
		})
	}

	pending := q.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[0].ID)
	assert.Equal(t, 2, pending[1].ID)
}

func TestOrderQueueEligibility(t *testing.T) {
	t.Parallel()

	q := NewOrderQueue(market.DefaultSymInfo())
	_, err := q.Enqueue(1, "a", "", 3)
	require.NoError(t, err)

	_, ok := q.Next(3, FillOnOpen)
	assert.False(t, ok, "open fills wait for the next bar")

	o, ok := q.Next(3, FillOnClose)
	require.True(t, ok)
	assert.Equal(t, "a", o.Tag)
	assert.Equal(t, 0, q.Len())

	_, err = q.Enqueue(1, "b", "", 3)
	require.NoError(t, err)
	o, ok = q.Next(4, FillOnOpen)
	require.True(t, ok)
	assert.Equal(t, "b", o.Tag)

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestOrderQueueNet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sizes    []float64
		bars     []int
		wantOK   bool
		wantSize float64
		wantLeft int
	}{
		{name: "empty", wantOK: false},
		{name: "single", sizes: []float64{2}, bars: []int{0}, wantOK: true, wantSize: 2},
		{name: "cancel", sizes: []float64{1, -1}, bars: []int{0, 0}, wantOK: false},
		{name: "flip", sizes: []float64{1, -3}, bars: []int{0, 0}, wantOK: true, wantSize: -2},
		{name: "stale and fresh", sizes: []float64{1, 0.2}, bars: []int{0, 1}, wantOK: true, wantSize: 1.2},
		{name: "not yet eligible", sizes: []float64{1, -1}, bars: []int{0, 2}, wantOK: true, wantSize: 1, wantLeft: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := NewOrderQueue(market.SymInfo{MinTick: 0.01, MinQty: 0.1, PointValue: 1})
			for i, size := range tt.sizes {
				_, err := q.Enqueue(size, "", "", tt.bars[i])
				require.NoError(t, err)
			}

			o, ok := q.Net(2, FillOnOpen)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLeft, q.Len())
			if !tt.wantOK {
				return
			}
			assert.Equal(t, 1, o.ID)
			assert.Equal(t, 0, o.BarIndex)
			assert.InDelta(t, tt.wantSize, o.Size, 1e-9)
		})
	}
}

func TestExecutionPrice(t *testing.T) {
	t.Parallel()

	s, err := market.NewSeriesFromArrays([]float64{10, 20}, []float64{11, 21}, []float64{9, 19}, []float64{10.5, 20.5}, nil, nil)
	require.NoError(t, err)
	c := market.NewCursor(s)

	assert.True(t, math.IsNaN(ExecutionPrice(c, FillOnOpen)))
	require.True(t, c.Next())
	assert.Equal(t, 10.0, ExecutionPrice(c, FillOnOpen))
	assert.Equal(t, 10.5, ExecutionPrice(c, FillOnClose))
}
