package stream

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ calls int }

func (c *counter) Next(x float64) float64 {
	c.calls++
	return x + float64(c.calls)
}

func TestChainAdvancesBothUnits(t *testing.T) {
	t.Parallel()

	a := &counter{}
	b := &counter{}
	u := Chain[float64, float64, float64](a, b)

	assert.Equal(t, 2.0, u.Next(0)) // (0+1)+1
	assert.Equal(t, 4.0, u.Next(0)) // (0+2)+2
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 2, b.calls)
}

func TestFuncAndMap(t *testing.T) {
	t.Parallel()

	double := Func[float64, float64](func(x float64) float64 { return 2 * x })
	assert.Equal(t, []float64{2, 4, 6}, Map[float64, float64](double, []float64{1, 2, 3}))
}

func TestNz(t *testing.T) {
	t.Parallel()

	nz := Nz{Fallback: 0}
	assert.Equal(t, 0.0, nz.Next(math.NaN()))
	assert.Equal(t, 3.5, nz.Next(3.5))

	// NaN flows through a chain until an explicit Nz
	u := Chain[float64, float64, float64](Func[float64, float64](func(x float64) float64 { return x * 2 }), Nz{Fallback: -1})
	assert.Equal(t, -1.0, u.Next(math.NaN()))

	assert.True(t, AnyNaN(1, math.NaN()))
	assert.False(t, AnyNaN(1, 2))
}

func TestRing(t *testing.T) {
	t.Parallel()

	r := NewRing[int](3)
	assert.Equal(t, 3, r.Cap())

	for i := 1; i <= 3; i++ {
		_, evicted := r.Push(i)
		assert.False(t, evicted)
	}
	assert.True(t, r.Full())

	old, evicted := r.Push(4)
	require.True(t, evicted)
	assert.Equal(t, 1, old)

	var got []int
	r.Each(func(v int) { got = append(got, v) })
	assert.Equal(t, []int{2, 3, 4}, got)

	v, ok := r.Back(0)
	require.True(t, ok)
	assert.Equal(t, 4, v)
	v, ok = r.Back(2)
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = r.Back(3)
	assert.False(t, ok)

	r.Reset()
	assert.Equal(t, 0, r.Len())
}
