package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymInfoValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		si      SymInfo
		wantErr bool
	}{
		{"default", DefaultSymInfo(), false},
		{"zero tick", SymInfo{MinTick: 0, MinQty: 1, PointValue: 1}, true},
		{"negative qty", SymInfo{MinTick: 0.01, MinQty: -1, PointValue: 1}, true},
		{"nan point value", SymInfo{MinTick: 0.01, MinQty: 1, PointValue: math.NaN()}, true},
		{"inf tick", SymInfo{MinTick: math.Inf(1), MinQty: 1, PointValue: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.si.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSymInfoRounding(t *testing.T) {
	t.Parallel()

	si := SymInfo{MinTick: 0.25, MinQty: 0.1, PointValue: 1}

	assert.Equal(t, 0.3, si.RoundQty(0.1+0.2))
	assert.Equal(t, 1.2, si.RoundQty(1.16))
	assert.Equal(t, -1.2, si.RoundQty(-1.16))
	assert.Equal(t, 1.1, si.FloorQty(1.19))
	assert.Equal(t, -1.1, si.FloorQty(-1.19))
	assert.Equal(t, 10.25, si.RoundPrice(10.2))
	assert.Equal(t, 0.0, si.RoundQty(0.04))
	assert.False(t, math.Signbit(si.RoundQty(-0.04)))
	assert.True(t, math.IsNaN(si.RoundQty(math.NaN())))
	assert.True(t, math.IsInf(si.RoundQty(math.Inf(-1)), -1))

	whole := SymInfo{MinTick: 0.01, MinQty: 1, PointValue: 1}
	assert.True(t, whole.IsZeroQty(0.4))
	assert.False(t, whole.IsZeroQty(0.6))
}
