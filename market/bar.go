package market

import (
	"math"
	"time"
)

// Bar is one OHLCV observation.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	OpenTime  time.Time
	CloseTime time.Time
}

// Valid reports whether every price field is a finite number and the
// high/low pair brackets open and close.
func (b Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Low <= b.High &&
		b.Low <= b.Open && b.Open <= b.High &&
		b.Low <= b.Close && b.Close <= b.High
}
