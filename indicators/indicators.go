// Package indicators provides the streaming units the bundled strategies
// use. Every type implements stream.Unit: call Next once per bar, read NaN
// as "not ready yet".
package indicators

import (
	"math"

	"github.com/rustyeddy/barsim/market"
	"github.com/rustyeddy/barsim/stream"
)

// Indicator is the descriptive side of a unit: a stable name, the number
// of inputs needed before values become finite, and a way to start over.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many inputs are needed before Next stops returning NaN.
	Warmup() int

	// Reset clears all internal state.
	Reset()
}

// Field selects one price out of a bar.
type Field func(market.Bar) float64

var (
	Open   Field = func(b market.Bar) float64 { return b.Open }
	High   Field = func(b market.Bar) float64 { return b.High }
	Low    Field = func(b market.Bar) float64 { return b.Low }
	Close  Field = func(b market.Bar) float64 { return b.Close }
	Volume Field = func(b market.Bar) float64 { return b.Volume }

	// HL2 is the bar midpoint.
	HL2 Field = func(b market.Bar) float64 { return (b.High + b.Low) / 2 }
)

// Source turns a bar stream into a price stream.
func Source(f Field) stream.Unit[market.Bar, float64] {
	return stream.Func[market.Bar, float64](f)
}

var nan = math.NaN()
