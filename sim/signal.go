package sim

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barsim/market"
)

// Action is the kind of trading intent a Signal expresses.
type Action int

const (
	ActHold Action = iota
	ActLong
	ActShort
	ActLongEntry
	ActShortEntry
	ActLongExit
	ActShortExit
	ActExitAll
	ActSizedContracts
	ActEquityPercent
)

var actionNames = [...]string{
	ActHold:           "hold",
	ActLong:           "long",
	ActShort:          "short",
	ActLongEntry:      "long_entry",
	ActShortEntry:     "short_entry",
	ActLongExit:       "long_exit",
	ActShortExit:      "short_exit",
	ActExitAll:        "exit_all",
	ActSizedContracts: "sized",
	ActEquityPercent:  "equity_pct",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// Signal is a strategy's intent for the current bar.
type Signal struct {
	Action  Action
	Value   float64 // contracts for ActSizedContracts, fraction for ActEquityPercent
	Tag     string
	Comment string
}

func Hold() Signal       { return Signal{Action: ActHold} }
func Long() Signal       { return Signal{Action: ActLong} }
func Short() Signal      { return Signal{Action: ActShort} }
func LongEntry() Signal  { return Signal{Action: ActLongEntry} }
func ShortEntry() Signal { return Signal{Action: ActShortEntry} }
func LongExit() Signal   { return Signal{Action: ActLongExit} }
func ShortExit() Signal  { return Signal{Action: ActShortExit} }
func ExitAll() Signal    { return Signal{Action: ActExitAll} }

// SizedContracts orders exactly qty contracts; the sign is the direction.
func SizedContracts(qty float64) Signal {
	return Signal{Action: ActSizedContracts, Value: qty}
}

// EquityPercent targets a position worth pct of equity (0.5 = half).
// Negative pct targets a short position.
func EquityPercent(pct float64) Signal {
	return Signal{Action: ActEquityPercent, Value: pct}
}

// WithTag returns s carrying tag as its order id.
func (s Signal) WithTag(tag string) Signal {
	s.Tag = tag
	return s
}

// WithComment returns s carrying comment.
func (s Signal) WithComment(comment string) Signal {
	s.Comment = comment
	return s
}

func (s Signal) String() string {
	switch s.Action {
	case ActSizedContracts, ActEquityPercent:
		return fmt.Sprintf("%s(%v)", s.Action, s.Value)
	}
	return s.Action.String()
}

// Account is the state a SignalAdapter sizes against.
type Account struct {
	Equity   float64
	Position float64
	Price    float64
}

// SignalAdapter converts signals into signed order sizes.
type SignalAdapter struct {
	sym          market.SymInfo
	defaultQty   float64
	exchangeRate float64

	lastPct    float64
	hasLastPct bool
}

// NewSignalAdapter returns an adapter that enters defaultQty contracts on
// directional signals. exchangeRate converts account currency into the
// instrument's quote currency; 0 means 1.
func NewSignalAdapter(sym market.SymInfo, defaultQty, exchangeRate float64) *SignalAdapter {
	if exchangeRate == 0 {
		exchangeRate = 1
	}
	return &SignalAdapter{
		sym:          sym,
		defaultQty:   math.Abs(defaultQty),
		exchangeRate: exchangeRate,
	}
}

// Size returns the signed order size for s, and false when s produces no
// order. SizedContracts passes its quantity through unrounded so the queue
// can reject bad input.
func (a *SignalAdapter) Size(s Signal, acct Account) (float64, bool) {
	pos := a.sym.RoundQty(acct.Position)

	var size float64
	switch s.Action {
	case ActHold:
		return 0, false
	case ActLong:
		if pos > 0 {
			return 0, false
		}
		size = a.defaultQty - pos
	case ActShort:
		if pos < 0 {
			return 0, false
		}
		size = -a.defaultQty - pos
	case ActLongEntry:
		if pos != 0 {
			return 0, false
		}
		size = a.defaultQty
	case ActShortEntry:
		if pos != 0 {
			return 0, false
		}
		size = -a.defaultQty
	case ActLongExit:
		if pos <= 0 {
			return 0, false
		}
		size = -pos
	case ActShortExit:
		if pos >= 0 {
			return 0, false
		}
		size = -pos
	case ActExitAll:
		if pos == 0 {
			return 0, false
		}
		size = -pos
	case ActSizedContracts:
		a.hasLastPct = false
		return s.Value, true
	case ActEquityPercent:
		return a.equityPercent(s.Value, acct, pos)
	default:
		return 0, false
	}
	a.hasLastPct = false
	return size, true
}

func (a *SignalAdapter) equityPercent(pct float64, acct Account, pos float64) (float64, bool) {
	target := math.Copysign(math.Abs(pct)*acct.Equity*a.exchangeRate, pct) / (acct.Price * a.sym.PointValue)
	size := a.sym.RoundQty(target - pos)
	if math.IsNaN(size) || math.IsInf(size, 0) || size == 0 {
		return 0, false
	}
	if a.hasLastPct && size == a.lastPct {
		return 0, false
	}
	a.lastPct = size
	a.hasLastPct = true
	return size, true
}
