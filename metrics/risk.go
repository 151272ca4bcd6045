package metrics

// RiskStats describes the equity curve's excursions.
type RiskStats struct {
	Peak   float64
	Trough float64

	Drawdown       float64 // current distance below Peak
	MaxDrawdown    float64
	MaxDrawdownPct float64
	MaxRunUp       float64
	MaxRunUpPct    float64

	// Worst open loss of the position since the last trade close. Reset to
	// zero whenever a trade closes.
	IntraTradeDrawdown    float64
	MaxIntraTradeDrawdown float64
}

// Risk tracks drawdown from peak, run-up from trough and the intra-trade
// drawdown of the current position.
type Risk struct {
	cur     RiskStats
	prev    RiskStats
	lastBar int
	started bool
}

func NewRisk() *Risk { return &Risk{} }

func (r *Risk) Next(s State) RiskStats {
	if r.started && s.Bar == r.lastBar {
		r.cur = r.prev
	} else {
		r.prev = r.cur
	}
	first := !r.started
	r.started = true
	r.lastBar = s.Bar

	st := &r.cur
	if len(s.Closed) > 0 {
		st.IntraTradeDrawdown = 0
	}
	if s.OpenTrades > 0 && finite(s.OpenProfit) && -s.OpenProfit > st.IntraTradeDrawdown {
		st.IntraTradeDrawdown = -s.OpenProfit
	}
	if st.IntraTradeDrawdown > st.MaxIntraTradeDrawdown {
		st.MaxIntraTradeDrawdown = st.IntraTradeDrawdown
	}

	eq := s.Equity()
	if !finite(eq) {
		return *st
	}
	if first || eq > st.Peak {
		st.Peak = eq
	}
	if first || eq < st.Trough {
		st.Trough = eq
	}

	st.Drawdown = st.Peak - eq
	if st.Drawdown > st.MaxDrawdown {
		st.MaxDrawdown = st.Drawdown
	}
	if st.Peak > 0 && st.Drawdown/st.Peak > st.MaxDrawdownPct {
		st.MaxDrawdownPct = st.Drawdown / st.Peak
	}
	up := eq - st.Trough
	if up > st.MaxRunUp {
		st.MaxRunUp = up
	}
	if st.Trough > 0 && up/st.Trough > st.MaxRunUpPct {
		st.MaxRunUpPct = up / st.Trough
	}
	return *st
}

// Stats returns the latest statistics.
func (r *Risk) Stats() RiskStats { return r.cur }
