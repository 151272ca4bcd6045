package metrics

import "math"

// SummaryStats are the trade statistics as of the latest closed trade.
// Ratios whose denominator is zero are NaN.
type SummaryStats struct {
	TotalTrades int
	Wins        int
	Losses      int
	Evens       int

	NetProfit   float64
	GrossProfit float64
	GrossLoss   float64

	WinRate      float64
	ProfitFactor float64
	Sharpe       float64
	Sortino      float64
	Omega        float64

	AvgTrade    float64
	AvgWin      float64
	AvgLoss     float64
	LargestWin  float64
	LargestLoss float64

	MaxConsecutiveLosses int
}

// Summary recomputes SummaryStats whenever trades close. Returns are per
// closed trade: profit divided by net equity just before the close.
type Summary struct {
	riskFree float64

	pnls     []float64
	returns  []float64
	realized float64
	streak   int
	stats    SummaryStats

	lastBar int
	started bool
	mark    summaryMark // state before lastBar
}

type summaryMark struct {
	n        int
	realized float64
	streak   int
	stats    SummaryStats
}

// NewSummary takes the per-trade risk free rate used by Sharpe, Sortino and
// Omega.
func NewSummary(riskFreeRate float64) *Summary {
	s := &Summary{riskFree: riskFreeRate}
	s.stats = s.compute(State{})
	return s
}

// Next folds in st.Closed. A second call for the same bar first undoes
// the trades the previous call for that bar added.
func (s *Summary) Next(st State) SummaryStats {
	if s.started && st.Bar == s.lastBar {
		s.pnls = s.pnls[:s.mark.n]
		s.returns = s.returns[:s.mark.n]
		s.realized = s.mark.realized
		s.streak = s.mark.streak
		s.stats = s.mark.stats
	} else {
		s.mark = summaryMark{n: len(s.pnls), realized: s.realized, streak: s.streak, stats: s.stats}
	}
	s.started = true
	s.lastBar = st.Bar

	if len(st.Closed) == 0 {
		return s.stats
	}
	for _, ct := range st.Closed {
		base := st.InitialCapital + s.realized
		r := math.NaN()
		if base != 0 {
			r = ct.PnL / base
		}
		s.pnls = append(s.pnls, ct.PnL)
		s.returns = append(s.returns, r)
		s.realized += ct.PnL

		if ct.PnL < 0 {
			s.streak++
			if s.streak > s.stats.MaxConsecutiveLosses {
				s.stats.MaxConsecutiveLosses = s.streak
			}
		} else {
			s.streak = 0
		}
	}
	s.stats = s.compute(st)
	return s.stats
}

// Stats returns the latest statistics.
func (s *Summary) Stats() SummaryStats { return s.stats }

// Returns returns the per-trade returns seen so far.
func (s *Summary) Returns() []float64 { return append([]float64(nil), s.returns...) }

func (s *Summary) compute(st State) SummaryStats {
	out := SummaryStats{
		TotalTrades:          len(s.pnls),
		Wins:                 st.Wins,
		Losses:               st.Losses,
		Evens:                st.Evens,
		NetProfit:            st.NetProfit,
		GrossProfit:          st.GrossProfit,
		GrossLoss:            st.GrossLoss,
		MaxConsecutiveLosses: s.stats.MaxConsecutiveLosses,
	}

	out.WinRate = ratio(float64(st.Wins), float64(out.TotalTrades))
	out.ProfitFactor = ratio(st.GrossProfit, st.GrossLoss)
	out.AvgTrade = ratio(st.NetProfit, float64(out.TotalTrades))
	out.AvgWin = ratio(st.GrossProfit, float64(st.Wins))
	out.AvgLoss = ratio(st.GrossLoss, float64(st.Losses))

	out.LargestWin, out.LargestLoss = 0, 0
	for _, p := range s.pnls {
		if p > out.LargestWin {
			out.LargestWin = p
		}
		if p < 0 && -p > out.LargestLoss {
			out.LargestLoss = -p
		}
	}

	out.Sharpe = sharpe(s.returns, s.riskFree)
	out.Sortino = sortino(s.returns, s.riskFree)
	out.Omega = omega(s.returns, s.riskFree)
	return out
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample standard deviation; NaN below two values.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func sharpe(returns []float64, rf float64) float64 {
	sd := stdev(returns)
	if math.IsNaN(sd) {
		return math.NaN()
	}
	return ratio(mean(returns)-rf, sd)
}

func sortino(returns []float64, rf float64) float64 {
	var neg []float64
	for _, r := range returns {
		if r < 0 {
			neg = append(neg, r)
		}
	}
	sd := stdev(neg)
	if math.IsNaN(sd) {
		return math.NaN()
	}
	return ratio(mean(returns)-rf, sd)
}

func omega(returns []float64, rf float64) float64 {
	var up, down float64
	for _, r := range returns {
		if d := r - rf; d > 0 {
			up += d
		} else {
			down -= d
		}
	}
	if len(returns) == 0 {
		return math.NaN()
	}
	return ratio(up, down)
}
