package metrics

import "github.com/rustyeddy/barsim/stream"

// Snapshot is every layer's output for one bar.
type Snapshot struct {
	Equity  EquitySample
	Summary SummaryStats
	Risk    RiskStats
}

// Compile-time contract checks.
var (
	_ stream.Unit[State, EquitySample] = (*Equity)(nil)
	_ stream.Unit[State, SummaryStats] = (*Summary)(nil)
	_ stream.Unit[State, RiskStats]    = (*Risk)(nil)
	_ stream.Unit[State, Snapshot]     = (*Stack)(nil)
)

// Stack runs the equity, summary and risk layers in order on the same
// state.
type Stack struct {
	Equity  *Equity
	Summary *Summary
	Risk    *Risk
}

func NewStack(riskFreeRate float64) *Stack {
	return &Stack{
		Equity:  NewEquity(),
		Summary: NewSummary(riskFreeRate),
		Risk:    NewRisk(),
	}
}

func (s *Stack) Next(st State) Snapshot {
	return Snapshot{
		Equity:  s.Equity.Next(st),
		Summary: s.Summary.Next(st),
		Risk:    s.Risk.Next(st),
	}
}
