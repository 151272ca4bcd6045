package journal

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"text/template"
	"time"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID   string
	Created time.Time
	Dataset string

	// Instrument traded in this backtest
	Instrument   string
	Strategy     string
	Config       []byte // YAML of the run configuration
	FillsOnClose bool

	// Bar range covered
	Start time.Time
	End   time.Time
	Bars  int

	// Results
	Trades int
	Wins   int
	Losses int

	// account info
	StartBalance float64
	EndBalance   float64

	// Derived / computed in Go
	NetPL        float64
	ReturnPct    float64
	WinRate      float64
	ProfitFactor float64
	Sharpe       float64
	MaxDDPct     float64

	OrgPath string

	Notes []string
}

func num(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", x)
}

var backtestOrgFuncs = template.FuncMap{
	"num":    num,
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"fill": func(onClose bool) string {
		if onClose {
			return "close"
		}
		return "open"
	},
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// WriteOrg renders the run as an Org-mode block.
func (v *BacktestRun) WriteOrg(w io.Writer) error {
	return backtestOrg.Execute(w, v)
}

// WriteBacktestOrg renders the run to OrgPath.
func (v *BacktestRun) WriteBacktestOrg() error {
	if v.OrgPath == "" {
		return fmt.Errorf("backtest %s: no org path", v.RunID)
	}
	buf := new(bytes.Buffer)
	if err := v.WriteOrg(buf); err != nil {
		return err
	}
	return os.WriteFile(v.OrgPath, buf.Bytes(), 0644)
}

const BacktestOrgTemplate = `* BACKTEST: {{.Strategy}} {{.Instrument}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:INSTRUMENT:  {{.Instrument}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:FILLS_ON:    {{fill .FillsOnClose}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_BAL:   {{num .StartBalance}}
:END_BAL:     {{num .EndBalance}}
:NET_PL:      {{num .NetPL}}
:RETURN_PCT:  {{num .ReturnPct}}
:MAX_DD_PCT:  {{num .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{num .WinRate}}
:PROFIT_FAC:  {{num .ProfitFactor}}
:SHARPE:      {{num .Sharpe}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Configuration
#+begin_src yaml
{{printf "%s" .Config}}
#+end_src

** Performance Summary
- Net P/L:          *{{num .NetPL}}*
- Return:           *{{num .ReturnPct}}%*
- Max Drawdown:     *{{num .MaxDDPct}}%*
- Win Rate:         *{{num (mul100 .WinRate)}}%*
- Profit Factor:    *{{num .ProfitFactor}}*
- Sharpe:           *{{num .Sharpe}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
