package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block. Structured
// facts go in a PROPERTIES drawer for easy search.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("*** Trade %d: %s %s", t.TradeID, t.Direction, t.Instrument)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":TRADE_ID: %d\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":SIZE: %g\n", t.Size))
	b.WriteString(fmt.Sprintf(":ENTRY_BAR: %d\n", t.EntryBar))
	b.WriteString(fmt.Sprintf(":EXIT_BAR: %d\n", t.ExitBar))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.5f\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.5f\n", t.ExitPrice))
	if !t.OpenTime.IsZero() {
		b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", t.OpenTime.UTC().Format(time.RFC3339)))
	}
	if !t.CloseTime.IsZero() {
		b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", t.CloseTime.UTC().Format(time.RFC3339)))
	}
	b.WriteString(fmt.Sprintf(":REALIZED_PL: %.2f\n", t.RealizedPL))
	b.WriteString(fmt.Sprintf(":MAX_RUN_UP: %.2f\n", t.MaxRunUp))
	b.WriteString(fmt.Sprintf(":MAX_DD: %.2f\n", t.MaxDD))
	if t.Reason != "" {
		b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	}
	b.WriteString(":END:\n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}
