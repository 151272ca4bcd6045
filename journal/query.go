package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetTrade returns a single trade record of a run.
func (j *SQLiteJournal) GetTrade(runID string, tradeID int) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE run_id = ? AND trade_id = ?`, runID, tradeID)
	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %d of run %q not found", tradeID, runID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades of every run whose close_time is
// within [start, end).
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC, trade_id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TradeStats are aggregates over a run's journaled trades.
type TradeStats struct {
	Trades       int
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64 // zero when there are no losses
}

// RunTradeStats sums a run's trades in SQL.
func (j *SQLiteJournal) RunTradeStats(runID string) (TradeStats, error) {
	var st TradeStats
	err := j.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN realized_pl > 0 THEN realized_pl END), 0),
		       COALESCE(-SUM(CASE WHEN realized_pl < 0 THEN realized_pl END), 0)
		FROM trades WHERE run_id = ?`, runID).Scan(&st.Trades, &st.GrossProfit, &st.GrossLoss)
	if err != nil {
		return TradeStats{}, err
	}
	if st.GrossLoss > 0 {
		st.ProfitFactor = st.GrossProfit / st.GrossLoss
	}
	return st, nil
}
