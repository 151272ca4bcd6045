package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var ErrRunNotFound = errors.New("backtest run not found")

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

const tradeColumns = `run_id, trade_id, instrument, direction, size, entry_bar, exit_bar, entry_price, exit_price,
		open_time, close_time, realized_pl, max_run_up, max_dd, reason`

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Instrument, t.Direction, t.Size, t.EntryBar, t.ExitBar,
		t.EntryPrice, t.ExitPrice, t.OpenTime, t.CloseTime, t.RealizedPL, t.MaxRunUp, t.MaxDD, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, bar, time, equity, net_equity, open_profit, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Bar, e.Time, nullable(e.Equity), e.NetEquity, nullable(e.OpenProfit), e.Position,
	)
	return err
}

// RecordBacktest stores (or replaces) the summary row of a run.
func (j *SQLiteJournal) RecordBacktest(ctx context.Context, btr BacktestRun) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, dataset, instrument, strategy, config, fills_on_close, start_time, end_time,
		 bars, trades, wins, losses, start_balance, end_balance, net_pl, return_pct, win_rate,
		 profit_factor, sharpe, max_dd_pct, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		btr.RunID, btr.Created, btr.Dataset, btr.Instrument, btr.Strategy, btr.Config, btr.FillsOnClose,
		btr.Start, btr.End, btr.Bars, btr.Trades, btr.Wins, btr.Losses, btr.StartBalance,
		nullable(btr.EndBalance), btr.NetPL, nullable(btr.ReturnPct), nullable(btr.WinRate),
		nullable(btr.ProfitFactor), nullable(btr.Sharpe), nullable(btr.MaxDDPct),
		strings.Join(btr.Notes, "\n"),
	)
	if err != nil {
		return fmt.Errorf("record backtest %s: %w", btr.RunID, err)
	}
	return nil
}

const runColumns = `run_id, created, dataset, instrument, strategy, config, fills_on_close, start_time, end_time,
		bars, trades, wins, losses, start_balance, end_balance, net_pl, return_pct, win_rate,
		profit_factor, sharpe, max_dd_pct, notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (BacktestRun, error) {
	var (
		btr                                  BacktestRun
		endBal, ret, winRate, pf, sharpe, dd sql.NullFloat64
		notes                                string
	)
	err := row.Scan(
		&btr.RunID, &btr.Created, &btr.Dataset, &btr.Instrument, &btr.Strategy, &btr.Config,
		&btr.FillsOnClose, &btr.Start, &btr.End, &btr.Bars, &btr.Trades, &btr.Wins, &btr.Losses,
		&btr.StartBalance, &endBal, &btr.NetPL, &ret, &winRate, &pf, &sharpe, &dd, &notes,
	)
	if err != nil {
		return BacktestRun{}, err
	}
	btr.EndBalance = fromNull(endBal)
	btr.ReturnPct = fromNull(ret)
	btr.WinRate = fromNull(winRate)
	btr.ProfitFactor = fromNull(pf)
	btr.Sharpe = fromNull(sharpe)
	btr.MaxDDPct = fromNull(dd)
	if notes != "" {
		btr.Notes = strings.Split(notes, "\n")
	}
	return btr, nil
}

func (j *SQLiteJournal) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	btr, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BacktestRun{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return btr, err
}

// ListBacktestRuns returns every stored run, newest first.
func (j *SQLiteJournal) ListBacktestRuns(ctx context.Context) ([]BacktestRun, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM backtest_runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		btr, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, btr)
	}
	return out, rows.Err()
}

func scanTrade(row rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := row.Scan(
		&rec.RunID, &rec.TradeID, &rec.Instrument, &rec.Direction, &rec.Size, &rec.EntryBar, &rec.ExitBar,
		&rec.EntryPrice, &rec.ExitPrice, &rec.OpenTime, &rec.CloseTime, &rec.RealizedPL,
		&rec.MaxRunUp, &rec.MaxDD, &rec.Reason,
	)
	return rec, err
}

func (j *SQLiteJournal) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE run_id = ? ORDER BY exit_bar, trade_id`, runID)
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
	return out, rows.Err()
}

func (j *SQLiteJournal) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, bar, time, equity, net_equity, open_profit, position
		FROM equity WHERE run_id = ? ORDER BY bar`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var (
			e          EquitySnapshot
			eq, profit sql.NullFloat64
		)
		if err := rows.Scan(&e.RunID, &e.Bar, &e.Time, &eq, &e.NetEquity, &profit, &e.Position); err != nil {
			return nil, err
		}
		e.Equity = fromNull(eq)
		e.OpenProfit = fromNull(profit)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExportBacktestOrg loads a run with its trades and returns the Org block.
func (j *SQLiteJournal) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	btr, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := btr.WriteOrg(&b); err != nil {
		return "", err
	}
	if len(trades) > 0 {
		b.WriteString("\n** Trades\n")
		b.WriteString(FormatTradesOrg(trades))
	}
	return b.String(), nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// nullable maps NaN to NULL; SQLite has no NaN.
func nullable(x float64) any {
	if math.IsNaN(x) {
		return nil
	}
	return x
}

func fromNull(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}
