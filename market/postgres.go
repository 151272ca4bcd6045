package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrIntervalNotSupported = errors.New("interval not supported")

// bucketForInterval maps the interval names accepted by LoadPostgres to
// TimescaleDB time_bucket widths.
var bucketForInterval = map[string]string{
	"1m":  "1 minute",
	"5m":  "5 minutes",
	"15m": "15 minutes",
	"30m": "30 minutes",
	"1h":  "1 hour",
	"4h":  "4 hours",
	"1d":  "1 day",
	"1w":  "1 week",
}

const aggregatesQuery = `
SELECT time_bucket($1::interval, c.time) AS bucket,
       first(c.open, c.time)  AS open,
       max(c.high)            AS high,
       min(c.low)             AS low,
       last(c.close, c.time)  AS close,
       sum(c.volume)          AS volume
FROM candles c
JOIN assets a ON a.id = c.asset_id
WHERE a.ticker = $2 AND c.time >= $3 AND c.time < $4
GROUP BY bucket
ORDER BY bucket`

// PostgresQuery selects one ticker's bars.
type PostgresQuery struct {
	Ticker   string
	Interval string // one of 1m 5m 15m 30m 1h 4h 1d 1w
	Start    time.Time
	End      time.Time
}

// candleRow mirrors one aggregates row; prices arrive as numeric.
type candleRow struct {
	Bucket time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadPostgres aggregates bars from a TimescaleDB candles table.
func LoadPostgres(ctx context.Context, dbURL string, q PostgresQuery, opts ...SeriesOption) (*Series, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	bars, err := queryBars(ctx, pool, q)
	if err != nil {
		return nil, err
	}
	opts = append([]SeriesOption{WithInstrument(q.Ticker)}, opts...)
	return NewSeries(bars, opts...), nil
}

func queryBars(ctx context.Context, db rowQuerier, q PostgresQuery) ([]Bar, error) {
	bucket, ok := bucketForInterval[q.Interval]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrIntervalNotSupported, q.Interval)
	}
	rows, err := db.Query(ctx, aggregatesQuery, bucket, q.Ticker, q.Start, q.End)
	if err != nil {
		return nil, err
	}
	candles, err := pgx.CollectRows(rows, pgx.RowToStructByPos[candleRow])
	if err != nil {
		return nil, fmt.Errorf("ticker %s: %w", q.Ticker, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("ticker %s: %w", q.Ticker, ErrNoBars)
	}
	return convertCandles(candles), nil
}

func convertCandles(rows []candleRow) []Bar {
	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, Bar{
			Open:     r.Open.InexactFloat64(),
			High:     r.High.InexactFloat64(),
			Low:      r.Low.InexactFloat64(),
			Close:    r.Close.InexactFloat64(),
			Volume:   r.Volume.InexactFloat64(),
			OpenTime: r.Bucket.UTC(),
		})
	}
	fillCloseTimes(bars)
	return bars
}
