package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id INTEGER NOT NULL,
	instrument TEXT NOT NULL,
	direction TEXT NOT NULL,
	size REAL NOT NULL,
	entry_bar INTEGER NOT NULL,
	exit_bar INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	max_run_up REAL NOT NULL,
	max_dd REAL NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	bar INTEGER NOT NULL,
	time DATETIME NOT NULL,
	equity REAL,
	net_equity REAL NOT NULL,
	open_profit REAL,
	position REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_run_bar ON equity(run_id, bar);

CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	dataset TEXT NOT NULL,
	instrument TEXT NOT NULL,
	strategy TEXT NOT NULL,
	config BLOB,
	fills_on_close INTEGER NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	start_balance REAL NOT NULL,
	end_balance REAL,
	net_pl REAL NOT NULL,
	return_pct REAL,
	win_rate REAL,
	profit_factor REAL,
	sharpe REAL,
	max_dd_pct REAL,
	notes TEXT NOT NULL DEFAULT ''
);
`
