// Package sqlite persists candles and daily aggregates in a single SQLite
// file. The schema enforces the same candle invariants the model package
// validates in-process, under matching constraint names, so bad rows cannot
// enter through any path.
package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

func open(dbPath string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	return db, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol          TEXT    NOT NULL,
			interval        TEXT    NOT NULL,
			open_time       INTEGER NOT NULL,
			close_time      INTEGER NOT NULL,
			open            REAL    NOT NULL,
			high            REAL    NOT NULL,
			low             REAL    NOT NULL,
			close           REAL    NOT NULL,
			volume          REAL    NOT NULL,
			quote_volume    REAL    NOT NULL DEFAULT 0,
			trade_count     INTEGER NOT NULL DEFAULT 0,
			taker_buy_base  REAL    NOT NULL DEFAULT 0,
			taker_buy_quote REAL    NOT NULL DEFAULT 0,
			source          TEXT,
			raw             TEXT,
			created_at      INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
			PRIMARY KEY (symbol, interval, open_time),
			CONSTRAINT open_positive   CHECK (open  > 0),
			CONSTRAINT high_positive   CHECK (high  > 0),
			CONSTRAINT low_positive    CHECK (low   > 0),
			CONSTRAINT close_positive  CHECK (close > 0),
			CONSTRAINT volume_non_negative CHECK (volume >= 0),
			CONSTRAINT high_gte_low    CHECK (high >= low),
			CONSTRAINT high_gte_open   CHECK (high >= open),
			CONSTRAINT high_gte_close  CHECK (high >= close),
			CONSTRAINT low_lte_open    CHECK (low <= open),
			CONSTRAINT low_lte_close   CHECK (low <= close),
			CONSTRAINT close_time_after_open_time CHECK (close_time > open_time)
		);

		CREATE INDEX IF NOT EXISTS idx_candles_series
			ON candles (symbol, interval, open_time);

		CREATE TABLE IF NOT EXISTS daily_stats (
			symbol       TEXT    NOT NULL,
			interval     TEXT    NOT NULL,
			date         INTEGER NOT NULL,
			candle_count INTEGER NOT NULL,
			day_open     REAL    NOT NULL,
			day_high     REAL    NOT NULL,
			day_low      REAL    NOT NULL,
			day_close    REAL    NOT NULL,
			day_volume   REAL    NOT NULL,
			avg_price    REAL    NOT NULL,
			updated_at   INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
			PRIMARY KEY (symbol, interval, date)
		);
	`)
	return err
}
