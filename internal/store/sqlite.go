package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"quickcap/internal/model"
)

// SQLiteStore persists scan results to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets reporting tools read while the scanner writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set synchronous: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			ts          TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			venue       TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			interval    TEXT NOT NULL,
			side        TEXT NOT NULL,
			price       REAL NOT NULL,
			vwap        REAL,
			rsi         REAL,
			score       REAL NOT NULL,
			triggers    TEXT,
			category    TEXT,
			basis_pct   REAL,
			basis_z     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_key ON signals(venue, symbol, interval)`,

		`CREATE TABLE IF NOT EXISTS executions (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			ts       TEXT NOT NULL,
			venue    TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			side     TEXT NOT NULL,
			price    REAL NOT NULL,
			score    REAL NOT NULL,
			reason   TEXT,
			is_paper INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exec_ts ON executions(ts)`,

		`CREATE TABLE IF NOT EXISTS signal_outcomes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id   INTEGER NOT NULL,
			horizon_m   INTEGER NOT NULL,
			entry_price REAL NOT NULL,
			exit_price  REAL NOT NULL,
			ret         REAL NOT NULL,
			max_fav     REAL NOT NULL,
			max_adv     REAL NOT NULL,
			UNIQUE(signal_id, horizon_m)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// InsertSignal stores a signal and returns its row id.
func (s *SQLiteStore) InsertSignal(sig *model.Signal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trig, err := json.Marshal(sig.Triggers)
	if err != nil {
		return 0, fmt.Errorf("marshal triggers: %w", err)
	}

	var basisPct, basisZ interface{}
	if sig.Type == model.SignalBasis {
		basisPct, basisZ = sig.BasisPct, sig.BasisZ
	}

	res, err := s.db.Exec(`INSERT INTO signals
		(ts, signal_type, venue, symbol, interval, side, price, vwap, rsi, score, triggers, category, basis_pct, basis_z)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sig.Time.UTC().Format(time.RFC3339), string(sig.Type), sig.Venue, sig.Symbol, sig.Interval,
		string(sig.Side), sig.Price, sig.VWAP, sig.RSI, sig.Score, string(trig), string(sig.Category),
		basisPct, basisZ,
	)
	if err != nil {
		return 0, fmt.Errorf("insert signal: %w", err)
	}
	return res.LastInsertId()
}

// InsertExecution stores a paper execution.
func (s *SQLiteStore) InsertExecution(exec *model.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	isPaper := 0
	if exec.IsPaper {
		isPaper = 1
	}
	_, err := s.db.Exec(`INSERT INTO executions
		(ts, venue, symbol, side, price, score, reason, is_paper)
		VALUES (?,?,?,?,?,?,?,?)`,
		exec.Time.UTC().Format(time.RFC3339), exec.Venue, exec.Symbol, string(exec.Side),
		exec.Price, exec.Score, exec.Reason, isPaper,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// SignalsFor returns all signals for one (venue, symbol, interval) key,
// ordered ascending by timestamp.
func (s *SQLiteStore) SignalsFor(venue, symbol, interval string) ([]model.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, ts, signal_type, side, price, vwap, rsi, score, triggers, category
		FROM signals WHERE venue=? AND symbol=? AND interval=? ORDER BY ts ASC`,
		venue, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var sig model.Signal
		var ts, trig, cat string
		var vwap, rsi sql.NullFloat64
		var sigType, side string
		if err := rows.Scan(&sig.ID, &ts, &sigType, &side, &sig.Price, &vwap, &rsi, &sig.Score, &trig, &cat); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse signal ts %q: %w", ts, err)
		}
		sig.Time = t
		sig.Type = model.SignalType(sigType)
		sig.Side = model.Side(side)
		sig.Venue, sig.Symbol, sig.Interval = venue, symbol, interval
		sig.VWAP, sig.RSI = vwap.Float64, rsi.Float64
		sig.Category = model.TriggerCategory(cat)
		if trig != "" {
			if err := json.Unmarshal([]byte(trig), &sig.Triggers); err != nil {
				return nil, fmt.Errorf("unmarshal triggers: %w", err)
			}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// SignalGroups lists the distinct (venue, symbol, interval) keys that have
// stored signals. Outcome jobs iterate these instead of the configured
// symbol list so hotlist-discovered symbols are covered too.
func (s *SQLiteStore) SignalGroups() ([]SignalGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT DISTINCT venue, symbol, interval FROM signals ORDER BY venue, symbol, interval`)
	if err != nil {
		return nil, fmt.Errorf("query signal groups: %w", err)
	}
	defer rows.Close()

	var out []SignalGroup
	for rows.Next() {
		var g SignalGroup
		if err := rows.Scan(&g.Venue, &g.Symbol, &g.Interval); err != nil {
			return nil, fmt.Errorf("scan signal group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpsertOutcomes writes outcome rows, replacing any previous row with the
// same (signal_id, horizon_m) key so repeated runs converge.
func (s *SQLiteStore) UpsertOutcomes(rows []model.Outcome) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin outcomes tx: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO signal_outcomes
		(signal_id, horizon_m, entry_price, exit_price, ret, max_fav, max_adv)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(signal_id, horizon_m) DO UPDATE SET
			entry_price=excluded.entry_price,
			exit_price=excluded.exit_price,
			ret=excluded.ret,
			max_fav=excluded.max_fav,
			max_adv=excluded.max_adv`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare outcome upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.SignalID, r.HorizonMin, r.EntryPrice, r.ExitPrice, r.Ret, r.MaxFav, r.MaxAdv); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert outcome signal=%d horizon=%d: %w", r.SignalID, r.HorizonMin, err)
		}
	}
	return tx.Commit()
}

// Outcomes returns all stored outcome rows ordered by (signal_id, horizon_m).
func (s *SQLiteStore) Outcomes() ([]model.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT signal_id, horizon_m, entry_price, exit_price, ret, max_fav, max_adv
		FROM signal_outcomes ORDER BY signal_id, horizon_m`)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []model.Outcome
	for rows.Next() {
		var o model.Outcome
		if err := rows.Scan(&o.SignalID, &o.HorizonMin, &o.EntryPrice, &o.ExitPrice, &o.Ret, &o.MaxFav, &o.MaxAdv); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// OutcomeCount reports the number of stored outcome rows.
func (s *SQLiteStore) OutcomeCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM signal_outcomes`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
