// Package storage provides SQLite-backed persistence for the dedup state
// map and the signal log.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arslanov-m/macdscan/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath. An empty dbPath
// defaults to $TMPDIR/macdscan/data.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "macdscan", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_state (
			key              TEXT PRIMARY KEY,
			last_candle_time INTEGER NOT NULL,
			escalation_fired INTEGER NOT NULL DEFAULT 0,
			updated_at       INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			timeframe   TEXT NOT NULL,
			kind        TEXT NOT NULL,
			candle_time INTEGER NOT NULL,
			message     TEXT NOT NULL,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the full persisted state map, empty when no prior state
// exists. Implements scanner.StateStore.
func (s *Storage) Load() (models.StateMap, error) {
	rows, err := s.db.Query(`SELECT key, last_candle_time, escalation_fired FROM signal_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query state: %w", err)
	}
	defer rows.Close()

	state := models.StateMap{}
	for rows.Next() {
		var key string
		var lastCandleTime int64
		var escalationFired int
		if err := rows.Scan(&key, &lastCandleTime, &escalationFired); err != nil {
			return nil, fmt.Errorf("failed to scan state row: %w", err)
		}
		state[key] = models.SignalState{
			LastCandleTime:  lastCandleTime,
			EscalationFired: escalationFired != 0,
		}
	}
	return state, rows.Err()
}

// Save replaces the persisted state with state in a single transaction.
func (s *Storage) Save(state models.StateMap) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM signal_state`); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	now := time.Now().UnixNano()
	for key, st := range state {
		if _, err := tx.Exec(`
			INSERT INTO signal_state (key, last_candle_time, escalation_fired, updated_at)
			VALUES (?,?,?,?)`,
			key, st.LastCandleTime, boolToInt(st.EscalationFired), now,
		); err != nil {
			return fmt.Errorf("failed to insert state %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Record appends one emitted signal to the log. Implements
// scanner.SignalLog.
func (s *Storage) Record(sig models.Signal) error {
	_, err := s.db.Exec(`
		INSERT INTO signals (id, symbol, timeframe, kind, candle_time, message, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		sig.ID, sig.Symbol, string(sig.Timeframe), string(sig.Kind),
		sig.CandleTime, sig.Message, sig.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	return nil
}

// RecentSignals returns the most recent n signals, newest first.
func (s *Storage) RecentSignals(n int) ([]models.Signal, error) {
	rows, err := s.db.Query(`
		SELECT id, symbol, timeframe, kind, candle_time, message, created_at
		FROM signals ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := []models.Signal{}
	for rows.Next() {
		var sig models.Signal
		var tf, kind string
		var createdAtNano int64
		if err := rows.Scan(&sig.ID, &sig.Symbol, &tf, &kind, &sig.CandleTime, &sig.Message, &createdAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		sig.Timeframe = models.Timeframe(tf)
		sig.Kind = models.SignalKind(kind)
		sig.CreatedAt = time.Unix(0, createdAtNano)
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
