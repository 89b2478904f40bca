package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS extract_runs (
			run_id               TEXT PRIMARY KEY,
			started_at           INTEGER NOT NULL,
			finished_at          INTEGER NOT NULL,
			window_start         INTEGER NOT NULL,
			window_end           INTEGER NOT NULL,
			provider             TEXT,
			symbols_requested    INTEGER,
			symbols_with_prices  INTEGER,
			symbols_with_company INTEGER,
			price_rows           INTEGER,
			prices_file          TEXT,
			company_file         TEXT,
			failed_symbols       TEXT,
			status               TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON extract_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts one run. A missing RunID is filled in.
func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	_, err := r.db.Exec(`INSERT INTO extract_runs
		(run_id, started_at, finished_at, window_start, window_end, provider,
		 symbols_requested, symbols_with_prices, symbols_with_company, price_rows,
		 prices_file, company_file, failed_symbols, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID, rec.StartedAt.Unix(), rec.FinishedAt.Unix(),
		rec.WindowStart.Unix(), rec.WindowEnd.Unix(), rec.Provider,
		rec.SymbolsRequested, rec.SymbolsWithPrices, rec.SymbolsWithCompany, rec.PriceRows,
		rec.PricesFile, rec.CompanyFile, strings.Join(rec.FailedSymbols, ","), string(rec.Status),
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, started_at, finished_at, window_start, window_end, provider,
		symbols_requested, symbols_with_prices, symbols_with_company, price_rows,
		prices_file, company_file, failed_symbols, status
		FROM extract_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished, winStart, winEnd int64
		var failed, status string
		if err := rows.Scan(&rec.RunID, &started, &finished, &winStart, &winEnd, &rec.Provider,
			&rec.SymbolsRequested, &rec.SymbolsWithPrices, &rec.SymbolsWithCompany, &rec.PriceRows,
			&rec.PricesFile, &rec.CompanyFile, &failed, &status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.FinishedAt = time.Unix(finished, 0)
		rec.WindowStart = time.Unix(winStart, 0)
		rec.WindowEnd = time.Unix(winEnd, 0)
		if failed != "" {
			rec.FailedSymbols = strings.Split(failed, ",")
		}
		rec.Status = RunStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
