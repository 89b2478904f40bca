package recorder

import (
	"log"
	"time"
)

// RunStatus summarizes how an extraction run ended.
type RunStatus string

const (
	StatusOK      RunStatus = "ok"      // every symbol produced prices
	StatusPartial RunStatus = "partial" // some symbols were skipped
	StatusNoData  RunStatus = "no_data" // nothing written
	StatusFailed  RunStatus = "failed"  // aborted by an error
)

// RunRecord holds the bookkeeping for one extraction run. It never carries market data.
type RunRecord struct {
	RunID              string
	StartedAt          time.Time
	FinishedAt         time.Time
	WindowStart        time.Time
	WindowEnd          time.Time
	Provider           string
	SymbolsRequested   int
	SymbolsWithPrices  int
	SymbolsWithCompany int
	PriceRows          int
	PricesFile         string
	CompanyFile        string
	FailedSymbols      []string
	Status             RunStatus
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}

// Open returns a SQLite recorder for dbPath, or a NoopRecorder when dbPath is
// empty or the database cannot be opened.
func Open(dbPath string) Recorder {
	if dbPath == "" {
		return NewNoopRecorder()
	}
	sr, err := NewSQLiteRecorder(dbPath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return NewNoopRecorder()
	}
	return sr
}
