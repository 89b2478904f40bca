package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RecordAndRecent(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	defer r.Close()

	base := time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC)
	first := &RunRecord{
		StartedAt:         base,
		FinishedAt:        base.Add(time.Minute),
		WindowStart:       base.AddDate(0, 0, -365),
		WindowEnd:         base,
		Provider:          "yahoo",
		SymbolsRequested:  2,
		SymbolsWithPrices: 1,
		PriceRows:         250,
		PricesFile:        "data/raw/stock_prices_20240105_173000.csv",
		FailedSymbols:     []string{"XXXX"},
		Status:            StatusPartial,
	}
	require.NoError(t, r.RecordRun(first))
	assert.NotEmpty(t, first.RunID, "run id should be assigned")

	second := &RunRecord{
		RunID:            "fixed-id",
		StartedAt:        base.Add(24 * time.Hour),
		FinishedAt:       base.Add(24 * time.Hour),
		WindowStart:      base,
		WindowEnd:        base.Add(24 * time.Hour),
		Provider:         "yahoo",
		SymbolsRequested: 2,
		Status:           StatusNoData,
	}
	require.NoError(t, r.RecordRun(second))

	runs, err := r.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "fixed-id", runs[0].RunID)
	assert.Equal(t, StatusNoData, runs[0].Status)
	assert.Nil(t, runs[0].FailedSymbols)

	assert.Equal(t, first.RunID, runs[1].RunID)
	assert.Equal(t, []string{"XXXX"}, runs[1].FailedSymbols)
	assert.Equal(t, 250, runs[1].PriceRows)
	assert.True(t, runs[1].StartedAt.Equal(base))

	limited, err := r.RecentRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecorder_DuplicateRunID(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer r.Close()

	rec := &RunRecord{RunID: "same", Status: StatusOK}
	require.NoError(t, r.RecordRun(rec))
	assert.Error(t, r.RecordRun(rec))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&RunRecord{}))
	runs, err := r.RecentRuns(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, r.Close())
}

func TestOpen(t *testing.T) {
	assert.IsType(t, &NoopRecorder{}, Open(""))

	r := Open(filepath.Join(t.TempDir(), "runs.db"))
	defer r.Close()
	assert.IsType(t, &SQLiteRecorder{}, r)
}
