package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"StockExtractor/internal/collector"
	"StockExtractor/internal/config"
	"StockExtractor/internal/model"
	"StockExtractor/internal/pipeline"
	"StockExtractor/internal/recorder"
	"StockExtractor/internal/viewer"
)

func sampleResult() *pipeline.Result {
	start := time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC)
	return &pipeline.Result{
		Provider:    "yahoo",
		StartedAt:   start,
		WindowStart: start.AddDate(0, 0, -365),
		WindowEnd:   start,
		Symbols:     []model.StockSymbol{"AAPL", "XXXX"},
		PerSymbol: []collector.SymbolResult{
			{Index: 0, Symbol: "AAPL", Prices: make([]model.PriceRecord, 2)},
			{Index: 1, Symbol: "XXXX", PriceErr: collector.ErrNoData},
		},
		Prices:      make([]model.PriceRecord, 2),
		Companies:   []model.CompanyInfo{{Symbol: "AAPL"}},
		PricesFile:  &model.OutputFile{Path: "data/raw/stock_prices_20240105_173000.csv"},
		CompanyFile: &model.OutputFile{Path: "data/raw/company_info_20240105_173000.csv"},
	}
}

func TestFormatRunSummary(t *testing.T) {
	msg := FormatRunSummary(sampleResult())

	assert.Contains(t, msg, "⚠️ <b>Stock data extraction</b> | 2024-01-05 17:30")
	assert.Contains(t, msg, "Window: 2023-01-05 to 2024-01-05")
	assert.Contains(t, msg, "Symbols with data: 1/2")
	assert.Contains(t, msg, "Price rows: 2")
	assert.Contains(t, msg, "stock_prices_20240105_173000.csv")
	assert.Contains(t, msg, "company_info_20240105_173000.csv")
	assert.Contains(t, msg, "Skipped: XXXX")
	assert.NotContains(t, msg, "data/raw/")
}

func TestFormatRunSummary_NoData(t *testing.T) {
	res := sampleResult()
	res.PerSymbol[0] = collector.SymbolResult{Symbol: "AAPL", PriceErr: errors.New("timeout")}
	res.Prices, res.Companies, res.PricesFile, res.CompanyFile = nil, nil, nil, nil

	msg := FormatRunSummary(res)
	assert.Contains(t, msg, "❌")
	assert.Contains(t, msg, "No data was extracted")
	assert.NotContains(t, msg, "Price rows")
}

func TestFormatRunSummary_Failed(t *testing.T) {
	res := sampleResult()
	res.PricesFile, res.CompanyFile = nil, nil
	res.Err = errors.New("write prices: disk <full>")

	msg := FormatRunSummary(res)
	assert.Contains(t, msg, "🛑 <b>Stock data extraction</b>")
	assert.Contains(t, msg, "Extraction failed: write prices: disk &lt;full&gt;")
	assert.NotContains(t, msg, "Price rows")
}

func TestFormatViewerSummary(t *testing.T) {
	msg := FormatViewerSummary(&viewer.Summary{
		Path:         "data/raw/stock_prices_20240105_173000.csv",
		TotalRecords: 500,
		NumStocks:    2,
		MinDate:      "2023-01-05",
		MaxDate:      "2024-01-04",
		LatestCloses: []viewer.ClosePrice{
			{Symbol: "AAPL", Close: decimal.RequireFromString("181.91")},
			{Symbol: "MSFT", Close: decimal.RequireFromString("370.6")},
		},
	})

	assert.Contains(t, msg, "stock_prices_20240105_173000.csv")
	assert.Contains(t, msg, "Total records: 500")
	assert.Contains(t, msg, "Number of stocks: 2")
	assert.Contains(t, msg, "Date range: 2023-01-05 to 2024-01-04")
	assert.Contains(t, msg, "AAPL: 181.91")
	assert.Contains(t, msg, "MSFT: 370.60")
}

func TestFormatRunHistory(t *testing.T) {
	assert.Equal(t, "No extraction runs recorded yet.", FormatRunHistory(nil))

	msg := FormatRunHistory([]recorder.RunRecord{
		{StartedAt: time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC), SymbolsRequested: 15, SymbolsWithPrices: 15, PriceRows: 3750, Status: recorder.StatusOK},
		{StartedAt: time.Date(2024, 1, 4, 17, 30, 0, 0, time.UTC), SymbolsRequested: 15, Status: recorder.StatusNoData},
		{StartedAt: time.Date(2024, 1, 3, 17, 30, 0, 0, time.UTC), SymbolsRequested: 15, SymbolsWithPrices: 15, PriceRows: 3750, Status: recorder.StatusFailed},
	})
	assert.Contains(t, msg, "✅ 2024-01-05 17:30  15/15 symbols, 3750 rows")
	assert.Contains(t, msg, "❌ 2024-01-04 17:30  0/15 symbols, 0 rows")
	assert.Contains(t, msg, "🛑 2024-01-03 17:30  15/15 symbols, 3750 rows")
}

func TestFormatConfig_OmitsSecrets(t *testing.T) {
	cfg := &config.Config{Symbols: []string{"aapl", "msft"}, LookbackDays: 30}
	cfg.DataSource.Provider = "yahoo"
	cfg.Paths.RawData = "./data/raw/"
	cfg.Schedule.ExtractCron = "0 30 17 * * 1-5"
	cfg.Telegram.BotToken = "secret-token"

	msg := FormatConfig(cfg)
	assert.Contains(t, msg, "Symbols (2): AAPL, MSFT")
	assert.Contains(t, msg, "Lookback: 30 days")
	assert.Contains(t, msg, "Schedule: 0 30 17 * * 1-5")
	assert.NotContains(t, msg, "secret-token")
}

func TestRunReporter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	(&RunReporter{Notifier: newTestNotifier(srv)}).ReportRun(context.Background(), sampleResult())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	disabled := newTestNotifier(srv)
	disabled.ChatID = ""
	(&RunReporter{Notifier: disabled}).ReportRun(context.Background(), sampleResult())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
