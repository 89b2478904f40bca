package collector

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"StockExtractor/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price    float64
	Bars     map[model.StockSymbol][]model.PriceRecord
	Info     map[model.StockSymbol]*model.CompanyInfo
	Empty    map[model.StockSymbol]bool
	InfoErrs map[model.StockSymbol]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol model.StockSymbol, start, end time.Time) ([]model.PriceRecord, error) {
	if m.Empty[symbol] {
		return nil, ErrNoData
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(symbol, m.Price, start, end), nil
}

func (m *MockFetcher) FetchCompanyInfo(_ context.Context, symbol model.StockSymbol) (*model.CompanyInfo, error) {
	if err, ok := m.InfoErrs[symbol]; ok {
		return nil, err
	}
	if info, ok := m.Info[symbol]; ok {
		return info, nil
	}
	return &model.CompanyInfo{
		Symbol:      symbol,
		CompanyName: string(symbol) + " Inc.",
		Sector:      model.NotAvailable,
		Industry:    model.NotAvailable,
		Country:     model.NotAvailable,
		Website:     model.NotAvailable,
	}, nil
}

// generateMockBars emits one bar per weekday in [start, end).
func generateMockBars(symbol model.StockSymbol, basePrice float64, start, end time.Time) []model.PriceRecord {
	if basePrice <= 0 {
		basePrice = 100
	}
	var bars []model.PriceRecord
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; day.Before(end); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := decimal.NewFromFloat(basePrice * (1 + float64(i%20-10)*0.001)).Round(2)
		bars = append(bars, model.PriceRecord{
			Date:   day,
			Symbol: symbol,
			Open:   p.Mul(decimal.RequireFromString("0.999")).Round(2),
			High:   p.Mul(decimal.RequireFromString("1.005")).Round(2),
			Low:    p.Mul(decimal.RequireFromString("0.995")).Round(2),
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// SymbolResult is the outcome of collecting one configured symbol.
type SymbolResult struct {
	Index      int
	Symbol     model.StockSymbol
	Prices     []model.PriceRecord
	Company    *model.CompanyInfo
	PriceErr   error
	CompanyErr error
}

// HasPrices reports whether the symbol contributed any price rows.
func (r SymbolResult) HasPrices() bool { return len(r.Prices) > 0 }

// Collector runs the per-symbol fetch loop.
type Collector struct {
	Fetcher     Fetcher
	Concurrency int

	// OnResult, when set, is called once per symbol as soon as it finishes.
	// Calls are serialized; with Concurrency 1 they arrive in configured order.
	OnResult func(total int, r SymbolResult)
}

// NewCollector creates a new Collector. A concurrency below 1 means sequential.
func NewCollector(fetcher Fetcher, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{Fetcher: fetcher, Concurrency: concurrency}
}

// Collect fetches prices and company descriptors for every symbol in [start, end).
// Per-symbol failures are recorded on the result and never stop the loop.
// The returned slice is in the order of symbols regardless of completion order.
func (c *Collector) Collect(ctx context.Context, symbols []model.StockSymbol, start, end time.Time) ([]SymbolResult, error) {
	results := make([]SymbolResult, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Concurrency, 1))
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := c.collectOne(gctx, i, symbol, start, end)
			results[i] = r
			if c.OnResult != nil {
				mu.Lock()
				c.OnResult(len(symbols), r)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Collector) collectOne(ctx context.Context, index int, symbol model.StockSymbol, start, end time.Time) SymbolResult {
	r := SymbolResult{Index: index, Symbol: symbol}

	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, start, end)
	switch {
	case err != nil:
		r.PriceErr = err
		if errors.Is(err, ErrNoData) {
			log.Printf("[WARN] %s: no price data found", symbol)
		} else {
			log.Printf("[WARN] %s: price fetch failed: %v", symbol, err)
		}
	case len(bars) == 0:
		r.PriceErr = ErrNoData
		log.Printf("[WARN] %s: no price data found", symbol)
	default:
		r.Prices = normalize(symbol, bars)
	}

	info, err := c.Fetcher.FetchCompanyInfo(ctx, symbol)
	switch {
	case err != nil:
		r.CompanyErr = err
		log.Printf("[WARN] %s: could not extract company info: %v", symbol, err)
	case info != nil:
		row := *info
		row.Symbol = symbol
		row.CompanyName = model.OrNA(row.CompanyName)
		row.Sector = model.OrNA(row.Sector)
		row.Industry = model.OrNA(row.Industry)
		row.Country = model.OrNA(row.Country)
		row.Website = model.OrNA(row.Website)
		r.Company = &row
	}
	return r
}

// normalize tags every bar with the requested symbol and keeps only the output columns.
func normalize(symbol model.StockSymbol, bars []model.PriceRecord) []model.PriceRecord {
	out := make([]model.PriceRecord, len(bars))
	for i, b := range bars {
		out[i] = model.PriceRecord{
			Date:   b.Date,
			Symbol: symbol,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return out
}

// Prices concatenates every symbol's rows in result order.
func Prices(results []SymbolResult) []model.PriceRecord {
	var n int
	for _, r := range results {
		n += len(r.Prices)
	}
	out := make([]model.PriceRecord, 0, n)
	for _, r := range results {
		out = append(out, r.Prices...)
	}
	return out
}

// Companies returns the company rows that were fetched successfully, in result order.
func Companies(results []SymbolResult) []model.CompanyInfo {
	var out []model.CompanyInfo
	for _, r := range results {
		if r.Company != nil {
			out = append(out, *r.Company)
		}
	}
	return out
}
