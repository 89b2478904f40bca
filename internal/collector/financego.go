package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"StockExtractor/internal/model"
)

// FinanceGoFetcher implements Fetcher on top of piquette/finance-go.
// The equity quote carries the long name only, so the other company
// fields are written as N/A.
type FinanceGoFetcher struct {
	// Backend defaults to finance-go's shared Yahoo backend when nil.
	Backend finance.Backend
}

// NewFinanceGoFetcher creates a fetcher with its own Yahoo backend. An empty
// baseURL keeps finance-go's default host.
func NewFinanceGoFetcher(baseURL, proxyURL string, timeout time.Duration) *FinanceGoFetcher {
	if baseURL == "" {
		baseURL = finance.YFinURL
	}
	return &FinanceGoFetcher{Backend: &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        strings.TrimRight(baseURL, "/"),
		HTTPClient: newHTTPClient(proxyURL, timeout),
	}}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) backend() finance.Backend {
	if f.Backend != nil {
		return f.Backend
	}
	return finance.GetBackend(finance.YFinBackend)
}

func (f *FinanceGoFetcher) FetchDailyBars(ctx context.Context, symbol model.StockSymbol, start, end time.Time) ([]model.PriceRecord, error) {
	params := &chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   yahooSymbol(symbol),
		Interval: datetime.OneDay,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
	}

	iter := chart.Client{B: f.backend()}.Get(params)
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("financego chart: %w", err)
	}
	meta := iter.Meta()
	loc := exchangeLocation(meta.ExchangeTimezoneName, meta.Gmtoffset)

	var bars []model.PriceRecord
	for iter.Next() {
		bar := iter.Bar()
		at := time.Unix(int64(bar.Timestamp), 0)
		if at.Before(start) || !at.Before(end) {
			continue
		}
		// finance-go decodes null prices as zero.
		if bar.Open.IsZero() || bar.High.IsZero() || bar.Low.IsZero() || bar.Close.IsZero() {
			continue
		}
		local := at.In(loc)
		bars = append(bars, model.PriceRecord{
			Date:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
			Symbol: symbol,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(bar.Volume),
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}

func (f *FinanceGoFetcher) FetchCompanyInfo(ctx context.Context, symbol model.StockSymbol) (*model.CompanyInfo, error) {
	iter := equity.Client{B: f.backend()}.ListP(&equity.Params{
		Params:  finance.Params{Context: &ctx},
		Symbols: []string{yahooSymbol(symbol)},
	})
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("financego quote: %w", err)
		}
		return nil, ErrNoData
	}
	e := iter.Equity()
	return &model.CompanyInfo{
		Symbol:      symbol,
		CompanyName: model.OrNA(e.LongName),
		Sector:      model.NotAvailable,
		Industry:    model.NotAvailable,
		Country:     model.NotAvailable,
		Website:     model.NotAvailable,
	}, nil
}
