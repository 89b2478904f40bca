package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockExtractor/internal/model"
)

// ErrNoData is returned when the provider has no bars for a symbol in the window.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
//
//go:generate mockgen -package=collector_test -destination=mock_fetcher_test.go -source=fetcher.go Fetcher
type Fetcher interface {
	// FetchDailyBars returns daily bars with start <= date < end, oldest first.
	FetchDailyBars(ctx context.Context, symbol model.StockSymbol, start, end time.Time) ([]model.PriceRecord, error)
	FetchCompanyInfo(ctx context.Context, symbol model.StockSymbol) (*model.CompanyInfo, error)
	Name() string
}

// NewFetcher builds the Fetcher named by provider ("yahoo", "financego" or "mock").
// baseURL overrides the Yahoo API host for both network providers.
func NewFetcher(provider, baseURL, proxyURL string, timeout time.Duration) (Fetcher, error) {
	switch provider {
	case "", "yahoo":
		var opts []YahooOption
		if baseURL != "" {
			opts = append(opts, WithBaseURL(baseURL))
		}
		return NewYahooFetcher(proxyURL, timeout, opts...), nil
	case "financego":
		return NewFinanceGoFetcher(baseURL, proxyURL, timeout), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
}
