package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"StockExtractor/internal/model"
)

const (
	yahooBaseURL   = "https://query2.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	CookieURL string
	Client    *http.Client

	mu    sync.Mutex
	crumb string
}

// YahooOption configures a YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithBaseURL points the fetcher at a different API host.
func WithBaseURL(baseURL string) YahooOption {
	return func(f *YahooFetcher) {
		f.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCookieURL sets the page used to obtain the session cookie.
func WithCookieURL(cookieURL string) YahooOption {
	return func(f *YahooFetcher) {
		f.CookieURL = cookieURL
	}
}

// WithHTTPClient replaces the HTTP client. It should carry a cookie jar for company lookups.
func WithHTTPClient(client *http.Client) YahooOption {
	return func(f *YahooFetcher) {
		f.Client = client
	}
}

// newHTTPClient builds a client with a cookie jar that routes through proxyURL when set.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		Jar:       jar,
	}
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration, opts ...YahooOption) *YahooFetcher {
	f := &YahooFetcher{
		BaseURL:   yahooBaseURL,
		CookieURL: yahooCookieURL,
		Client:    newHTTPClient(proxyURL, timeout),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol spells share classes with a dash: BRK.B -> BRK-B.
func yahooSymbol(symbol model.StockSymbol) string {
	return strings.ReplaceAll(string(symbol), ".", "-")
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooQuoteSummary is the subset of quoteSummary used for company descriptors.
type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
				Country  string `json:"country"`
				Website  string `json:"website"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"price"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func optFloat(vs []*float64, i int) (decimal.Decimal, bool) {
	if i >= len(vs) || vs[i] == nil {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(*vs[i]), true
}

func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("", gmtOffset)
}

// FetchDailyBars requests the daily chart for [start, end).
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol model.StockSymbol, start, end time.Time) ([]model.PriceRecord, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(yahooSymbol(symbol)), q.Encode())

	body, status, err := f.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
		}
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	bars := make([]model.PriceRecord, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		at := time.Unix(ts, 0)
		if at.Before(start) || !at.Before(end) {
			continue
		}
		o, okO := optFloat(quote.Open, i)
		h, okH := optFloat(quote.High, i)
		l, okL := optFloat(quote.Low, i)
		c, okC := optFloat(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			continue // incomplete bar
		}
		var vol int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		local := at.In(loc)
		bars = append(bars, model.PriceRecord{
			Date:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
			Symbol: symbol,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: vol,
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// ensureCrumb performs the cookie + crumb handshake quoteSummary requires. The crumb is cached until Yahoo rejects it.
func (f *YahooFetcher) ensureCrumb(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb != "" {
		return f.crumb, nil
	}

	// The cookie page answers 404 but still sets the session cookie.
	if _, _, err := f.get(ctx, f.CookieURL); err != nil {
		return "", fmt.Errorf("yahoo cookie: %w", err)
	}
	body, status, err := f.get(ctx, f.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if status != http.StatusOK || crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", fmt.Errorf("yahoo crumb: status %d", status)
	}
	f.crumb = crumb
	return crumb, nil
}

// resetCrumb drops a rejected crumb so the next lookup repeats the handshake.
func (f *YahooFetcher) resetCrumb(rejected string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb == rejected {
		f.crumb = ""
	}
}

// FetchCompanyInfo looks up descriptor fields through quoteSummary.
func (f *YahooFetcher) FetchCompanyInfo(ctx context.Context, symbol model.StockSymbol) (*model.CompanyInfo, error) {
	crumb, err := f.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("modules", "assetProfile,price")
	q.Set("crumb", crumb)
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", f.BaseURL, url.PathEscape(yahooSymbol(symbol)), q.Encode())

	body, status, err := f.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		f.resetCrumb(crumb)
	}

	var summary yahooQuoteSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
		}
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", summary.QuoteSummary.Error.Description)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, ErrNoData
	}

	r := summary.QuoteSummary.Result[0]
	return &model.CompanyInfo{
		Symbol:      symbol,
		CompanyName: model.OrNA(r.Price.LongName),
		Sector:      model.OrNA(r.AssetProfile.Sector),
		Industry:    model.OrNA(r.AssetProfile.Industry),
		Country:     model.OrNA(r.AssetProfile.Country),
		Website:     model.OrNA(r.AssetProfile.Website),
	}, nil
}
