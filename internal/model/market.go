package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StockSymbol is an uppercase ticker such as "AAPL".
type StockSymbol string

// NormalizeSymbol trims and upper-cases a raw ticker.
func NormalizeSymbol(raw string) StockSymbol {
	return StockSymbol(strings.ToUpper(strings.TrimSpace(raw)))
}

func (s StockSymbol) String() string { return string(s) }

// PriceRecord is one trading day of OHLCV data for a symbol.
type PriceRecord struct {
	Date   time.Time
	Symbol StockSymbol
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// CompanyInfo holds descriptor fields for a symbol. Unknown fields are NotAvailable.
type CompanyInfo struct {
	Symbol      StockSymbol
	CompanyName string
	Sector      string
	Industry    string
	Country     string
	Website     string
}

// NotAvailable is written for descriptor fields the provider did not return.
const NotAvailable = "N/A"

// OrNA returns v, or NotAvailable when v is blank.
func OrNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return NotAvailable
	}
	return v
}

// FileKind identifies which dataset an output file holds.
type FileKind string

const (
	KindPrices      FileKind = "stock_prices"
	KindCompanyInfo FileKind = "company_info"
)

// OutputFile describes a CSV artifact written by an extraction run.
type OutputFile struct {
	Kind      FileKind
	Path      string
	Timestamp time.Time
	Rows      int
}
