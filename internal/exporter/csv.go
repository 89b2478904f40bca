package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"StockExtractor/internal/model"
)

// TimestampLayout is embedded in output file names.
const TimestampLayout = "20060102_150405"

// DateLayout is used for the date column.
const DateLayout = "2006-01-02"

var (
	PriceHeader   = []string{"date", "Symbol", "open_price", "high_price", "low_price", "close_price", "volume"}
	CompanyHeader = []string{"symbol", "company_name", "sector", "industry", "country", "website"}
)

// FileName returns e.g. "stock_prices_20240102_153000.csv".
func FileName(kind model.FileKind, at time.Time) string {
	return fmt.Sprintf("%s_%s.csv", kind, at.Format(TimestampLayout))
}

// PriceRow encodes one price record in PriceHeader order.
func PriceRow(r model.PriceRecord) []string {
	return []string{
		r.Date.Format(DateLayout),
		string(r.Symbol),
		r.Open.String(),
		r.High.String(),
		r.Low.String(),
		r.Close.String(),
		strconv.FormatInt(r.Volume, 10),
	}
}

// CompanyRow encodes one company row in CompanyHeader order.
func CompanyRow(c model.CompanyInfo) []string {
	return []string{
		string(c.Symbol),
		c.CompanyName,
		c.Sector,
		c.Industry,
		c.Country,
		c.Website,
	}
}

// CSVWriter writes extraction output into a single directory.
type CSVWriter struct {
	Dir string
}

// NewCSVWriter creates a writer rooted at dir.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{Dir: dir}
}

// EnsureDir creates the output directory if it does not exist.
func (w *CSVWriter) EnsureDir() error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

// WritePrices writes the combined price rows to stock_prices_<ts>.csv.
func (w *CSVWriter) WritePrices(rows []model.PriceRecord, at time.Time) (*model.OutputFile, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = PriceRow(r)
	}
	return w.write(model.KindPrices, PriceHeader, records, at)
}

// WriteCompanies writes company rows to company_info_<ts>.csv.
func (w *CSVWriter) WriteCompanies(rows []model.CompanyInfo, at time.Time) (*model.OutputFile, error) {
	records := make([][]string, len(rows))
	for i, c := range rows {
		records[i] = CompanyRow(c)
	}
	return w.write(model.KindCompanyInfo, CompanyHeader, records, at)
}

// write encodes into a hidden temp file and renames it into place, so a
// failed export never leaves a truncated file under the final name.
func (w *CSVWriter) write(kind model.FileKind, header []string, records [][]string, at time.Time) (out *model.OutputFile, err error) {
	if err := w.EnsureDir(); err != nil {
		return nil, err
	}
	name := FileName(kind, at)
	path := filepath.Join(w.Dir, name)

	file, err := os.CreateTemp(w.Dir, "."+name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	tmp := file.Name()
	defer func() {
		if err != nil {
			file.Close()
			if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				log.Printf("[WARN] remove partial %s: %v", tmp, rmErr)
			}
		}
	}()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(rec); err != nil {
			return nil, fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("flush %s: %w", kind, err)
	}
	if err := file.Chmod(0644); err != nil {
		return nil, fmt.Errorf("chmod %s: %w", kind, err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", kind, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("publish %s: %w", kind, err)
	}

	log.Printf("[INFO] wrote %d rows to %s", len(records), path)
	return &model.OutputFile{Kind: kind, Path: path, Timestamp: at, Rows: len(records)}, nil
}
