// Package viewer summarizes the newest price CSV written by the extractor.
package viewer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"StockExtractor/internal/model"
)

var (
	ErrNoFiles        = errors.New("no data files found")
	ErrMalformedInput = errors.New("malformed input")
)

const (
	colDate   = "date"
	colSymbol = "Symbol"
	colClose  = "close_price"

	sampleRows = 10
	rule       = "======================================================================"
)

// MalformedInputError reports a price file the viewer cannot interpret.
type MalformedInputError struct {
	Path   string
	Line   int // 0 when the problem is not tied to a row
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// FindLatest returns the most recently modified stock_prices_*.csv in dir.
// Ties are broken by the larger file name.
func FindLatest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, string(model.KindPrices)+"_*.csv"))
	if err != nil {
		return "", fmt.Errorf("glob price files: %w", err)
	}

	var latest string
	var latestInfo os.FileInfo
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if latestInfo == nil ||
			info.ModTime().After(latestInfo.ModTime()) ||
			(info.ModTime().Equal(latestInfo.ModTime()) && m > latest) {
			latest, latestInfo = m, info
		}
	}
	if latest == "" {
		return "", ErrNoFiles
	}
	return latest, nil
}

// Row is one price line. Fields keeps the raw columns for the sample table.
type Row struct {
	Date   string
	Symbol string
	Close  decimal.Decimal
	Fields []string
}

// Table is a loaded price file.
type Table struct {
	Path   string
	Header []string
	Rows   []Row
}

// Load reads a price CSV. Missing required columns or an unparsable close
// price yield a *MalformedInputError.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parse(path, f)
}

func parse(path string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MalformedInputError{Path: path, Reason: "empty file"}
	}
	if err != nil {
		return nil, &MalformedInputError{Path: path, Line: 1, Reason: err.Error()}
	}

	idx := map[string]int{}
	for i, name := range header {
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	var missing []string
	for _, col := range []string{colDate, colSymbol, colClose} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedInputError{Path: path, Reason: "missing column(s): " + strings.Join(missing, ", ")}
	}

	t := &Table{Path: path, Header: header}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedInputError{Path: path, Line: line, Reason: err.Error()}
		}
		closePrice, err := decimal.NewFromString(strings.TrimSpace(rec[idx[colClose]]))
		if err != nil {
			return nil, &MalformedInputError{Path: path, Line: line, Reason: fmt.Sprintf("close_price %q is not a number", rec[idx[colClose]])}
		}
		t.Rows = append(t.Rows, Row{
			Date:   rec[idx[colDate]],
			Symbol: rec[idx[colSymbol]],
			Close:  closePrice,
			Fields: rec,
		})
	}
	return t, nil
}

type SymbolCount struct {
	Symbol string
	Count  int
}

type ClosePrice struct {
	Symbol string
	Close  decimal.Decimal
}

// Summary holds everything the viewer prints.
type Summary struct {
	Path         string
	TotalRecords int
	NumStocks    int
	MinDate      string
	MaxDate      string
	Symbols      []string
	Counts       []SymbolCount
	LatestCloses []ClosePrice
	Header       []string
	Sample       [][]string
}

// Summarize aggregates a loaded table. Dates compare as YYYY-MM-DD strings.
func Summarize(t *Table) *Summary {
	s := &Summary{Path: t.Path, TotalRecords: len(t.Rows), Header: t.Header}

	counts := map[string]int{}
	for _, r := range t.Rows {
		counts[r.Symbol]++
		if s.MinDate == "" || r.Date < s.MinDate {
			s.MinDate = r.Date
		}
		if r.Date > s.MaxDate {
			s.MaxDate = r.Date
		}
	}

	s.NumStocks = len(counts)
	for sym, n := range counts {
		s.Symbols = append(s.Symbols, sym)
		s.Counts = append(s.Counts, SymbolCount{Symbol: sym, Count: n})
	}
	sort.Strings(s.Symbols)
	sort.Slice(s.Counts, func(i, j int) bool {
		if s.Counts[i].Count != s.Counts[j].Count {
			return s.Counts[i].Count > s.Counts[j].Count
		}
		return s.Counts[i].Symbol < s.Counts[j].Symbol
	})

	for _, r := range t.Rows {
		if r.Date == s.MaxDate {
			s.LatestCloses = append(s.LatestCloses, ClosePrice{Symbol: r.Symbol, Close: r.Close})
		}
	}
	sort.SliceStable(s.LatestCloses, func(i, j int) bool {
		return s.LatestCloses[i].Symbol < s.LatestCloses[j].Symbol
	})

	for i := 0; i < len(t.Rows) && i < sampleRows; i++ {
		s.Sample = append(s.Sample, t.Rows[i].Fields)
	}
	return s
}

// Render writes the human-readable report.
func Render(w io.Writer, s *Summary) error {
	section := func(title string) {
		fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, title, rule)
	}

	fmt.Fprintf(w, "Loading: %s\n", s.Path)
	section("DATA SUMMARY")
	fmt.Fprintf(w, "Total records: %d\n", s.TotalRecords)
	fmt.Fprintf(w, "Number of stocks: %d\n", s.NumStocks)
	fmt.Fprintf(w, "Date range: %s to %s\n", s.MinDate, s.MaxDate)
	fmt.Fprintf(w, "\nStocks: %s\n", strings.Join(s.Symbols, ", "))

	section("RECORDS PER STOCK")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range s.Counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Symbol, c.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	section("LATEST CLOSING PRICES")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", colSymbol, colClose)
	for _, c := range s.LatestCloses {
		fmt.Fprintf(tw, "%s\t%s\n", c.Symbol, c.Close.String())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	section(fmt.Sprintf("SAMPLE DATA (First %d rows)", sampleRows))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(s.Header, "\t"))
	for _, row := range s.Sample {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, "\nData looks good!")
	return err
}
