package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"StockExtractor/internal/collector"
	"StockExtractor/internal/exporter"
	"StockExtractor/internal/model"
	"StockExtractor/internal/recorder"
)

// ErrNoData means no configured symbol produced price data and nothing was written.
var ErrNoData = errors.New("no data was extracted")

const (
	rule       = "============================================================"
	sampleRows = 5
	noDataHint = "No data was extracted. Please check your internet connection."
)

// Reporter receives the outcome of every run, e.g. to notify an operator.
type Reporter interface {
	ReportRun(ctx context.Context, res *Result)
}

// Result describes one extraction run.
type Result struct {
	RunID       string
	Provider    string
	StartedAt   time.Time
	FinishedAt  time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	Symbols     []model.StockSymbol
	PerSymbol   []collector.SymbolResult
	Prices      []model.PriceRecord
	Companies   []model.CompanyInfo
	PricesFile  *model.OutputFile
	CompanyFile *model.OutputFile
	// Err is the error that aborted the run, if any.
	Err error
}

// SymbolsWithPrices counts symbols that contributed at least one row.
func (r *Result) SymbolsWithPrices() int {
	n := 0
	for _, s := range r.PerSymbol {
		if s.HasPrices() {
			n++
		}
	}
	return n
}

// FailedSymbols lists symbols without price rows, in configured order.
func (r *Result) FailedSymbols() []string {
	var out []string
	for _, s := range r.PerSymbol {
		if !s.HasPrices() {
			out = append(out, string(s.Symbol))
		}
	}
	return out
}

// Status classifies the run for the history ledger.
func (r *Result) Status() recorder.RunStatus {
	switch ok := r.SymbolsWithPrices(); {
	case r.Err != nil:
		return recorder.StatusFailed
	case ok == 0:
		return recorder.StatusNoData
	case ok < len(r.Symbols):
		return recorder.StatusPartial
	default:
		return recorder.StatusOK
	}
}

func (r *Result) record() *recorder.RunRecord {
	rec := &recorder.RunRecord{
		RunID:              r.RunID,
		StartedAt:          r.StartedAt,
		FinishedAt:         r.FinishedAt,
		WindowStart:        r.WindowStart,
		WindowEnd:          r.WindowEnd,
		Provider:           r.Provider,
		SymbolsRequested:   len(r.Symbols),
		SymbolsWithPrices:  r.SymbolsWithPrices(),
		SymbolsWithCompany: len(r.Companies),
		PriceRows:          len(r.Prices),
		FailedSymbols:      r.FailedSymbols(),
		Status:             r.Status(),
	}
	if r.PricesFile != nil {
		rec.PricesFile = r.PricesFile.Path
	}
	if r.CompanyFile != nil {
		rec.CompanyFile = r.CompanyFile.Path
	}
	return rec
}

// Pipeline runs one extraction: collect, write CSVs, report.
type Pipeline struct {
	Symbols      []model.StockSymbol
	LookbackDays int
	Collector    *collector.Collector
	Writer       *exporter.CSVWriter
	Recorder     recorder.Recorder
	Reporter     Reporter // optional
	Out          io.Writer
	Now          func() time.Time
}

// New creates a Pipeline that prints to out and keeps run history in rec.
func New(symbols []model.StockSymbol, lookbackDays int, col *collector.Collector, w *exporter.CSVWriter, rec recorder.Recorder, out io.Writer) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Pipeline{
		Symbols:      symbols,
		LookbackDays: lookbackDays,
		Collector:    col,
		Writer:       w,
		Recorder:     rec,
		Out:          out,
		Now:          time.Now,
	}
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.Out, format, args...)
}

func (p *Pipeline) banner(title string) {
	p.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

// Run performs one extraction. It returns ErrNoData when no symbol produced prices;
// per-symbol failures are reported but never returned. Every run, including one
// aborted by an error, is recorded and reported.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Provider:  p.Collector.Fetcher.Name(),
		StartedAt: p.Now(),
		Symbols:   p.Symbols,
	}

	p.printf("%s\nSTOCK MARKET DATA EXTRACTION STARTING\n%s\n", rule, rule)

	if err := p.Writer.EnsureDir(); err != nil {
		return res, p.fail(ctx, res, err)
	}
	p.printf("Data directory created/verified: %s\n", p.Writer.Dir)

	res.WindowEnd = res.StartedAt
	res.WindowStart = res.WindowEnd.AddDate(0, 0, -p.LookbackDays)

	names := make([]string, len(p.Symbols))
	for i, s := range p.Symbols {
		names[i] = string(s)
	}
	p.printf("\nDate Range: %s to %s\n", res.WindowStart.Format(exporter.DateLayout), res.WindowEnd.Format(exporter.DateLayout))
	p.printf("Stocks to extract: %d\n", len(p.Symbols))
	p.printf("Symbols: %s\n\n", strings.Join(names, ", "))

	col := *p.Collector
	col.OnResult = p.progress
	perSymbol, err := col.Collect(ctx, p.Symbols, res.WindowStart, res.WindowEnd)
	if err != nil {
		return res, p.fail(ctx, res, fmt.Errorf("collect: %w", err))
	}
	res.PerSymbol = perSymbol
	res.Prices = collector.Prices(perSymbol)
	res.Companies = collector.Companies(perSymbol)

	if len(res.Prices) == 0 {
		p.printf("\n%s\n", noDataHint)
		res.FinishedAt = p.Now()
		p.finish(ctx, res)
		return res, ErrNoData
	}

	p.banner("SAVING DATA TO CSV FILES")
	stamp := p.Now()
	res.PricesFile, err = p.Writer.WritePrices(res.Prices, stamp)
	if err != nil {
		return res, p.fail(ctx, res, fmt.Errorf("write prices: %w", err))
	}
	p.printf("Stock prices saved: %s\n", res.PricesFile.Path)
	p.printf("   Total records: %d\n", len(res.Prices))

	if len(res.Companies) > 0 {
		res.CompanyFile, err = p.Writer.WriteCompanies(res.Companies, stamp)
		if err != nil {
			return res, p.fail(ctx, res, fmt.Errorf("write company info: %w", err))
		}
		p.printf("Company info saved: %s\n", res.CompanyFile.Path)
		p.printf("   Total companies: %d\n", len(res.Companies))
	}

	p.banner(fmt.Sprintf("SAMPLE DATA (First %d rows)", sampleRows))
	p.printSample(res.Prices)

	p.banner("DATA EXTRACTION COMPLETE!")
	p.printf("Check your data folder: %s\n", p.Writer.Dir)

	res.FinishedAt = p.Now()
	p.finish(ctx, res)
	return res, nil
}

func (p *Pipeline) progress(total int, r collector.SymbolResult) {
	prefix := fmt.Sprintf("[%d/%d] Extracting data for %s...", r.Index+1, total, r.Symbol)
	switch {
	case r.HasPrices():
		p.printf("%s %d records extracted\n", prefix, len(r.Prices))
	case errors.Is(r.PriceErr, collector.ErrNoData):
		p.printf("%s No data found\n", prefix)
	default:
		p.printf("%s Error: %v\n", prefix, r.PriceErr)
	}
}

func (p *Pipeline) printSample(rows []model.PriceRecord) {
	tw := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(exporter.PriceHeader, "\t")+"\t")
	for i := 0; i < len(rows) && i < sampleRows; i++ {
		fmt.Fprintln(tw, strings.Join(exporter.PriceRow(rows[i]), "\t")+"\t")
	}
	tw.Flush()
}

func (p *Pipeline) fail(ctx context.Context, res *Result, err error) error {
	log.Printf("[ERROR] extraction failed: %v", err)
	res.Err = err
	res.FinishedAt = p.Now()
	p.finish(ctx, res)
	return err
}

func (p *Pipeline) finish(ctx context.Context, res *Result) {
	if p.Recorder != nil {
		if err := p.Recorder.RecordRun(res.record()); err != nil {
			log.Printf("[ERROR] record run: %v", err)
		}
	}
	if p.Reporter != nil {
		p.Reporter.ReportRun(ctx, res)
	}
}
