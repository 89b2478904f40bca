package notifier

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"StockExtractor/internal/config"
	"StockExtractor/internal/pipeline"
	"StockExtractor/internal/recorder"
	"StockExtractor/internal/viewer"
)

const dateLayout = "2006-01-02"

func statusIcon(s recorder.RunStatus) string {
	switch s {
	case recorder.StatusOK:
		return "✅"
	case recorder.StatusPartial:
		return "⚠️"
	case recorder.StatusFailed:
		return "🛑"
	default:
		return "❌"
	}
}

// FormatRunSummary formats one extraction run into a Telegram message.
func FormatRunSummary(res *pipeline.Result) string {
	var b strings.Builder
	status := res.Status()

	b.WriteString(fmt.Sprintf("%s <b>Stock data extraction</b> | %s\n\n", statusIcon(status), res.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Provider: %s\n", html.EscapeString(res.Provider)))
	b.WriteString(fmt.Sprintf("Window: %s to %s\n", res.WindowStart.Format(dateLayout), res.WindowEnd.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("Symbols with data: %d/%d\n", res.SymbolsWithPrices(), len(res.Symbols)))

	if status == recorder.StatusFailed {
		b.WriteString(fmt.Sprintf("\nExtraction failed: %s", html.EscapeString(res.Err.Error())))
		return b.String()
	}
	if status == recorder.StatusNoData {
		b.WriteString("\nNo data was extracted. Please check your internet connection.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Price rows: %d\n", len(res.Prices)))
	b.WriteString(fmt.Sprintf("Companies: %d\n", len(res.Companies)))
	if res.PricesFile != nil {
		b.WriteString(fmt.Sprintf("\n📁 %s\n", html.EscapeString(filepath.Base(res.PricesFile.Path))))
	}
	if res.CompanyFile != nil {
		b.WriteString(fmt.Sprintf("📁 %s\n", html.EscapeString(filepath.Base(res.CompanyFile.Path))))
	}
	if failed := res.FailedSymbols(); len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\nSkipped: %s\n", strings.Join(failed, ", ")))
	}
	return b.String()
}

// FormatViewerSummary formats the newest price file summary.
func FormatViewerSummary(s *viewer.Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Latest data</b> | %s\n\n", html.EscapeString(filepath.Base(s.Path))))
	b.WriteString(fmt.Sprintf("Total records: %d\n", s.TotalRecords))
	b.WriteString(fmt.Sprintf("Number of stocks: %d\n", s.NumStocks))
	b.WriteString(fmt.Sprintf("Date range: %s to %s\n", s.MinDate, s.MaxDate))

	if len(s.LatestCloses) > 0 {
		b.WriteString(fmt.Sprintf("\n💰 <b>Closing prices %s:</b>\n", s.MaxDate))
		for _, c := range s.LatestCloses {
			b.WriteString(fmt.Sprintf("  %s: %s\n", html.EscapeString(c.Symbol), c.Close.StringFixed(2)))
		}
	}
	return b.String()
}

// FormatRunHistory lists recent runs, newest first.
func FormatRunHistory(runs []recorder.RunRecord) string {
	if len(runs) == 0 {
		return "No extraction runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s %s  %d/%d symbols, %d rows\n",
			statusIcon(r.Status), r.StartedAt.Format("2006-01-02 15:04"),
			r.SymbolsWithPrices, r.SymbolsRequested, r.PriceRows))
	}
	return b.String()
}

// FormatConfig shows the active extraction settings. Secrets are never included.
func FormatConfig(cfg *config.Config) string {
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.StockSymbols() {
		symbols = append(symbols, string(s))
	}

	var b strings.Builder
	b.WriteString("⚙️ <b>Configuration</b>\n\n")
	b.WriteString(fmt.Sprintf("Symbols (%d): %s\n", len(symbols), strings.Join(symbols, ", ")))
	b.WriteString(fmt.Sprintf("Lookback: %d days\n", cfg.LookbackDays))
	b.WriteString(fmt.Sprintf("Provider: %s\n", html.EscapeString(cfg.DataSource.Provider)))
	b.WriteString(fmt.Sprintf("Output: %s\n", html.EscapeString(cfg.Paths.RawData)))
	b.WriteString(fmt.Sprintf("Schedule: %s\n", html.EscapeString(cfg.Schedule.ExtractCron)))
	return b.String()
}
