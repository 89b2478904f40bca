package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"StockExtractor/internal/collector"
	"StockExtractor/internal/config"
	"StockExtractor/internal/exporter"
	"StockExtractor/internal/notifier"
	"StockExtractor/internal/pipeline"
	"StockExtractor/internal/recorder"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}

	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.Proxy,
		time.Duration(cfg.Collector.TimeoutSeconds)*time.Second)
	if err != nil {
		log.Fatalf("[FATAL] init fetcher: %v", err)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	rec := recorder.Open(cfg.Database.SQLitePath)
	defer rec.Close()

	p := pipeline.New(cfg.StockSymbols(), cfg.LookbackDays,
		collector.NewCollector(fetcher, cfg.Collector.Concurrency),
		exporter.NewCSVWriter(cfg.Paths.RawData), rec, os.Stdout)

	if tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy); tn.Enabled() {
		p.Reporter = &notifier.RunReporter{Notifier: tn, MaxRetries: 3}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A run without data has already told the operator; it is not a process failure.
	if _, err := p.Run(ctx); err != nil && !errors.Is(err, pipeline.ErrNoData) {
		rec.Close()
		log.Fatalf("[FATAL] extraction: %v", err)
	}
}
