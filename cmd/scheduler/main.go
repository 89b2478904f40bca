package main

import (
	"context"
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
	"StockExtractor/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] stock extraction scheduler starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.Proxy,
		time.Duration(cfg.Collector.TimeoutSeconds)*time.Second)
	if err != nil {
		log.Fatalf("[FATAL] init fetcher: %v", err)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init recorder
	rec := recorder.Open(cfg.Database.SQLitePath)
	defer rec.Close()

	// Init pipeline and Telegram notifier
	p := pipeline.New(cfg.StockSymbols(), cfg.LookbackDays,
		collector.NewCollector(fetcher, cfg.Collector.Concurrency),
		exporter.NewCSVWriter(cfg.Paths.RawData), rec, os.Stdout)
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if tn.Enabled() {
		p.Reporter = &notifier.RunReporter{Notifier: tn, MaxRetries: 3}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, p, tn, rec, cfg)
	if err := sched.RegisterExtract(cfg.Schedule.ExtractCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[INFO] Telegram not configured, command polling disabled")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing extraction now")
		go sched.HandleCommand("/run")
	}

	log.Printf("[INFO] scheduler is running on %q. Press Ctrl+C to stop.", cfg.Schedule.ExtractCron)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
}
