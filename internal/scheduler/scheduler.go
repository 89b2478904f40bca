package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"StockExtractor/internal/config"
	"StockExtractor/internal/notifier"
	"StockExtractor/internal/pipeline"
	"StockExtractor/internal/recorder"
	"StockExtractor/internal/viewer"
)

// ErrBusy is returned when an extraction is requested while another one runs.
var ErrBusy = errors.New("extraction already running")

const historyLimit = 5

// Scheduler runs extractions on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Notifier *notifier.TelegramNotifier
	Recorder recorder.Recorder
	Config   *config.Config
	Ctx      context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, tn *notifier.TelegramNotifier, rec recorder.Recorder, cfg *config.Config) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Notifier: tn,
		Recorder: rec,
		Config:   cfg,
		Ctx:      ctx,
	}
}

// RegisterExtract schedules the extraction job.
func (s *Scheduler) RegisterExtract(extractCron string) error {
	if _, err := s.Cron.AddFunc(extractCron, s.extractTask); err != nil {
		return fmt.Errorf("register extract task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one extraction immediately. Overlapping runs are rejected with ErrBusy.
func (s *Scheduler) RunNow() (*pipeline.Result, error) {
	if !s.running.TryLock() {
		return nil, ErrBusy
	}
	defer s.running.Unlock()
	return s.Pipeline.Run(s.Ctx)
}

func (s *Scheduler) extractTask() {
	log.Println("[INFO] running extract task")
	res, err := s.RunNow()
	switch {
	case err == nil:
		log.Printf("[INFO] extract task done: %d rows from %d symbols", len(res.Prices), res.SymbolsWithPrices())
	case errors.Is(err, pipeline.ErrNoData):
		log.Println("[WARN] extract task produced no data")
	case errors.Is(err, ErrBusy):
		log.Println("[WARN] extract task skipped: previous run still in progress")
	default:
		log.Printf("[ERROR] extract task: %v", err)
		if s.Pipeline.Reporter == nil {
			s.trySend(fmt.Sprintf("❌ Stock data extraction failed: %v", err))
		}
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		if _, err := s.RunNow(); errors.Is(err, ErrBusy) {
			return "⏳ An extraction is already running."
		} else if err != nil && !errors.Is(err, pipeline.ErrNoData) {
			return fmt.Sprintf("❌ Extraction failed: %v", err)
		}
		// The pipeline reporter already delivered the run summary.
		return ""
	case "/latest":
		return s.latestSummary()
	case "/config":
		return notifier.FormatConfig(s.Config)
	case "/status":
		runs, err := s.Recorder.RecentRuns(historyLimit)
		if err != nil {
			log.Printf("[ERROR] load run history: %v", err)
			return "❌ Could not load run history."
		}
		return notifier.FormatRunHistory(runs)
	default:
		return "Available commands:\n• /run - extract now\n• /latest - summarize newest price file\n• /status - recent runs\n• /config - active settings"
	}
}

func (s *Scheduler) latestSummary() string {
	path, err := viewer.FindLatest(s.Config.Paths.RawData)
	if errors.Is(err, viewer.ErrNoFiles) {
		return "No data files found!"
	}
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	tbl, err := viewer.Load(path)
	if err != nil {
		log.Printf("[ERROR] load %s: %v", path, err)
		return fmt.Sprintf("❌ Could not read %s", path)
	}
	return notifier.FormatViewerSummary(viewer.Summarize(tbl))
}

func (s *Scheduler) trySend(text string) {
	if !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
