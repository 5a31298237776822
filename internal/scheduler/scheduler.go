package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"PixelSentinel/internal/bot"
	"PixelSentinel/internal/notifier"
	"PixelSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Sender delivers report messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs periodic reports and answers Telegram commands about the fleet.
type Scheduler struct {
	Cron     *cron.Cron
	Fleet    *bot.Fleet
	Sender   Sender
	Recorder recorder.Recorder
	Ctx      context.Context
	Now      func() time.Time

	mu         sync.Mutex
	lastReport time.Time
}

// NewScheduler creates a new Scheduler. Reports cover activity since the scheduler started.
func NewScheduler(ctx context.Context, fleet *bot.Fleet, sender Sender, rec recorder.Recorder) *Scheduler {
	now := time.Now()
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Fleet:      fleet,
		Sender:     sender,
		Recorder:   rec,
		Ctx:        ctx,
		Now:        time.Now,
		lastReport: now,
	}
}

// RegisterAll registers the report job.
func (s *Scheduler) RegisterAll(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Report builds the ledger summary since the previous report and advances the window.
func (s *Scheduler) Report() (string, error) {
	s.mu.Lock()
	since := s.lastReport
	now := s.Now()
	s.mu.Unlock()

	totals, err := s.Recorder.Totals(since)
	if err != nil {
		return "", fmt.Errorf("load totals: %w", err)
	}

	s.mu.Lock()
	s.lastReport = now
	s.mu.Unlock()
	return notifier.FormatDailyReport(since, totals), nil
}

func (s *Scheduler) reportTask() {
	log.Println("[INFO] running report task")
	report, err := s.Report()
	if err != nil {
		log.Printf("[ERROR] report: %v", err)
		return
	}
	s.trySend(report)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/balance":
		return notifier.FormatBalances(s.Fleet.Snapshots())
	case "/status":
		return notifier.FormatStatus(s.Fleet.Snapshots(), s.Now())
	case "/report":
		report, err := s.Report()
		if err != nil {
			log.Printf("[ERROR] report: %v", err)
			return "❌ report failed: " + err.Error()
		}
		return report
	default:
		return "Available commands:\n• /balance\n• /status\n• /report"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		log.Printf("[INFO] report (telegram disabled):\n%s", text)
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
