package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"PixelSentinel/internal/bot"
	"PixelSentinel/internal/clock"
	"PixelSentinel/internal/config"
	"PixelSentinel/internal/model"
	"PixelSentinel/internal/notifier"
	"PixelSentinel/internal/recorder"
	"PixelSentinel/internal/scheduler"

	"github.com/spf13/cobra"
)

func newRunCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every configured account until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Println("[INFO] PixelSentinel starting...")

	// Init recorder
	var rec recorder.Recorder
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
		log.Printf("[WARN] create data dir: %v", err)
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
		defer sr.Close()
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var alerts bot.Notifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		alerts = tn
		sender = tn
	} else {
		log.Println("[INFO] telegram not configured, reports go to the log")
	}

	// Init sessions
	settings := settingsFromConfig(cfg)
	sessions := make([]*bot.Session, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		id := model.Identity{Name: a.Name, UserAgent: a.UserAgent, Proxy: a.Proxy}
		sessions = append(sessions, bot.NewSession(id, settings, clock.System{}, rec, alerts))
	}
	fleet := bot.NewFleet(sessions...)
	log.Printf("[INFO] %d account(s) configured", len(sessions))

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, fleet, sender, rec)
	if err := sched.RegisterAll(cfg.Schedule.ReportCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	log.Println("[INFO] PixelSentinel is running. Press Ctrl+C to stop.")
	err = fleet.Run(ctx)
	log.Println("[INFO] PixelSentinel stopped")
	return err
}

func settingsFromConfig(cfg *config.Config) bot.Settings {
	st := bot.DefaultSettings()
	st.AdsURL = cfg.Game.AdsURL
	st.WebSocketURL = cfg.Game.WebSocketURL
	st.WatchAds = *cfg.Workflows.WatchAds
	st.WebSocket = cfg.Workflows.WebSocket
	st.WatchDuration = cfg.Timing.WatchDuration
	st.IdleMin = cfg.Timing.IdleMin
	st.IdleMax = cfg.Timing.IdleMax
	st.Cooldown = cfg.Timing.Cooldown
	st.RequestTimeout = cfg.Timing.RequestTimeout
	st.RequestsPerSecond = cfg.Timing.RequestsPerSecond
	st.FrameDeadline = cfg.Timing.FrameDeadline
	return st
}
