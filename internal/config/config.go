package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"PixelSentinel/internal/transport"

	"gopkg.in/yaml.v3"
)

// Account is one automated identity.
type Account struct {
	Name      string `yaml:"name"`
	UserAgent string `yaml:"user_agent"`
	Proxy     string `yaml:"proxy"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Accounts []Account `yaml:"accounts"`
	Game     struct {
		AdsURL       string `yaml:"ads_url"`
		WebSocketURL string `yaml:"websocket_url"`
	} `yaml:"game"`
	Workflows struct {
		WatchAds  *bool `yaml:"watch_ads"`
		WebSocket bool  `yaml:"websocket"`
	} `yaml:"workflows"`
	Timing struct {
		WatchDuration     time.Duration `yaml:"watch_duration"`
		IdleMin           time.Duration `yaml:"idle_min"`
		IdleMax           time.Duration `yaml:"idle_max"`
		Cooldown          time.Duration `yaml:"cooldown"`
		RequestTimeout    time.Duration `yaml:"request_timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		FrameDeadline     time.Duration `yaml:"frame_deadline"`
	} `yaml:"timing"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	// Proxy is used by accounts that set none, and by the Telegram client.
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REPORT_CRON"); v != "" {
		cfg.Schedule.ReportCron = v
	}
	if v := os.Getenv("WATCH_ADS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Workflows.WatchAds = &b
		}
	}
	if v := os.Getenv("ADS_URL"); v != "" {
		cfg.Game.AdsURL = v
	}

	// Defaults
	if cfg.Workflows.WatchAds == nil {
		watch := true
		cfg.Workflows.WatchAds = &watch
	}
	if cfg.Game.AdsURL == "" {
		cfg.Game.AdsURL = "https://notpx.app/api/v1/ads"
	}
	if cfg.Game.WebSocketURL == "" {
		cfg.Game.WebSocketURL = "wss://notpx.app/connection/websocket"
	}
	if cfg.Timing.WatchDuration == 0 {
		cfg.Timing.WatchDuration = 10 * time.Second
	}
	if cfg.Timing.IdleMin == 0 {
		cfg.Timing.IdleMin = 5 * time.Minute
	}
	if cfg.Timing.IdleMax == 0 {
		cfg.Timing.IdleMax = 10 * time.Minute
	}
	if cfg.Timing.Cooldown == 0 {
		cfg.Timing.Cooldown = 10 * time.Minute
	}
	if cfg.Timing.RequestTimeout == 0 {
		cfg.Timing.RequestTimeout = transport.DefaultTimeout
	}
	if cfg.Timing.FrameDeadline == 0 {
		cfg.Timing.FrameDeadline = 15 * time.Second
	}
	if cfg.Schedule.ReportCron == "" {
		cfg.Schedule.ReportCron = "0 0 21 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/pixel_sentinel.db"
	}
	for i := range cfg.Accounts {
		if cfg.Accounts[i].Proxy == "" {
			cfg.Accounts[i].Proxy = cfg.Proxy
		}
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	seen := make(map[string]bool, len(c.Accounts))
	for i, a := range c.Accounts {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return fmt.Errorf("accounts[%d].name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate account name %q", name)
		}
		seen[name] = true
		if _, err := transport.ParseProxy(a.Proxy); err != nil {
			return fmt.Errorf("accounts[%d] (%s): %w", i, name, err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Timing.IdleMax < c.Timing.IdleMin {
		return fmt.Errorf("timing.idle_max must not be less than timing.idle_min")
	}
	if c.Timing.RequestsPerSecond < 0 {
		return fmt.Errorf("timing.requests_per_second must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether reports and alerts go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
