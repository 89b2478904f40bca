package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"StockExtractor/internal/model"
)

// DefaultSymbols is the ticker set tracked when the config file names none.
var DefaultSymbols = []string{
	"AAPL",  // Apple
	"MSFT",  // Microsoft
	"GOOGL", // Alphabet (Google)
	"AMZN",  // Amazon
	"TSLA",  // Tesla
	"META",  // Meta (Facebook)
	"NVDA",  // NVIDIA
	"JPM",   // JPMorgan Chase
	"V",     // Visa
	"JNJ",   // Johnson & Johnson
	"WMT",   // Walmart
	"PG",    // Procter & Gamble
	"DIS",   // Disney
	"NFLX",  // Netflix
	"COST",  // Costco
}

// Config holds all application configuration.
type Config struct {
	Symbols      []string `yaml:"symbols"`
	LookbackDays int      `yaml:"lookback_days"`
	Paths        struct {
		RawData       string `yaml:"raw_data"`
		ProcessedData string `yaml:"processed_data"`
	} `yaml:"paths"`
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"data_source"`
	Collector struct {
		Concurrency    int `yaml:"concurrency"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"collector"`
	Schedule struct {
		ExtractCron string `yaml:"extract_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// envOverrides lists the variables that take precedence over the YAML file.
// Zero values mean "not set".
type envOverrides struct {
	Symbols        []string `envconfig:"STOCK_SYMBOLS"`
	LookbackDays   int      `envconfig:"LOOKBACK_DAYS"`
	RawDataPath    string   `envconfig:"RAW_DATA_PATH"`
	ProcessedPath  string   `envconfig:"PROCESSED_DATA_PATH"`
	Provider       string   `envconfig:"DATA_PROVIDER"`
	BaseURL        string   `envconfig:"DATA_BASE_URL"`
	Concurrency    int      `envconfig:"COLLECTOR_CONCURRENCY"`
	TimeoutSeconds int      `envconfig:"COLLECTOR_TIMEOUT_SECONDS"`
	ExtractCron    string   `envconfig:"CRON_EXTRACT"`
	BotToken       string   `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID         string   `envconfig:"TELEGRAM_CHAT_ID"`
	SQLitePath     string   `envconfig:"SQLITE_PATH"`
	Proxy          string   `envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults fill whatever is left unset.
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

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if len(env.Symbols) > 0 {
		cfg.Symbols = env.Symbols
	}
	if env.LookbackDays > 0 {
		cfg.LookbackDays = env.LookbackDays
	}
	if env.RawDataPath != "" {
		cfg.Paths.RawData = env.RawDataPath
	}
	if env.ProcessedPath != "" {
		cfg.Paths.ProcessedData = env.ProcessedPath
	}
	if env.Provider != "" {
		cfg.DataSource.Provider = env.Provider
	}
	if env.BaseURL != "" {
		cfg.DataSource.BaseURL = env.BaseURL
	}
	if env.Concurrency > 0 {
		cfg.Collector.Concurrency = env.Concurrency
	}
	if env.TimeoutSeconds > 0 {
		cfg.Collector.TimeoutSeconds = env.TimeoutSeconds
	}
	if env.ExtractCron != "" {
		cfg.Schedule.ExtractCron = env.ExtractCron
	}
	if env.BotToken != "" {
		cfg.Telegram.BotToken = env.BotToken
	}
	if env.ChatID != "" {
		cfg.Telegram.ChatID = env.ChatID
	}
	if env.SQLitePath != "" {
		cfg.Database.SQLitePath = env.SQLitePath
	}
	if env.Proxy != "" {
		cfg.Proxy = env.Proxy
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if cfg.LookbackDays == 0 {
		cfg.LookbackDays = 365
	}
	if cfg.Paths.RawData == "" {
		cfg.Paths.RawData = "./data/raw/"
	}
	if cfg.Paths.ProcessedData == "" {
		cfg.Paths.ProcessedData = "./data/processed/"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.Collector.Concurrency <= 0 {
		cfg.Collector.Concurrency = 1
	}
	if cfg.Collector.TimeoutSeconds <= 0 {
		cfg.Collector.TimeoutSeconds = 30
	}
	if cfg.Schedule.ExtractCron == "" {
		cfg.Schedule.ExtractCron = "0 30 17 * * 1-5"
	}
}

// StockSymbols returns the configured tickers, normalized, in configured order.
// Blank entries are dropped; duplicates are kept.
func (c *Config) StockSymbols() []model.StockSymbol {
	out := make([]model.StockSymbol, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, model.NormalizeSymbol(s))
	}
	return out
}

// Validate checks the fields the long-running scheduler depends on.
// cmd/extract does not call it.
func (c *Config) Validate() error {
	if len(c.StockSymbols()) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive")
	}
	if c.Schedule.ExtractCron == "" {
		return fmt.Errorf("schedule.extract_cron is required")
	}
	switch c.DataSource.Provider {
	case "yahoo", "financego", "mock":
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	return nil
}

// DefaultPath is the config file read when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// PathFromEnv returns CONFIG_PATH, or DefaultPath.
func PathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}
