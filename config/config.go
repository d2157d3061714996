package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. TelegramToken is only
// required when the Telegram surface runs; the REPL needs none.
type Config struct {
	TelegramToken    string `yaml:"telegram_token"`
	ChatID           int64  `yaml:"chat_id"`
	WikiAPIURL       string `yaml:"wiki_api_url"`
	WikiNamespaces   string `yaml:"wiki_namespaces"`
	FrequencyAPIURL  string `yaml:"frequency_api_url"`
	MuseTime         string `yaml:"muse_time"`
	Timezone         string `yaml:"timezone"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs"`
	ScrapeFallback   bool   `yaml:"scrape_fallback"`
	DBPath           string `yaml:"db_path"`
	LogLevel         string `yaml:"log_level"`
}

// museTimeRegex validates HH:MM format with proper ranges.
var museTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("WIKIBOT_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

func applyDefaults(cfg *Config) {
	if cfg.WikiAPIURL == "" {
		cfg.WikiAPIURL = "https://en.wikipedia.org/w/api.php"
	}
	if cfg.WikiNamespaces == "" {
		cfg.WikiNamespaces = "0|4"
	}
	if cfg.FrequencyAPIURL == "" {
		cfg.FrequencyAPIURL = "https://wordsapiv1.p.rapidapi.com"
	}
	if cfg.MuseTime == "" {
		cfg.MuseTime = "09:00"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = 10
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./wikibot.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if dbPath := os.Getenv("WIKIBOT_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if token := os.Getenv("WIKIBOT_TELEGRAM_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
}

func validate(cfg *Config) error {
	if !museTimeRegex.MatchString(cfg.MuseTime) {
		return fmt.Errorf("muse_time must be in HH:MM format (00:00-23:59), got %q", cfg.MuseTime)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.FetchTimeoutSecs < 0 {
		return fmt.Errorf("fetch_timeout_secs must be positive, got %d", cfg.FetchTimeoutSecs)
	}
	return nil
}

// FetchTimeout returns the HTTP fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}
