package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "telegram_token: tok123\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.WikiAPIURL != "https://en.wikipedia.org/w/api.php" {
		t.Errorf("WikiAPIURL = %q", cfg.WikiAPIURL)
	}
	if cfg.WikiNamespaces != "0|4" {
		t.Errorf("WikiNamespaces = %q", cfg.WikiNamespaces)
	}
	if cfg.MuseTime != "09:00" {
		t.Errorf("MuseTime = %q", cfg.MuseTime)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.FetchTimeout() != 10*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout())
	}
	if cfg.DBPath != "./wikibot.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
telegram_token: tok123
chat_id: 42
wiki_api_url: https://wiki.example/api.php
wiki_namespaces: "0"
muse_time: "21:30"
timezone: Europe/Amsterdam
fetch_timeout_secs: 5
scrape_fallback: true
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ChatID != 42 {
		t.Errorf("ChatID = %d", cfg.ChatID)
	}
	if cfg.WikiAPIURL != "https://wiki.example/api.php" {
		t.Errorf("WikiAPIURL = %q", cfg.WikiAPIURL)
	}
	if cfg.MuseTime != "21:30" {
		t.Errorf("MuseTime = %q", cfg.MuseTime)
	}
	if !cfg.ScrapeFallback {
		t.Error("ScrapeFallback = false")
	}
}

func TestLoadInvalidMuseTime(t *testing.T) {
	for _, bad := range []string{"25:00", "9:00", "12:60", "noon"} {
		path := writeConfig(t, "muse_time: \""+bad+"\"\n")
		if _, err := Load(path); err == nil {
			t.Errorf("Load accepted muse_time %q", bad)
		}
	}
}

func TestLoadInvalidTimezone(t *testing.T) {
	path := writeConfig(t, "timezone: Mars/Olympus\n")
	if _, err := Load(path); err == nil {
		t.Error("Load accepted invalid timezone")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load accepted missing file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "telegram_token: from-file\n")
	t.Setenv("WIKIBOT_DB", "/tmp/override.db")
	t.Setenv("WIKIBOT_TELEGRAM_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.TelegramToken != "from-env" {
		t.Errorf("TelegramToken = %q", cfg.TelegramToken)
	}
}
