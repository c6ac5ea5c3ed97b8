package config_test

import (
	"testing"
	"time"

	"inventory-ai-agent/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.HTTP.Port)
	}

	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Errorf("Expected default model gemini-1.5-flash, got %s", cfg.Gemini.Model)
	}

	if cfg.Scraper.SourceTimeout != 10*time.Second {
		t.Errorf("Expected default source timeout 10s, got %v", cfg.Scraper.SourceTimeout)
	}

	if cfg.Scraper.MaxPerSource != 5 {
		t.Errorf("Expected default max per source 5, got %d", cfg.Scraper.MaxPerSource)
	}

	if cfg.Scraper.MaxTotal != 15 {
		t.Errorf("Expected default max total 15, got %d", cfg.Scraper.MaxTotal)
	}

	if len(cfg.Agent.PositiveKeywords) == 0 || len(cfg.Agent.NegativeKeywords) == 0 {
		t.Error("Expected default sentiment keyword lists to be populated")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCRAPER_MAX_PER_SOURCE", "3")
	t.Setenv("SENTIMENT_POSITIVE_KEYWORDS", "Boom, Surge ,")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.HTTP.Port)
	}

	if cfg.Scraper.MaxPerSource != 3 {
		t.Errorf("Expected max per source 3, got %d", cfg.Scraper.MaxPerSource)
	}

	if len(cfg.Agent.PositiveKeywords) != 2 {
		t.Fatalf("Expected 2 positive keywords, got %v", cfg.Agent.PositiveKeywords)
	}
	if cfg.Agent.PositiveKeywords[0] != "boom" || cfg.Agent.PositiveKeywords[1] != "surge" {
		t.Errorf("Expected lowercased trimmed keywords, got %v", cfg.Agent.PositiveKeywords)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	if _, err := config.Load(); err == nil {
		t.Error("Expected error for invalid PORT")
	}
}

func TestValidateRejectsBadMaxTotal(t *testing.T) {
	t.Setenv("SCRAPER_MAX_PER_SOURCE", "10")
	t.Setenv("SCRAPER_MAX_TOTAL", "5")

	if _, err := config.Load(); err == nil {
		t.Error("Expected error when max total is below max per source")
	}
}

func TestGeminiEnabled(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GeminiEnabled() {
		t.Error("Expected Gemini to be disabled without an API key")
	}

	t.Setenv("GEMINI_API_KEY", "test-key")
	cfg, err = config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.GeminiEnabled() {
		t.Error("Expected Gemini to be enabled with an API key")
	}
}
