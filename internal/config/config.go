package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string

	HTTP      HTTPConfig
	Gemini    GeminiConfig
	Scraper   ScraperConfig
	Redis     RedisConfig
	Predictor PredictorConfig
	Agent     AgentConfig
	Log       LogConfig
}

type HTTPConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

type ScraperConfig struct {
	SourceTimeout time.Duration
	MaxPerSource  int
	MaxTotal      int
}

type RedisConfig struct {
	URL           string
	TrendCacheTTL time.Duration
	PoolSize      int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	DialTimeout   time.Duration
}

type PredictorConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AgentConfig struct {
	PositiveKeywords []string
	NegativeKeywords []string
}

type LogConfig struct {
	Level      string
	Format     string
	Output     string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var defaultPositiveKeywords = []string{
	"growth", "surge", "rising", "increase", "boom", "demand",
	"popular", "trending", "hot", "best-selling", "record",
}

var defaultNegativeKeywords = []string{
	"decline", "drop", "falling", "decrease", "slump", "slow",
	"weak", "struggling", "downturn", "shortage", "crisis",
}

func Load() (*Config, error) {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTP: HTTPConfig{
			Port:         port,
			ReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("HTTP_IDLE_TIMEOUT", 120*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:      os.Getenv("GEMINI_API_KEY"),
			Model:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			MaxTokens:   getIntEnv("GEMINI_MAX_TOKENS", 2048),
			Temperature: getFloatEnv("GEMINI_TEMPERATURE", 0.3),
			Timeout:     getDurationEnv("GEMINI_TIMEOUT", 30*time.Second),
			MaxRetries:  getIntEnv("GEMINI_MAX_RETRIES", 3),
			RetryDelay:  getDurationEnv("GEMINI_RETRY_DELAY", 1*time.Second),
		},
		Scraper: ScraperConfig{
			SourceTimeout: getDurationEnv("SCRAPER_SOURCE_TIMEOUT", 10*time.Second),
			MaxPerSource:  getIntEnv("SCRAPER_MAX_PER_SOURCE", 5),
			MaxTotal:      getIntEnv("SCRAPER_MAX_TOTAL", 15),
		},
		Redis: RedisConfig{
			URL:           os.Getenv("REDIS_URL"),
			TrendCacheTTL: getDurationEnv("TREND_CACHE_TTL", 15*time.Minute),
			PoolSize:      getIntEnv("REDIS_POOL_SIZE", 10),
			ReadTimeout:   getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:  getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			DialTimeout:   getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
		},
		Predictor: PredictorConfig{
			BaseURL: os.Getenv("PREDICTOR_URL"),
			Timeout: getDurationEnv("PREDICTOR_TIMEOUT", 10*time.Second),
		},
		Agent: AgentConfig{
			PositiveKeywords: getListEnv("SENTIMENT_POSITIVE_KEYWORDS", defaultPositiveKeywords),
			NegativeKeywords: getListEnv("SENTIMENT_NEGATIVE_KEYWORDS", defaultNegativeKeywords),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/agent.log"),
			MaxSizeMB:  getIntEnv("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getIntEnv("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getIntEnv("LOG_MAX_AGE_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks invariants the services rely on. A missing Gemini API key is
// not an error: the agent falls back to rule-based reasoning without it.
func (cfg *Config) Validate() error {
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", cfg.HTTP.Port)
	}

	if cfg.Scraper.MaxPerSource <= 0 {
		return fmt.Errorf("SCRAPER_MAX_PER_SOURCE must be positive, got %d", cfg.Scraper.MaxPerSource)
	}

	if cfg.Scraper.MaxTotal < cfg.Scraper.MaxPerSource {
		return fmt.Errorf("SCRAPER_MAX_TOTAL (%d) must be >= SCRAPER_MAX_PER_SOURCE (%d)",
			cfg.Scraper.MaxTotal, cfg.Scraper.MaxPerSource)
	}

	if len(cfg.Agent.PositiveKeywords) == 0 || len(cfg.Agent.NegativeKeywords) == 0 {
		return fmt.Errorf("sentiment keyword lists cannot be empty")
	}

	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s", cfg.Log.Format)
	}

	return nil
}

func (cfg *Config) GeminiEnabled() bool {
	return cfg.Gemini.APIKey != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloatEnv(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getListEnv(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			items = append(items, part)
		}
	}

	if len(items) == 0 {
		return fallback
	}
	return items
}
