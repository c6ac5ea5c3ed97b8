package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-ai-agent/internal/config"
	"inventory-ai-agent/internal/pkg/logger"
	"inventory-ai-agent/internal/services"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(config.LogConfig{
		Level:  "error",
		Format: "json",
		Output: "stderr",
	})
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return log
}

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		SourceTimeout: 5 * time.Second,
		MaxPerSource:  5,
		MaxTotal:      15,
	}
}

const duckduckgoFixture = `<html><body>
<div class="result">
  <h2 class="result__title"><a href="https://example.com/1">Widget sales surge in 2026</a></h2>
</div>
<div class="result">
  <h2 class="result__title"><a href="https://example.com/2">Widget market growth continues</a></h2>
</div>
<div class="result">
  <h2 class="result__title"><a href="https://example.com/3">Retailers expand widget lines</a></h2>
</div>
</body></html>`

const googleNewsFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<item>
  <title>Widget demand rising across Europe</title>
  <link>https://news.example.com/a</link>
  <pubDate>Mon, 17 Aug 2026 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Widget supply steady</title>
  <link>https://news.example.com/b</link>
  <pubDate>Tue, 18 Aug 2026 10:00:00 GMT</pubDate>
</item>
</channel></rss>`

func TestDuckDuckGoSourceParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("Expected query parameter to be set")
		}
		w.Write([]byte(duckduckgoFixture))
	}))
	defer server.Close()

	source := services.NewDuckDuckGoSourceWithBaseURL(testScraperConfig(), newTestLogger(t), server.URL)

	result := source.Fetch(context.Background(), "widget market trends 2026")

	if result.Err != "" {
		t.Fatalf("Expected no error, got %q", result.Err)
	}
	if len(result.Headlines) != 3 {
		t.Fatalf("Expected 3 headlines, got %d", len(result.Headlines))
	}
	if result.Headlines[0].Headline != "Widget sales surge in 2026" {
		t.Errorf("Unexpected first headline: %q", result.Headlines[0].Headline)
	}
	if result.Headlines[0].URL != "https://example.com/1" {
		t.Errorf("Unexpected first URL: %q", result.Headlines[0].URL)
	}
	if result.Headlines[0].Source != "web" {
		t.Errorf("Expected source web, got %q", result.Headlines[0].Source)
	}
}

func TestDuckDuckGoSourceCapsResults(t *testing.T) {
	var rows []string
	for i := 0; i < 10; i++ {
		rows = append(rows, `<h2 class="result__title"><a href="https://example.com/x">Headline</a></h2>`)
	}
	page := "<html><body>" + strings.Join(rows, "\n") + "</body></html>"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	cfg := testScraperConfig()
	cfg.MaxPerSource = 2
	source := services.NewDuckDuckGoSourceWithBaseURL(cfg, newTestLogger(t), server.URL)

	result := source.Fetch(context.Background(), "widgets")

	if len(result.Headlines) != 2 {
		t.Errorf("Expected headlines capped at 2, got %d", len(result.Headlines))
	}
}

func TestDuckDuckGoSourceUnreachable(t *testing.T) {
	source := services.NewDuckDuckGoSourceWithBaseURL(
		testScraperConfig(), newTestLogger(t), "http://127.0.0.1:1/html/")

	result := source.Fetch(context.Background(), "widgets")

	if result.Err == "" {
		t.Error("Expected error reason for unreachable endpoint")
	}
	if len(result.Headlines) != 0 {
		t.Errorf("Expected no headlines, got %d", len(result.Headlines))
	}
}

func TestGoogleNewsSourceParsesRSS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(googleNewsFixture))
	}))
	defer server.Close()

	source := services.NewGoogleNewsSourceWithBaseURL(testScraperConfig(), newTestLogger(t), server.URL)

	result := source.Fetch(context.Background(), "widget market trends 2026")

	if result.Err != "" {
		t.Fatalf("Expected no error, got %q", result.Err)
	}
	if len(result.Headlines) != 2 {
		t.Fatalf("Expected 2 headlines, got %d", len(result.Headlines))
	}
	if result.Headlines[0].Headline != "Widget demand rising across Europe" {
		t.Errorf("Unexpected headline: %q", result.Headlines[0].Headline)
	}
	if result.Headlines[0].PublishedAt == "" {
		t.Error("Expected pubDate to be carried through")
	}
	if result.Headlines[0].Source != "Google News" {
		t.Errorf("Expected source Google News, got %q", result.Headlines[0].Source)
	}
}

func TestGoogleNewsSourceBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := services.NewGoogleNewsSourceWithBaseURL(testScraperConfig(), newTestLogger(t), server.URL)

	result := source.Fetch(context.Background(), "widgets")

	if result.Err == "" {
		t.Error("Expected error reason for 503 response")
	}
}

type failingSource struct {
	calls int
}

func (s *failingSource) Name() string { return "failing" }

func (s *failingSource) Fetch(ctx context.Context, query string) services.SourceResult {
	s.calls++
	return services.SourceResult{Source: s.Name(), Err: "connection refused"}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingSource{}
	source := services.WithCircuitBreaker(inner, newTestLogger(t))

	for i := 0; i < 3; i++ {
		result := source.Fetch(context.Background(), "widgets")
		if result.Err != "connection refused" {
			t.Fatalf("Expected inner error on attempt %d, got %q", i+1, result.Err)
		}
	}

	result := source.Fetch(context.Background(), "widgets")
	if !strings.HasPrefix(result.Err, "source unavailable:") {
		t.Errorf("Expected open breaker error, got %q", result.Err)
	}
	if inner.calls != 3 {
		t.Errorf("Expected inner source to stop being called, calls = %d", inner.calls)
	}
	if result.Source != "failing" {
		t.Errorf("Breaker must preserve the source name, got %q", result.Source)
	}
}
