package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
	"github.com/gocolly/colly/v2"
	"github.com/sony/gobreaker"

	"inventory-ai-agent/internal/config"
	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/pkg/logger"
)

// SourceResult is what a trend source hands back. Sources never return a Go
// error: any network, parse, or breaker failure yields empty Headlines with
// the reason in Err. This lets the aggregator tell "no results found" apart
// from "source errored" without per-source error handling.
type SourceResult struct {
	Source    string
	Headlines []models.TrendHeadline
	Err       string
}

type TrendSource interface {
	Name() string
	Fetch(ctx context.Context, query string) SourceResult
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/120.0",
}

// ---------------- DuckDuckGo HTML search ----------------

type DuckDuckGoSource struct {
	collector  *colly.Collector
	baseURL    string
	maxResults int
	timeout    time.Duration
	logger     *logger.Logger

	mu      sync.Mutex
	uaIndex int
}

func NewDuckDuckGoSource(cfg config.ScraperConfig, log *logger.Logger) *DuckDuckGoSource {
	collector := colly.NewCollector()
	collector.SetRequestTimeout(cfg.SourceTimeout)

	return &DuckDuckGoSource{
		collector:  collector,
		baseURL:    "https://html.duckduckgo.com/html/",
		maxResults: cfg.MaxPerSource,
		timeout:    cfg.SourceTimeout,
		logger:     log,
	}
}

// NewDuckDuckGoSourceWithBaseURL points the source at a different endpoint;
// used by tests against local fixtures.
func NewDuckDuckGoSourceWithBaseURL(cfg config.ScraperConfig, log *logger.Logger, baseURL string) *DuckDuckGoSource {
	source := NewDuckDuckGoSource(cfg, log)
	source.baseURL = baseURL
	return source
}

func (source *DuckDuckGoSource) Name() string {
	return "duckduckgo"
}

func (source *DuckDuckGoSource) Fetch(ctx context.Context, query string) SourceResult {
	startTime := time.Now()
	result := SourceResult{Source: source.Name(), Headlines: []models.TrendHeadline{}}

	collector := source.collector.Clone()

	collector.OnRequest(func(r *colly.Request) {
		source.mu.Lock()
		userAgent := defaultUserAgents[source.uaIndex]
		source.uaIndex = (source.uaIndex + 1) % len(defaultUserAgents)
		source.mu.Unlock()

		r.Headers.Set("User-Agent", userAgent)
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	collector.OnHTML(".result__title", func(e *colly.HTMLElement) {
		if len(result.Headlines) >= source.maxResults {
			return
		}

		headline, href := firstAnchor(e.DOM)
		if headline == "" {
			return
		}

		result.Headlines = append(result.Headlines, models.TrendHeadline{
			Headline: headline,
			URL:      href,
			Source:   "web",
		})
	})

	var visitErr error
	collector.OnError(func(r *colly.Response, err error) {
		visitErr = err
	})

	targetURL := fmt.Sprintf("%s?q=%s", source.baseURL, url.QueryEscape(query))

	done := make(chan struct{}, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				visitErr = fmt.Errorf("scraper panic: %v", r)
			}
			done <- struct{}{}
		}()

		if err := collector.Visit(targetURL); err != nil {
			visitErr = err
		}
		collector.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		result.Err = "fetch cancelled: " + ctx.Err().Error()
		source.logger.Warn("DuckDuckGo fetch cancelled", "query", query, "duration", time.Since(startTime))
		return result
	}

	if visitErr != nil && len(result.Headlines) == 0 {
		result.Err = visitErr.Error()
	}

	source.logger.LogService("trend_source", "fetch_duckduckgo", time.Since(startTime), map[string]interface{}{
		"query":     query,
		"headlines": len(result.Headlines),
		"error":     result.Err,
	}, nil)

	return result
}

// firstAnchor pulls the text and href of the first link inside a selection.
func firstAnchor(sel *goquery.Selection) (text, href string) {
	link := sel.Find("a").First()
	text = strings.TrimSpace(link.Text())
	href, _ = link.Attr("href")
	return text, href
}

// ---------------- Google News RSS ----------------

type GoogleNewsSource struct {
	client     *http.Client
	baseURL    string
	maxResults int
	logger     *logger.Logger
}

func NewGoogleNewsSource(cfg config.ScraperConfig, log *logger.Logger) *GoogleNewsSource {
	return &GoogleNewsSource{
		client:     &http.Client{Timeout: cfg.SourceTimeout},
		baseURL:    "https://news.google.com/rss/search",
		maxResults: cfg.MaxPerSource,
		logger:     log,
	}
}

func NewGoogleNewsSourceWithBaseURL(cfg config.ScraperConfig, log *logger.Logger, baseURL string) *GoogleNewsSource {
	source := NewGoogleNewsSource(cfg, log)
	source.baseURL = baseURL
	return source
}

func (source *GoogleNewsSource) Name() string {
	return "google_news"
}

func (source *GoogleNewsSource) Fetch(ctx context.Context, query string) SourceResult {
	startTime := time.Now()
	result := SourceResult{Source: source.Name(), Headlines: []models.TrendHeadline{}}

	defer func() {
		if r := recover(); r != nil {
			result.Headlines = []models.TrendHeadline{}
			result.Err = fmt.Sprintf("source panic: %v", r)
		}
	}()

	targetURL := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", source.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	req.Header.Set("User-Agent", defaultUserAgents[0])

	resp, err := source.client.Do(req)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Err = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return result
	}

	doc, err := xmlquery.Parse(resp.Body)
	if err != nil {
		result.Err = fmt.Sprintf("rss parse failed: %v", err)
		return result
	}

	for _, item := range xmlquery.Find(doc, "//item") {
		if len(result.Headlines) >= source.maxResults {
			break
		}

		titleNode := item.SelectElement("title")
		if titleNode == nil {
			continue
		}

		headline := models.TrendHeadline{
			Headline: strings.TrimSpace(titleNode.InnerText()),
			Source:   "Google News",
		}
		if headline.Headline == "" {
			continue
		}

		if linkNode := item.SelectElement("link"); linkNode != nil {
			headline.URL = strings.TrimSpace(linkNode.InnerText())
		}
		if dateNode := item.SelectElement("pubDate"); dateNode != nil {
			headline.PublishedAt = strings.TrimSpace(dateNode.InnerText())
		}

		result.Headlines = append(result.Headlines, headline)
	}

	source.logger.LogService("trend_source", "fetch_google_news", time.Since(startTime), map[string]interface{}{
		"query":     query,
		"headlines": len(result.Headlines),
		"error":     result.Err,
	}, nil)

	return result
}

// ---------------- Circuit breaker wrapper ----------------

type breakerSource struct {
	inner   TrendSource
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

// WithCircuitBreaker stops hammering a source that keeps failing. An open
// breaker is reported as an ordinary SourceResult error reason, keeping the
// no-throw contract intact.
func WithCircuitBreaker(inner TrendSource, log *logger.Logger) TrendSource {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Interval:    2 * time.Minute,
		Timeout:     1 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Trend source breaker state changed", "source", name, "from", from.String(), "to", to.String())
		},
	}

	return &breakerSource{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  log,
	}
}

func (source *breakerSource) Name() string {
	return source.inner.Name()
}

func (source *breakerSource) Fetch(ctx context.Context, query string) SourceResult {
	outcome, err := source.breaker.Execute(func() (interface{}, error) {
		result := source.inner.Fetch(ctx, query)
		if result.Err != "" {
			return result, fmt.Errorf("%s", result.Err)
		}
		return result, nil
	})

	if outcome != nil {
		// the inner result carries its own Err reason on failure
		return outcome.(SourceResult)
	}

	return SourceResult{
		Source:    source.inner.Name(),
		Headlines: []models.TrendHeadline{},
		Err:       "source unavailable: " + err.Error(),
	}
}
