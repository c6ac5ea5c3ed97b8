package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"inventory-ai-agent/internal/config"
	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/pkg/logger"
)

// MarketTrendsService aggregates headline-level market signal from the
// configured trend sources. It always returns a bundle: when every source
// fails the bundle carries empty trends plus an error string, and sentiment
// stays at its neutral/stable default.
type MarketTrendsService struct {
	sources   []TrendSource
	sentiment *SentimentAnalyzer
	cache     *TrendCache
	config    config.ScraperConfig
	logger    *logger.Logger
}

// country code -> human-readable name, for better search queries. Unknown
// codes pass through unchanged.
var countryNames = map[string]string{
	"US": "United States",
	"UK": "United Kingdom",
	"GB": "United Kingdom",
	"BD": "Bangladesh",
	"IN": "India",
	"CA": "Canada",
	"AU": "Australia",
	"DE": "Germany",
	"FR": "France",
	"JP": "Japan",
	"CN": "China",
	"AE": "UAE",
	"SG": "Singapore",
	"MY": "Malaysia",
	"PK": "Pakistan",
	"NP": "Nepal",
}

func NewMarketTrendsService(
	sources []TrendSource,
	sentiment *SentimentAnalyzer,
	cache *TrendCache,
	cfg config.ScraperConfig,
	log *logger.Logger) *MarketTrendsService {

	service := &MarketTrendsService{
		sources:   sources,
		sentiment: sentiment,
		cache:     cache,
		config:    cfg,
		logger:    log,
	}

	sourceNames := make([]string, len(sources))
	for i, source := range sources {
		sourceNames[i] = source.Name()
	}

	log.Info("Market trends service initialized successfully",
		"sources", sourceNames,
		"max_per_source", cfg.MaxPerSource,
		"max_total", cfg.MaxTotal,
		"cache_enabled", cache != nil)

	return service
}

// FetchTrends builds the search query for the product and fans out to every
// configured source concurrently. Missing sources never fail the bundle.
func (service *MarketTrendsService) FetchTrends(ctx context.Context, productCtx models.ProductContext) *models.TrendBundle {
	startTime := time.Now()

	productName := productCtx.ProductName
	if productName == "" {
		productName = productCtx.ProductID
	}

	searchQuery := service.BuildSearchQuery(productCtx)
	country := strings.ToUpper(strings.TrimSpace(productCtx.ShopCountry))

	if cached := service.cache.Get(ctx, searchQuery); cached != nil {
		service.logger.Debug("Trend bundle served from cache", "search_query", searchQuery)
		return cached
	}

	bundle := models.NewTrendBundle(productName, productCtx.Category, country, searchQuery)

	results := make([]SourceResult, len(service.sources))
	var wg sync.WaitGroup

	for i, source := range service.sources {
		wg.Add(1)
		go func(index int, src TrendSource) {
			defer func() {
				// sources promise not to panic, this is the defensive backstop
				if r := recover(); r != nil {
					results[index] = SourceResult{
						Source: src.Name(),
						Err:    fmt.Sprintf("source panic: %v", r),
					}
				}
				wg.Done()
			}()

			fetchCtx, cancel := context.WithTimeout(ctx, service.config.SourceTimeout)
			defer cancel()

			results[index] = src.Fetch(fetchCtx, searchQuery)
		}(i, source)
	}

	wg.Wait()

	var sourceErrors []string
	for _, result := range results {
		if result.Err != "" {
			sourceErrors = append(sourceErrors, fmt.Sprintf("%s: %s", result.Source, result.Err))
			continue
		}

		if len(result.Headlines) == 0 {
			continue
		}

		bundle.SourcesChecked = append(bundle.SourcesChecked, result.Source)
		for _, headline := range result.Headlines {
			if len(bundle.Trends) >= service.config.MaxTotal {
				break
			}
			bundle.Trends = append(bundle.Trends, headline)
		}
	}

	if len(sourceErrors) > 0 {
		bundle.Error = strings.Join(sourceErrors, "; ")
	}

	if len(bundle.Trends) > 0 {
		headlines := make([]string, len(bundle.Trends))
		for i, trend := range bundle.Trends {
			headlines[i] = trend.Headline
		}
		bundle.Sentiment, bundle.TrendDirection = service.sentiment.Analyze(headlines)
	}

	service.cache.Put(ctx, searchQuery, bundle)

	service.logger.LogService("market_trends", "fetch_trends", time.Since(startTime), map[string]interface{}{
		"search_query":    searchQuery,
		"trends_found":    len(bundle.Trends),
		"sources_checked": bundle.SourcesChecked,
		"sentiment":       string(bundle.Sentiment),
		"trend_direction": string(bundle.TrendDirection),
		"error":           bundle.Error,
	}, nil)

	return bundle
}

// BuildSearchQuery assembles "name [description excerpt] category country
// market trends 2026" with empty segments collapsed.
func (service *MarketTrendsService) BuildSearchQuery(productCtx models.ProductContext) string {
	productName := productCtx.ProductName
	if productName == "" {
		productName = productCtx.ProductID
	}

	segments := []string{productName}

	if excerpt := descriptionExcerpt(productCtx.ProductDescription, 50); excerpt != "" {
		segments = append(segments, excerpt)
	}

	if productCtx.Category != "" {
		segments = append(segments, productCtx.Category)
	}

	if countryName := resolveCountryName(productCtx.ShopCountry); countryName != "" {
		segments = append(segments, countryName)
	}

	segments = append(segments, "market trends 2026")

	return strings.Join(segments, " ")
}

func (service *MarketTrendsService) HealthCheck(ctx context.Context) error {
	if len(service.sources) == 0 {
		return fmt.Errorf("no trend sources configured")
	}
	return service.cache.HealthCheck(ctx)
}

func resolveCountryName(code string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(code))
	if cleaned == "" {
		return ""
	}

	if name, exists := countryNames[cleaned]; exists {
		return name
	}
	return cleaned
}

func descriptionExcerpt(description string, maxLen int) string {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return ""
	}

	if len(trimmed) > maxLen {
		trimmed = strings.TrimSpace(trimmed[:maxLen])
	}
	return trimmed
}
