package services

import (
	"strings"

	"inventory-ai-agent/internal/models"
)

// SentimentAnalyzer scores headline text by keyword frequency. It is pure:
// no side effects, no failure mode, safe for concurrent use once built.
type SentimentAnalyzer struct {
	positiveKeywords []string
	negativeKeywords []string
}

func NewSentimentAnalyzer(positiveKeywords, negativeKeywords []string) *SentimentAnalyzer {
	return &SentimentAnalyzer{
		positiveKeywords: lowercaseAll(positiveKeywords),
		negativeKeywords: lowercaseAll(negativeKeywords),
	}
}

// Analyze counts case-insensitive keyword occurrences across all headlines.
// Strict majority decides; an equal count, including zero hits on both sides,
// stays neutral/stable.
func (analyzer *SentimentAnalyzer) Analyze(headlines []string) (models.Sentiment, models.TrendDirection) {
	positiveCount := 0
	negativeCount := 0

	for _, headline := range headlines {
		lowered := strings.ToLower(headline)
		for _, keyword := range analyzer.positiveKeywords {
			if strings.Contains(lowered, keyword) {
				positiveCount++
			}
		}
		for _, keyword := range analyzer.negativeKeywords {
			if strings.Contains(lowered, keyword) {
				negativeCount++
			}
		}
	}

	switch {
	case positiveCount > negativeCount:
		return models.SentimentPositive, models.TrendUpward
	case negativeCount > positiveCount:
		return models.SentimentNegative, models.TrendDownward
	default:
		return models.SentimentNeutral, models.TrendStable
	}
}

func lowercaseAll(keywords []string) []string {
	lowered := make([]string, len(keywords))
	for i, keyword := range keywords {
		lowered[i] = strings.ToLower(keyword)
	}
	return lowered
}
