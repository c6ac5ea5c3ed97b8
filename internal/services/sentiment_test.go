package services_test

import (
	"testing"

	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/services"
)

var (
	testPositiveKeywords = []string{"growth", "surge", "rising", "demand", "boom"}
	testNegativeKeywords = []string{"decline", "drop", "falling", "slump", "shortage"}
)

func TestAnalyzePositiveMajority(t *testing.T) {
	analyzer := services.NewSentimentAnalyzer(testPositiveKeywords, testNegativeKeywords)

	sentiment, direction := analyzer.Analyze([]string{
		"Widget sales surge as demand grows",
		"Market growth continues into Q3",
		"Minor decline in one region",
	})

	if sentiment != models.SentimentPositive {
		t.Errorf("Expected positive sentiment, got %s", sentiment)
	}
	if direction != models.TrendUpward {
		t.Errorf("Expected upward direction, got %s", direction)
	}
}

func TestAnalyzeNegativeMajority(t *testing.T) {
	analyzer := services.NewSentimentAnalyzer(testPositiveKeywords, testNegativeKeywords)

	sentiment, direction := analyzer.Analyze([]string{
		"Prices falling amid widget slump",
		"Supply shortage hits retailers",
	})

	if sentiment != models.SentimentNegative {
		t.Errorf("Expected negative sentiment, got %s", sentiment)
	}
	if direction != models.TrendDownward {
		t.Errorf("Expected downward direction, got %s", direction)
	}
}

func TestAnalyzeTieIsNeutral(t *testing.T) {
	analyzer := services.NewSentimentAnalyzer(testPositiveKeywords, testNegativeKeywords)

	sentiment, direction := analyzer.Analyze([]string{
		"Widget demand holds steady despite decline elsewhere",
	})

	if sentiment != models.SentimentNeutral {
		t.Errorf("Expected neutral sentiment on tie, got %s", sentiment)
	}
	if direction != models.TrendStable {
		t.Errorf("Expected stable direction on tie, got %s", direction)
	}
}

func TestAnalyzeNoHeadlines(t *testing.T) {
	analyzer := services.NewSentimentAnalyzer(testPositiveKeywords, testNegativeKeywords)

	sentiment, direction := analyzer.Analyze(nil)

	if sentiment != models.SentimentNeutral || direction != models.TrendStable {
		t.Errorf("Expected neutral/stable for empty input, got %s/%s", sentiment, direction)
	}
}

func TestAnalyzeCaseInsensitive(t *testing.T) {
	analyzer := services.NewSentimentAnalyzer(testPositiveKeywords, testNegativeKeywords)

	sentiment, _ := analyzer.Analyze([]string{"WIDGET SALES SURGE"})

	if sentiment != models.SentimentPositive {
		t.Errorf("Expected positive sentiment for uppercase headline, got %s", sentiment)
	}
}
