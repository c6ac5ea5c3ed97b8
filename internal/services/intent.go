package services

import (
	"strings"

	"inventory-ai-agent/internal/models"
)

// IntentClassifier maps a free-text query to an ordered set of tool names.
// The routing is deterministic keyword matching; precedence is exact phrase,
// then containment in fixed priority order, then the forecast default. It
// never returns an empty set.
type IntentClassifier struct {
	canonicalQueries map[string][]string
}

var (
	allToolsOrdered = []string{
		models.ToolDemandForecast,
		models.ToolSmartReorder,
		models.ToolPricelistOptimize,
	}

	fullAnalysisKeywords = []string{"full analysis", "all", "complete", "everything"}
	demandKeywords       = []string{"demand", "forecast", "predict", "future demand"}
	reorderKeywords      = []string{"reorder", "stock", "replenish", "order"}
	pricingKeywords      = []string{"price", "pricing", "markdown", "discount", "optimize"}
)

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{
		canonicalQueries: map[string][]string{
			"what's the demand forecast?":              {models.ToolDemandForecast},
			"what's the smart reorder recommendation?": {models.ToolSmartReorder},
			"what's the pricelist optimization?":       {models.ToolPricelistOptimize},
			"what's the full analysis?":                allToolsOrdered,
		},
	}
}

func (classifier *IntentClassifier) Classify(query string) []string {
	cleaned := strings.ToLower(strings.TrimSpace(query))

	if tools, exists := classifier.canonicalQueries[cleaned]; exists {
		return append([]string{}, tools...)
	}

	if containsAnyKeyword(cleaned, fullAnalysisKeywords) {
		return append([]string{}, allToolsOrdered...)
	}

	if containsAnyKeyword(cleaned, demandKeywords) {
		return []string{models.ToolDemandForecast}
	}

	if containsAnyKeyword(cleaned, reorderKeywords) {
		return []string{models.ToolSmartReorder}
	}

	if containsAnyKeyword(cleaned, pricingKeywords) {
		return []string{models.ToolPricelistOptimize}
	}

	return []string{models.ToolDemandForecast}
}

// IntentLabel resolves the response-level intent name: the tool itself for a
// single-tool dispatch, "multi" otherwise.
func IntentLabel(tools []string) string {
	if len(tools) == 1 {
		return tools[0]
	}
	return "multi"
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
