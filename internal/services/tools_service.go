package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/pkg/logger"
)

const (
	defaultHistoryMonths = 6
	defaultSafetyStock   = 50
	defaultLeadTimeDays  = 14
	defaultDailyDemand   = 20.0

	forecastHorizonWeeks = 4

	agingWarningDays  = 90
	agingCriticalDays = 120
	agingSevereDays   = 180

	bundlePartnerSKU = "SKU-HIGH-VELOCITY-001"
)

// ToolsService hosts the three analytic engines. Each tool is a pure function
// of the product context and the trend bundle; the external predictor, when
// configured, replaces the in-process forecast math and nothing else.
type ToolsService struct {
	predictor *PredictorService
	logger    *logger.Logger
}

func NewToolsService(predictor *PredictorService, log *logger.Logger) *ToolsService {
	return &ToolsService{
		predictor: predictor,
		logger:    log,
	}
}

// RunTool dispatches by tool name. Unknown names produce a failed result, not
// an error; the orchestrator treats it like any other tool outcome.
func (service *ToolsService) RunTool(
	ctx context.Context,
	toolName string,
	productCtx models.ProductContext,
	bundle *models.TrendBundle,
	dailyDemandOverride *float64) models.ToolResult {

	startTime := time.Now()

	var result models.ToolResult
	switch toolName {
	case models.ToolDemandForecast:
		result = service.DemandForecast(ctx, productCtx, bundle)
	case models.ToolSmartReorder:
		result = service.SmartReorder(productCtx, bundle, dailyDemandOverride)
	case models.ToolPricelistOptimize:
		result = service.PricelistOptimize(productCtx, bundle)
	default:
		result = models.NewToolFailure(toolName, "Unknown tool: "+toolName)
	}

	service.logger.LogService("tools", toolName, time.Since(startTime), map[string]interface{}{
		"product_id": productCtx.ProductID,
		"success":    result.Success,
		"confidence": result.Confidence(),
	}, nil)

	return result
}

// DemandForecast predicts weekly demand from sales history, adjusted by the
// market trend direction. The external predictor is preferred when reachable;
// any predictor failure falls back to the moving-average model silently.
func (service *ToolsService) DemandForecast(
	ctx context.Context,
	productCtx models.ProductContext,
	bundle *models.TrendBundle) models.ToolResult {

	historyMonths := productCtx.HistoryMonths
	if historyMonths == 0 {
		historyMonths = defaultHistoryMonths
	}

	var (
		forecastWeekly float64
		trendPct       float64
		modelUsed      = "moving_average_with_trends"
	)

	if service.predictor.Configured() && len(productCtx.SalesHistory) >= 2 {
		if external, err := service.predictor.DemandForecast(ctx, productCtx, forecastHorizonWeeks); err == nil {
			forecastWeekly = external.ForecastUnits
			trendPct = external.TrendPercent
			modelUsed = external.ModelUsed
		} else {
			service.logger.WithError(err).Warn("External predictor failed, using in-process forecast")
			forecastWeekly, trendPct = movingAverageForecast(productCtx.SalesHistory)
		}
	} else {
		forecastWeekly, trendPct = movingAverageForecast(productCtx.SalesHistory)
	}

	marketAdjustment := 0.0
	marketInsight := ""
	switch bundle.Direction() {
	case models.TrendUpward:
		marketAdjustment = 10
		marketInsight = "Market trends indicate rising demand."
	case models.TrendDownward:
		marketAdjustment = -10
		marketInsight = "Market trends indicate declining demand."
	default:
		marketInsight = "Market trends are stable."
	}

	adjustedForecast := forecastWeekly * (1 + marketAdjustment/100)

	trendDirection := models.TrendStable
	if trendPct > 0 {
		trendDirection = models.TrendUpward
	} else if trendPct < 0 {
		trendDirection = models.TrendDownward
	}

	confidence := 0.85
	if bundle.HasTrends() {
		confidence = 0.88
	}

	data := &models.ForecastData{
		ProductID:           productCtx.ProductID,
		ForecastUnitsWeekly: round1(adjustedForecast),
		BaseForecast:        round1(forecastWeekly),
		MarketAdjustmentPct: marketAdjustment,
		TrendPercent:        round1(math.Abs(trendPct)),
		TrendDirection:      trendDirection,
		ForecastHorizonWeek: forecastHorizonWeeks,
		Confidence:          confidence,
		ModelUsed:           modelUsed,
	}
	if bundle != nil {
		data.MarketSentiment = bundle.Sentiment
	}

	explanation := fmt.Sprintf(
		"Based on %d-month sales history, base forecast is %.1f units/week with a %.1f%% %s trend. ",
		historyMonths, forecastWeekly, math.Abs(trendPct), trendDirection)
	explanation += fmt.Sprintf("%s Adjusted forecast: %.1f units/week. ", marketInsight, adjustedForecast)
	explanation += fmt.Sprintf("Confidence: %.0f%%.", confidence*100)

	return models.ToolResult{
		ToolName:    models.ToolDemandForecast,
		Success:     true,
		Forecast:    data,
		Explanation: explanation,
	}
}

// movingAverageForecast is the in-process fallback model. Empty history gets
// the cold-start baseline of 150 units/week trending up 12%.
func movingAverageForecast(history []models.SalesRecord) (forecastWeekly, trendPct float64) {
	if len(history) == 0 {
		return 150, 12.0
	}

	totalQty := 0.0
	for _, record := range history {
		totalQty += record.Qty
	}
	avgDaily := totalQty / float64(len(history))
	forecastWeekly = avgDaily * 7

	if len(history) >= 2 {
		recentStart := len(history) - 7
		if recentStart < 0 {
			recentStart = 0
		}
		olderEnd := 7
		if olderEnd > len(history) {
			olderEnd = len(history)
		}

		recent := 0.0
		for _, record := range history[recentStart:] {
			recent += record.Qty
		}
		older := 0.0
		for _, record := range history[:olderEnd] {
			older += record.Qty
		}

		trendPct = (recent - older) / math.Max(older, 1) * 100
	}

	return forecastWeekly, trendPct
}

// SmartReorder recommends a reorder quantity from stock levels, lead time, and
// trend-adjusted daily demand. When the orchestrator has already run the
// forecast, it passes the forecast-derived daily demand as the override.
func (service *ToolsService) SmartReorder(
	productCtx models.ProductContext,
	bundle *models.TrendBundle,
	dailyDemandOverride *float64) models.ToolResult {

	currentStock := 0
	if productCtx.CurrentStock != nil {
		currentStock = *productCtx.CurrentStock
	}
	safetyStock := defaultSafetyStock
	if productCtx.SafetyStock != nil {
		safetyStock = *productCtx.SafetyStock
	}
	leadTimeDays := defaultLeadTimeDays
	if productCtx.LeadTimeDays != nil {
		leadTimeDays = *productCtx.LeadTimeDays
	}

	dailyDemand := defaultDailyDemand
	if dailyDemandOverride != nil && *dailyDemandOverride > 0 {
		dailyDemand = *dailyDemandOverride
	}

	trendNote := ""
	switch bundle.Direction() {
	case models.TrendUpward:
		dailyDemand *= 1.15
		trendNote = "Increased buffer for rising market demand."
	case models.TrendDownward:
		dailyDemand *= 0.9
		trendNote = "Reduced buffer for declining market demand."
	}

	stockCoversDays := 999.0
	if dailyDemand > 0 {
		stockCoversDays = float64(currentStock) / dailyDemand
	}

	reorderNeeded := stockCoversDays < float64(leadTimeDays) || currentStock <= safetyStock

	reorderQty := 0
	if reorderNeeded {
		qty := float64(leadTimeDays)*dailyDemand - float64(currentStock) + float64(safetyStock)
		if qty > 0 {
			reorderQty = int(qty)
		}
	}

	var urgency string
	switch {
	case stockCoversDays < 7:
		urgency = "critical"
	case stockCoversDays < float64(leadTimeDays):
		urgency = "high"
	case reorderNeeded:
		urgency = "medium"
	default:
		urgency = "low"
	}

	confidence := 0.75
	if bundle.HasTrends() {
		confidence += 0.10
	}
	if productCtx.CurrentStock != nil && productCtx.SafetyStock != nil {
		confidence += 0.05
	}
	if productCtx.LeadTimeDays != nil {
		confidence += 0.05
	}
	confidence = math.Min(confidence, 0.95)

	data := &models.ReorderData{
		ProductID:           productCtx.ProductID,
		CurrentStock:        currentStock,
		SafetyStock:         safetyStock,
		LeadTimeDays:        leadTimeDays,
		AdjustedDailyDemand: round1(dailyDemand),
		StockCoversDays:     round1(stockCoversDays),
		ReorderRecommended:  reorderNeeded,
		ReorderQuantity:     reorderQty,
		Urgency:             urgency,
		MarketAdjusted:      trendNote != "",
		Confidence:          round2(confidence),
		ModelUsed:           "rule_based_reorder_with_trends",
	}

	var explanation string
	if reorderNeeded {
		explanation = fmt.Sprintf(
			"Current stock (%d units) covers only %.0f days. "+
				"With %d-day lead time and %.0f units/day demand, "+
				"recommend ordering %d units. Urgency: %s. "+
				"Confidence: %.0f%%. ",
			currentStock, stockCoversDays, leadTimeDays, dailyDemand, reorderQty, urgency, confidence*100)
		if trendNote != "" {
			explanation += trendNote
		}
	} else {
		explanation = fmt.Sprintf(
			"Stock levels healthy at %d units, covering %.0f days. "+
				"No reorder needed. Confidence: %.0f%%.",
			currentStock, stockCoversDays, confidence*100)
	}

	return models.ToolResult{
		ToolName:    models.ToolSmartReorder,
		Success:     true,
		Reorder:     data,
		Explanation: explanation,
	}
}

// PricelistOptimize suggests markdowns or bundling for aging inventory, with
// the markdown depth nudged by the market trend direction.
func (service *ToolsService) PricelistOptimize(
	productCtx models.ProductContext,
	bundle *models.TrendBundle) models.ToolResult {

	daysInInventory := 0
	if productCtx.DaysInInventory != nil {
		daysInInventory = *productCtx.DaysInInventory
	}
	currentPrice := 0.0
	if productCtx.CurrentPrice != nil {
		currentPrice = *productCtx.CurrentPrice
	}
	cost := 0.0
	if productCtx.Cost != nil {
		cost = *productCtx.Cost
	}

	isSlow := daysInInventory > agingWarningDays

	var (
		markdownPct     float64
		suggestedAction string
	)
	switch {
	case daysInInventory > agingSevereDays:
		markdownPct = 25
		suggestedAction = "aggressive_markdown"
	case daysInInventory > agingCriticalDays:
		markdownPct = 15
		suggestedAction = "markdown"
	case isSlow:
		markdownPct = 10
		suggestedAction = "light_markdown"
	default:
		markdownPct = 0
		suggestedAction = "no_change"
	}

	marketNote := ""
	switch {
	case bundle.Direction() == models.TrendUpward && markdownPct > 0:
		markdownPct = math.Max(0, markdownPct-5)
		marketNote = "Reduced markdown due to rising market demand."
	case bundle.Direction() == models.TrendDownward && suggestedAction != "no_change":
		markdownPct = math.Min(35, markdownPct+5)
		marketNote = "Increased markdown due to declining market trends."
	}

	newPrice := currentPrice
	if markdownPct > 0 {
		newPrice = round2(currentPrice * (1 - markdownPct/100))
	}

	bundlePartner := ""
	if (suggestedAction == "bundle" || suggestedAction == "light_markdown") && isSlow {
		bundlePartner = bundlePartnerSKU
	}

	marginCurrent := 0.0
	if currentPrice > 0 {
		marginCurrent = (currentPrice - cost) / currentPrice * 100
	}
	marginNew := 0.0
	if newPrice > 0 {
		marginNew = (newPrice - cost) / newPrice * 100
	}

	confidence := 0.70
	if bundle.HasTrends() {
		confidence += 0.12
	}
	if productCtx.DaysInInventory != nil {
		confidence += 0.05
	}
	if productCtx.CurrentPrice != nil && productCtx.Cost != nil {
		confidence += 0.08
	}
	confidence = math.Min(confidence, 0.95)

	var trendsSummary []models.TrendHeadline
	if bundle != nil && len(bundle.Trends) > 0 {
		limit := 3
		if len(bundle.Trends) < limit {
			limit = len(bundle.Trends)
		}
		trendsSummary = append(trendsSummary, bundle.Trends[:limit]...)
	}

	data := &models.PricingData{
		ProductID:           productCtx.ProductID,
		DaysInInventory:     daysInInventory,
		CurrentPrice:        currentPrice,
		Cost:                cost,
		SuggestedAction:     suggestedAction,
		MarkdownPercent:     markdownPct,
		SuggestedPrice:      newPrice,
		BundlePartnerSKU:    bundlePartner,
		CurrentMarginPct:    round1(marginCurrent),
		ProjectedMarginPct:  round1(marginNew),
		MarketAdjusted:      marketNote != "",
		MarketTrendsSummary: trendsSummary,
		Confidence:          round2(confidence),
		ModelUsed:           "rule_based_pricing_with_trends",
	}

	var explanation string
	switch suggestedAction {
	case "no_change":
		explanation = fmt.Sprintf(
			"Item moving well with only %d days in inventory. "+
				"Margin %.1f%% healthy. No change needed. "+
				"Confidence: %.0f%%.",
			daysInInventory, marginCurrent, confidence*100)
	case "bundle":
		explanation = fmt.Sprintf(
			"Item has been in inventory for %d days. "+
				"Recommend bundling with %s to increase turnover. "+
				"Confidence: %.0f%%.",
			daysInInventory, bundlePartner, confidence*100)
	default:
		explanation = fmt.Sprintf(
			"Aged %d days in inventory. "+
				"Recommend %.0f%% markdown ($%.2f -> $%.2f). "+
				"Margin: %.1f%% -> %.1f%%. "+
				"Confidence: %.0f%%. ",
			daysInInventory, markdownPct, currentPrice, newPrice, marginCurrent, marginNew, confidence*100)
		if bundlePartner != "" {
			explanation += fmt.Sprintf("Or bundle with %s. ", bundlePartner)
		}
		if marketNote != "" {
			explanation += marketNote
		}
	}

	return models.ToolResult{
		ToolName:    models.ToolPricelistOptimize,
		Success:     true,
		Pricing:     data,
		Explanation: explanation,
	}
}

// RuleBasedSynthesis formats successful tool results into the final answer
// without any LLM involvement.
func RuleBasedSynthesis(results []models.ToolResult) string {
	if len(results) == 0 {
		return "Unable to process the request."
	}

	var parts []string
	for _, result := range results {
		if !result.Success {
			continue
		}
		parts = append(parts, "**"+titleCaseToolName(result.ToolName)+"**")
		parts = append(parts, result.Explanation)
		parts = append(parts, "")
	}

	answer := strings.TrimSpace(strings.Join(parts, "\n"))
	if answer == "" {
		return "Unable to process the request."
	}
	return answer
}

func titleCaseToolName(toolName string) string {
	words := strings.Split(toolName, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
