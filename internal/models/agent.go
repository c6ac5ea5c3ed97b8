package models

import (
	"time"

	"github.com/google/uuid"
)

type AgentState string

const (
	AgentStateThinking  AgentState = "thinking"
	AgentStateActing    AgentState = "acting"
	AgentStateObserving AgentState = "observing"
	AgentStateDone      AgentState = "done"
	AgentStateError     AgentState = "error"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type TrendDirection string

const (
	TrendUpward   TrendDirection = "upward"
	TrendStable   TrendDirection = "stable"
	TrendDownward TrendDirection = "downward"
)

const (
	ToolDemandForecast    = "demand_forecast"
	ToolSmartReorder      = "smart_reorder"
	ToolPricelistOptimize = "pricelist_optimize"
)

type SalesRecord struct {
	Date string  `json:"date"`
	Qty  float64 `json:"qty"`
}

// ProductContext is the read-only snapshot of one product's operational state,
// built once per request. Optional numeric fields are pointers; every tool
// supplies its own default when a field is absent.
type ProductContext struct {
	ProductID          string        `json:"product_id" binding:"required"`
	ProductName        string        `json:"product_name,omitempty"`
	ProductDescription string        `json:"product_description,omitempty"`
	Category           string        `json:"category,omitempty"`
	ShopCountry        string        `json:"shop_country,omitempty"`
	SalesHistory       []SalesRecord `json:"sales_history,omitempty"`
	HistoryMonths      int           `json:"history_months,omitempty"`
	CurrentStock       *int          `json:"current_stock,omitempty"`
	SafetyStock        *int          `json:"safety_stock,omitempty"`
	LeadTimeDays       *int          `json:"lead_time_days,omitempty"`
	DaysInInventory    *int          `json:"days_in_inventory,omitempty"`
	CurrentPrice       *float64      `json:"current_price,omitempty"`
	Cost               *float64      `json:"cost,omitempty"`
}

type TrendHeadline struct {
	Headline    string `json:"headline"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at,omitempty"`
}

// TrendBundle is the aggregated market-signal snapshot for one product and
// locale. The aggregator always returns a bundle, even when every source
// failed; Error records what went wrong and Trends stays empty.
type TrendBundle struct {
	Product        string          `json:"product"`
	Category       string          `json:"category,omitempty"`
	Country        string          `json:"country,omitempty"`
	SearchQuery    string          `json:"search_query"`
	Trends         []TrendHeadline `json:"trends"`
	Sentiment      Sentiment       `json:"sentiment"`
	TrendDirection TrendDirection  `json:"trend_direction"`
	SourcesChecked []string        `json:"sources_checked"`
	Error          string          `json:"error,omitempty"`
	FetchedAt      time.Time       `json:"fetched_at"`
}

func NewTrendBundle(product, category, country, searchQuery string) *TrendBundle {
	return &TrendBundle{
		Product:        product,
		Category:       category,
		Country:        country,
		SearchQuery:    searchQuery,
		Trends:         []TrendHeadline{},
		Sentiment:      SentimentNeutral,
		TrendDirection: TrendStable,
		SourcesChecked: []string{},
		FetchedAt:      time.Now(),
	}
}

func (bundle *TrendBundle) HasTrends() bool {
	return bundle != nil && len(bundle.Trends) > 0
}

func (bundle *TrendBundle) Direction() TrendDirection {
	if bundle == nil {
		return TrendStable
	}
	return bundle.TrendDirection
}

type ForecastData struct {
	ProductID           string         `json:"product_id"`
	ForecastUnitsWeekly float64        `json:"forecast_units_per_week"`
	BaseForecast        float64        `json:"base_forecast"`
	MarketAdjustmentPct float64        `json:"market_adjustment_pct"`
	TrendPercent        float64        `json:"trend_percent"`
	TrendDirection      TrendDirection `json:"trend_direction"`
	ForecastHorizonWeek int            `json:"forecast_horizon_weeks"`
	MarketSentiment     Sentiment      `json:"market_sentiment,omitempty"`
	Confidence          float64        `json:"confidence"`
	ModelUsed           string         `json:"model_used"`
}

type ReorderData struct {
	ProductID           string  `json:"product_id"`
	CurrentStock        int     `json:"current_stock"`
	SafetyStock         int     `json:"safety_stock"`
	LeadTimeDays        int     `json:"lead_time_days"`
	AdjustedDailyDemand float64 `json:"adjusted_daily_demand"`
	StockCoversDays     float64 `json:"stock_covers_days"`
	ReorderRecommended  bool    `json:"reorder_recommended"`
	ReorderQuantity     int     `json:"reorder_quantity"`
	Urgency             string  `json:"urgency"`
	MarketAdjusted      bool    `json:"market_adjusted"`
	Confidence          float64 `json:"confidence"`
	ModelUsed           string  `json:"model_used"`
}

type PricingData struct {
	ProductID           string          `json:"product_id"`
	DaysInInventory     int             `json:"days_in_inventory"`
	CurrentPrice        float64         `json:"current_price"`
	Cost                float64         `json:"cost"`
	SuggestedAction     string          `json:"suggested_action"`
	MarkdownPercent     float64         `json:"markdown_percent"`
	SuggestedPrice      float64         `json:"suggested_price"`
	BundlePartnerSKU    string          `json:"bundle_partner_sku,omitempty"`
	CurrentMarginPct    float64         `json:"current_margin_pct"`
	ProjectedMarginPct  float64         `json:"projected_margin_pct"`
	MarketAdjusted      bool            `json:"market_adjusted"`
	MarketTrendsSummary []TrendHeadline `json:"market_trends_summary,omitempty"`
	Confidence          float64         `json:"confidence"`
	ModelUsed           string          `json:"model_used"`
}

// ToolResult is one tool's outcome. Exactly one of the typed payloads is set
// on success; Extra holds only ad hoc diagnostic values that have no
// documented schema. success=false implies Error is set, success=true implies
// it is empty.
type ToolResult struct {
	ToolName    string         `json:"tool"`
	Success     bool           `json:"success"`
	Forecast    *ForecastData  `json:"forecast,omitempty"`
	Reorder     *ReorderData   `json:"reorder,omitempty"`
	Pricing     *PricingData   `json:"pricing,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	Explanation string         `json:"explanation"`
	Error       string         `json:"error,omitempty"`
}

func NewToolFailure(toolName, errMsg string) ToolResult {
	return ToolResult{
		ToolName: toolName,
		Success:  false,
		Error:    errMsg,
	}
}

// Confidence returns the payload's confidence score, 0 for failed results.
func (result ToolResult) Confidence() float64 {
	switch {
	case result.Forecast != nil:
		return result.Forecast.Confidence
	case result.Reorder != nil:
		return result.Reorder.Confidence
	case result.Pricing != nil:
		return result.Pricing.Confidence
	}
	return 0
}

type AgentStep struct {
	Thought     string         `json:"thought"`
	Action      string         `json:"action,omitempty"`
	ActionInput map[string]any `json:"action_input,omitempty"`
	Observation string         `json:"observation,omitempty"`
}

// AgentResponse is the full record of one run. It is mutated only by the
// orchestrator during that run and immutable after return.
type AgentResponse struct {
	RunID        string       `json:"run_id"`
	Query        string       `json:"query"`
	Intent       string       `json:"intent"`
	Steps        []AgentStep  `json:"steps"`
	Results      []ToolResult `json:"results"`
	MarketTrends *TrendBundle `json:"market_trends,omitempty"`
	FinalAnswer  string       `json:"final_answer"`
	Errors       []string     `json:"errors"`
	State        AgentState   `json:"state"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      *time.Time   `json:"end_time,omitempty"`
}

func NewAgentResponse(query string) *AgentResponse {
	return &AgentResponse{
		RunID:     uuid.New().String(),
		Query:     query,
		Steps:     []AgentStep{},
		Results:   []ToolResult{},
		Errors:    []string{},
		State:     AgentStateThinking,
		StartTime: time.Now(),
	}
}

func (response *AgentResponse) AddStep(step AgentStep) {
	response.Steps = append(response.Steps, step)
}

func (response *AgentResponse) AddError(errMsg string) {
	response.Errors = append(response.Errors, errMsg)
}

func (response *AgentResponse) MarkDone() {
	response.State = AgentStateDone
	now := time.Now()
	response.EndTime = &now
}

func (response *AgentResponse) MarkError() {
	response.State = AgentStateError
	now := time.Now()
	response.EndTime = &now
}

func (response *AgentResponse) Duration() time.Duration {
	if response.EndTime != nil {
		return response.EndTime.Sub(response.StartTime)
	}
	return time.Since(response.StartTime)
}
