package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inventory-ai-agent/internal/config"
	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/pkg/logger"
)

// PredictorService talks to the external ML forecasting microservice. The
// service is optional: when no base URL is configured, or a call fails, the
// tools fall back to the in-process moving-average model.
type PredictorService struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

type predictorHistoryPoint struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Day       int     `json:"day"`
	UnitsSold float64 `json:"units_sold"`
}

type demandForecastRequest struct {
	ProductName     string                  `json:"product_name"`
	WarehouseName   string                  `json:"warehouse_name"`
	HistoricalData  []predictorHistoryPoint `json:"historical_data"`
	ForecastHorizon int                     `json:"forecast_horizon"`
}

// DemandForecastResponse mirrors the predictor's /demand-forecast payload.
type DemandForecastResponse struct {
	ProductName       string  `json:"product_name"`
	ForecastUnits     float64 `json:"forecast_units"`
	TrendPercent      float64 `json:"trend_percent"`
	TrendDirection    string  `json:"trend_direction"`
	ConfidenceScore   float64 `json:"confidence_score"`
	ModelUsed         string  `json:"model_used"`
	ForecastHorizonWk int     `json:"forecast_horizon_weeks"`
}

func NewPredictorService(cfg config.PredictorConfig, log *logger.Logger) *PredictorService {
	service := &PredictorService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  log,
	}

	if service.Configured() {
		log.Info("Predictor service client initialized", "base_url", service.baseURL)
	} else {
		log.Info("Predictor service not configured, using in-process forecasting")
	}

	return service
}

// Configured reports whether an external predictor endpoint is set up.
func (service *PredictorService) Configured() bool {
	return service != nil && service.baseURL != ""
}

// DemandForecast asks the predictor for a units-per-week forecast. Requires at
// least two history points, matching the predictor's own validation.
func (service *PredictorService) DemandForecast(
	ctx context.Context,
	productCtx models.ProductContext,
	horizonWeeks int) (*DemandForecastResponse, error) {

	if !service.Configured() {
		return nil, models.NewExternalError("PREDICTOR_NOT_CONFIGURED", "predictor base URL is not set")
	}

	if len(productCtx.SalesHistory) < 2 {
		return nil, models.NewValidationError("INSUFFICIENT_HISTORY",
			fmt.Sprintf("predictor requires at least 2 history points, got %d", len(productCtx.SalesHistory)))
	}

	history := make([]predictorHistoryPoint, 0, len(productCtx.SalesHistory))
	for _, record := range productCtx.SalesHistory {
		point, err := historyPointFromRecord(record)
		if err != nil {
			return nil, models.NewValidationError("INVALID_HISTORY_DATE", err.Error())
		}
		history = append(history, point)
	}

	productName := productCtx.ProductName
	if productName == "" {
		productName = productCtx.ProductID
	}

	payload := demandForecastRequest{
		ProductName:     productName,
		WarehouseName:   "default",
		HistoricalData:  history,
		ForecastHorizon: horizonWeeks,
	}

	startTime := time.Now()
	response, err := service.post(ctx, "/demand-forecast", payload)

	service.logger.LogService("predictor", "demand_forecast", time.Since(startTime), map[string]interface{}{
		"product":        productName,
		"history_points": len(history),
		"horizon_weeks":  horizonWeeks,
	}, err)

	if err != nil {
		return nil, err
	}

	var forecast DemandForecastResponse
	if err := json.Unmarshal(response, &forecast); err != nil {
		return nil, models.WrapExternalError("PREDICTOR", fmt.Errorf("decode forecast response: %w", err))
	}

	return &forecast, nil
}

func (service *PredictorService) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, models.NewInternalError("PREDICTOR_ENCODE", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, models.WrapExternalError("PREDICTOR", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := service.client.Do(req)
	if err != nil {
		return nil, models.WrapExternalError("PREDICTOR", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.WrapExternalError("PREDICTOR", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewExternalError("PREDICTOR_STATUS",
			fmt.Sprintf("predictor returned status %d: %s", resp.StatusCode, truncate(string(responseBody), 200)))
	}

	return responseBody, nil
}

func (service *PredictorService) HealthCheck(ctx context.Context) error {
	if !service.Configured() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, service.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := service.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("predictor health returned status %d", resp.StatusCode)
	}
	return nil
}

func historyPointFromRecord(record models.SalesRecord) (predictorHistoryPoint, error) {
	parsed, err := time.Parse("2006-01-02", record.Date)
	if err != nil {
		return predictorHistoryPoint{}, fmt.Errorf("sales record date %q is not YYYY-MM-DD", record.Date)
	}

	return predictorHistoryPoint{
		Year:      parsed.Year(),
		Month:     int(parsed.Month()),
		Day:       parsed.Day(),
		UnitsSold: record.Qty,
	}, nil
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
