package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventory-ai-agent/internal/config"
	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/services"
)

func TestPredictorNotConfigured(t *testing.T) {
	predictor := services.NewPredictorService(config.PredictorConfig{}, newTestLogger(t))

	if predictor.Configured() {
		t.Error("Expected predictor to be unconfigured without a base URL")
	}

	_, err := predictor.DemandForecast(context.Background(), models.ProductContext{ProductID: "SKU-1"}, 4)
	if err == nil {
		t.Error("Expected error from unconfigured predictor")
	}
}

func TestPredictorRequiresHistory(t *testing.T) {
	predictor := services.NewPredictorService(config.PredictorConfig{
		BaseURL: "http://localhost:9999",
		Timeout: time.Second,
	}, newTestLogger(t))

	_, err := predictor.DemandForecast(context.Background(), models.ProductContext{
		ProductID:    "SKU-1",
		SalesHistory: []models.SalesRecord{{Date: "2026-08-01", Qty: 5}},
	}, 4)

	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got %v", err)
	}
	if appErr.Kind != models.ErrorKindValidation {
		t.Errorf("Expected validation error, got %s", appErr.Kind)
	}
}

func TestPredictorDemandForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demand-forecast" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if payload["product_name"] != "Widget" {
			t.Errorf("Unexpected product name: %v", payload["product_name"])
		}
		history, ok := payload["historical_data"].([]interface{})
		if !ok || len(history) != 2 {
			t.Errorf("Expected 2 history points, got %v", payload["historical_data"])
		}

		json.NewEncoder(w).Encode(services.DemandForecastResponse{
			ProductName:    "Widget",
			ForecastUnits:  42.5,
			TrendPercent:   8.0,
			TrendDirection: "upward",
			ModelUsed:      "prophet",
		})
	}))
	defer server.Close()

	predictor := services.NewPredictorService(config.PredictorConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, newTestLogger(t))

	forecast, err := predictor.DemandForecast(context.Background(), models.ProductContext{
		ProductID:   "SKU-1",
		ProductName: "Widget",
		SalesHistory: []models.SalesRecord{
			{Date: "2026-08-01", Qty: 5},
			{Date: "2026-08-02", Qty: 7},
		},
	}, 4)

	if err != nil {
		t.Fatalf("DemandForecast failed: %v", err)
	}
	if forecast.ForecastUnits != 42.5 {
		t.Errorf("Expected 42.5 units, got %.1f", forecast.ForecastUnits)
	}
	if forecast.ModelUsed != "prophet" {
		t.Errorf("Expected model prophet, got %s", forecast.ModelUsed)
	}
}

func TestPredictorBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	predictor := services.NewPredictorService(config.PredictorConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, newTestLogger(t))

	_, err := predictor.DemandForecast(context.Background(), models.ProductContext{
		ProductID: "SKU-1",
		SalesHistory: []models.SalesRecord{
			{Date: "2026-08-01", Qty: 5},
			{Date: "2026-08-02", Qty: 7},
		},
	}, 4)

	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
}

func TestPredictorRejectsBadDates(t *testing.T) {
	predictor := services.NewPredictorService(config.PredictorConfig{
		BaseURL: "http://localhost:9999",
		Timeout: time.Second,
	}, newTestLogger(t))

	_, err := predictor.DemandForecast(context.Background(), models.ProductContext{
		ProductID: "SKU-1",
		SalesHistory: []models.SalesRecord{
			{Date: "08/01/2026", Qty: 5},
			{Date: "08/02/2026", Qty: 7},
		},
	}, 4)

	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got %v", err)
	}
	if appErr.Code != "INVALID_HISTORY_DATE" {
		t.Errorf("Expected INVALID_HISTORY_DATE, got %s", appErr.Code)
	}
}
