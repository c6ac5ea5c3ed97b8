package models_test

import (
	"errors"
	"strings"
	"testing"

	"inventory-ai-agent/internal/models"
)

func TestNewAgentResponse(t *testing.T) {
	response := models.NewAgentResponse("test query")

	if response.RunID == "" {
		t.Error("Expected a generated run ID")
	}
	if response.State != models.AgentStateThinking {
		t.Errorf("Expected thinking state, got %s", response.State)
	}
	if response.Query != "test query" {
		t.Errorf("Unexpected query: %q", response.Query)
	}
	if response.Steps == nil || response.Results == nil || response.Errors == nil {
		t.Error("Expected slices to be initialized")
	}
	if response.EndTime != nil {
		t.Error("Expected no end time before completion")
	}
}

func TestAgentResponseLifecycle(t *testing.T) {
	response := models.NewAgentResponse("q")

	response.AddStep(models.AgentStep{Thought: "thinking"})
	response.AddError("something degraded")
	response.MarkDone()

	if len(response.Steps) != 1 {
		t.Errorf("Expected 1 step, got %d", len(response.Steps))
	}
	if len(response.Errors) != 1 {
		t.Errorf("Expected 1 error, got %d", len(response.Errors))
	}
	if response.State != models.AgentStateDone {
		t.Errorf("Expected done state, got %s", response.State)
	}
	if response.EndTime == nil {
		t.Fatal("Expected end time after MarkDone")
	}
	if response.Duration() < 0 {
		t.Error("Expected non-negative duration")
	}
}

func TestMarkError(t *testing.T) {
	response := models.NewAgentResponse("q")
	response.MarkError()

	if response.State != models.AgentStateError {
		t.Errorf("Expected error state, got %s", response.State)
	}
	if response.EndTime == nil {
		t.Error("Expected end time after MarkError")
	}
}

func TestTrendBundleDefaults(t *testing.T) {
	bundle := models.NewTrendBundle("Widget", "Toys", "US", "widget toys market trends 2026")

	if bundle.Sentiment != models.SentimentNeutral {
		t.Errorf("Expected neutral default, got %s", bundle.Sentiment)
	}
	if bundle.TrendDirection != models.TrendStable {
		t.Errorf("Expected stable default, got %s", bundle.TrendDirection)
	}
	if bundle.HasTrends() {
		t.Error("Expected no trends on a fresh bundle")
	}
	if bundle.Trends == nil || bundle.SourcesChecked == nil {
		t.Error("Expected slices to be initialized")
	}
}

func TestTrendBundleNilSafety(t *testing.T) {
	var bundle *models.TrendBundle

	if bundle.HasTrends() {
		t.Error("Nil bundle must report no trends")
	}
	if bundle.Direction() != models.TrendStable {
		t.Errorf("Nil bundle must report stable, got %s", bundle.Direction())
	}
}

func TestToolResultConfidence(t *testing.T) {
	forecast := models.ToolResult{Forecast: &models.ForecastData{Confidence: 0.88}}
	if forecast.Confidence() != 0.88 {
		t.Errorf("Expected 0.88, got %.2f", forecast.Confidence())
	}

	failed := models.NewToolFailure("demand_forecast", "boom")
	if failed.Confidence() != 0 {
		t.Errorf("Expected 0 for failed result, got %.2f", failed.Confidence())
	}
	if failed.Success {
		t.Error("Expected failure flag")
	}
}

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := models.WrapExternalError("GEMINI", cause)

	if !errors.Is(appErr, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
	if appErr.Kind != models.ErrorKindExternal {
		t.Errorf("Expected external kind, got %s", appErr.Kind)
	}
	if !strings.Contains(appErr.Error(), "GEMINI_ERROR") {
		t.Errorf("Expected code in error string, got %q", appErr.Error())
	}

	validation := models.NewValidationError("BAD_INPUT", "missing field")
	if validation.Kind != models.ErrorKindValidation {
		t.Errorf("Expected validation kind, got %s", validation.Kind)
	}
	if validation.Unwrap() != nil {
		t.Error("Expected no cause on a fresh validation error")
	}
}
