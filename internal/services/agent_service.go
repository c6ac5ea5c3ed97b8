package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/pkg/logger"
)

// AgentService runs the reason-act-observe loop for one query. Each run is
// stateless: everything the agent knows arrives in the product context, and
// the full record of the run goes back in the response.
type AgentService struct {
	trends     *MarketTrendsService
	tools      *ToolsService
	backend    ReasoningBackend
	classifier *IntentClassifier
	logger     *logger.Logger

	startTime time.Time
}

func NewAgentService(
	trends *MarketTrendsService,
	tools *ToolsService,
	backend ReasoningBackend,
	log *logger.Logger) *AgentService {

	agent := &AgentService{
		trends:     trends,
		tools:      tools,
		backend:    backend,
		classifier: NewIntentClassifier(),
		logger:     log,
		startTime:  time.Now(),
	}

	log.Info("Agent service initialized successfully",
		"llm_enabled", backend.Available(),
		"tools", allToolsOrdered)

	return agent
}

// Run executes the full loop: fetch trends, classify intent, reason, execute
// the selected tools in order, then synthesize. Any panic or late failure is
// converted to an error-state response that keeps whatever partial results
// were collected.
func (agent *AgentService) Run(ctx context.Context, query string, productCtx models.ProductContext) (response *models.AgentResponse) {
	startTime := time.Now()
	response = models.NewAgentResponse(query)

	agent.logger.LogRun(response.RunID, "run_started", 0, nil)

	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("%v", r)
			response.AddError(errMsg)
			response.FinalAnswer = "Error: " + errMsg
			response.MarkError()
			agent.logger.LogRun(response.RunID, "run_panicked", time.Since(startTime), fmt.Errorf("%v", r))
		}
	}()

	bundle := agent.trends.FetchTrends(ctx, productCtx)
	response.MarketTrends = bundle
	if bundle.Error != "" {
		response.AddError(bundle.Error)
	}

	intents := agent.classifier.Classify(query)
	response.Intent = IntentLabel(intents)

	thought, err := agent.backend.Reason(ctx, query, intents, productCtx, bundle)
	if err != nil {
		agent.logger.WithError(err).Warn("LLM reasoning failed, using rule-based thought")
		response.AddError("reasoning: " + err.Error())
		thought = "Processing query for tools: " + strings.Join(intents, ", ")
	}

	response.State = models.AgentStateActing
	step := models.AgentStep{
		Thought:     thought,
		Action:      "execute_tools",
		ActionInput: map[string]any{"tools": intents},
	}

	results := agent.executeTools(ctx, intents, productCtx, bundle)
	response.Results = results

	response.State = models.AgentStateObserving
	var observations []string
	for _, result := range results {
		if result.Success {
			observations = append(observations, fmt.Sprintf("[%s] %s", result.ToolName, result.Explanation))
		}
	}
	step.Observation = strings.Join(observations, "\n")
	response.AddStep(step)

	answer, err := agent.backend.Synthesize(ctx, query, results, bundle)
	if err != nil {
		agent.logger.WithError(err).Warn("LLM synthesis failed, using rule-based synthesis")
		response.AddError("synthesis: " + err.Error())
		answer = RuleBasedSynthesis(results)
	}
	response.FinalAnswer = answer

	response.MarkDone()

	agent.logger.LogRun(response.RunID, "run_completed", response.Duration(), nil)
	agent.logger.LogAgent(response.RunID, "agent", "run", response.Duration(), map[string]interface{}{
		"query":        query,
		"intent":       response.Intent,
		"tools_run":    len(results),
		"trends_found": len(bundle.Trends),
		"llm_used":     agent.backend.Available(),
		"errors":       len(response.Errors),
	}, nil)

	return response
}

// executeTools runs the selected tools in classification order. A forecast
// result feeds its trend-adjusted daily demand into a subsequent reorder so
// the two recommendations agree.
func (agent *AgentService) executeTools(
	ctx context.Context,
	intents []string,
	productCtx models.ProductContext,
	bundle *models.TrendBundle) []models.ToolResult {

	results := make([]models.ToolResult, 0, len(intents))

	var dailyDemandOverride *float64
	for _, toolName := range intents {
		result := agent.tools.RunTool(ctx, toolName, productCtx, bundle, dailyDemandOverride)
		results = append(results, result)

		if result.Success && result.Forecast != nil && result.Forecast.BaseForecast > 0 {
			daily := result.Forecast.BaseForecast / 7
			dailyDemandOverride = &daily
		}
	}

	return results
}

// RunSingleTool fetches trends and executes one tool directly, bypassing
// intent classification and synthesis.
func (agent *AgentService) RunSingleTool(ctx context.Context, toolName string, productCtx models.ProductContext) models.ToolResult {
	bundle := agent.trends.FetchTrends(ctx, productCtx)
	return agent.tools.RunTool(ctx, toolName, productCtx, bundle, nil)
}

func (agent *AgentService) HealthCheck(ctx context.Context) error {
	return agent.trends.HealthCheck(ctx)
}

func (agent *AgentService) Uptime() time.Duration {
	return time.Since(agent.startTime)
}

func (agent *AgentService) LLMEnabled() bool {
	return agent.backend.Available()
}
