package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"

	"inventory-ai-agent/internal/config"
	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/pkg/logger"
)

// ReasoningBackend is the optional LLM capability. The orchestrator works the
// same with or without it: NullBackend provides the rule-based path and the
// Gemini backend provides richer reasoning and synthesis on top.
type ReasoningBackend interface {
	Available() bool
	Reason(ctx context.Context, query string, intents []string, productCtx models.ProductContext, bundle *models.TrendBundle) (string, error)
	Synthesize(ctx context.Context, query string, results []models.ToolResult, bundle *models.TrendBundle) (string, error)
}

type GeminiService struct {
	client *genai.Client
	config config.GeminiConfig
	logger *logger.Logger
}

type GenerationRequest struct {
	Prompt      string
	SystemRole  string
	MaxTokens   int32
	Temperature *float32
}

type GenerationResponse struct {
	Content        string
	TokensUsed     int
	FinishReason   string
	ProcessingTime time.Duration
}

func NewGeminiService(cfg config.GeminiConfig, log *logger.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key required")
	}

	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	service := &GeminiService{
		client: client,
		config: cfg,
		logger: log,
	}

	log.Info("Gemini reasoning backend initialized",
		"model", cfg.Model,
		"max_tokens", cfg.MaxTokens,
		"temperature", cfg.Temperature)

	return service, nil
}

func (service *GeminiService) Available() bool {
	return service != nil && service.client != nil
}

func (service *GeminiService) GenerateContent(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()

	operation := func() (*GenerationResponse, error) {
		response, err := service.makeGenerationRequest(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return response, nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = service.config.RetryDelay

	response, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(service.config.MaxRetries)))

	if err != nil {
		service.logger.LogService("gemini", "generate_content", time.Since(startTime), map[string]interface{}{
			"prompt_length": len(request.Prompt),
			"max_retries":   service.config.MaxRetries,
		}, err)
		return nil, models.WrapExternalError("GEMINI", err)
	}

	response.ProcessingTime = time.Since(startTime)

	service.logger.LogService("gemini", "generate_content", response.ProcessingTime, map[string]interface{}{
		"prompt_length":   len(request.Prompt),
		"response_length": len(response.Content),
		"tokens_used":     response.TokensUsed,
		"finish_reason":   response.FinishReason,
	}, nil)

	return response, nil
}

func (service *GeminiService) makeGenerationRequest(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	genCtx, cancel := context.WithTimeout(ctx, service.config.Timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{}

	if req.SystemRole != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemRole, genai.RoleUser)
	}

	if req.Temperature != nil {
		genConfig.Temperature = req.Temperature
	} else {
		temp := float32(service.config.Temperature)
		genConfig.Temperature = &temp
	}

	if req.MaxTokens != 0 {
		genConfig.MaxOutputTokens = req.MaxTokens
	} else {
		genConfig.MaxOutputTokens = int32(service.config.MaxTokens)
	}

	result, err := service.client.Models.GenerateContent(genCtx, service.config.Model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini generation request failed: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no response candidates generated")
	}

	candidate := result.Candidates[0]

	text := ""
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
	}

	// rough token estimate, the SDK does not always return usage
	tokensUsed := len(req.Prompt)/4 + len(text)/4

	return &GenerationResponse{
		Content:      text,
		TokensUsed:   tokensUsed,
		FinishReason: string(candidate.FinishReason),
	}, nil
}

// Reason asks the model for a short thought process about which tools apply
// and why, given the product context and market signal.
func (service *GeminiService) Reason(
	ctx context.Context,
	query string,
	intents []string,
	productCtx models.ProductContext,
	bundle *models.TrendBundle) (string, error) {

	prompt := buildReasoningPrompt(query, productCtx, bundle)

	req := &GenerationRequest{
		Prompt: prompt,
		SystemRole: "You are an AI assistant for inventory management. " +
			"Analyze the user's query and the product context to provide reasoning about " +
			"which tools to use and why. Consider market trends in your analysis. " +
			"Available tools: demand_forecast (predict future demand), " +
			"smart_reorder (calculate reorder quantities), " +
			"pricelist_optimize (suggest pricing changes). " +
			"Provide a brief thought process.",
		MaxTokens: 512,
	}

	resp, err := service.GenerateContent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reasoning failed: %w", err)
	}

	service.logger.LogAgent("", "reasoner", "reason", resp.ProcessingTime, map[string]interface{}{
		"query":       query,
		"intents":     intents,
		"tokens_used": resp.TokensUsed,
	}, nil)

	return strings.TrimSpace(resp.Content), nil
}

// Synthesize turns tool results and market trends into the final answer. The
// caller falls back to RuleBasedSynthesis when this errors.
func (service *GeminiService) Synthesize(
	ctx context.Context,
	query string,
	results []models.ToolResult,
	bundle *models.TrendBundle) (string, error) {

	prompt := buildSynthesisPrompt(query, results, bundle)

	req := &GenerationRequest{
		Prompt:    prompt,
		MaxTokens: 2048,
	}

	resp, err := service.GenerateContent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("synthesis failed: %w", err)
	}

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", fmt.Errorf("empty synthesis response")
	}

	service.logger.LogAgent("", "synthesizer", "synthesize", resp.ProcessingTime, map[string]interface{}{
		"query":       query,
		"results":     len(results),
		"tokens_used": resp.TokensUsed,
	}, nil)

	return answer, nil
}

func buildReasoningPrompt(query string, productCtx models.ProductContext, bundle *models.TrendBundle) string {
	var headlines []string
	if bundle != nil {
		for i, trend := range bundle.Trends {
			if i >= 3 {
				break
			}
			headline := trend.Headline
			if len(headline) > 50 {
				headline = headline[:50]
			}
			headlines = append(headlines, headline)
		}
	}

	sentiment := "unknown"
	direction := "unknown"
	if bundle != nil {
		sentiment = string(bundle.Sentiment)
		direction = string(bundle.TrendDirection)
	}

	country := productCtx.ShopCountry
	if country == "" {
		country = "Global"
	}

	description := productCtx.ProductDescription
	if description == "" {
		description = "N/A"
	}

	return fmt.Sprintf(`Query: %s

Context:
Product: %s
Product Name: %s
Description: %s
Category: %s
Shop Country: %s
Current Stock: %s
Days in Inventory: %s
Market Sentiment: %s
Market Trend Direction: %s
Recent Headlines: %s`,
		query,
		productCtx.ProductID,
		productCtx.ProductName,
		description,
		productCtx.Category,
		country,
		formatOptionalInt(productCtx.CurrentStock),
		formatOptionalInt(productCtx.DaysInInventory),
		sentiment,
		direction,
		strings.Join(headlines, "; "))
}

func buildSynthesisPrompt(query string, results []models.ToolResult, bundle *models.TrendBundle) string {
	var resultParts []string
	for _, result := range results {
		if result.Success {
			resultParts = append(resultParts, fmt.Sprintf("**%s**:\n%s", result.ToolName, result.Explanation))
		}
	}

	trendsStr := "No recent trends found."
	sentiment := "N/A"
	direction := "N/A"
	if bundle != nil {
		sentiment = string(bundle.Sentiment)
		direction = string(bundle.TrendDirection)

		var lines []string
		for i, trend := range bundle.Trends {
			if i >= 3 {
				break
			}
			lines = append(lines, "- "+trend.Headline)
		}
		if len(lines) > 0 {
			trendsStr = strings.Join(lines, "\n")
		}
	}

	return fmt.Sprintf(`Based on the following analysis results and market trends,
provide a concise, actionable summary for the user.

Query: %s

Analysis Results:
%s

Market Trends:
Sentiment: %s
Direction: %s
Headlines:
%s

Provide a clear, professional response with specific recommendations.
Each recommendation must include a reason (AI Explainability).`,
		query, strings.Join(resultParts, "\n\n"), sentiment, direction, trendsStr)
}

func formatOptionalInt(value *int) string {
	if value == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *value)
}

func (service *GeminiService) HealthCheck(ctx context.Context) error {
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var temperature float32 = 0

	req := &GenerationRequest{
		Prompt:      "Respond with 'OK' if you can process this request",
		Temperature: &temperature,
		MaxTokens:   10,
	}

	resp, err := service.GenerateContent(testCtx, req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if resp.Content == "" {
		return fmt.Errorf("empty response received")
	}

	return nil
}

func (service *GeminiService) Close() error {
	service.logger.Info("Gemini client closed")
	return nil
}

// NullBackend is the rule-based fallback used when no API key is configured.
// It never errors.
type NullBackend struct{}

func (NullBackend) Available() bool {
	return false
}

func (NullBackend) Reason(ctx context.Context, query string, intents []string, productCtx models.ProductContext, bundle *models.TrendBundle) (string, error) {
	return "Processing query for tools: " + strings.Join(intents, ", "), nil
}

func (NullBackend) Synthesize(ctx context.Context, query string, results []models.ToolResult, bundle *models.TrendBundle) (string, error) {
	return RuleBasedSynthesis(results), nil
}
