package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/pkg/logger"
)

// AgentRunner is what the HTTP layer needs from the agent. Kept as an
// interface so handler tests run against a mock.
type AgentRunner interface {
	Run(ctx context.Context, query string, productCtx models.ProductContext) *models.AgentResponse
	RunSingleTool(ctx context.Context, toolName string, productCtx models.ProductContext) models.ToolResult
	HealthCheck(ctx context.Context) error
	Uptime() time.Duration
	LLMEnabled() bool
}

type AgentHandler struct {
	agent  AgentRunner
	logger *logger.Logger
}

func NewAgentHandler(agent AgentRunner, log *logger.Logger) *AgentHandler {
	return &AgentHandler{
		agent:  agent,
		logger: log,
	}
}

type RunAgentRequest struct {
	Query   string                `json:"query" binding:"required"`
	Product models.ProductContext `json:"product" binding:"required"`
}

type RunToolRequest struct {
	Product models.ProductContext `json:"product" binding:"required"`
}

// RunAgent handles POST /api/v1/agent/run.
func (handler *AgentHandler) RunAgent(c *gin.Context) {
	var request RunAgentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handler.logger.WithError(err).Warn("Invalid agent run request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	response := handler.agent.Run(c.Request.Context(), request.Query, request.Product)

	status := http.StatusOK
	if response.State == models.AgentStateError {
		status = http.StatusInternalServerError
	}

	c.JSON(status, response)
}

// RunTool handles POST /api/v1/agent/tools/:name. Unknown tool names come
// back as a failed tool result with status 400.
func (handler *AgentHandler) RunTool(c *gin.Context) {
	toolName := c.Param("name")

	var request RunToolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handler.logger.WithError(err).Warn("Invalid tool run request for " + toolName)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	result := handler.agent.RunSingleTool(c.Request.Context(), toolName, request.Product)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}

	c.JSON(status, result)
}

// Health handles GET /health.
func (handler *AgentHandler) Health(c *gin.Context) {
	status := "healthy"
	httpStatus := http.StatusOK

	if err := handler.agent.HealthCheck(c.Request.Context()); err != nil {
		status = "degraded"
		handler.logger.WithError(err).Warn("Health check reported degraded state")
	}

	c.JSON(httpStatus, gin.H{
		"status":      status,
		"uptime":      handler.agent.Uptime().String(),
		"llm_enabled": handler.agent.LLMEnabled(),
		"timestamp":   time.Now().UTC(),
	})
}

func RegisterRoutes(router *gin.Engine, handler *AgentHandler) {
	router.GET("/health", handler.Health)

	api := router.Group("/api/v1/agent")
	{
		api.POST("/run", handler.RunAgent)
		api.POST("/tools/:name", handler.RunTool)
	}
}
