package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"inventory-ai-agent/internal/config"
	"inventory-ai-agent/internal/handlers"
	"inventory-ai-agent/internal/pkg/logger"
	"inventory-ai-agent/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting inventory AI agent",
		"environment", cfg.Environment,
		"port", cfg.HTTP.Port,
		"llm_enabled", cfg.GeminiEnabled())

	sentiment := services.NewSentimentAnalyzer(cfg.Agent.PositiveKeywords, cfg.Agent.NegativeKeywords)

	sources := []services.TrendSource{
		services.WithCircuitBreaker(services.NewDuckDuckGoSource(cfg.Scraper, log), log),
		services.WithCircuitBreaker(services.NewGoogleNewsSource(cfg.Scraper, log), log),
	}

	var cache *services.TrendCache
	if cfg.Redis.URL != "" {
		cache, err = services.NewTrendCache(cfg.Redis, log)
		if err != nil {
			log.WithError(err).Warn("Trend cache unavailable, continuing without caching")
			cache = nil
		}
	}

	trends := services.NewMarketTrendsService(sources, sentiment, cache, cfg.Scraper, log)

	predictor := services.NewPredictorService(cfg.Predictor, log)
	tools := services.NewToolsService(predictor, log)

	var backend services.ReasoningBackend
	if cfg.GeminiEnabled() {
		gemini, err := services.NewGeminiService(cfg.Gemini, log)
		if err != nil {
			log.WithError(err).Warn("Gemini unavailable, falling back to rule-based reasoning")
			backend = services.NullBackend{}
		} else {
			backend = gemini
			defer gemini.Close()
		}
	} else {
		log.Info("No Gemini API key configured, using rule-based reasoning")
		backend = services.NullBackend{}
	}

	agent := services.NewAgentService(trends, tools, backend, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	handler := handlers.NewAgentHandler(agent, log)
	handlers.RegisterRoutes(router, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.WithError(err).Warn("Failed to close trend cache")
		}
	}

	log.Info("Shutdown complete")
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		log.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(startTime).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}
