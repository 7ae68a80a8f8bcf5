package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/groundnews/groundnews/internal/app"
	"github.com/groundnews/groundnews/internal/config"
	"github.com/groundnews/groundnews/internal/curator"
	"github.com/groundnews/groundnews/internal/logger"
	"github.com/groundnews/groundnews/internal/metrics"
	"github.com/groundnews/groundnews/internal/slackpost"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}
	log.Info().Int("topics", len(cfg.Topics)).Str("model", cfg.ModelName).Msg("Configuration loaded")

	ctx := context.Background()

	cur, err := curator.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create curator")
	}

	api := slack.New(cfg.SlackBotToken, slack.OptionHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
	application := app.New(cfg, cur, func(topic config.TopicConfig) app.Poster {
		return slackpost.New(api, topic, cfg)
	})

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Run finished with failures")
		os.Exit(1)
	}
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Info().Str("port", port).Msg("Starting monitoring server")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Error().Err(err).Msg("Monitoring server error")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
