// Package config loads application configuration from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Exclusion modes for history-based deduplication. One mode is active per
// deployment: either previously posted titles or previously posted source
// URLs are fed back to the model as a negative constraint list.
const (
	ExclusionModeTitle = "title"
	ExclusionModeURL   = "url"
)

// TopicConfig describes a single curated topic and its target channel.
type TopicConfig struct {
	Name        string `json:"name" yaml:"name"`
	ChannelID   string `json:"channel_id" yaml:"channel_id"`
	Header      string `json:"header" yaml:"header"`
	UnfurlLinks bool   `json:"unfurl_links" yaml:"unfurl_links"`
	UnfurlMedia bool   `json:"unfurl_media" yaml:"unfurl_media"`
}

type Config struct {
	// Vertex AI settings
	GCPProjectID string
	GCPLocation  string
	ModelName    string

	// Slack settings
	SlackBotToken string

	// Topics
	Topics []TopicConfig

	// History-based deduplication
	ExclusionMode string
	HistoryDays   int
	HistoryLimit  int

	// Attribution
	MinSupportLength int

	// Model request budget
	MaxModelRequests   int // per run, 0 = unlimited
	ModelRatePerMinute int

	// App settings
	Debug          bool
	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		GCPLocation:        getEnvOrDefault("GCP_LOCATION", "asia-northeast1"),
		ModelName:          getEnvOrDefault("MODEL_NAME", "gemini-2.5-pro"),
		ExclusionMode:      getEnvOrDefault("EXCLUSION_MODE", ExclusionModeTitle),
		HistoryDays:        getEnvIntOrDefault("HISTORY_DAYS", 3),
		HistoryLimit:       getEnvIntOrDefault("HISTORY_LIMIT", 100),
		MinSupportLength:   getEnvIntOrDefault("MIN_SUPPORT_LENGTH", 10),
		MaxModelRequests:   getEnvIntOrDefault("MAX_MODEL_REQUESTS", 0),
		ModelRatePerMinute: getEnvIntOrDefault("MODEL_RATE_PER_MINUTE", 6),
		RequestTimeout:     time.Duration(getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
	}

	cfg.GCPProjectID = os.Getenv("GCP_PROJECT_ID")
	cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	topics, err := loadTopics()
	if err != nil {
		return nil, err
	}
	cfg.Topics = topics

	return cfg, cfg.Validate()
}

// loadTopics reads the topic list from TOPICS_CONFIG (inline JSON) or, when
// that is unset, from the YAML file named by TOPICS_FILE.
func loadTopics() ([]TopicConfig, error) {
	var topics []TopicConfig

	switch {
	case os.Getenv("TOPICS_CONFIG") != "":
		if err := json.Unmarshal([]byte(os.Getenv("TOPICS_CONFIG")), &topics); err != nil {
			return nil, fmt.Errorf("invalid TOPICS_CONFIG JSON: %w", err)
		}
	case os.Getenv("TOPICS_FILE") != "":
		data, err := os.ReadFile(os.Getenv("TOPICS_FILE"))
		if err != nil {
			return nil, fmt.Errorf("read topics file: %w", err)
		}
		var file struct {
			Topics []TopicConfig `yaml:"topics"`
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse topics file: %w", err)
		}
		topics = file.Topics
	default:
		return nil, fmt.Errorf("either TOPICS_CONFIG or TOPICS_FILE is required")
	}

	for i := range topics {
		if topics[i].Header == "" {
			topics[i].Header = topics[i].Name + " ニュース"
		}
	}
	return topics, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.GCPProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required")
	}
	if c.SlackBotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if c.ExclusionMode != ExclusionModeTitle && c.ExclusionMode != ExclusionModeURL {
		return fmt.Errorf("EXCLUSION_MODE must be %q or %q", ExclusionModeTitle, ExclusionModeURL)
	}
	if len(c.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	for _, t := range c.Topics {
		if t.Name == "" {
			return fmt.Errorf("topic 'name' is required")
		}
		if t.ChannelID == "" {
			return fmt.Errorf("topic %q: 'channel_id' is required", t.Name)
		}
	}
	return nil
}
