package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GCP_PROJECT_ID", "test-project")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("TOPICS_CONFIG", `[{"name":"ゲーム","channel_id":"C123"}]`)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GCPLocation != "asia-northeast1" {
		t.Errorf("unexpected default location: %s", cfg.GCPLocation)
	}
	if cfg.ExclusionMode != ExclusionModeTitle {
		t.Errorf("unexpected default exclusion mode: %s", cfg.ExclusionMode)
	}
	if cfg.HistoryDays != 3 || cfg.HistoryLimit != 100 {
		t.Errorf("unexpected history defaults: %d days, limit %d", cfg.HistoryDays, cfg.HistoryLimit)
	}
	if cfg.MinSupportLength != 10 {
		t.Errorf("unexpected default min support length: %d", cfg.MinSupportLength)
	}
}

func TestLoad_TopicsFromJSON(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOPICS_CONFIG", `[
		{"name":"ゲーム","channel_id":"C123","unfurl_links":true},
		{"name":"AI","channel_id":"C456","header":"AI 最新情報"}
	]`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(cfg.Topics))
	}
	if cfg.Topics[0].Header != "ゲーム ニュース" {
		t.Errorf("header default not applied: %q", cfg.Topics[0].Header)
	}
	if !cfg.Topics[0].UnfurlLinks || cfg.Topics[0].UnfurlMedia {
		t.Errorf("unfurl flags not parsed: %+v", cfg.Topics[0])
	}
	if cfg.Topics[1].Header != "AI 最新情報" {
		t.Errorf("explicit header overridden: %q", cfg.Topics[1].Header)
	}
}

func TestLoad_TopicsFromYAMLFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOPICS_CONFIG", "")

	path := filepath.Join(t.TempDir(), "topics.yaml")
	data := []byte("topics:\n  - name: ゲーム\n    channel_id: C123\n    header: 今日のゲーム\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TOPICS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Topics) != 1 || cfg.Topics[0].Header != "今日のゲーム" {
		t.Errorf("unexpected topics: %+v", cfg.Topics)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"project", "GCP_PROJECT_ID"},
		{"token", "SLACK_BOT_TOKEN"},
		{"topics", "TOPICS_CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")
			if _, err := Load(); err == nil {
				t.Errorf("expected error when %s is missing", tt.unset)
			}
		})
	}
}

func TestLoad_InvalidTopicsJSON(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOPICS_CONFIG", `{"name":"not a list"}`)
	if _, err := Load(); err == nil {
		t.Error("expected error for non-array TOPICS_CONFIG")
	}
}

func TestLoad_InvalidExclusionMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXCLUSION_MODE", "both")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown exclusion mode")
	}
}

func TestLoad_TopicValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOPICS_CONFIG", `[{"name":"ゲーム"}]`)
	if _, err := Load(); err == nil {
		t.Error("expected error for topic without channel_id")
	}
}
