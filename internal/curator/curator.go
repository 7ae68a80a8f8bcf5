// Package curator fetches topic news from Gemini with Google Search
// grounding and turns the response into attributed news items.
package curator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/groundnews/groundnews/internal/config"
	"github.com/groundnews/groundnews/internal/grounding"
	"github.com/groundnews/groundnews/internal/news"
)

type Curator struct {
	client *genai.Client
	model  string
	prompt PromptConfig

	minSupportLen int

	// Request budget: a steady pacer between calls plus a hard per-run cap.
	limiter     *rate.Limiter
	maxRequests int
	requests    int
}

func New(ctx context.Context, cfg *config.Config) (*Curator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  cfg.GCPProjectID,
		Location: cfg.GCPLocation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Curator{
		client:        client,
		model:         cfg.ModelName,
		prompt:        DefaultPromptConfig(),
		minSupportLen: cfg.MinSupportLength,
		maxRequests:   cfg.MaxModelRequests,
	}
	if cfg.ModelRatePerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.ModelRatePerMinute)/60.0), 1)
	}
	return c, nil
}

// FetchNews runs one grounded model call for the topic and returns the
// segmented, source-attributed items. Citation extraction is best-effort:
// a response with unusable grounding metadata still yields items, just
// without sources.
func (c *Curator) FetchNews(ctx context.Context, topic string, exclusions []string) ([]news.Item, error) {
	if c.maxRequests > 0 && c.requests >= c.maxRequests {
		return nil, fmt.Errorf("model request budget exhausted (%d per run)", c.maxRequests)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	c.requests++

	prompt := c.prompt.Build(topic, exclusions)
	log.Info().Str("topic", topic).Str("model", c.model).Int("exclusions", len(exclusions)).Msg("Fetching news with Google Search grounding")

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		Temperature: genai.Ptr(float32(0.2)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	chunks, supports := grounding.Extract(resp)
	log.Debug().Int("chunks", len(chunks)).Int("supports", len(supports)).Msg("Extracted grounding metadata")

	attributor := news.Attributor{Chunks: chunks, Supports: supports, MinSupportLen: c.minSupportLen}
	items := news.Build(text, c.prompt.Separator, attributor)
	log.Info().Str("topic", topic).Int("items", len(items)).Msg("Assembled news items")
	return items, nil
}
