// Package app orchestrates one curation run: for every configured topic it
// reads channel history, fetches grounded news with the history folded in
// as exclusions, and posts the result.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/groundnews/groundnews/internal/config"
	"github.com/groundnews/groundnews/internal/metrics"
	"github.com/groundnews/groundnews/internal/news"
)

// Fetcher produces attributed news items for a topic.
type Fetcher interface {
	FetchNews(ctx context.Context, topic string, exclusions []string) ([]news.Item, error)
}

// Poster delivers items to one topic's channel and reads its history.
type Poster interface {
	RecentIdentifiers(ctx context.Context) []string
	PostNews(ctx context.Context, items []news.Item) error
}

type App struct {
	cfg       *config.Config
	fetcher   Fetcher
	newPoster func(topic config.TopicConfig) Poster
}

func New(cfg *config.Config, fetcher Fetcher, newPoster func(topic config.TopicConfig) Poster) *App {
	return &App{cfg: cfg, fetcher: fetcher, newPoster: newPoster}
}

// Run processes every topic in sequence. A failing topic is reported and
// does not stop the remaining ones; the returned error is non-nil iff at
// least one topic failed.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.Global.RecordRunDuration(time.Since(start))
	}()

	var failed []string
	for _, topic := range a.cfg.Topics {
		log.Info().Str("topic", topic.Name).Msg("Processing topic")

		if err := a.runTopic(ctx, topic); err != nil {
			log.Error().Err(err).Str("topic", topic.Name).Msg("Topic failed")
			metrics.Global.SetError(err.Error())
			metrics.Global.IncrementTopicsFailed()
			failed = append(failed, topic.Name)
			continue
		}

		metrics.Global.IncrementTopicsProcessed()
		log.Info().Str("topic", topic.Name).Msg("News posted successfully")
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d topics failed: %s", len(failed), len(a.cfg.Topics), strings.Join(failed, ", "))
	}

	metrics.Global.SetLastRun()
	return nil
}

func (a *App) runTopic(ctx context.Context, topic config.TopicConfig) error {
	poster := a.newPoster(topic)

	// History and exclusions are best-effort; an empty list is acceptable.
	historyCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	exclusions := poster.RecentIdentifiers(historyCtx)
	cancel()

	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	items, err := a.fetcher.FetchNews(fetchCtx, topic.Name, exclusions)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch news: %w", err)
	}
	if len(items) == 0 {
		log.Info().Str("topic", topic.Name).Msg("No news items, nothing to post")
		return nil
	}

	postCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	err = poster.PostNews(postCtx, items)
	cancel()
	if err != nil {
		return fmt.Errorf("post news: %w", err)
	}

	metrics.Global.AddItemsPosted(len(items))
	metrics.Global.IncrementMessagesSent()
	return nil
}
