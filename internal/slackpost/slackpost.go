// Package slackpost renders news items as Block Kit messages, delivers them
// to a channel, and reads recent channel history for deduplication.
package slackpost

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/groundnews/groundnews/internal/config"
	"github.com/groundnews/groundnews/internal/grounding"
	"github.com/groundnews/groundnews/internal/news"
)

// Slack rendering caps. Both truncate with a trailing ellipsis and log a
// warning when triggered.
const (
	MaxBlockTextLength = 3000
	MaxHeaderLength    = 150
)

// slackAPI is the slice of the Slack client the poster needs. *slack.Client
// satisfies it; tests substitute a fake.
type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// Poster posts curated news for one topic to its Slack channel.
type Poster struct {
	api           slackAPI
	channelID     string
	header        string
	modelName     string
	unfurlLinks   bool
	unfurlMedia   bool
	exclusionMode string
	historyDays   int
	historyLimit  int
}

func New(client *slack.Client, topic config.TopicConfig, cfg *config.Config) *Poster {
	return &Poster{
		api:           client,
		channelID:     topic.ChannelID,
		header:        topic.Header,
		modelName:     cfg.ModelName,
		unfurlLinks:   topic.UnfurlLinks,
		unfurlMedia:   topic.UnfurlMedia,
		exclusionMode: cfg.ExclusionMode,
		historyDays:   cfg.HistoryDays,
		historyLimit:  cfg.HistoryLimit,
	}
}

// PostNews delivers the items as one Block Kit message. The topic header
// doubles as the plain-text fallback. An API error is returned to the
// caller; other topics keep running.
func (p *Poster) PostNews(ctx context.Context, items []news.Item) error {
	blocks := p.buildBlocks(items, time.Now().UTC())

	options := []slack.MsgOption{
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(p.header, false),
	}
	if !p.unfurlLinks {
		options = append(options, slack.MsgOptionDisableLinkUnfurl())
	}
	if !p.unfurlMedia {
		options = append(options, slack.MsgOptionDisableMediaUnfurl())
	}

	_, ts, err := p.api.PostMessageContext(ctx, p.channelID, options...)
	if err != nil {
		return fmt.Errorf("slack API error: %w", err)
	}

	log.Info().Str("channel", p.channelID).Str("ts", ts).Msg("Message posted successfully")
	return nil
}

// buildBlocks renders the message: header, date line, one card per item
// (divider + text + optional source line), and a model/time footer. The
// impression item never gets a source line.
func (p *Poster) buildBlocks(items []news.Item, now time.Time) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(p.header, MaxHeaderLength), true, false)),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, "📅 "+now.Format("2006-01-02"), false, false)),
	}

	for _, item := range items {
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, truncate(item.Text, MaxBlockTextLength), false, false), nil, nil),
		)

		if item.IsImpression || len(item.Sources) == 0 {
			continue
		}
		if links := formatSourceLinks(item.Sources); links != "" {
			blocks = append(blocks,
				slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, truncate(linkGlyph+" "+links, MaxBlockTextLength), false, false)),
			)
		}
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("⚡ %s · %s", p.modelName, now.Format("15:04 UTC")), false, false)),
	)
	return blocks
}

// formatSourceLinks renders sources as pipe-joined bracketed hyperlinks,
// the same syntax the URL-mode history reader parses back out.
func formatSourceLinks(sources []grounding.Chunk) string {
	links := make([]string, 0, len(sources))
	for _, source := range sources {
		if source.URI == "" {
			continue
		}
		title := source.Title
		if title == "" {
			title = "リンク"
		}
		links = append(links, fmt.Sprintf("<%s|%s>", source.URI, title))
	}
	return strings.Join(links, " | ")
}

// truncate caps s at max runes, replacing the tail with an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	log.Warn().Int("limit", max).Int("length", utf8.RuneCountInString(s)).Msg("Text exceeds block limit, truncating")
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
