package slackpost

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/groundnews/groundnews/internal/config"
	"github.com/groundnews/groundnews/internal/metrics"
)

// linkGlyph opens every source context line; only those lines are scanned
// in URL mode.
const linkGlyph = "🔗"

var (
	// titlePattern matches a bolded span at the start of a line, optionally
	// preceded by an emoji token or a numbered bullet, and captures the
	// inner text. Examples: "*Title*", ":newspaper: *Title*", "1. *Title*".
	titlePattern = regexp.MustCompile(`(?m)^(?::[a-zA-Z0-9_+-]+:\s*|\d+\.\s*)?\*([^*\n]+)\*`)

	// numberPrefix strips a numbered-bullet marker that ended up inside the
	// bold span, so "*1. Title*" and "1. *Title*" normalize to the same key.
	numberPrefix = regexp.MustCompile(`^\d+\.\s*`)

	// linkPattern captures the URL of a bracketed hyperlink, with or
	// without a label: <URL|label> or <URL>.
	linkPattern = regexp.MustCompile(`<(https?://[^|>]+)(?:\|[^>]*)?>`)
)

// RecentIdentifiers scans the channel's recent messages and returns the
// identifiers (titles or source URLs, per the configured exclusion mode)
// of already-reported news. Any retrieval error degrades to an empty list
// with a warning: a missing exclusion list must never abort the run.
func (p *Poster) RecentIdentifiers(ctx context.Context) []string {
	oldest := time.Now().AddDate(0, 0, -p.historyDays)

	resp, err := p.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: p.channelID,
		Oldest:    fmt.Sprintf("%d.000000", oldest.Unix()),
		Limit:     p.historyLimit,
	})
	if err != nil {
		log.Warn().Err(err).Str("channel", p.channelID).Msg("Failed to fetch conversation history, continuing without exclusions")
		metrics.Global.IncrementHistoryDegradations()
		return nil
	}

	var identifiers []string
	if p.exclusionMode == config.ExclusionModeURL {
		identifiers = extractURLs(resp.Messages)
	} else {
		identifiers = extractTitles(resp.Messages)
	}

	log.Info().Str("channel", p.channelID).Int("count", len(identifiers)).Int("days", p.historyDays).Msg("Found identifiers in recent history")
	return identifiers
}

// extractTitles pulls bolded titles out of section blocks.
func extractTitles(messages []slack.Message) []string {
	var titles []string
	for _, message := range messages {
		for _, block := range message.Msg.Blocks.BlockSet {
			section, ok := block.(*slack.SectionBlock)
			if !ok || section.Text == nil {
				continue
			}
			for _, match := range titlePattern.FindAllStringSubmatch(section.Text.Text, -1) {
				title := strings.TrimSpace(numberPrefix.ReplaceAllString(match[1], ""))
				if title != "" {
					titles = append(titles, title)
				}
			}
		}
	}
	return titles
}

// extractURLs pulls source URLs out of context blocks that carry a source
// line (marked by the link glyph).
func extractURLs(messages []slack.Message) []string {
	var urls []string
	for _, message := range messages {
		for _, block := range message.Msg.Blocks.BlockSet {
			contextBlock, ok := block.(*slack.ContextBlock)
			if !ok {
				continue
			}
			for _, element := range contextBlock.ContextElements.Elements {
				text, ok := element.(*slack.TextBlockObject)
				if !ok || !strings.HasPrefix(text.Text, linkGlyph) {
					continue
				}
				for _, match := range linkPattern.FindAllStringSubmatch(text.Text, -1) {
					urls = append(urls, match[1])
				}
			}
		}
	}
	return urls
}
