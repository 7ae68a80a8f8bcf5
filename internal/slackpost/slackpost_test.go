package slackpost

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/groundnews/groundnews/internal/grounding"
	"github.com/groundnews/groundnews/internal/news"
)

func testItems() []news.Item {
	return []news.Item{
		{Text: "first story", Sources: []grounding.Chunk{
			{Title: "Site A", URI: "http://a"},
			{Title: "Site B", URI: "http://b"},
		}},
		{Text: "second story"},
		{Text: "trend commentary", IsImpression: true},
	}
}

func contextTexts(blocks []slack.Block) []string {
	var texts []string
	for _, block := range blocks {
		cb, ok := block.(*slack.ContextBlock)
		if !ok {
			continue
		}
		for _, el := range cb.ContextElements.Elements {
			if txt, ok := el.(*slack.TextBlockObject); ok {
				texts = append(texts, txt.Text)
			}
		}
	}
	return texts
}

func TestBuildBlocks_Layout(t *testing.T) {
	p := testPoster(&fakeAPI{}, "title")
	now := time.Date(2026, 8, 25, 8, 30, 0, 0, time.UTC)
	blocks := p.buildBlocks(testItems(), now)

	header, ok := blocks[0].(*slack.HeaderBlock)
	if !ok {
		t.Fatalf("first block is %T, want header", blocks[0])
	}
	if header.Text.Text != "ゲームニュース" {
		t.Errorf("unexpected header text: %q", header.Text.Text)
	}

	texts := contextTexts(blocks)
	if len(texts) != 3 {
		t.Fatalf("expected 3 context blocks (date, sources, footer), got %d: %v", len(texts), texts)
	}
	if !strings.HasPrefix(texts[0], "📅 2026-08-25") {
		t.Errorf("unexpected date context: %q", texts[0])
	}
	if want := "🔗 <http://a|Site A> | <http://b|Site B>"; texts[1] != want {
		t.Errorf("source context = %q, want %q", texts[1], want)
	}
	if !strings.Contains(texts[2], "gemini-2.5-pro") || !strings.Contains(texts[2], "08:30 UTC") {
		t.Errorf("unexpected footer: %q", texts[2])
	}
}

func TestBuildBlocks_ImpressionHasNoSourceLine(t *testing.T) {
	p := testPoster(&fakeAPI{}, "title")
	items := []news.Item{
		{Text: "trend", IsImpression: true, Sources: []grounding.Chunk{{Title: "X", URI: "http://x"}}},
	}
	blocks := p.buildBlocks(items, time.Now().UTC())
	for _, text := range contextTexts(blocks) {
		if strings.HasPrefix(text, linkGlyph) {
			t.Errorf("impression item rendered a source line: %q", text)
		}
	}
}

func TestBuildBlocks_TruncatesLongText(t *testing.T) {
	p := testPoster(&fakeAPI{}, "title")
	long := strings.Repeat("あ", MaxBlockTextLength+50)
	blocks := p.buildBlocks([]news.Item{{Text: long}}, time.Now().UTC())

	var section *slack.SectionBlock
	for _, block := range blocks {
		if sb, ok := block.(*slack.SectionBlock); ok {
			section = sb
		}
	}
	if section == nil {
		t.Fatal("no section block rendered")
	}
	if got := utf8.RuneCountInString(section.Text.Text); got != MaxBlockTextLength {
		t.Errorf("truncated text length = %d runes, want %d", got, MaxBlockTextLength)
	}
	if !strings.HasSuffix(section.Text.Text, "…") {
		t.Error("truncated text does not end with ellipsis")
	}
}

func TestBuildBlocks_TruncatesHeader(t *testing.T) {
	p := testPoster(&fakeAPI{}, "title")
	p.header = strings.Repeat("h", MaxHeaderLength+10)
	blocks := p.buildBlocks(nil, time.Now().UTC())
	header := blocks[0].(*slack.HeaderBlock)
	if got := utf8.RuneCountInString(header.Text.Text); got != MaxHeaderLength {
		t.Errorf("header length = %d runes, want %d", got, MaxHeaderLength)
	}
}

func TestPostNews_Success(t *testing.T) {
	api := &fakeAPI{}
	p := testPoster(api, "title")
	if err := p.PostNews(context.Background(), testItems()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.posted) != 1 || api.posted[0] != "C123" {
		t.Errorf("expected one post to C123, got %v", api.posted)
	}
	// blocks + fallback text + both unfurl flags disabled
	if api.postOptions != 4 {
		t.Errorf("expected 4 message options, got %d", api.postOptions)
	}
}

func TestPostNews_APIError(t *testing.T) {
	api := &fakeAPI{postErr: errors.New("not_in_channel")}
	p := testPoster(api, "title")
	err := p.PostNews(context.Background(), testItems())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not_in_channel") {
		t.Errorf("error does not carry the API error code: %v", err)
	}
}
