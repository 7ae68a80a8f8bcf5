// Package news turns one grounded model response into discrete news items:
// it splits the raw answer on the separator, attributes each segment the
// citation chunks that support it, and flags the closing trend commentary.
package news

import (
	"strings"
	"unicode/utf8"

	"github.com/groundnews/groundnews/internal/grounding"
)

// DefaultMinSupportLen is the minimum length of a support's segment text for
// it to participate in attribution. Shorter strings show up verbatim in more
// than one segment and produce false positive matches.
const DefaultMinSupportLen = 10

// Item is one news story extracted from the response, with the web sources
// that back it. The final segment of a multi-segment response is the
// impression item: closing commentary, never attributed.
type Item struct {
	Text         string
	Sources      []grounding.Chunk
	IsImpression bool
}

// Split cuts the response text on the separator literal and returns the
// trimmed, non-empty segments in order.
func Split(text, sep string) []string {
	var segments []string
	for _, part := range strings.Split(text, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// Attributor matches citation chunks to item texts. The only correlation
// signal the grounding API gives us that survives re-serialization is the
// support's literal segment text, so attribution is substring containment
// of that text within the candidate item. This is a documented heuristic:
// it misses when whitespace differs between the span and the trimmed
// segment, and MinSupportLen guards against a short phrase matching two
// segments at once.
type Attributor struct {
	Chunks        []grounding.Chunk
	Supports      []grounding.Support
	MinSupportLen int
}

func (a Attributor) minSupportLen() int {
	if a.MinSupportLen > 0 {
		return a.MinSupportLen
	}
	return DefaultMinSupportLen
}

// Attribute returns the chunks that apply to one segment text, deduplicated
// by URI in first-seen order. Chunks with an empty URI are dropped.
func (a Attributor) Attribute(segment string) []grounding.Chunk {
	var indices []int
	seen := make(map[int]bool)

	for _, support := range a.Supports {
		if support.Segment == nil {
			continue
		}
		key := support.Segment.Text
		// The threshold counts characters, not bytes: most of the model
		// output is Japanese, where every rune is 3 bytes.
		if utf8.RuneCountInString(key) < a.minSupportLen() {
			continue
		}
		if !strings.Contains(segment, key) {
			continue
		}
		for _, idx := range support.ChunkIndices {
			if idx < 0 || idx >= len(a.Chunks) || seen[idx] {
				continue
			}
			seen[idx] = true
			indices = append(indices, idx)
		}
	}

	resolved := make([]grounding.Chunk, 0, len(indices))
	for _, idx := range indices {
		resolved = append(resolved, a.Chunks[idx])
	}
	return dedupeByURI(resolved)
}

// AttributeAll is the no-segment fallback: when the response did not split,
// there is nothing to disambiguate and the single item gets every usable
// chunk, deduplicated by URI.
func (a Attributor) AttributeAll() []grounding.Chunk {
	return dedupeByURI(a.Chunks)
}

func dedupeByURI(chunks []grounding.Chunk) []grounding.Chunk {
	var out []grounding.Chunk
	seen := make(map[string]bool)
	for _, c := range chunks {
		if c.URI == "" || seen[c.URI] {
			continue
		}
		seen[c.URI] = true
		out = append(out, c)
	}
	return out
}

// Assemble zips segments with their attributed sources into items, in
// segment order. With two or more segments the last one becomes the
// impression item and is forced to an empty source set. A lone segment is a
// plain item carrying the full deduplicated chunk set.
func Assemble(segments []string, attributor Attributor) []Item {
	if len(segments) == 0 {
		return nil
	}

	if len(segments) == 1 {
		return []Item{{Text: segments[0], Sources: attributor.AttributeAll()}}
	}

	items := make([]Item, 0, len(segments))
	for i, segment := range segments {
		if i == len(segments)-1 {
			items = append(items, Item{Text: segment, IsImpression: true})
			continue
		}
		items = append(items, Item{Text: segment, Sources: attributor.Attribute(segment)})
	}
	return items
}

// Build is the full pipeline for one response: split, attribute, assemble.
func Build(text, sep string, attributor Attributor) []Item {
	return Assemble(Split(text, sep), attributor)
}
