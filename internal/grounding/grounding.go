// Package grounding flattens the nested grounding metadata of a Gemini
// response into plain records the attribution engine can work with.
package grounding

import (
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/groundnews/groundnews/internal/metrics"
)

// Chunk is one citable web source. Its identity is the URI; chunks with an
// empty URI are unusable and get dropped during attribution.
type Chunk struct {
	Title string
	URI   string
}

// Segment is the span of response text a support refers to. Start and End
// are byte offsets into the original, unsegmented response and are advisory:
// they do not survive re-serialization, so attribution keys on Text.
type Segment struct {
	Start int
	End   int
	Text  string
}

// Support is a claim that a specific span of the response is backed by the
// chunks at the given indices. ConfidenceScores parallels ChunkIndices and
// is advisory only.
type Support struct {
	ChunkIndices     []int
	ConfidenceScores []float64
	Segment          *Segment
}

// Extract pulls citation chunks and supports out of a generate-content
// response. Every level of the candidate → metadata → chunks/supports tree
// is optional; a missing branch yields an empty result, never an error.
// A malformed structure degrades to (nil, nil) with a warning: losing
// citations is acceptable, losing the news text is not.
func Extract(resp *genai.GenerateContentResponse) (chunks []Chunk, supports []Support) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("Failed to extract grounding metadata, continuing without citations")
			metrics.Global.IncrementCitationDegradations()
			chunks, supports = nil, nil
		}
	}()

	md := groundingMetadata(resp)
	if md == nil {
		return nil, nil
	}

	for _, gc := range md.GroundingChunks {
		if gc == nil || gc.Web == nil {
			continue
		}
		chunks = append(chunks, Chunk{Title: gc.Web.Title, URI: gc.Web.URI})
	}

	for _, gs := range md.GroundingSupports {
		if gs == nil {
			continue
		}
		s := Support{
			ChunkIndices:     toInts(gs.GroundingChunkIndices),
			ConfidenceScores: toFloats(gs.ConfidenceScores),
		}
		if gs.Segment != nil {
			s.Segment = &Segment{
				Start: int(gs.Segment.StartIndex),
				End:   int(gs.Segment.EndIndex),
				Text:  gs.Segment.Text,
			}
		}
		supports = append(supports, s)
	}

	return chunks, supports
}

// groundingMetadata returns the first candidate's grounding metadata. Chunk
// indices are candidate-local, so metadata from multiple candidates cannot
// be merged into one flat chunk list.
func groundingMetadata(resp *genai.GenerateContentResponse) *genai.GroundingMetadata {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand != nil && cand.GroundingMetadata != nil {
			return cand.GroundingMetadata
		}
	}
	return nil
}

func toInts(values []int32) []int {
	if len(values) == 0 {
		return nil
	}
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}

func toFloats(values []float32) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
