package chunker

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/ragbase/core"
)

// span is a half-open byte range of the document text.
type span struct {
	start, end int
}

// semanticSegments partitions text into topic-coherent spans.
func (s *Splitter) semanticSegments(ctx context.Context, text string) ([]span, error) {
	sentences := sentenceSpans(text)
	if len(sentences) <= 1 {
		return sentences, nil
	}

	combined := make([]string, len(sentences))
	for i := range sentences {
		lo := max(0, i-s.config.BufferSize)
		hi := min(len(sentences), i+s.config.BufferSize+1)
		parts := make([]string, 0, hi-lo)
		for _, sp := range sentences[lo:hi] {
			parts = append(parts, text[sp.start:sp.end])
		}
		combined[i] = strings.Join(parts, " ")
	}

	vectors, err := s.embedder.EmbedTexts(ctx, combined)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(combined) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d sentences",
			core.ErrEmbeddingUnavailable, len(vectors), len(combined))
	}

	distances := make([]float64, len(vectors)-1)
	for i := range distances {
		distances[i] = 1 - core.CosineSimilarity(vectors[i], vectors[i+1])
	}
	threshold := breakpointThreshold(distances, s.config.BreakpointAmount)

	var segments []span
	start := 0
	for i, d := range distances {
		if d > threshold {
			segments = append(segments, span{sentences[start].start, sentences[i].end})
			start = i + 1
		}
	}
	segments = append(segments, span{sentences[start].start, sentences[len(sentences)-1].end})
	return segments, nil
}

// sentenceSpans splits text after '.', '?' or '!' followed by whitespace.
// Returned spans are trimmed and never empty.
func sentenceSpans(text string) []span {
	var spans []span
	add := func(start, end int) {
		for start < end {
			r, size := utf8.DecodeRuneInString(text[start:end])
			if !unicode.IsSpace(r) {
				break
			}
			start += size
		}
		for end > start {
			r, size := utf8.DecodeLastRuneInString(text[start:end])
			if !unicode.IsSpace(r) {
				break
			}
			end -= size
		}
		if end > start {
			spans = append(spans, span{start, end})
		}
	}

	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		next := i
		for next < len(text) {
			r, size := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(r) {
				break
			}
			next += size
		}
		if next > i {
			add(start, i)
			start, i = next, next
		}
	}
	add(start, len(text))
	return spans
}

// breakpointThreshold returns mean + amount*IQR of distances.
func breakpointThreshold(distances []float64, amount float64) float64 {
	if len(distances) == 0 {
		return math.Inf(1)
	}
	sorted := slices.Clone(distances)
	slices.Sort(sorted)
	iqr := percentile(sorted, 75) - percentile(sorted, 25)
	return mean(distances) + amount*iqr
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
