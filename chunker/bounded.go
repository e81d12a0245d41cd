package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/ragbase/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const tokenEncoding = "cl100k_base"

// piece is one bounded-stage window. offset is its byte offset inside the
// segment, or core.UnknownOffset when it can't be located.
type piece struct {
	text   string
	offset int
}

// size measures text in the unit of the configured strategy.
func (s *Splitter) size(text string) (int, error) {
	if s.config.Strategy != StrategyToken {
		return utf8.RuneCountInString(text), nil
	}
	tk, err := s.encoding()
	if err != nil {
		return 0, err
	}
	return len(tk.EncodeOrdinary(text)), nil
}

// bound cuts an oversized segment into overlapping windows.
func (s *Splitter) bound(segment string) ([]piece, error) {
	switch s.config.Strategy {
	case StrategyToken:
		split := textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(s.config.MaxSize),
			textsplitter.WithChunkOverlap(s.config.Overlap),
			textsplitter.WithEncodingName(tokenEncoding),
			textsplitter.WithAllowedSpecial([]string{}),
			textsplitter.WithDisallowedSpecial([]string{}),
		)
		texts, err := split.SplitText(segment)
		if err != nil {
			return nil, err
		}
		// The token splitter emits a final window lying entirely inside the
		// previous one when the text ends within the overlap.
		if n := len(texts); n > 1 && strings.HasSuffix(texts[n-2], texts[n-1]) {
			texts = texts[:n-1]
		}
		return locate(segment, texts), nil

	case StrategyRecursive:
		split := textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(s.config.MaxSize),
			textsplitter.WithChunkOverlap(s.config.Overlap),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		)
		texts, err := split.SplitText(segment)
		if err != nil {
			return nil, err
		}
		return locate(segment, texts), nil

	default:
		return runeWindows(segment, s.config.MaxSize, s.config.Overlap), nil
	}
}

// runeWindows cuts text into windows of size runes, each starting
// size-overlap runes after the previous one.
func runeWindows(text string, size, overlap int) []piece {
	// byteAt[i] is the byte offset of rune i; byteAt[n] is len(text).
	byteAt := make([]int, 0, len(text)+1)
	for i := range text {
		byteAt = append(byteAt, i)
	}
	n := len(byteAt)
	byteAt = append(byteAt, len(text))

	var pieces []piece
	step := size - overlap
	for start := 0; ; start += step {
		end := min(start+size, n)
		pieces = append(pieces, piece{
			text:   text[byteAt[start]:byteAt[end]],
			offset: byteAt[start],
		})
		if end == n {
			return pieces
		}
	}
}

// locate finds each text in segment, searching forward from the previous match.
func locate(segment string, texts []string) []piece {
	pieces := make([]piece, len(texts))
	cursor := 0
	for i, text := range texts {
		pieces[i] = piece{text: text, offset: core.UnknownOffset}
		if idx := strings.Index(segment[cursor:], text); idx >= 0 {
			pieces[i].offset = cursor + idx
			cursor = min(cursor+idx+1, len(segment))
		}
	}
	return pieces
}
