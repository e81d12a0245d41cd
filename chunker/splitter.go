package chunker

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/core"
)

// Splitter turns document text into chunks. It is safe for concurrent use.
type Splitter struct {
	embedder ai.Embedder
	config   Config
	logger   *slog.Logger
	encoding func() (*tiktoken.Tiktoken, error)
}

// Option is a functional option for configuring a Splitter.
type Option func(*Splitter) error

// WithLogger sets the logger for the splitter.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Splitter) error {
		s.logger = logger
		return nil
	}
}

// New creates a Splitter. The embedder is used by the semantic stage.
func New(embedder ai.Embedder, config Config, opts ...Option) (*Splitter, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Splitter{
		embedder: embedder,
		config:   config,
		logger:   slog.Default(),
		// Loading the BPE ranks is expensive, so do it once and only if needed.
		encoding: sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
			return tiktoken.GetEncoding(tokenEncoding)
		}),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "chunker")
	return s, nil
}

// Config returns the splitter's configuration.
func (s *Splitter) Config() Config {
	return s.config
}

// Split chunks the full text of the document at source.
//
// Text no longer than MaxSize comes back as a single chunk equal to the
// input, without calling the embedder. Whitespace-only text yields no chunks.
// Embedding failures are reported as core.ErrEmbeddingUnavailable.
func (s *Splitter) Split(ctx context.Context, source, text string) ([]*core.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return []*core.Chunk{}, nil
	}

	size, err := s.size(text)
	if err != nil {
		return nil, err
	}
	if size <= s.config.MaxSize {
		return []*core.Chunk{newChunk(source, 0, text, 0)}, nil
	}

	segments, err := s.semanticSegments(ctx, text)
	if err != nil {
		s.logger.Error("semantic split failed", "source", source, "err", err)
		return nil, err
	}

	var chunks []*core.Chunk
	oversized := 0
	for _, seg := range segments {
		segText := text[seg.start:seg.end]
		size, err := s.size(segText)
		if err != nil {
			return nil, err
		}
		// Segments of exactly MaxSize are kept whole.
		if size <= s.config.MaxSize {
			chunks = append(chunks, newChunk(source, len(chunks), segText, seg.start))
			continue
		}

		oversized++
		pieces, err := s.bound(segText)
		if err != nil {
			return nil, err
		}
		for _, p := range pieces {
			if strings.TrimSpace(p.text) == "" {
				continue
			}
			offset := core.UnknownOffset
			if p.offset != core.UnknownOffset {
				offset = seg.start + p.offset
			}
			chunks = append(chunks, newChunk(source, len(chunks), p.text, offset))
		}
	}

	s.logger.Debug("split document",
		"source", source,
		"segments", len(segments),
		"oversized", oversized,
		"chunks", len(chunks))
	return chunks, nil
}

func newChunk(source string, index int, text string, offset int) *core.Chunk {
	return &core.Chunk{
		Id:   core.ChunkID(source, index, text),
		Text: text,
		Metadata: core.ChunkMetadata{
			SourcePath:  source,
			StartOffset: offset,
			Index:       index,
		},
	}
}
