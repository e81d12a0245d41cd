package langchain

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/ragbase/ai"
	"github.com/tmc/langchaingo/embeddings"
)

// Embedder implements ai.Embedder on top of a langchaingo embedding client.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder wraps client, which is usually an *openai.LLM or *ollama.LLM.
func NewEmbedder(client embeddings.EmbedderClient, logger *slog.Logger) (*Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Embedder{
		embedder: embedder,
		logger:   logger.With("component", "embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	// langchaingo strips newlines in place; keep the caller's slice intact.
	vectors, err := e.embedder.EmbedDocuments(ctx, slices.Clone(texts))
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: %d texts, %d embeddings", ai.ErrDimensionMismatch, len(texts), len(vectors))
	}
	return vectors, nil
}
