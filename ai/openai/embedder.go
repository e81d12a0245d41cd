package openai

import (
	"log/slog"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/ai/langchain"
	"github.com/tmc/langchaingo/llms/openai"
)

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config, logger *slog.Logger) (*langchain.Embedder, error) {
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}
	return langchain.NewEmbedder(client, logger.With("host", config.EmbeddingHost))
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newEmbedder(config, slog.Default())
}
