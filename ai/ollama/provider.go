package ollama

import (
	"log/slog"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/ai/langchain"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Provider implements ai.AIProvider using a local Ollama server.
type Provider struct {
	config    *ai.Config
	embedder  *langchain.Embedder
	generator *langchain.Generator
	logger    *slog.Logger
}

var _ ai.AIProvider = (*Provider)(nil)

// NewProvider creates a provider talking to config.LocalHost.
// Ollama binds one model per client, so embedding and generation get
// separate clients.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("provider", "ollama")

	embedClient, err := ollama.New(
		ollama.WithServerURL(config.LocalHost),
		ollama.WithModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := langchain.NewEmbedder(embedClient, logger.With("model", config.EmbeddingModel))
	if err != nil {
		return nil, err
	}

	llm, err := ollama.New(
		ollama.WithServerURL(config.LocalHost),
		ollama.WithModel(config.LocalModel),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		generator: langchain.NewGenerator(llm, config.Temperature, config.MaxTokens, logger.With("model", config.LocalModel)),
		logger:    logger,
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the answer generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close releases resources held by the provider.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
