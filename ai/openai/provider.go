// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"log/slog"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/ai/langchain"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// Generation goes to the remote chat completion API; embeddings go to the
// embedding host, which is usually a local server since many hosted chat
// APIs have no embedding endpoint.
type Provider struct {
	config    *ai.Config
	embedder  *langchain.Embedder
	generator *langchain.Generator
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("provider", "openai")

	embedder, err := newEmbedder(config, logger)
	if err != nil {
		return nil, err
	}

	token := config.RemoteAPIKey
	if token == "" {
		token = "none"
	}
	llm, err := openai.New(
		openai.WithBaseURL(config.RemoteHost),
		openai.WithToken(token),
		openai.WithModel(config.RemoteModel),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		generator: langchain.NewGenerator(llm, config.Temperature, config.MaxTokens, logger.With("model", config.RemoteModel)),
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
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
