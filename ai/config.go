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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// UseLocal selects the local (Ollama) provider for generation and embeddings.
	// When false, generation goes to RemoteHost and embeddings to EmbeddingHost.
	UseLocal bool

	// LocalHost is the base URL of the Ollama server.
	// Example: "http://localhost:11434"
	LocalHost string

	// LocalModel is the Ollama model used for answer generation.
	// Example: "gemma3:12b-it-q8_0"
	LocalModel string

	// RemoteHost is the base URL of an OpenAI-compatible chat completion API.
	// Example: "https://api.groq.com/openai/v1"
	RemoteHost string

	// RemoteAPIKey authenticates against RemoteHost.
	RemoteAPIKey string

	// RemoteModel is the model used for answer generation when UseLocal is false.
	RemoteModel string

	// EmbeddingHost is the base URL of the OpenAI-compatible embedding API
	// used by the remote provider.
	// Example: "http://localhost:11434/v1"
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// RerankerHost is the base URL of a text-embeddings-inference style
	// reranking server exposing POST /rerank.
	RerankerHost string

	// RerankerModel names the cross-encoder served by RerankerHost.
	RerankerModel string

	// Temperature is the sampling temperature for generation.
	// Default: 0
	Temperature float64

	// MaxTokens bounds the length of a generated answer.
	// Default: 16000
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithLocal selects the local or the remote provider.
func WithLocal(useLocal bool) ConfigOption {
	return func(c *Config) {
		c.UseLocal = useLocal
	}
}

// WithLocalHost sets the Ollama server URL.
func WithLocalHost(host string) ConfigOption {
	return func(c *Config) {
		c.LocalHost = host
	}
}

// WithLocalModel sets the local generation model.
func WithLocalModel(model string) ConfigOption {
	return func(c *Config) {
		c.LocalModel = model
	}
}

// WithRemote sets the remote host, API key and generation model together.
func WithRemote(host, apiKey, model string) ConfigOption {
	return func(c *Config) {
		c.RemoteHost = host
		c.RemoteAPIKey = apiKey
		c.RemoteModel = model
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithReranker sets the reranker host and model.
func WithReranker(host, model string) ConfigOption {
	return func(c *Config) {
		c.RerankerHost = host
		c.RerankerModel = model
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithMaxTokens sets the generation token limit.
func WithMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// DefaultConfig returns a Config with sensible defaults for a local Ollama setup.
func DefaultConfig() *Config {
	return &Config{
		UseLocal:       true,
		LocalHost:      "http://localhost:11434",
		LocalModel:     "gemma3:12b-it-q8_0",
		RemoteHost:     "https://api.groq.com/openai/v1",
		RemoteModel:    "llama-3.3-70b-versatile",
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "embeddinggemma",
		RerankerHost:   "http://localhost:8081",
		RerankerModel:  "ms-marco-MiniLM-L-12-v2",
		Temperature:    0,
		MaxTokens:      16000,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithLocal(false),
//	    WithRemote("https://api.groq.com/openai/v1", key, "llama-3.3-70b-versatile"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix; the Ollama host loses one,
// since the native Ollama API lives at the server root.
func (c *Config) Normalize() {
	c.RemoteHost = withV1(c.RemoteHost)
	c.EmbeddingHost = withV1(c.EmbeddingHost)
	c.LocalHost = strings.TrimSuffix(strings.TrimSuffix(c.LocalHost, "/"), "/v1")
	c.RerankerHost = strings.TrimSuffix(c.RerankerHost, "/")
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.UseLocal {
		if c.LocalHost == "" {
			return errors.New("ai config: LocalHost is required")
		}
		if c.LocalModel == "" {
			return errors.New("ai config: LocalModel is required")
		}
	} else {
		if c.RemoteHost == "" {
			return errors.New("ai config: RemoteHost is required")
		}
		if c.RemoteModel == "" {
			return errors.New("ai config: RemoteModel is required")
		}
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}
