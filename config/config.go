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


package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/chunker"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete process configuration.
type Config struct {
	// Home is the base directory the default data directories live under.
	Home string `yaml:"home"`

	// DatabaseDir holds the vector store. Default: <Home>/docs-db.
	DatabaseDir string `yaml:"database_dir"`

	// DocumentsDir is where documents are ingested from. Default: <Home>/tmp.
	DocumentsDir string `yaml:"documents_dir"`

	// Collection names the chunk collection inside the store.
	Collection string `yaml:"collection"`

	// Debug turns on debug logging and stage tracing.
	Debug bool `yaml:"debug"`

	// ConversationMessagesLimit caps the turns kept per session.
	ConversationMessagesLimit int `yaml:"conversation_messages_limit"`

	Model     ModelConfig     `yaml:"model"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Ingestion IngestionConfig `yaml:"ingestion"`
}

// ModelConfig selects the embedding, reranking and language models.
type ModelConfig struct {
	UseLocal       bool    `yaml:"use_local"`
	LocalHost      string  `yaml:"local_host"`
	LocalModel     string  `yaml:"local_model"`
	RemoteHost     string  `yaml:"remote_host"`
	RemoteModel    string  `yaml:"remote_model"`
	RemoteAPIKey   string  `yaml:"-"`
	EmbeddingHost  string  `yaml:"embedding_host"`
	EmbeddingModel string  `yaml:"embedding_model"`
	RerankerHost   string  `yaml:"reranker_host"`
	RerankerModel  string  `yaml:"reranker_model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
}

// ChunkerConfig tunes document splitting.
type ChunkerConfig struct {
	Strategy         string  `yaml:"strategy"`
	MaxSize          int     `yaml:"max_size"`
	Overlap          int     `yaml:"overlap"`
	BreakpointAmount float64 `yaml:"breakpoint_amount"`
	BufferSize       int     `yaml:"buffer_size"`
}

// RetrieverConfig tunes retrieval.
type RetrieverConfig struct {
	UseReranker  bool    `yaml:"use_reranker"`
	UseFilter    bool    `yaml:"use_chain_filter"`
	TopK         int     `yaml:"top_k"`
	RerankTopN   int     `yaml:"rerank_top_n"`
	MinRelevance float32 `yaml:"min_relevance"`
}

// IngestionConfig tunes the ingestion pipeline.
type IngestionConfig struct {
	Workers        int           `yaml:"workers"`
	EmbedBatchSize int           `yaml:"embed_batch_size"`
	WatchDebounce  time.Duration `yaml:"watch_debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	model := ai.DefaultConfig()
	split := chunker.DefaultConfig()
	return &Config{
		Home:                      ".",
		Collection:                "documents",
		ConversationMessagesLimit: 100,
		Model: ModelConfig{
			UseLocal:       model.UseLocal,
			LocalHost:      model.LocalHost,
			LocalModel:     model.LocalModel,
			RemoteHost:     model.RemoteHost,
			RemoteModel:    model.RemoteModel,
			EmbeddingHost:  model.EmbeddingHost,
			EmbeddingModel: model.EmbeddingModel,
			RerankerHost:   model.RerankerHost,
			RerankerModel:  model.RerankerModel,
			Temperature:    model.Temperature,
			MaxTokens:      model.MaxTokens,
		},
		Chunker: ChunkerConfig{
			Strategy:         split.Strategy.String(),
			MaxSize:          split.MaxSize,
			Overlap:          split.Overlap,
			BreakpointAmount: split.BreakpointAmount,
			BufferSize:       split.BufferSize,
		},
		Retriever: RetrieverConfig{
			UseReranker:  true,
			TopK:         5,
			RerankTopN:   3,
			MinRelevance: 0.3,
		},
		Ingestion: IngestionConfig{
			Workers:        16,
			EmbedBatchSize: 64,
			WatchDebounce:  500 * time.Millisecond,
		},
	}
}

// Load builds the configuration from the defaults, the YAML file at path,
// the dotenv file envFile and the process environment. An empty path skips
// the YAML file; a missing envFile is ignored.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = values
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("parse %s: %w", envFile, err)
		}
	}

	// An exported but empty variable does not hide the dotenv value.
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	cfg.resolvePaths()
	return cfg, nil
}

func (c *Config) resolvePaths() {
	if c.Home == "" {
		c.Home = "."
	}
	if c.DatabaseDir == "" {
		c.DatabaseDir = filepath.Join(c.Home, "docs-db")
	}
	if c.DocumentsDir == "" {
		c.DocumentsDir = filepath.Join(c.Home, "tmp")
	}
}

// AIConfig returns the model settings as an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	m := c.Model
	return ai.NewConfig(
		ai.WithLocal(m.UseLocal),
		ai.WithLocalHost(m.LocalHost),
		ai.WithLocalModel(m.LocalModel),
		ai.WithRemote(m.RemoteHost, m.RemoteAPIKey, m.RemoteModel),
		ai.WithEmbeddingHost(m.EmbeddingHost),
		ai.WithEmbeddingModel(m.EmbeddingModel),
		ai.WithReranker(m.RerankerHost, m.RerankerModel),
		ai.WithTemperature(m.Temperature),
		ai.WithMaxTokens(m.MaxTokens),
	)
}

// SplitterConfig returns the chunker settings as a chunker.Config.
func (c *Config) SplitterConfig() (chunker.Config, error) {
	strategy, err := chunker.ParseStrategy(c.Chunker.Strategy)
	if err != nil {
		return chunker.Config{}, err
	}
	return chunker.Config{
		Strategy:         strategy,
		MaxSize:          c.Chunker.MaxSize,
		Overlap:          c.Chunker.Overlap,
		BreakpointAmount: c.Chunker.BreakpointAmount,
		BufferSize:       c.Chunker.BufferSize,
	}, nil
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDir == "" {
		errs = append(errs, errors.New("database_dir is required"))
	}
	if c.Collection == "" || strings.ContainsAny(c.Collection, ":\x00") {
		errs = append(errs, fmt.Errorf("collection %q is not a valid name", c.Collection))
	}
	if c.ConversationMessagesLimit < 1 {
		errs = append(errs, errors.New("conversation_messages_limit must be positive"))
	}
	if c.Retriever.TopK < 1 {
		errs = append(errs, errors.New("retriever.top_k must be positive"))
	}
	if c.Retriever.UseReranker && c.Retriever.RerankTopN < 1 {
		errs = append(errs, errors.New("retriever.rerank_top_n must be positive"))
	}
	if c.Retriever.UseReranker && c.Model.RerankerHost == "" {
		errs = append(errs, errors.New("model.reranker_host is required when the reranker is enabled"))
	}
	if c.Ingestion.Workers < 1 {
		errs = append(errs, errors.New("ingestion.workers must be positive"))
	}
	if c.Ingestion.EmbedBatchSize < 1 {
		errs = append(errs, errors.New("ingestion.embed_batch_size must be positive"))
	}
	if split, err := c.SplitterConfig(); err != nil {
		errs = append(errs, err)
	} else if err := split.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
