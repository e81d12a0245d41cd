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


package ragbase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/ai/ollama"
	"github.com/poiesic/ragbase/ai/openai"
	"github.com/poiesic/ragbase/ai/rerank"
	"github.com/poiesic/ragbase/chain"
	"github.com/poiesic/ragbase/chunker"
	"github.com/poiesic/ragbase/config"
	"github.com/poiesic/ragbase/history"
	"github.com/poiesic/ragbase/ingestion"
	"github.com/poiesic/ragbase/loader"
	"github.com/poiesic/ragbase/reindex"
	"github.com/poiesic/ragbase/retrieval"
	"github.com/poiesic/ragbase/storage/badger"
)

// closeTimeout bounds the history flush performed by Close.
const closeTimeout = 10 * time.Second

// Engine wires storage, models and the question-answering pipeline together
// from a config.Config.
type Engine struct {
	config    *config.Config
	backend   *badger.Backend
	chunks    *badger.ChunkRepository
	provider  ai.AIProvider
	loader    *loader.Loader
	pipeline  *ingestion.Pipeline
	retriever *retrieval.Retriever
	history   *history.Store
	chain     *chain.Chain
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	reranker ai.Reranker
	inMemory bool
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the model config.
// The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithReranker uses reranker instead of the configured reranking server.
func WithReranker(reranker ai.Reranker) Option {
	return func(o *engineOptions) {
		o.reranker = reranker
	}
}

// WithInMemory keeps the store in memory instead of DatabaseDir.
func WithInMemory() Option {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger every component derives from.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open validates cfg and builds an Engine. Stored conversation histories
// are restored before Open returns.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{config: cfg, logger: options.logger}
	if err := e.open(ctx, options); err != nil {
		if closeErr := e.Close(); closeErr != nil {
			e.logger.Error("error releasing partially opened engine", "err", closeErr)
		}
		return nil, err
	}
	return e, nil
}

func (e *Engine) open(ctx context.Context, options *engineOptions) error {
	cfg := e.config
	var err error

	// Take ownership first so a failed open still closes a supplied provider.
	e.provider = options.provider

	e.backend, err = badger.OpenBackend(cfg.DatabaseDir, options.inMemory)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.DatabaseDir, err)
	}
	e.chunks, err = badger.NewChunkRepository(e.backend, cfg.Collection)
	if err != nil {
		return err
	}

	aiConfig := cfg.AIConfig()
	if e.provider == nil {
		if e.provider, err = newProvider(aiConfig); err != nil {
			return fmt.Errorf("create ai provider: %w", err)
		}
	}

	if e.loader, err = loader.New(loader.WithLogger(e.logger)); err != nil {
		return err
	}
	splitConfig, err := cfg.SplitterConfig()
	if err != nil {
		return err
	}
	splitter, err := chunker.New(e.provider.Embedder(), splitConfig, chunker.WithLogger(e.logger))
	if err != nil {
		return err
	}
	e.pipeline, err = ingestion.NewPipeline(e.chunks, e.provider, e.loader, splitter,
		ingestion.WithPoolSize(cfg.Ingestion.Workers),
		ingestion.WithEmbedBatchSize(cfg.Ingestion.EmbedBatchSize),
		ingestion.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}

	retrieverOpts := []retrieval.Option{
		retrieval.WithLogger(e.logger),
		retrieval.WithTopK(cfg.Retriever.TopK),
	}
	if cfg.Retriever.UseReranker {
		reranker := options.reranker
		if reranker == nil {
			if reranker, err = rerank.NewFromConfig(aiConfig, rerank.WithLogger(e.logger)); err != nil {
				return fmt.Errorf("create reranker: %w", err)
			}
		}
		retrieverOpts = append(retrieverOpts, retrieval.WithReranker(reranker, cfg.Retriever.RerankTopN))
	}
	if cfg.Retriever.UseFilter {
		retrieverOpts = append(retrieverOpts, retrieval.WithRelevanceFilter(cfg.Retriever.MinRelevance))
	}
	if cfg.Debug {
		retrieverOpts = append(retrieverOpts, retrieval.WithMonitor(retrieval.NewLogMonitor(e.logger)))
	}
	if e.retriever, err = retrieval.NewRetriever(e.chunks, e.provider, retrieverOpts...); err != nil {
		return err
	}

	e.history, err = history.NewStore(
		history.WithCap(cfg.ConversationMessagesLimit),
		history.WithRepository(badger.NewSessionRepository(e.backend)),
		history.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	if err := e.history.Load(ctx); err != nil {
		return fmt.Errorf("restore conversation history: %w", err)
	}

	e.chain, err = chain.New(e.retriever, e.provider.Generator(), e.history,
		chain.WithLogger(e.logger),
		chain.WithTracing(cfg.Debug),
	)
	return err
}

// newProvider picks Ollama for local models and the OpenAI-compatible
// provider otherwise.
func newProvider(config *ai.Config) (ai.AIProvider, error) {
	if config.UseLocal {
		return ollama.NewProvider(config)
	}
	return openai.NewProvider(config)
}

// Config returns the configuration the engine was opened with.
func (e *Engine) Config() *config.Config {
	return e.config
}

// Pipeline returns the ingestion pipeline.
func (e *Engine) Pipeline() *ingestion.Pipeline {
	return e.pipeline
}

// Retriever returns the retriever.
func (e *Engine) Retriever() *retrieval.Retriever {
	return e.retriever
}

// History returns the conversation history store.
func (e *Engine) History() *history.Store {
	return e.history
}

// Ingest loads, chunks and indexes the documents at paths.
func (e *Engine) Ingest(ctx context.Context, paths []string) (*ingestion.Outcome, error) {
	return e.pipeline.Ingest(ctx, paths)
}

// IngestDocuments ingests every supported file under the documents directory.
func (e *Engine) IngestDocuments(ctx context.Context) (*ingestion.Outcome, error) {
	return e.pipeline.IngestDir(ctx, e.config.DocumentsDir)
}

// NewWatcher creates a watcher over the documents directory using the
// configured debounce. opts are applied after the defaults.
func (e *Engine) NewWatcher(opts ...ingestion.WatcherOption) (*ingestion.Watcher, error) {
	opts = append([]ingestion.WatcherOption{ingestion.WithDebounce(e.config.Ingestion.WatchDebounce)}, opts...)
	return ingestion.NewWatcher(e.pipeline, e.config.DocumentsDir, opts...)
}

// Ask answers question within the conversation sessionID. See chain.Chain.Ask.
func (e *Engine) Ask(ctx context.Context, question, sessionID string) iter.Seq2[chain.Event, error] {
	return e.chain.Ask(ctx, question, sessionID)
}

// Count returns the number of indexed chunks.
func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.chunks.Count(ctx)
}

// Reindex re-embeds every stored chunk with the current embedder.
func (e *Engine) Reindex(ctx context.Context, progress io.Writer) (int, error) {
	r, err := reindex.NewReindexer(e.chunks, e.provider.Embedder(),
		reindex.WithBatchSize(e.config.Ingestion.EmbedBatchSize),
		reindex.WithProgress(progress, e.config.Ingestion.EmbedBatchSize),
		reindex.WithLogger(e.logger),
	)
	if err != nil {
		return 0, err
	}
	return r.Run(ctx)
}

// Close flushes conversation histories and releases every resource.
// It is safe to call on a partially opened engine.
func (e *Engine) Close() error {
	var errs []error

	if e.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if err := e.history.Close(ctx); err != nil {
			e.logger.Error("error flushing conversation history", "err", err)
			errs = append(errs, err)
		}
		cancel()
	}
	if e.pipeline != nil {
		e.pipeline.Release()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.chunks != nil {
		if err := e.chunks.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
