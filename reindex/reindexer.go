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


package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage"
)

const (
	// DefaultBatchSize is the default number of chunks embedded per call.
	DefaultBatchSize = 64

	// DefaultMaxRetries is the default number of attempts per batch.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay before the first retry.
	DefaultRetryDelay = time.Second
)

// Reindexer re-embeds every chunk of a collection.
type Reindexer struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	batchSize      int
	reportInterval int
	maxRetries     int
	retryDelay     time.Duration
	progress       io.Writer
	logger         *slog.Logger
}

// Option configures a Reindexer.
type Option func(*Reindexer) error

// WithBatchSize sets how many chunks are embedded per call.
func WithBatchSize(n int) Option {
	return func(r *Reindexer) error {
		if n < 1 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		r.batchSize = n
		return nil
	}
}

// WithRetry sets the attempts per batch and the delay before the first retry.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(r *Reindexer) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		r.maxRetries = maxAttempts
		r.retryDelay = baseDelay
		return nil
	}
}

// WithProgress reports progress to w every interval chunks.
func WithProgress(w io.Writer, interval int) Option {
	return func(r *Reindexer) error {
		r.progress = w
		r.reportInterval = interval
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reindexer) error {
		r.logger = logger
		return nil
	}
}

// NewReindexer creates a reindexer over repo using embedder.
func NewReindexer(repo storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Reindexer, error) {
	if repo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Reindexer{
		repo:           repo,
		embedder:       embedder,
		batchSize:      DefaultBatchSize,
		reportInterval: DefaultBatchSize,
		maxRetries:     DefaultMaxRetries,
		retryDelay:     DefaultRetryDelay,
		progress:       io.Discard,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "reindexer")
	return r, nil
}

// Run re-embeds every chunk and returns how many were updated. Batches that
// completed before a failure keep their new vectors.
func (r *Reindexer) Run(ctx context.Context) (int, error) {
	total, err := r.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintln(r.progress, "No chunks to reindex")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Reindexing %d chunks (batch size: %d)\n", total, r.batchSize)
	r.logger.Info("reindex started", "chunks", total, "batch_size", r.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.reportInterval)
	tracker.Start()

	processor := &batchProcessor{
		repo:           r.repo,
		embedder:       r.embedder,
		maxRetries:     r.maxRetries,
		retryBaseDelay: r.retryDelay,
		logger:         r.logger,
	}

	processed := 0
	err = r.repo.ForEach(ctx, r.batchSize, func(chunks []*core.Chunk) error {
		if err := processor.process(ctx, chunks); err != nil {
			return fmt.Errorf("reindex batch at chunk %d: %w", processed, err)
		}
		processed += len(chunks)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		r.logger.Error("reindex failed", "processed", processed, "err", err)
		return processed, err
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Updated %d chunks in %v\n",
		processed, elapsed.Round(time.Millisecond))
	r.logger.Info("reindex finished", "chunks", processed, "elapsed", elapsed)
	return processed, nil
}
