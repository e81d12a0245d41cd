package reindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage"
)

// batchProcessor re-embeds one batch of chunks and stores the new vectors.
type batchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// process embeds the chunk texts and replaces their vectors. The repository
// normalizes vectors on write.
func (bp *batchProcessor) process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	ids := make([]core.ID, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		ids[i] = chunk.Id
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, bp.logger, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("%w: after %d attempts: %w", core.ErrEmbeddingUnavailable, bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d, got %d", ai.ErrDimensionMismatch, len(chunks), len(embeddings))
	}

	if err := bp.repo.UpdateVectors(ctx, ids, embeddings); err != nil {
		return fmt.Errorf("update vectors: %w", err)
	}
	return nil
}
