package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage"
)

// indexer performs the bulk write of an ingest call.
type indexer struct {
	repository storage.ChunkRepository
	embedder   ai.Embedder
	batchSize  int
	logger     *slog.Logger
}

func newIndexer(repository storage.ChunkRepository, embedder ai.Embedder, batchSize int, logger *slog.Logger) *indexer {
	return &indexer{
		repository: repository,
		embedder:   embedder,
		batchSize:  batchSize,
		logger:     logger.With("processor", "index"),
	}
}

// write embeds every chunk, then stores them in place of what the sources
// produced before with a single repository call.
func (ix *indexer) write(ctx context.Context, sources []string, chunks []*core.Chunk) error {
	ix.logger.Info("indexing chunks", "chunks", len(chunks), "documents", len(sources))

	vectors, err := ix.embed(ctx, chunks)
	if err != nil {
		ix.logger.Error("error generating embeddings", "err", err)
		return fmt.Errorf("%w: %w", core.ErrEmbeddingUnavailable, err)
	}

	return ix.repository.ReplaceSources(ctx, sources, chunks, vectors)
}

func (ix *indexer) embed(ctx context.Context, chunks []*core.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		texts := make([]string, end-start)
		for i, chunk := range chunks[start:end] {
			texts[i] = chunk.Text
		}

		ix.logger.Debug("generating embeddings", "from", start, "to", end)
		batch, err := ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(batch))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
