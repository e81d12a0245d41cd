package storage

import (
	"context"

	"github.com/poiesic/ragbase/core"
)

// ChunkRepository is the vector store holding indexed chunks for one collection.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// Upsert stores chunks together with their embedding vectors in one write.
	// vectors[i] belongs to chunks[i]. Chunks with an existing ID are replaced.
	// Vectors are normalized on write. A cancelled context aborts the write.
	Upsert(ctx context.Context, chunks []*core.Chunk, vectors [][]float32) error

	// Search returns up to k chunks most similar to the query vector,
	// ordered by similarity score (highest first).
	Search(ctx context.Context, vector []float32, k int) ([]*core.ScoredChunk, error)

	// Count returns the number of chunks in the collection.
	Count(ctx context.Context) (int, error)

	// ForEach calls fn with batches of at most batchSize chunks until every chunk
	// has been visited or fn returns an error.
	ForEach(ctx context.Context, batchSize int, fn func(chunks []*core.Chunk) error) error

	// UpdateVectors replaces the stored vectors of existing chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateVectors(ctx context.Context, ids []core.ID, vectors [][]float32) error

	// ReplaceSources removes every chunk loaded from the given source paths
	// and stores chunks in one write, as Upsert does. The removal is not
	// visible unless the new chunks are stored too.
	ReplaceSources(ctx context.Context, sources []string, chunks []*core.Chunk, vectors [][]float32) error

	// DeleteBySource removes every chunk loaded from the given source path
	// and returns how many were removed.
	DeleteBySource(ctx context.Context, sourcePath string) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// SessionRepository persists conversation histories keyed by session id.
type SessionRepository interface {
	// SaveSession replaces the stored turns of a session.
	SaveSession(ctx context.Context, sessionID string, turns []core.Turn) error

	// LoadSessions returns every stored session.
	LoadSessions(ctx context.Context) (map[string][]core.Turn, error)

	// DeleteSession removes a stored session. Missing sessions are not an error.
	DeleteSession(ctx context.Context, sessionID string) error
}
