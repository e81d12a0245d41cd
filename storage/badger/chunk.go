package badger

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Every chunk lives under a collection prefix, so several collections can
// share one backend.
type ChunkRepository struct {
	backend    *Backend
	collection string
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a ChunkRepository bound to a collection.
func NewChunkRepository(backend *Backend, collection string) (*ChunkRepository, error) {
	if collection == "" || strings.ContainsAny(collection, ":\x00") {
		return nil, fmt.Errorf("%w: collection name %q", storage.ErrInvalidQuery, collection)
	}
	return &ChunkRepository{
		backend:    backend,
		collection: collection,
	}, nil
}

// Collection returns the collection name the repository is bound to.
func (r *ChunkRepository) Collection() string {
	return r.collection
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// Upsert stores chunks and their vectors. Vectors are normalized before they
// are written so that Search can rank by dot product.
func (r *ChunkRepository) Upsert(ctx context.Context, chunks []*core.Chunk, vectors [][]float32) error {
	return r.ReplaceSources(ctx, nil, chunks, vectors)
}

// ReplaceSources removes every chunk previously loaded from sources and stores
// chunks in the same transaction. Nothing is removed if validation fails or
// the context is cancelled before commit.
func (r *ChunkRepository) ReplaceSources(ctx context.Context, sources []string, chunks []*core.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", storage.ErrVectorMismatch, len(chunks), len(vectors))
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}

	w := r.backend.newTxnWriter()
	defer w.discard()

	var stale [][]byte
	for _, source := range sources {
		stale = append(stale, r.sourceKeys(w.tx, source)...)
	}
	for _, indexKey := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.delete(makeChunkKey(r.collection, idFromKey(indexKey))); err != nil {
			return err
		}
		if err := w.delete(indexKey); err != nil {
			return err
		}
	}

	// Each chunk produces a record and a source index entry.
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		value := storage.MarshalChunk(chunk, core.NormalizeVector(vectors[i]))
		if err := w.set(makeChunkKey(r.collection, chunk.Id), value); err != nil {
			return err
		}
		if err := w.set(makeSourceKey(r.collection, chunk.Metadata.SourcePath, chunk.Id), []byte{}); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.commit()
}

// Search scans the collection and returns the k chunks whose vectors have the
// highest cosine similarity to the query. Chunks whose vector dimension differs
// from the query are skipped.
func (r *ChunkRepository) Search(ctx context.Context, vector []float32, k int) ([]*core.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	query := core.NormalizeVector(vector)
	var results []*core.ScoredChunk

	err := r.scan(ctx, func(chunk *core.Chunk, stored []float32) error {
		if len(stored) != len(query) {
			return nil
		}
		results = append(results, &core.ScoredChunk{
			Chunk: chunk,
			Score: core.DotProduct(query, stored),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending; ties fall back to ID for stable output.
	slices.SortFunc(results, func(a, b *core.ScoredChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.Chunk.Id < b.Chunk.Id:
			return -1
		case a.Chunk.Id > b.Chunk.Id:
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of chunks in the collection.
func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkPrefix(r.collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

// ForEach visits every chunk of the collection in ID order, batchSize at a time.
func (r *ChunkRepository) ForEach(ctx context.Context, batchSize int, fn func(chunks []*core.Chunk) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", storage.ErrInvalidQuery, batchSize)
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	batch := make([]*core.Chunk, 0, batchSize)
	err := r.scan(ctx, func(chunk *core.Chunk, _ []float32) error {
		batch = append(batch, chunk)
		if len(batch) < batchSize {
			return nil
		}
		err := fn(batch)
		batch = make([]*core.Chunk, 0, batchSize)
		return err
	})
	if err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// UpdateVectors replaces the vectors of existing chunks in one transaction.
func (r *ChunkRepository) UpdateVectors(ctx context.Context, ids []core.ID, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("%w: %d ids, %d vectors", storage.ErrVectorMismatch, len(ids), len(vectors))
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for i, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := makeChunkKey(r.collection, id)
			chunk, _, err := r.readChunk(tx, key)
			if err != nil {
				return err
			}
			if chunk == nil {
				return fmt.Errorf("%w: chunk %d", storage.ErrNotFound, id)
			}
			if err := tx.Set(key, storage.MarshalChunk(chunk, core.NormalizeVector(vectors[i]))); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteBySource removes every chunk that was loaded from sourcePath.
func (r *ChunkRepository) DeleteBySource(ctx context.Context, sourcePath string) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, indexKey := range r.sourceKeys(tx, sourcePath) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkKey(r.collection, idFromKey(indexKey))); err != nil {
				return err
			}
			if err := tx.Delete(indexKey); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// sourceKeys returns the index keys of every chunk loaded from sourcePath.
func (r *ChunkRepository) sourceKeys(tx *badger.Txn, sourcePath string) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeSourcePrefix(r.collection, sourcePath)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys
}

// scan decodes every chunk of the collection in key order.
func (r *ChunkRepository) scan(ctx context.Context, fn func(chunk *core.Chunk, vector []float32) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkPrefix(r.collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var (
				chunk  *core.Chunk
				vector []float32
			)
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, vector, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(chunk, vector); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readChunk reads a chunk by key. Returns nil if the key doesn't exist.
func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.Chunk, []float32, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var (
		chunk  *core.Chunk
		vector []float32
	)
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, vector, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, vector, err
}
