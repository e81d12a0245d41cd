package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage"
)

const (
	// DefaultPoolSize is the default number of documents processed in parallel.
	DefaultPoolSize = 16

	// DefaultEmbedBatchSize is the default number of chunk texts per embedding request.
	DefaultEmbedBatchSize = 64
)

// Pipeline loads, splits and indexes documents.
type Pipeline struct {
	repository     storage.ChunkRepository
	loader         DocumentLoader
	pool           *ants.Pool
	poolSize       int
	embedBatchSize int
	proc           processor
	index          *indexer
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets how many documents are processed in parallel.
// Default is DefaultPoolSize, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		p.poolSize = size
		return nil
	}
}

// WithEmbedBatchSize sets how many chunk texts go into one embedding request.
// Default is DefaultEmbedBatchSize, with a minimum of 1.
func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) error {
		p.embedBatchSize = max(size, 1)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.ChunkRepository,
	provider ai.AIProvider,
	loader DocumentLoader,
	splitter Splitter,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:     repository,
		loader:         loader,
		pool:           pool,
		poolSize:       DefaultPoolSize,
		embedBatchSize: DefaultEmbedBatchSize,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Processors are built after options so they get the final config
	p.logger = p.logger.With("component", "ingestion")
	p.proc = newDocumentProcessor(loader, splitter, p.logger)
	p.index = newIndexer(repository, provider.Embedder(), p.embedBatchSize, p.logger)

	return p, nil
}

// Failure records why one document could not be ingested.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Outcome reports the result of an ingest call.
type Outcome struct {
	// Indexed lists the documents whose chunks were written, in input order.
	Indexed []string
	// Failed lists the documents that could not be loaded or split.
	Failed []Failure
	// Chunks is the number of chunks written.
	Chunks int
}

// Summary renders the outcome for display, one failure per line.
func (o *Outcome) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "indexed %d, failed %d", len(o.Indexed), len(o.Failed))
	if o.Chunks > 0 {
		fmt.Fprintf(&b, " (%d chunks)", o.Chunks)
	}
	for _, f := range o.Failed {
		fmt.Fprintf(&b, "\n  %s", f.Error())
	}
	return b.String()
}

// Err joins the per-document failures, or returns nil if there were none.
func (o *Outcome) Err() error {
	errs := make([]error, len(o.Failed))
	for i, f := range o.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// result is one worker's output for one path.
type result struct {
	chunks []*core.Chunk
	err    error
}

// Ingest loads and splits every path on the worker pool, then embeds and
// writes all chunks in one bulk write.
//
// A document that fails is reported in Outcome.Failed and does not stop the
// others. If no document succeeds the write is skipped and the error wraps
// core.ErrNoDocumentsIngested. If the bulk write fails the error wraps
// core.ErrIndexWriteFailed and nothing is reported as indexed.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) (*Outcome, error) {
	results, err := p.processAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{}
	var chunks []*core.Chunk
	for i, r := range results {
		if r.err != nil {
			p.logger.Warn("document failed", "path", paths[i], "err", r.err)
			outcome.Failed = append(outcome.Failed, Failure{Path: paths[i], Err: r.err})
			continue
		}
		outcome.Indexed = append(outcome.Indexed, paths[i])
		chunks = append(chunks, r.chunks...)
	}

	if len(outcome.Indexed) == 0 {
		if len(outcome.Failed) == 0 {
			return outcome, core.ErrNoDocumentsIngested
		}
		return outcome, fmt.Errorf("%w: %w", core.ErrNoDocumentsIngested, outcome.Err())
	}

	if err := p.index.write(ctx, outcome.Indexed, chunks); err != nil {
		p.logger.Error("bulk write failed", "chunks", len(chunks), "err", err)
		outcome.Indexed = nil
		return outcome, fmt.Errorf("%w: %w", core.ErrIndexWriteFailed, err)
	}
	outcome.Chunks = len(chunks)

	p.logger.Info("ingest complete",
		"indexed", len(outcome.Indexed),
		"failed", len(outcome.Failed),
		"chunks", outcome.Chunks)
	return outcome, nil
}

// processOne processes a single path. A panic in the loader or splitter fails
// only that path.
func (p *Pipeline) processOne(ctx context.Context, path string) (chunks []*core.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = fmt.Errorf("%w: %s: %v", ErrDocumentPanicked, path, r)
		}
	}()
	return p.proc.process(ctx, path)
}

// processAll runs the processor over paths. Workers pull the next index from
// a shared counter and each writes only its own slot of the result slice.
func (p *Pipeline) processAll(ctx context.Context, paths []string) ([]result, error) {
	results := make([]result, len(paths))
	var (
		next atomic.Int64
		wg   sync.WaitGroup
	)

	worker := func() {
		defer wg.Done()
		for {
			i := int(next.Add(1) - 1)
			if i >= len(paths) {
				return
			}
			if err := ctx.Err(); err != nil {
				results[i].err = err
				continue
			}
			results[i].chunks, results[i].err = p.processOne(ctx, paths[i])
		}
	}

	workers := min(p.poolSize, len(paths))
	var submitErr error
	for range workers {
		wg.Add(1)
		if err := p.pool.Submit(worker); err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()

	if submitErr != nil && next.Load() < int64(len(paths)) {
		return nil, fmt.Errorf("submitting ingest worker: %w", submitErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// IngestDir ingests every supported file below dir.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*Outcome, error) {
	paths, err := CollectPaths(dir, p.loader.Supports)
	if err != nil {
		return nil, err
	}
	return p.Ingest(ctx, paths)
}

// CollectPaths walks dir and returns the files accepted by supported,
// in lexical order. Hidden files and directories are skipped.
func CollectPaths(dir string, supported func(path string) bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Remove deletes the chunks of every path from the store and returns how
// many chunks were removed.
func (p *Pipeline) Remove(ctx context.Context, paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		n, err := p.repository.DeleteBySource(ctx, path)
		if err != nil {
			return total, err
		}
		total += n
	}
	p.logger.Info("removed documents", "documents", len(paths), "chunks", total)
	return total, nil
}
