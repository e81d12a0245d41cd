package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage"
)

const (
	// DefaultTopK is the default number of candidates fetched by similarity search.
	DefaultTopK = 5

	// DefaultRerankTopN is the default number of chunks kept after reranking.
	DefaultRerankTopN = 3

	// DefaultMinRelevance is the default score threshold of the relevance filter.
	DefaultMinRelevance = 0.3
)

// Retriever finds the chunks most relevant to a query.
type Retriever struct {
	repository   storage.ChunkRepository
	embedder     ai.Embedder
	reranker     ai.Reranker
	topK         int
	rerankTopN   int
	useReranker  bool
	useFilter    bool
	minRelevance float32
	monitor      Monitor
	logger       *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTopK sets how many candidates the similarity search returns.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			return fmt.Errorf("top k must be positive, got %d", k)
		}
		r.topK = k
		return nil
	}
}

// WithReranker enables reranking. Only the best topN chunks of the
// reranker's order are kept.
func WithReranker(reranker ai.Reranker, topN int) Option {
	return func(r *Retriever) error {
		if reranker == nil {
			return ErrRerankerRequired
		}
		if topN < 1 {
			return fmt.Errorf("rerank top n must be positive, got %d", topN)
		}
		r.reranker = reranker
		r.rerankTopN = topN
		r.useReranker = true
		return nil
	}
}

// WithRelevanceFilter enables the filter stage, which drops chunks scoring
// below minScore. Scores are reranker scores when reranking is enabled and
// cosine similarities otherwise.
func WithRelevanceFilter(minScore float32) Option {
	return func(r *Retriever) error {
		r.useFilter = true
		r.minRelevance = minScore
		return nil
	}
}

// WithMonitor sets the monitor used by Retrieve.
func WithMonitor(monitor Monitor) Option {
	return func(r *Retriever) error {
		r.monitor = monitor
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(repository storage.ChunkRepository, provider ai.AIProvider, opts ...Option) (*Retriever, error) {
	if repository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	r := &Retriever{
		repository: repository,
		embedder:   provider.Embedder(),
		topK:       DefaultTopK,
		rerankTopN: DefaultRerankTopN,
		monitor:    &noopMonitor{},
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.monitor == nil {
		r.monitor = &noopMonitor{}
	}
	r.logger = r.logger.With("component", "retrieval")

	return r, nil
}

// Retrieve returns the chunks most relevant to query, most relevant first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*core.ScoredChunk, error) {
	return r.RetrieveWithMonitor(ctx, query, r.monitor)
}

// RetrieveWithMonitor is Retrieve with a per-call monitor.
// The monitor receives callbacks at each stage of the retrieval process.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, monitor Monitor) ([]*core.ScoredChunk, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Similarity search
	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: embedding query: %w", core.ErrRetrievalFailed, err)
	}

	results, err := r.repository.Search(ctx, embedding, r.topK)
	if err != nil {
		r.logger.Error("error querying for similar chunks", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrRetrievalFailed, err)
	}
	monitor.AfterSearch(results)

	// 2. Rerank
	if r.useReranker && len(results) > 0 {
		results, err = r.rerank(ctx, query, results)
		if err != nil {
			r.logger.Error("error reranking candidates", "err", err)
			return nil, fmt.Errorf("%w: %w", core.ErrRetrievalFailed, err)
		}
		monitor.AfterRerank(results)
	}

	// 3. Relevance filter
	if r.useFilter {
		kept := make([]*core.ScoredChunk, 0, len(results))
		for _, result := range results {
			if result.Score >= r.minRelevance {
				kept = append(kept, result)
			}
		}
		monitor.AfterFilter(kept, len(results)-len(kept))
		results = kept
	}

	monitor.Finish(results)
	return results, nil
}

// rerank reorders candidates into the reranker's order, keeping at most
// rerankTopN of them and replacing their scores with the reranker's.
func (r *Retriever) rerank(ctx context.Context, query string, candidates []*core.ScoredChunk) ([]*core.ScoredChunk, error) {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Chunk.Text
	}

	ranked, err := r.reranker.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	seen := make([]bool, len(candidates))
	results := make([]*core.ScoredChunk, 0, min(len(ranked), r.rerankTopN))
	for _, rd := range ranked {
		if rd.Index < 0 || rd.Index >= len(candidates) || seen[rd.Index] {
			return nil, fmt.Errorf("%w: index %d of %d candidates", ErrInvalidRanking, rd.Index, len(candidates))
		}
		seen[rd.Index] = true
		if len(results) < r.rerankTopN {
			results = append(results, &core.ScoredChunk{
				Chunk: candidates[rd.Index].Chunk,
				Score: rd.Score,
			})
		}
	}
	return results, nil
}
