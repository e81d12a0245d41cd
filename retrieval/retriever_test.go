package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/ai/mock"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage/badger"
)

var queryVector = []float32{1, 0, 0}

func setupRetriever(t *testing.T, populate bool, opts ...Option) (*Retriever, *badger.ChunkRepository, *mock.MockEmbedder) {
	t.Helper()

	repo, _, backend, err := badger.NewMemoryRepositories("documents")
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	if populate {
		texts := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
		vectors := [][]float32{
			{1, 0, 0},
			{0.9, 0.1, 0},
			{0.5, 0.5, 0},
			{0, 1, 0},
			{0, 0, 1},
			{0.1, 0, 0.9},
		}
		chunks := make([]*core.Chunk, len(texts))
		for i, text := range texts {
			chunks[i] = &core.Chunk{
				Id:       core.ChunkID("doc.txt", i, text),
				Text:     text,
				Metadata: core.ChunkMetadata{SourcePath: "doc.txt", Index: i},
			}
		}
		require.NoError(t, repo.Upsert(context.Background(), chunks, vectors))
	}

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return queryVector, nil
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockGenerator(""))

	r, err := NewRetriever(repo, provider, opts...)
	require.NoError(t, err)
	return r, repo, embedder
}

func texts(results []*core.ScoredChunk) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.Text
	}
	return out
}

func fixedRanking(ranking ...ai.RankedDocument) *mock.MockReranker {
	rr := mock.NewMockReranker()
	rr.RerankFunc = func(context.Context, string, []string) ([]ai.RankedDocument, error) {
		return ranking, nil
	}
	return rr
}

func TestNewRetriever(t *testing.T) {
	repo, _, backend, err := badger.NewMemoryRepositories("documents")
	require.NoError(t, err)
	defer backend.Close()
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		r, err := NewRetriever(repo, provider)
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewRetriever(nil, provider)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewRetriever(repo, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})

	t.Run("nil reranker", func(t *testing.T) {
		_, err := NewRetriever(repo, provider, WithReranker(nil, 3))
		assert.ErrorIs(t, err, ErrRerankerRequired)
	})

	t.Run("invalid top k", func(t *testing.T) {
		_, err := NewRetriever(repo, provider, WithTopK(0))
		assert.Error(t, err)
	})

	t.Run("nil monitor and logger fall back", func(t *testing.T) {
		r, err := NewRetriever(repo, provider, WithMonitor(nil), WithLogger(nil))
		require.NoError(t, err)
		_, err = r.Retrieve(context.Background(), "q")
		assert.NoError(t, err)
	})
}

func TestRetrieve_EmptyStore(t *testing.T) {
	rr := mock.NewMockReranker()
	r, _, _ := setupRetriever(t, false, WithReranker(rr, 3))

	results, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, rr.CallCount())
}

func TestRetrieve_WithoutRerankMatchesSearchOrder(t *testing.T) {
	r, repo, _ := setupRetriever(t, true)
	ctx := context.Background()

	results, err := r.Retrieve(ctx, "query")
	require.NoError(t, err)

	raw, err := repo.Search(ctx, queryVector, DefaultTopK)
	require.NoError(t, err)
	require.Len(t, results, DefaultTopK)
	assert.Equal(t, texts(raw), texts(results))
	assert.Equal(t, []string{"c1", "c2", "c3", "c6"}, texts(results)[:4])
}

func TestRetrieve_RerankOrderIsAuthoritative(t *testing.T) {
	rr := fixedRanking(
		ai.RankedDocument{Index: 2, Score: 0.9},
		ai.RankedDocument{Index: 0, Score: 0.8},
		ai.RankedDocument{Index: 3, Score: 0.1},
		ai.RankedDocument{Index: 1, Score: 0.05},
	)
	r, _, _ := setupRetriever(t, true, WithReranker(rr, 3))

	results, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []string{"c3", "c1", "c6"}, texts(results))
	assert.Equal(t, []float32{0.9, 0.8, 0.1}, []float32{results[0].Score, results[1].Score, results[2].Score})
	assert.Equal(t, 1, rr.CallCount())
}

func TestRetrieve_RerankerReceivesCandidates(t *testing.T) {
	var got []string
	rr := mock.NewMockReranker()
	rr.RerankFunc = func(_ context.Context, query string, documents []string) ([]ai.RankedDocument, error) {
		assert.Equal(t, "query", query)
		got = documents
		return []ai.RankedDocument{{Index: 0, Score: 1}}, nil
	}
	r, _, _ := setupRetriever(t, true, WithTopK(3), WithReranker(rr, 3))

	results, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, got)
	assert.Equal(t, []string{"c1"}, texts(results))
}

func TestRetrieve_RelevanceFilter(t *testing.T) {
	t.Run("similarity scores", func(t *testing.T) {
		r, _, _ := setupRetriever(t, true, WithRelevanceFilter(0.5))
		results, err := r.Retrieve(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "c2", "c3"}, texts(results))
	})

	t.Run("reranker scores", func(t *testing.T) {
		rr := fixedRanking(
			ai.RankedDocument{Index: 2, Score: 0.9},
			ai.RankedDocument{Index: 0, Score: 0.5},
			ai.RankedDocument{Index: 1, Score: 0.2},
		)
		r, _, _ := setupRetriever(t, true, WithReranker(rr, 3), WithRelevanceFilter(0.5))
		results, err := r.Retrieve(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, []string{"c3", "c1"}, texts(results))
	})
}

func TestRetrieve_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("embedding", func(t *testing.T) {
		r, _, embedder := setupRetriever(t, true)
		embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) { return nil, boom }
		_, err := r.Retrieve(context.Background(), "query")
		assert.ErrorIs(t, err, core.ErrRetrievalFailed)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("reranker", func(t *testing.T) {
		rr := mock.NewMockReranker()
		rr.RerankFunc = func(context.Context, string, []string) ([]ai.RankedDocument, error) { return nil, boom }
		r, _, _ := setupRetriever(t, true, WithReranker(rr, 3))
		_, err := r.Retrieve(context.Background(), "query")
		assert.ErrorIs(t, err, core.ErrRetrievalFailed)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("out of range ranking", func(t *testing.T) {
		r, _, _ := setupRetriever(t, true, WithReranker(fixedRanking(ai.RankedDocument{Index: 9}), 3))
		_, err := r.Retrieve(context.Background(), "query")
		assert.ErrorIs(t, err, core.ErrRetrievalFailed)
		assert.ErrorIs(t, err, ErrInvalidRanking)
	})

	t.Run("duplicate ranking", func(t *testing.T) {
		rr := fixedRanking(ai.RankedDocument{Index: 1}, ai.RankedDocument{Index: 1})
		r, _, _ := setupRetriever(t, true, WithReranker(rr, 3))
		_, err := r.Retrieve(context.Background(), "query")
		assert.ErrorIs(t, err, ErrInvalidRanking)
	})

	t.Run("cancelled context", func(t *testing.T) {
		r, _, _ := setupRetriever(t, true)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Retrieve(ctx, "query")
		assert.ErrorIs(t, err, core.ErrRetrievalFailed)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// recordingMonitor records the stages it observed.
type recordingMonitor struct {
	stages []string
}

func (m *recordingMonitor) Start(string)                         { m.stages = append(m.stages, "start") }
func (m *recordingMonitor) AfterSearch([]*core.ScoredChunk)      { m.stages = append(m.stages, "search") }
func (m *recordingMonitor) AfterRerank([]*core.ScoredChunk)      { m.stages = append(m.stages, "rerank") }
func (m *recordingMonitor) AfterFilter([]*core.ScoredChunk, int) { m.stages = append(m.stages, "filter") }
func (m *recordingMonitor) Finish([]*core.ScoredChunk)           { m.stages = append(m.stages, "finish") }

func TestRetrieveWithMonitor(t *testing.T) {
	r, _, _ := setupRetriever(t, true, WithReranker(mock.NewMockReranker(), 3), WithRelevanceFilter(0))

	m := &recordingMonitor{}
	_, err := r.RetrieveWithMonitor(context.Background(), "query", m)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "search", "rerank", "filter", "finish"}, m.stages)

	// The log monitor must tolerate every stage.
	_, err = r.RetrieveWithMonitor(context.Background(), "query", NewLogMonitor(nil))
	assert.NoError(t, err)
}
