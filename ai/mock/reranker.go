package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/ragbase/ai"
)

// MockReranker is a test double for ai.Reranker.
type MockReranker struct {
	// RerankFunc replaces the default behavior if set.
	RerankFunc func(ctx context.Context, query string, documents []string) ([]ai.RankedDocument, error)

	callCount atomic.Int64
}

var _ ai.Reranker = (*MockReranker)(nil)

// NewMockReranker creates a reranker whose default behavior reverses the input order.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Rerank returns the documents in reverse order with descending scores
// unless RerankFunc is set.
func (m *MockReranker) Rerank(ctx context.Context, query string, documents []string) ([]ai.RankedDocument, error) {
	m.callCount.Add(1)

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, documents)
	}

	ranked := make([]ai.RankedDocument, len(documents))
	for i := range documents {
		ranked[i] = ai.RankedDocument{
			Index: len(documents) - 1 - i,
			Score: float32(len(documents)-i) / float32(len(documents)),
		}
	}
	return ranked, nil
}

// CallCount returns the number of Rerank calls.
func (m *MockReranker) CallCount() int {
	return int(m.callCount.Load())
}
