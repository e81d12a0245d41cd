package ai

import (
	"context"
	"iter"

	"github.com/poiesic/ragbase/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Prompt is everything a Generator needs to produce one answer.
type Prompt struct {
	// System is the system instruction, including any retrieved context.
	System string

	// History holds earlier turns of the conversation, oldest first.
	History []core.Turn

	// Question is the new human message.
	Question string
}

// Generator produces answers from a language model.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// GenerateStream returns a lazy, single-pass sequence of answer fragments.
	// Nothing is sent to the model until the sequence is ranged over.
	// A non-nil error ends the sequence. Breaking out of the loop, or
	// cancelling ctx, stops generation and releases the underlying stream.
	GenerateStream(ctx context.Context, prompt Prompt) iter.Seq2[string, error]
}

// RankedDocument is one entry of a reranker response.
type RankedDocument struct {
	// Index is the position of the document in the slice passed to Rerank.
	Index int

	// Score is the relevance of the document to the query. Higher is better.
	Score float32
}

// Reranker scores (query, document) pairs with a cross-encoder.
// Implementations must be thread-safe for concurrent use.
type Reranker interface {
	// Rerank returns documents ordered by descending relevance to query.
	// The result may hold fewer entries than documents.
	Rerank(ctx context.Context, query string, documents []string) ([]RankedDocument, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the language model service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
