package core

import "errors"

var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidTurn indicates a conversation Turn failed validation.
	ErrInvalidTurn = errors.New("invalid turn")

	// ErrEmptyContent indicates the text of a chunk or turn is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptySource indicates a chunk carries no source path.
	ErrEmptySource = errors.New("source path cannot be empty")

	// ErrInvalidRole indicates an invalid Role value.
	ErrInvalidRole = errors.New("invalid role")
)

// Pipeline error taxonomy. Callers match these with errors.Is.
var (
	// ErrUnsupportedFormat is returned when a document's extension has no parser.
	// Fatal for that document only.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument is returned when a document contains no extractable text.
	ErrEmptyDocument = errors.New("document contains no text")

	// ErrEmbeddingUnavailable is returned when the embedding service fails while chunking.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrNoDocumentsIngested is returned when every document of an ingest call failed.
	ErrNoDocumentsIngested = errors.New("no documents ingested")

	// ErrIndexWriteFailed is returned when the bulk embed+upsert of an ingest call fails.
	ErrIndexWriteFailed = errors.New("index write failed")

	// ErrRetrievalFailed is returned when retrieving context for a question fails.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed is returned when the language model fails while answering.
	ErrGenerationFailed = errors.New("generation failed")
)
