package ingestion

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrLoaderRequired is returned when a document loader is not provided.
	ErrLoaderRequired = errors.New("document loader required")

	// ErrSplitterRequired is returned when a splitter is not provided.
	ErrSplitterRequired = errors.New("splitter required")

	// ErrDocumentPanicked is recorded for a document whose loader or splitter panicked.
	ErrDocumentPanicked = errors.New("document processing panicked")

	// ErrPipelineRequired is returned when a Watcher is created without a pipeline.
	ErrPipelineRequired = errors.New("pipeline required")
)
