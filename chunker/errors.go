package chunker

import "errors"

var (
	// ErrEmbedderRequired indicates that no embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidConfig indicates an unusable chunker configuration.
	ErrInvalidConfig = errors.New("invalid chunker configuration")

	// ErrUnknownStrategy indicates a strategy name that doesn't match any Strategy.
	ErrUnknownStrategy = errors.New("unknown splitting strategy")
)
