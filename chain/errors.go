package chain

import "errors"

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrHistoryRequired is returned when a history store is not provided.
	ErrHistoryRequired = errors.New("history store required")

	// ErrEmptyQuestion is returned when the question has no content.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)
