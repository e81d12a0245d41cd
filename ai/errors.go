package ai

import "errors"

var (
	// ErrEmptyResponse indicates the model returned no embeddings or choices.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrDimensionMismatch indicates a batch embedding response whose size
	// doesn't match the number of input texts.
	ErrDimensionMismatch = errors.New("embedding count does not match input count")
)
