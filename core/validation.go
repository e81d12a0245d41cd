package core

import (
	"fmt"
	"strings"
)

func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Metadata.SourcePath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySource)
	}

	if chunk.Metadata.StartOffset < UnknownOffset {
		return fmt.Errorf("%w: negative start offset %d", ErrInvalidChunk, chunk.Metadata.StartOffset)
	}

	return nil
}

func ValidateTurn(turn Turn) error {
	if err := ValidateRole(turn.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}

	if turn.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyContent)
	}

	return nil
}

func ValidateRole(role Role) error {
	if role != RoleHuman && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}
