package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/ragbase/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
)

func TestEmbedder(t *testing.T) {
	var seen []string
	client := embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		seen = append(seen, texts...)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{float32(len(text))}
		}
		return out, nil
	})

	e, err := NewEmbedder(client, nil)
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "four")
	require.NoError(t, err)
	assert.Equal(t, []float32{4}, vec)

	vecs, err := e.EmbedTexts(context.Background(), []string{"a", "line\nbreak"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {10}}, vecs)
	// Newlines are stripped before the client sees the text.
	assert.Equal(t, "line break", seen[2])

	empty, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEmbedder_Errors(t *testing.T) {
	boom := errors.New("connection refused")
	failing, err := NewEmbedder(embeddings.EmbedderClientFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, boom
	}), nil)
	require.NoError(t, err)

	_, err = failing.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	short, err := NewEmbedder(embeddings.EmbedderClientFunc(func(context.Context, []string) ([][]float32, error) {
		return [][]float32{}, nil
	}), nil)
	require.NoError(t, err)

	_, err = short.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ai.ErrDimensionMismatch)
}
