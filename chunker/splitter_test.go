package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragbase/ai/mock"
	"github.com/poiesic/ragbase/core"
)

// topicEmbedder maps sentences starting with "A" to one direction and
// everything else to an orthogonal one.
func topicEmbedder() *mock.MockEmbedder {
	return mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			if strings.HasPrefix(text, "A") {
				out[i] = []float32{1, 0}
			} else {
				out[i] = []float32{0, 1}
			}
		}
		return out, nil
	})
}

func newSplitter(t *testing.T, embedder *mock.MockEmbedder, cfg Config) *Splitter {
	t.Helper()
	s, err := New(embedder, cfg)
	require.NoError(t, err)
	return s
}

func TestSplit_ShortDocumentIsOneChunk(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	s := newSplitter(t, embedder, Config{Strategy: StrategyCharacter, MaxSize: 50, Overlap: 5, BreakpointAmount: 1.5, BufferSize: 1})

	for _, text := range []string{
		"One sentence.",
		"  Padded text. With two sentences.\n",
		strings.Repeat("x", 50),
	} {
		chunks, err := s.Split(context.Background(), "a.txt", text)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0].Text)
		assert.Equal(t, 0, chunks[0].Metadata.StartOffset)
		assert.Equal(t, "a.txt", chunks[0].Metadata.SourcePath)
	}
	assert.Zero(t, embedder.CallCount())
}

func TestSplit_WhitespaceOnly(t *testing.T) {
	s := newSplitter(t, mock.NewMockEmbedder(), DefaultConfig())

	chunks, err := s.Split(context.Background(), "a.txt", " \n\t ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_CharacterWindowsOverlap(t *testing.T) {
	// No sentence terminators, so the semantic stage yields one segment.
	text := strings.Repeat("abcdefghij", 9) + "ÄÖÜßéèàçñø"
	cfg := Config{Strategy: StrategyCharacter, MaxSize: 30, Overlap: 5, BreakpointAmount: 1.5, BufferSize: 1}
	embedder := mock.NewMockEmbedder()
	s := newSplitter(t, embedder, cfg)

	chunks, err := s.Split(context.Background(), "a.txt", text)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Zero(t, embedder.CallCount())

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), cfg.MaxSize)
		assert.Equal(t, i, c.Metadata.Index)
		assert.Equal(t, c.Text, text[c.Metadata.StartOffset:c.Metadata.StartOffset+len(c.Text)])
		if i == 0 {
			continue
		}
		prev := []rune(chunks[i-1].Text)
		cur := []rune(c.Text)
		assert.Equal(t, string(prev[len(prev)-cfg.Overlap:]), string(cur[:cfg.Overlap]), "chunk %d overlap", i)
	}
	assert.True(t, strings.HasSuffix(text, chunks[3].Text))
}

func TestSplit_SemanticBoundariesAndExactFit(t *testing.T) {
	segA := "Aaaa. Aaaa. Aaaa. Aaaa."                         // 23 runes
	segB := "Bbbbbbbbb. Bbbbbbbbb. Bbbbbbbbb. Bbbbbbbbb."     // 43 runes
	text := segA + " " + segB
	cfg := Config{Strategy: StrategyCharacter, MaxSize: 23, Overlap: 3, BreakpointAmount: 1.5, BufferSize: 0}
	embedder := topicEmbedder()
	s := newSplitter(t, embedder, cfg)

	chunks, err := s.Split(context.Background(), "doc.md", text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, embedder.CallCount())

	// A segment of exactly MaxSize is not split further.
	assert.Equal(t, segA, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Metadata.StartOffset)

	assert.Equal(t, segB[:23], chunks[1].Text)
	assert.Equal(t, 24, chunks[1].Metadata.StartOffset)
	assert.Equal(t, segB[20:], chunks[2].Text)
	assert.Equal(t, 44, chunks[2].Metadata.StartOffset)
	assert.Equal(t, chunks[1].Text[20:], chunks[2].Text[:3])

	ids := map[core.ID]bool{}
	for _, c := range chunks {
		ids[c.Id] = true
	}
	assert.Len(t, ids, 3)
}

func TestSplit_BufferedSentencesAreEmbeddedTogether(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	s := newSplitter(t, embedder, Config{Strategy: StrategyCharacter, MaxSize: 10, Overlap: 0, BreakpointAmount: 1.5, BufferSize: 1})

	_, err := s.Split(context.Background(), "a.txt", "One two. Three four. Five six.")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"One two. Three four.",
		"One two. Three four. Five six.",
		"Three four. Five six.",
	}, embedder.Embedded())
}

func TestSplit_EmbeddingUnavailable(t *testing.T) {
	offline := errors.New("connection refused")
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, offline
	})
	s := newSplitter(t, embedder, Config{Strategy: StrategyCharacter, MaxSize: 10, Overlap: 2, BreakpointAmount: 1.5, BufferSize: 1})

	chunks, err := s.Split(context.Background(), "a.txt", "First sentence here. Second sentence here.")
	assert.ErrorIs(t, err, core.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, offline)
	assert.Nil(t, chunks)
}

func TestSplit_RecursiveStrategy(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"
	cfg := Config{Strategy: StrategyRecursive, MaxSize: 20, Overlap: 0, BreakpointAmount: 1.5, BufferSize: 1}
	s := newSplitter(t, mock.NewMockEmbedder(), cfg)

	chunks, err := s.Split(context.Background(), "a.txt", text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var words []string
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), cfg.MaxSize)
		require.NotEqual(t, core.UnknownOffset, c.Metadata.StartOffset)
		assert.Equal(t, c.Text, text[c.Metadata.StartOffset:c.Metadata.StartOffset+len(c.Text)])
		words = append(words, strings.Fields(c.Text)...)
	}
	assert.Equal(t, strings.Fields(text), words)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = New(mock.NewMockEmbedder(), Config{Strategy: StrategyCharacter, MaxSize: 10, Overlap: 10})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
