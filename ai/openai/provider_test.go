package openai

import (
	"testing"

	"github.com/poiesic/ragbase/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	cfg := ai.NewConfig(
		ai.WithLocal(false),
		ai.WithRemote("http://localhost:9999", "", "test-model"),
	)

	provider, err := NewProvider(cfg)
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Embedder())
	assert.NotNil(t, provider.Generator())
	// Validate normalizes the remote host.
	assert.Equal(t, "http://localhost:9999/v1", cfg.RemoteHost)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithLocal(false), ai.WithRemote("http://localhost:9999", "", ""))

	_, err := NewProvider(cfg)
	assert.ErrorContains(t, err, "RemoteModel")
}

func TestNewEmbedder(t *testing.T) {
	embedder, err := NewEmbedder(ai.DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, embedder)
}
