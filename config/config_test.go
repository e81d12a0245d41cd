package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/ragbase/chunker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	cfg := Default()
	_ = cfg.applyEnv(func(key string) (string, bool) {
		t.Setenv(key, "")
		return "", false
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "documents", cfg.Collection)
	assert.Equal(t, 100, cfg.ConversationMessagesLimit)
	assert.True(t, cfg.Model.UseLocal)
	assert.True(t, cfg.Retriever.UseReranker)
	assert.False(t, cfg.Retriever.UseFilter)
	assert.Equal(t, "character", cfg.Chunker.Strategy)
	assert.Equal(t, 500*time.Millisecond, cfg.Ingestion.WatchDebounce)
	assert.Empty(t, cfg.DatabaseDir, "derived paths are resolved by Load")
	assert.Error(t, cfg.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Home)
	assert.Equal(t, filepath.Join(".", "docs-db"), cfg.DatabaseDir)
	assert.Equal(t, filepath.Join(".", "tmp"), cfg.DocumentsDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "ragbase.yaml", `
home: /srv/rag
collection: manuals
conversation_messages_limit: 10
model:
  use_local: false
  remote_model: gpt-4o-mini
chunker:
  strategy: recursive
  max_size: 800
  overlap: 40
retriever:
  use_reranker: false
  top_k: 8
ingestion:
  workers: 4
  watch_debounce: 2s
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "/srv/rag", cfg.Home)
	assert.Equal(t, filepath.Join("/srv/rag", "docs-db"), cfg.DatabaseDir)
	assert.Equal(t, "manuals", cfg.Collection)
	assert.Equal(t, 10, cfg.ConversationMessagesLimit)
	assert.False(t, cfg.Model.UseLocal)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.RemoteModel)
	assert.Equal(t, "embeddinggemma", cfg.Model.EmbeddingModel, "unset keys keep their defaults")
	assert.Equal(t, "recursive", cfg.Chunker.Strategy)
	assert.Equal(t, 800, cfg.Chunker.MaxSize)
	assert.False(t, cfg.Retriever.UseReranker)
	assert.Equal(t, 8, cfg.Retriever.TopK)
	assert.Equal(t, 4, cfg.Ingestion.Workers)
	assert.Equal(t, 2*time.Second, cfg.Ingestion.WatchDebounce)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "bad.yaml", "collection: [unterminated\n")

	_, err := Load(path, "")
	assert.Error(t, err)
}

func TestLoad_MissingDotenvIgnored(t *testing.T) {
	clearEnv(t)

	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoad_EnvironmentPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "ragbase.yaml", "collection: from-yaml\ndebug: false\n")
	envFile := writeFile(t, dir, ".env", `
RAGBASE_COLLECTION=from-dotenv
RAGBASE_DEBUG=true
RAGBASE_TOP_K=9
GROQ_API_KEY=dotenv-key
`)
	t.Setenv("RAGBASE_TOP_K", "12")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Collection, "dotenv overrides YAML")
	assert.True(t, cfg.Debug)
	assert.Equal(t, 12, cfg.Retriever.TopK, "process environment overrides dotenv")
	assert.Equal(t, "dotenv-key", cfg.Model.RemoteAPIKey)

	assert.Empty(t, os.Getenv("GROQ_API_KEY"), "dotenv must not leak into the process environment")
}

func TestLoad_EmptyEnvironmentFallsBackToDotenv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, t.TempDir(), ".env", "RAGBASE_COLLECTION=from-dotenv\nRAGBASE_TOP_K=7\n")
	t.Setenv("RAGBASE_COLLECTION", "")
	t.Setenv("RAGBASE_TOP_K", "")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Collection)
	assert.Equal(t, 7, cfg.Retriever.TopK)
}

func TestLoad_APIKeyFallbacks(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"openai only", map[string]string{"OPENAI_API_KEY": "o"}, "o"},
		{"groq beats openai", map[string]string{"OPENAI_API_KEY": "o", "GROQ_API_KEY": "g"}, "g"},
		{"explicit beats both", map[string]string{"OPENAI_API_KEY": "o", "GROQ_API_KEY": "g", "RAGBASE_REMOTE_API_KEY": "r"}, "r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Model.RemoteAPIKey)
		})
	}
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAGBASE_WORKERS", "many")

	_, err := Load("", "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "RAGBASE_WORKERS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty collection", func(c *Config) { c.Collection = "" }},
		{"collection with separator", func(c *Config) { c.Collection = "a:b" }},
		{"zero history limit", func(c *Config) { c.ConversationMessagesLimit = 0 }},
		{"zero top k", func(c *Config) { c.Retriever.TopK = 0 }},
		{"reranker without host", func(c *Config) { c.Model.RerankerHost = "" }},
		{"zero workers", func(c *Config) { c.Ingestion.Workers = 0 }},
		{"unknown strategy", func(c *Config) { c.Chunker.Strategy = "sentencepiece" }},
		{"overlap too large", func(c *Config) { c.Chunker.Overlap = c.Chunker.MaxSize }},
		{"remote without model", func(c *Config) {
			c.Model.UseLocal = false
			c.Model.RemoteModel = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.resolvePaths()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidate_RerankerHostOptionalWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.resolvePaths()
	cfg.Retriever.UseReranker = false
	cfg.Model.RerankerHost = ""

	assert.NoError(t, cfg.Validate())
}

func TestAIConfig(t *testing.T) {
	cfg := Default()
	cfg.Model.UseLocal = false
	cfg.Model.RemoteHost = "https://api.example.com"
	cfg.Model.RemoteAPIKey = "secret"
	cfg.Model.Temperature = 0.7

	got := cfg.AIConfig()

	assert.False(t, got.UseLocal)
	assert.Equal(t, "https://api.example.com", got.RemoteHost)
	assert.Equal(t, "secret", got.RemoteAPIKey)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, cfg.Model.EmbeddingModel, got.EmbeddingModel)
}

func TestSplitterConfig(t *testing.T) {
	cfg := Default()
	cfg.Chunker.Strategy = "Recursive"
	cfg.Chunker.MaxSize = 300

	got, err := cfg.SplitterConfig()
	require.NoError(t, err)
	assert.Equal(t, chunker.StrategyRecursive, got.Strategy)
	assert.Equal(t, 300, got.MaxSize)

	cfg.Chunker.Strategy = "bogus"
	_, err = cfg.SplitterConfig()
	assert.ErrorIs(t, err, chunker.ErrUnknownStrategy)
}
