package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/ragbase"
	"github.com/poiesic/ragbase/ai/mock"
	"github.com/poiesic/ragbase/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// useTestEngine makes every command open an in-memory engine backed by mock
// models, with documentsDir as the documents directory.
func useTestEngine(t *testing.T) (documentsDir string) {
	t.Helper()
	home := t.TempDir()
	cfg := config.Default()
	cfg.Home = home
	cfg.DatabaseDir = filepath.Join(home, "docs-db")
	cfg.DocumentsDir = filepath.Join(home, "tmp")
	cfg.Retriever.UseReranker = false
	require.NoError(t, os.MkdirAll(cfg.DocumentsDir, 0o755))

	original := openEngine
	openEngine = func(c *cli.Context) (*ragbase.Engine, error) {
		return ragbase.Open(c.Context, cfg, ragbase.WithInMemory(), ragbase.WithProvider(mock.NewMockProvider()))
	}
	t.Cleanup(func() { openEngine = original })
	return cfg.DocumentsDir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"ragbase"}, args...))
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	useTestEngine(t)

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"warn", false},
		{"error", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := run(t, "", "--log-level", tt.level, "ask", "hi")
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid log level")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAskCommand(t *testing.T) {
	dir := useTestEngine(t)
	path := filepath.Join(dir, "guide.txt")
	require.NoError(t, os.WriteFile(path, []byte("Ragbase answers questions."), 0o644))

	t.Run("streams the answer", func(t *testing.T) {
		out, err := run(t, "", "ask", "what", "is", "ragbase?")
		require.NoError(t, err)
		assert.Equal(t, "mock answer\n", out)
	})

	t.Run("collects the answer", func(t *testing.T) {
		out, err := run(t, "", "ask", "--no-stream", "what is ragbase?")
		require.NoError(t, err)
		assert.Equal(t, "mock answer\n", out)
	})

	t.Run("requires a question", func(t *testing.T) {
		_, err := run(t, "", "ask", "  ")
		assert.ErrorContains(t, err, "question is required")
	})
}

func TestIngestCommand(t *testing.T) {
	dir := useTestEngine(t)
	good := filepath.Join(dir, "guide.txt")
	require.NoError(t, os.WriteFile(good, []byte("Ragbase answers questions."), 0o644))

	out, err := run(t, "", "ingest", good, filepath.Join(dir, "image.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 1, failed 1")
	assert.Contains(t, out, "image.png")
}

func TestIngestCommand_DocumentsDirectory(t *testing.T) {
	dir := useTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A\nalpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta"), 0o644))

	out, err := run(t, "", "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 2, failed 0")
}

func TestChatCommand(t *testing.T) {
	useTestEngine(t)

	out, err := run(t, "first\n\nsecond\nexit\nnever asked\n", "chat", "--session", "s-1")
	require.NoError(t, err)

	assert.Contains(t, out, "Session s-1")
	assert.Equal(t, 2, strings.Count(out, "mock answer"))
}

func TestChatCommand_EndOfInput(t *testing.T) {
	useTestEngine(t)

	out, err := run(t, "only question\n", "chat")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "mock answer"))
}

func TestReindexCommand(t *testing.T) {
	useTestEngine(t)

	_, err := run(t, "", "reindex")
	assert.NoError(t, err)
}

func TestGlobalFlags(t *testing.T) {
	app := newApp()

	flags := map[string]cli.Flag{}
	for _, flag := range app.Flags {
		flags[flag.Names()[0]] = flag
	}

	require.Contains(t, flags, "config")
	assert.Equal(t, []string{"RAGBASE_CONFIG"}, flags["config"].(*cli.StringFlag).EnvVars)
	assert.Equal(t, ".env", flags["env-file"].(*cli.StringFlag).Value)
	assert.Equal(t, "info", flags["log-level"].(*cli.StringFlag).Value)
}
