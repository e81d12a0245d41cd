package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batch struct {
	outcome *Outcome
	err     error
}

func startWatcher(t *testing.T, f *fixture) <-chan batch {
	t.Helper()
	batches := make(chan batch, 8)
	w, err := NewWatcher(f.pipeline, f.dir,
		WithDebounce(50*time.Millisecond),
		WithBatchHandler(func(o *Outcome, err error) { batches <- batch{o, err} }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}
	return batches
}

func waitBatch(t *testing.T, batches <-chan batch) batch {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(10 * time.Second):
		t.Fatal("no batch ingested")
		return batch{}
	}
}

func TestNewWatcher_RequiresPipeline(t *testing.T) {
	_, err := NewWatcher(nil, t.TempDir())
	assert.ErrorIs(t, err, ErrPipelineRequired)
}

func TestWatcher_IngestsNewFiles(t *testing.T) {
	f := setupPipeline(t)
	batches := startWatcher(t, f)

	path := f.write(t, "note.txt", "A freshly written note.")
	f.write(t, "ignored.bin", "binary")

	b := waitBatch(t, batches)
	require.NoError(t, b.err)
	assert.Contains(t, b.outcome.Indexed, path)
	assert.Empty(t, b.outcome.Failed)

	count, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWatcher_NewDirectoryAndRemoval(t *testing.T) {
	f := setupPipeline(t)
	batches := startWatcher(t, f)

	sub := filepath.Join(f.dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	path := f.write(t, "sub/page.md", "Nested page.")

	b := waitBatch(t, batches)
	require.NoError(t, b.err)
	assert.Contains(t, b.outcome.Indexed, path)

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		count, err := f.repo.Count(context.Background())
		return err == nil && count == 0
	}, 10*time.Second, 20*time.Millisecond)
}
