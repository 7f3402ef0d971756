package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/openkraft/archverify/internal/adapters/inbound/watch"
)

// startWatcher runs a watcher until the test ends.
func startWatcher(t *testing.T, paths ...string) *atomic.Int32 {
	t.Helper()
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	w := watch.New(paths, watch.WithDebounce(50*time.Millisecond), watch.WithLogger(zaptest.NewLogger(t)))
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// Give the watcher time to register before producing events.
	time.Sleep(100 * time.Millisecond)
	return &runs
}

func TestWatcher_ClassChangeTriggersRun(t *testing.T) {
	dir := t.TempDir()
	runs := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.class"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.class"), []byte("b"), 0o644))

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	runs := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	assert.Never(t, func() bool { return runs.Load() > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	runs := startWatcher(t, dir)

	sub := filepath.Join(dir, "com", "acme")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "C.class"), []byte("c"), 0o644))

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_DesignFileChange(t *testing.T) {
	dir := t.TempDir()
	designFile := filepath.Join(dir, "design.yaml")
	require.NoError(t, os.WriteFile(designFile, []byte("packages: []\n"), 0o644))
	runs := startWatcher(t, designFile)

	require.NoError(t, os.WriteFile(designFile, []byte("packages: []\n# edited\n"), 0o644))

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_MissingPath(t *testing.T) {
	w := watch.New([]string{filepath.Join(t.TempDir(), "missing")})
	err := w.Run(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}
