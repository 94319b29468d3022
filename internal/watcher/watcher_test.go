package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string, ignore []string) <-chan []string {
	t.Helper()
	calls := make(chan []string, 10)
	w, err := New(root, ignore, 50*time.Millisecond, func(ctx context.Context, changed []string) error {
		calls <- changed
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return calls
}

func waitForCall(t *testing.T, calls <-chan []string) []string {
	t.Helper()
	select {
	case changed := <-calls:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild")
		return nil
	}
}

func requireNoCall(t *testing.T, calls <-chan []string) {
	t.Helper()
	select {
	case changed := <-calls:
		t.Fatalf("unexpected rebuild for %v", changed)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_rebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages"), 0o755))
	calls := startWatcher(t, root, nil)

	page := filepath.Join(root, "pages", "about.html")
	require.NoError(t, os.WriteFile(page, []byte("<p>about</p>"), 0o600))

	changed := waitForCall(t, calls)
	assert.Contains(t, changed, page)
}

func TestWatcher_skipsUnchangedContent(t *testing.T) {
	root := t.TempDir()
	page := filepath.Join(root, "index.html")
	require.NoError(t, os.WriteFile(page, []byte("<p>same</p>"), 0o600))
	calls := startWatcher(t, root, nil)

	require.NoError(t, os.WriteFile(page, []byte("<p>same</p>"), 0o600))
	requireNoCall(t, calls)

	require.NoError(t, os.WriteFile(page, []byte("<p>different</p>"), 0o600))
	changed := waitForCall(t, calls)
	assert.Equal(t, []string{page}, changed)
}

func TestWatcher_ignoresOutputAndVendorDirs(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "build")
	for _, dir := range []string{out, filepath.Join(root, "node_modules", "tiny"), filepath.Join(root, ".git")} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	calls := startWatcher(t, root, []string{out})

	require.NoError(t, os.WriteFile(filepath.Join(out, "bundle.js"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "tiny", "index.js"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("x"), 0o600))
	requireNoCall(t, calls)
}

func TestWatcher_watchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, root, nil)

	dir := filepath.Join(root, "posts")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	waitForCall(t, calls)

	post := filepath.Join(dir, "first.html")
	require.NoError(t, os.WriteFile(post, []byte("<p>first</p>"), 0o600))
	changed := waitForCall(t, calls)
	assert.Contains(t, changed, post)
}

func TestWatcher_ignored(t *testing.T) {
	w := &Watcher{root: "/site", ignore: []string{"/site/build"}}

	assert.True(t, w.ignored("/site/build"))
	assert.True(t, w.ignored("/site/build/bundle.js"))
	assert.True(t, w.ignored("/site/node_modules/x/index.js"))
	assert.True(t, w.ignored("/site/.git/HEAD"))
	assert.False(t, w.ignored("/site/builder/page.html"))
	assert.False(t, w.ignored("/site/pages/about.html"))
	assert.False(t, w.ignored("/site"))
}
