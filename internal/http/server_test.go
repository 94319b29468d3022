package http

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPreviewHandler(t *testing.T) {
	dir := t.TempDir()
	page := "<html><body>" + strings.Repeat("<p>compress me</p>", 200) + "</body></html>"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "about.html"), []byte(page), 0o600))

	handler := PreviewHandler(dir, zerolog.Nop())

	t.Run("gzip", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/pages/about.html", nil)
		r.Header.Set("Accept-Encoding", "gzip")
		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		require.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		require.Equal(t, page, string(body))
	})

	t.Run("identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pages/about.html", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Header().Get("Content-Encoding"))
		require.Equal(t, page, w.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/missing.html", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNewServer(t *testing.T) {
	srv := NewServer("127.0.0.1:8080", http.NotFoundHandler())
	require.Equal(t, "127.0.0.1:8080", srv.Addr)
	require.Equal(t, 8*1024, srv.MaxHeaderBytes)
}
