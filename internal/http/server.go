package http

import (
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
)

// PreviewHandler serves the files under dir, gzip compressed when the client
// accepts it.
func PreviewHandler(dir string, logger zerolog.Logger) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return gzhttp.GzipHandler(RequestLogger(logger)(NoCache(files)))
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
