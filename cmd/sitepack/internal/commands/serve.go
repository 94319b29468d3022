package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wolfeidau/sitepack/internal/config"
	httpserver "github.com/wolfeidau/sitepack/internal/http"
)

// ServeCmd builds the site and serves the output directory for previewing.
type ServeCmd struct {
	BuildFlags `embed:""`

	Listen string        `help:"HTTP server listen address" default:"127.0.0.1:8080" env:"SITEPACK_LISTEN"`
	Watch  bool          `help:"rebuild on change while serving" default:"false" env:"SITEPACK_WATCH"`
	Delay  time.Duration `help:"debounce delay before rebuilding" default:"200ms" env:"SITEPACK_WATCH_DELAY"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	builder, log, err := newBuilder(globals, c.BuildFlags, rootPublicPath)
	if err != nil {
		return err
	}

	if c.Watch {
		w, err := startWatching(ctx, builder, c.Delay, log)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Watcher stopped")
			}
		}()
	} else if _, err := builder.Build(ctx); err != nil {
		return err
	}

	srv := httpserver.NewServer(c.Listen, httpserver.PreviewHandler(builder.OutputDir(), log))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown server")
		}
	}()

	log.Info().Str("addr", c.Listen).Str("dir", builder.OutputDir()).Bool("watch", c.Watch).Msg("Starting preview server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// rootPublicPath points a relative public path at the server root, where the
// output directory is served. Pages in subfolders would otherwise resolve
// their assets against their own folder.
func rootPublicPath(cfg *config.Config) {
	p := cfg.Output.PublicPath
	if strings.HasPrefix(p, "/") || strings.Contains(p, "://") {
		return
	}
	cfg.Output.PublicPath = "/"
}
