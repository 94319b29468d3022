package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/sitepack/internal/site"
	"github.com/wolfeidau/sitepack/internal/watcher"
)

// WatchCmd builds the site and rebuilds it whenever sources change.
type WatchCmd struct {
	BuildFlags `embed:""`

	Delay time.Duration `help:"debounce delay before rebuilding" default:"200ms" env:"SITEPACK_WATCH_DELAY"`
}

func (c *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	builder, log, err := newBuilder(globals, c.BuildFlags)
	if err != nil {
		return err
	}

	w, err := startWatching(ctx, builder, c.Delay, log)
	if err != nil {
		return err
	}

	log.Info().Str("root", builder.Root()).Msg("Watching for changes")
	return w.Run(ctx)
}

// startWatching runs the initial build and prepares a watcher over the
// project. A failing initial build is logged so that fixing the source
// triggers the next attempt.
func startWatching(ctx context.Context, builder *site.Builder, delay time.Duration, log zerolog.Logger) (*watcher.Watcher, error) {
	if _, err := builder.Build(ctx); err != nil {
		log.Error().Err(err).Msg("Initial build failed")
	}

	return watcher.New(builder.Root(), []string{builder.OutputDir()}, delay,
		func(ctx context.Context, changed []string) error {
			_, err := builder.Build(ctx)
			return err
		})
}
