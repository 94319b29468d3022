package commands

import (
	"context"
	"fmt"
	"io"
	"os"
)

// BuildCmd runs a single build.
type BuildCmd struct {
	BuildFlags `embed:""`

	out io.Writer `kong:"-"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	builder, _, err := newBuilder(globals, c.BuildFlags)
	if err != nil {
		return err
	}

	manifest, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "Built %d page(s) into %s\n", len(manifest.Pages), builder.OutputDir())
	fmt.Fprintf(out, "Fingerprint: %s\n", manifest.Fingerprint)
	return nil
}
