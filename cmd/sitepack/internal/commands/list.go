package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ListCmd prints the pages a build would emit without building anything.
type ListCmd struct {
	JSON bool `help:"print descriptors as JSON"`

	out io.Writer `kong:"-"`
}

func (c *ListCmd) Run(ctx context.Context, globals *Globals) error {
	builder, _, err := newBuilder(globals, BuildFlags{})
	if err != nil {
		return err
	}

	descriptors, err := builder.Discover()
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}

	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(descriptors)
	}

	for _, d := range descriptors {
		fmt.Fprintf(out, "%s <- %s [%s]\n", d.OutputPath, d.TemplatePath, strings.Join(d.Chunks, ", "))
	}
	return nil
}
