package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sitepack/cmd/sitepack/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool   `help:"Enable debug mode."`
		Root    string `help:"project root directory" default:"." env:"SITEPACK_ROOT" type:"existingdir"`
		Config  string `help:"config file, relative to the project root" default:"sitepack.yaml" env:"SITEPACK_CONFIG"`
		Version kong.VersionFlag

		Build commands.BuildCmd `cmd:"" help:"Build the site"`
		List  commands.ListCmd  `cmd:"" help:"List the pages discovered from templates"`
		Watch commands.WatchCmd `cmd:"" help:"Build the site and rebuild on change"`
		Serve commands.ServeCmd `cmd:"" help:"Build the site and serve the output directory"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("sitepack"),
		kong.Description("Bundle scripts, styles and page templates into a static site."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Version: version,
		Root:    cli.Root,
		Config:  cli.Config,
	})
	cmd.FatalIfErrorf(err)
}
