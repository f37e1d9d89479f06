// Command fractal renders and explores escape-time fractals.
//
// Usage:
//
//	fractal [global options] render [--output FILE]
//	fractal [global options] explore [--addr HOST:PORT]
//
// Settings are read from config.json, which is created with defaults on
// first use; flags override the file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/metrics"
	"github.com/gogpu/fractal/internal/overlay"
	"github.com/urfave/cli/v2"
)

var (
	_ fractal.PoolMetrics       = (*metrics.Exporter)(nil)
	_ fractal.ControllerMetrics = (*metrics.Exporter)(nil)
	_ fractal.Overlay           = (*overlay.HUD)(nil)
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fractal:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "fractal",
		Usage:          "render and explore Mandelbrot and Julia sets",
		Flags:          globalFlags(),
		Before:         setupLogging,
		DefaultCommand: "explore",
		Commands: []*cli.Command{
			renderCommand(),
			exploreCommand(),
		},
	}
}

// setupLogging installs the process logger. Library packages stay silent
// unless --verbose is given.
func setupLogging(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	if c.Bool("verbose") {
		fractal.SetLogger(l)
	}
	return nil
}
