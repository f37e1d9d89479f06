package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/metrics"
	"github.com/gogpu/fractal/internal/overlay"
	"github.com/gogpu/fractal/internal/webui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

func exploreCommand() *cli.Command {
	return &cli.Command{
		Name:  "explore",
		Usage: "serve an interactive explorer to the browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "localhost:8000", Usage: "listen address"},
			&cli.BoolFlag{Name: "no-hud", Usage: "hide the status overlay"},
			&cli.BoolFlag{Name: "stale-tiles", Usage: "draw tiles of superseded generations"},
		},
		Action: runExplore,
	}
}

func runExplore(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	log := fractal.Logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exp, err := metrics.NewExporter("fractal", reg, metrics.Options{})
	if err != nil {
		return err
	}

	ui, err := webui.New(s.params.Size.Width, s.params.Size.Height,
		webui.WithLogger(log),
		webui.WithGatherer(reg),
	)
	if err != nil {
		return err
	}

	opts := []fractal.ControllerOption{
		fractal.WithSplit(s.cfg.Split()),
		fractal.WithPalette(s.palette),
		fractal.WithControllerMetrics(exp),
		fractal.WithControllerLogger(log),
		fractal.WithStaleTiles(c.Bool("stale-tiles")),
	}
	if s.cfg.ShrinkRate > 0 {
		opts = append(opts, fractal.WithShrinkRate(s.cfg.ShrinkRate))
	}
	if s.cfg.TickMS > 0 {
		opts = append(opts, fractal.WithTickInterval(time.Duration(s.cfg.TickMS)*time.Millisecond))
	}
	if !c.Bool("no-hud") {
		hud, err := overlay.New()
		if err != nil {
			return err
		}
		defer func() { _ = hud.Close() }()
		opts = append(opts, fractal.WithOverlay(hud))
	}

	pool := fractal.NewPool(s.cfg.Threads,
		fractal.WithPoolMetrics(exp),
		fractal.WithPoolLogger(log),
	)
	ctl, err := fractal.NewController(pool, s.params, s.vp, ui, ui, opts...)
	if err != nil {
		pool.Shutdown()
		return cli.Exit(err, 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		err := ui.ListenAndServe(ctx, c.String("addr"))
		stop()
		serveErr <- err
	}()
	fmt.Fprintf(c.App.Writer, "Explorer running at http://%s/ (metrics at /metrics)\n", c.String("addr"))

	runErr := ctl.Run(ctx)
	stop()
	return errors.Join(runErr, <-serveErr)
}
