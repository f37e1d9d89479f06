package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/progress"
	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"
)

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "render one frame and save it as an image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output file; .png, .jpg, .bmp or .tiff (default <unix millis>.png)",
			},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "hide the progress bar"},
		},
		Action: runRender,
	}
}

func runRender(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	out := c.App.Writer
	tag := language.English
	size := s.params.Size

	fmt.Fprintf(out, "Minimum RAM usage for resolution %dx%d: %s\n",
		size.Width, size.Height, progress.FormatBytes(tag, progress.FrameBytes(size.Width, size.Height)))
	if s.params.Kind == fractal.KindJulia {
		fmt.Fprintf(out, "Picked julia c: %v\n", s.params.C)
	}

	pool := fractal.NewPool(s.cfg.Threads, fractal.WithPoolLogger(fractal.Logger()))
	defer pool.Discard()

	barOut := out
	if c.Bool("quiet") {
		barOut = io.Discard
	}
	bar := progress.NewBar(barOut, progress.DefaultCells, tag)

	start := time.Now()
	frame, err := fractal.Assemble(c.Context, pool, s.params, s.vp, s.cfg.Split(), bar)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if err := bar.Finish(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Elapsed time: %s\n", progress.FormatDuration(time.Since(start)))

	path := c.String("output")
	if path == "" {
		path = fmt.Sprintf("%d.png", time.Now().UnixMilli())
	}
	if err := fractal.SaveImage(path, frame.Image(s.palette)); err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}
