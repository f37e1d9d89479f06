package main

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/config"
	"github.com/urfave/cli/v2"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"f"},
			Value:   config.DefaultPath,
			Usage:   "configuration file, created with defaults when missing",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "log pool and controller activity",
		},
		&cli.IntFlag{Name: "threads", Usage: "number of workers"},
		&cli.IntFlag{Name: "thread-split", Usage: "tiles per worker in each generation"},
		&cli.UintFlag{Name: "max-iterations", Aliases: []string{"n"}, Usage: "iteration cap (at most 65535)"},
		&cli.IntFlag{Name: "width", Usage: "frame width in pixels"},
		&cli.IntFlag{Name: "height", Usage: "frame height in pixels"},
		&cli.StringFlag{
			Name:    "landmark",
			Aliases: []string{"l"},
			Usage:   "start at a named region: " + strings.Join(landmarkNames(), ", "),
		},
		&cli.Float64Flag{Name: "real", Aliases: []string{"r"}, Usage: "real part of the Julia constant; selects the Julia set"},
		&cli.Float64Flag{Name: "imag", Aliases: []string{"i"}, Usage: "imaginary part of the Julia constant; selects the Julia set"},
		&cli.StringFlag{Name: "palette", Value: "hsv", Usage: "colour ramp: hsv or gray"},
	}
}

func landmarkNames() []string {
	names := make([]string, 0, len(fractal.Landmarks))
	for name := range fractal.Landmarks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// settings is the resolved configuration of one run.
type settings struct {
	cfg     config.Config
	params  fractal.Params
	vp      fractal.Viewport
	palette fractal.Palette
}

// loadSettings reads the configuration file and applies flag overrides.
func loadSettings(c *cli.Context) (settings, error) {
	path := c.String("config")
	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		return settings{}, err
	}
	if created {
		slog.Info("wrote default configuration", "path", path)
	}
	if err := applyFlags(c, &cfg); err != nil {
		return settings{}, err
	}
	if err := cfg.Validate(); err != nil {
		return settings{}, err
	}

	vp, err := fractal.NewViewport(cfg.ReRange[0], cfg.ReRange[1], cfg.ImRange[0], cfg.ImRange[1])
	if err != nil {
		return settings{}, err
	}
	params := fractal.Params{
		Kind:          fractal.KindMandelbrot,
		Size:          fractal.Size{Width: cfg.Width(), Height: cfg.Height()},
		MaxIterations: cfg.MaxIterations,
	}
	if cfg.Julia != nil {
		params.Kind = fractal.KindJulia
		params.C = complex(cfg.Julia[0], cfg.Julia[1])
	}

	p, err := paletteByName(c.String("palette"))
	if err != nil {
		return settings{}, err
	}
	return settings{cfg: cfg, params: params, vp: vp, palette: p}, nil
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}
	if c.IsSet("thread-split") {
		cfg.ThreadSplit = c.Int("thread-split")
	}
	if c.IsSet("max-iterations") {
		n := c.Uint("max-iterations")
		if n > math.MaxUint16 {
			return fmt.Errorf("max-iterations %d exceeds %d", n, math.MaxUint16)
		}
		cfg.MaxIterations = uint16(n)
	}
	if c.IsSet("width") {
		cfg.PixelRange[0] = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.PixelRange[1] = c.Int("height")
	}
	if c.IsSet("landmark") {
		name := c.String("landmark")
		vp, ok := fractal.Landmarks[name]
		if !ok {
			return fmt.Errorf("unknown landmark %q (known: %s)", name, strings.Join(landmarkNames(), ", "))
		}
		cfg.ReRange = [2]float64{vp.Re.Start, vp.Re.End}
		cfg.ImRange = [2]float64{vp.Im.Start, vp.Im.End}
	}
	// Either part selects the Julia set; the missing part is zero.
	if c.IsSet("real") || c.IsSet("imag") {
		cfg.Julia = &[2]float64{c.Float64("real"), c.Float64("imag")}
	}
	return nil
}

func paletteByName(name string) (fractal.Palette, error) {
	switch name {
	case "hsv", "":
		return fractal.HSVPalette{}, nil
	case "gray", "grey":
		return fractal.GrayPalette{}, nil
	default:
		return nil, fmt.Errorf("unknown palette %q", name)
	}
}
