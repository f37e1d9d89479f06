// Package config reads and writes the JSON run configuration.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "config.json"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the run configuration. Ranges are [start, end) pairs.
type Config struct {
	ReRange       [2]float64 `json:"re_range"`
	ImRange       [2]float64 `json:"im_range"`
	PixelRange    [2]int     `json:"pixel_range"`
	MaxIterations uint16     `json:"max_iterations"`
	Threads       int        `json:"threads"`
	ThreadSplit   int        `json:"thread_split"`

	// ShrinkRate is the zoom speed of the interactive mode. Zero selects
	// the library default.
	ShrinkRate float64 `json:"shrink_rate,omitempty"`

	// TickMS is the interactive frame period in milliseconds. Zero selects
	// the library default.
	TickMS int `json:"tick_ms,omitempty"`

	// Julia, when set, selects the Julia set for constant Julia[0] + Julia[1]i.
	Julia *[2]float64 `json:"julia,omitempty"`
}

// Default returns the configuration written when no file exists.
func Default() Config {
	return Config{
		ReRange:       [2]float64{-2.0, 0.5},
		ImRange:       [2]float64{-1.0, 1.0},
		PixelRange:    [2]int{1250, 1000},
		MaxIterations: 1000,
		Threads:       16,
		ThreadSplit:   1,
	}
}

// Split returns the number of tiles per generation, Threads * ThreadSplit.
func (c Config) Split() int {
	return c.Threads * c.ThreadSplit
}

// Width returns the pixel width.
func (c Config) Width() int {
	return c.PixelRange[0]
}

// Height returns the pixel height.
func (c Config) Height() int {
	return c.PixelRange[1]
}

// Validate reports every invalid field, joined into one error.
func (c Config) Validate() error {
	var errs []error
	if !ordered(c.ReRange) {
		errs = append(errs, fmt.Errorf("%w: re_range %v must satisfy start < end", ErrInvalid, c.ReRange))
	}
	if !ordered(c.ImRange) {
		errs = append(errs, fmt.Errorf("%w: im_range %v must satisfy start < end", ErrInvalid, c.ImRange))
	}
	if c.PixelRange[0] <= 0 || c.PixelRange[1] <= 0 {
		errs = append(errs, fmt.Errorf("%w: pixel_range %v must be positive", ErrInvalid, c.PixelRange))
	}
	if c.Threads <= 0 {
		errs = append(errs, fmt.Errorf("%w: threads %d must be positive", ErrInvalid, c.Threads))
	}
	if c.ThreadSplit <= 0 {
		errs = append(errs, fmt.Errorf("%w: thread_split %d must be positive", ErrInvalid, c.ThreadSplit))
	}
	if c.ShrinkRate < 0 || math.IsNaN(c.ShrinkRate) {
		errs = append(errs, fmt.Errorf("%w: shrink_rate %v must not be negative", ErrInvalid, c.ShrinkRate))
	}
	if c.TickMS < 0 {
		errs = append(errs, fmt.Errorf("%w: tick_ms %d must not be negative", ErrInvalid, c.TickMS))
	}
	return errors.Join(errs...)
}

func ordered(r [2]float64) bool {
	return r[0] < r[1]
}

// Decode reads a configuration from r. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	var c Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return c, nil
}

// Encode writes c as indented JSON.
func Encode(w io.Writer, c Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: read file: %w", err)
	}
	c, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadOrCreate loads path, first writing Default to it if the file does not
// exist. created reports whether the file was written.
func LoadOrCreate(path string) (c Config, created bool, err error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return Config{}, false, err
		}
		created = true
	}
	c, err = Load(path)
	return c, created, err
}

// Save writes c to path.
func Save(path string, c Config) error {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}
