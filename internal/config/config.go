// Package config loads the player's YAML settings.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nie11kun/Love-Timeline/internal/render"
	"github.com/nie11kun/Love-Timeline/internal/spectrum"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Color is an RGBA color written as "#rrggbb" in YAML.
type Color struct {
	color.RGBA
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	col, err := colorful.Hex(value.Value)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", value.Value, err)
	}
	r, g, b := col.RGB255()
	c.RGBA = color.RGBA{R: r, G: g, B: b, A: 0xff}
	return nil
}

func (c Color) MarshalYAML() (any, error) {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex(), nil
}

type Theme struct {
	Top        Color   `yaml:"top"`
	Bottom     Color   `yaml:"bottom"`
	Saturation float64 `yaml:"saturation"`
	Lightness  float64 `yaml:"lightness"`
}

type Log struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Config holds every setting. Zero fields in a file keep their defaults.
type Config struct {
	FPS       int     `yaml:"fps"`
	FFTSize   int     `yaml:"fft_size"`
	Smoothing float64 `yaml:"smoothing"`
	Density   float64 `yaml:"density"`
	Theme     Theme   `yaml:"theme"`
	Playlist  string  `yaml:"playlist"`
	Photos    string  `yaml:"photos"`
	Log       Log     `yaml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	t := render.DefaultTheme
	return Config{
		FPS:       render.DefaultFPS,
		FFTSize:   spectrum.DefaultFFTSize,
		Smoothing: render.DefaultSmoothing,
		Density:   render.DefaultDensity,
		Theme: Theme{
			Top:        Color{t.Top},
			Bottom:     Color{t.Bottom},
			Saturation: t.Saturation,
			Lightness:  t.Lightness,
		},
		Photos: "images",
		Log:    Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.Playlist = resolve(dir, cfg.Playlist)
	cfg.Photos = resolve(dir, cfg.Photos)
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	if c.FPS <= 0 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps %d out of range (1-240)", c.FPS))
	}
	if c.FFTSize < 32 || c.FFTSize&(c.FFTSize-1) != 0 {
		errs = append(errs, fmt.Errorf("fft_size %d must be a power of two >= 32", c.FFTSize))
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		errs = append(errs, fmt.Errorf("smoothing %v must be in [0, 1)", c.Smoothing))
	}
	if c.Density <= 0 {
		errs = append(errs, fmt.Errorf("density %v must be positive", c.Density))
	}
	if c.Theme.Saturation < 0 || c.Theme.Saturation > 1 || c.Theme.Lightness < 0 || c.Theme.Lightness > 1 {
		errs = append(errs, errors.New("theme saturation and lightness must be in [0, 1]"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	return errors.Join(errs...)
}

// RenderOptions returns the visual settings for a render.Loop.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		Smoothing: c.Smoothing,
		Density:   c.Density,
		Theme: render.Theme{
			Top:        c.Theme.Top.RGBA,
			Bottom:     c.Theme.Bottom.RGBA,
			Saturation: c.Theme.Saturation,
			Lightness:  c.Theme.Lightness,
		},
	}
}
