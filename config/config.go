// Package config holds the settings of the command line tool. Values come
// from, in increasing order of precedence: the defaults, a TOML file,
// ICONKIT_ prefixed environment variables and explicitly set flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/esimov/iconkit/gradient"
	"github.com/esimov/iconkit/svgmark"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ICONKIT_"

// Config holds the export settings.
type Config struct {
	Preset string `toml:"preset" env:"PRESET"`
	// PresetFiles are YAML files with extra or overriding presets.
	PresetFiles []string `toml:"preset_files" env:"PRESET_FILES" envSeparator:","`
	// Background is a color or a CSS gradient.
	Background string  `toml:"background" env:"BACKGROUND"`
	Color      string  `toml:"color" env:"COLOR"`
	Size       float64 `toml:"size" env:"SIZE"`
	Padding    float64 `toml:"padding" env:"PADDING"`
	Workers    int     `toml:"workers" env:"WORKERS"`
	// IconsDir is the root of the icon packs used by canvas scenes.
	IconsDir string `toml:"icons_dir" env:"ICONS_DIR"`
	Metadata bool   `toml:"metadata" env:"METADATA"`
	// Measurer selects the visual bounds measurer: geometry or surface.
	Measurer string `toml:"measurer" env:"MEASURER"`
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Preset:     "favicon",
		Background: string(gradient.Transparent),
		Color:      "#000000",
		Size:       100,
		Metadata:   true,
		Measurer:   "geometry",
		LogLevel:   "warn",
	}
}

// Load returns the defaults overlaid with the TOML file at path, when path is
// not empty, and then with the environment. A nil environ reads the process
// environment.
func Load(path string, environ map[string]string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if err := decodeFile(f, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func decodeFile(r io.Reader, cfg *Config) error {
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(cfg)
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) {
		return errors.New(strict.String())
	}
	return err
}

// Validate checks the values that are not free form.
func (c Config) Validate() error {
	if _, err := c.BackgroundValue(); err != nil {
		return fmt.Errorf("config: background: %w", err)
	}
	if _, err := c.MeasurerValue(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Size <= 0 {
		return fmt.Errorf("config: size must be positive, got %v", c.Size)
	}
	return nil
}

// BackgroundValue parses Background.
func (c Config) BackgroundValue() (gradient.Background, error) {
	if strings.TrimSpace(c.Background) == "" {
		return gradient.Transparent, nil
	}
	return gradient.ParseStyle(c.Background)
}

// MeasurerValue returns the configured visual measurer.
func (c Config) MeasurerValue() (svgmark.VisualMeasurer, error) {
	switch strings.ToLower(c.Measurer) {
	case "", "geometry":
		return svgmark.GeometryMeasurer{}, nil
	case "surface":
		return svgmark.SurfaceMeasurer{}, nil
	}
	return nil, fmt.Errorf("config: unknown measurer %q", c.Measurer)
}

// Level returns the configured log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("config: %w", err)
	}
	return l, nil
}

// Flags binds the configurable settings to command line flags.
type Flags struct {
	fs         *flag.FlagSet
	preset     *string
	background *string
	color      *string
	size       *float64
	padding    *float64
	workers    *int
	iconsDir   *string
	metadata   *bool
	measurer   *string
	logLevel   *string
}

// RegisterFlags defines the settings flags on fs. The defaults shown in the
// usage text are those of Default.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	d := Default()
	return &Flags{
		fs:         fs,
		preset:     fs.String("preset", d.Preset, "Export preset name"),
		background: fs.String("bg", d.Background, "Background color or CSS gradient"),
		color:      fs.String("color", d.Color, "Icon color"),
		size:       fs.Float64("size", d.Size, "Artboard size of svg outputs"),
		padding:    fs.Float64("padding", d.Padding, "Padding around the icon, in artboard units"),
		workers:    fs.Int("conc", d.Workers, "Number of icons to export concurrently"),
		iconsDir:   fs.String("icons", d.IconsDir, "Icon packs directory used by canvas scenes"),
		metadata:   fs.Bool("metadata", d.Metadata, "Add the metadata sidecar to archives"),
		measurer:   fs.String("measurer", d.Measurer, "Visual bounds measurer (geometry or surface)"),
		logLevel:   fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)"),
	}
}

// Apply overlays the flags set on the command line onto c.
func (f *Flags) Apply(c *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "preset":
			c.Preset = *f.preset
		case "bg":
			c.Background = *f.background
		case "color":
			c.Color = *f.color
		case "size":
			c.Size = *f.size
		case "padding":
			c.Padding = *f.padding
		case "conc":
			c.Workers = *f.workers
		case "icons":
			c.IconsDir = *f.iconsDir
		case "metadata":
			c.Metadata = *f.metadata
		case "measurer":
			c.Measurer = *f.measurer
		case "log-level":
			c.LogLevel = *f.logLevel
		}
	})
}
