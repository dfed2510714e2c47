// Package config loads the layout tester's TOML configuration.
//
// A configuration file is optional. Every key has a built-in default, and a
// file only needs to name what it changes:
//
//	pipeline_dir = "../pump-planner/mod"
//	deadline = "30s"
//
//	[options]
//	plan_heat_pipes = false
//
//	[markers.underground_pipe]
//	marker = "u"
//	content = "pipe"
//
//	[palette]
//	pipe = "#ffaa00"
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/merge"
	"github.com/matzehuels/layouttester/pkg/pipeline"
	"github.com/matzehuels/layouttester/pkg/render"
)

const (
	// FileName is the configuration file looked up in the working directory.
	FileName = "layouttester.toml"

	// DefaultFixturesDir is the fixture directory below the repository root.
	DefaultFixturesDir = "TestInputs"

	appName = "layouttester"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// Toggles switches the optional planning stages.
type Toggles struct {
	PlanBeacons    bool `toml:"plan_beacons"`
	PlanHeatPipes  bool `toml:"plan_heat_pipes"`
	PlanPowerPoles bool `toml:"plan_power_poles"`
}

// Canvas is the drawing surface in pixels.
type Canvas struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Scale  float64 `toml:"scale"` // PNG scale factor
}

// Config is the effective configuration.
type Config struct {
	PipelineDir string   `toml:"pipeline_dir,omitempty"` // empty: <root>/mod
	DataDirs    []string `toml:"data_dirs,omitempty"`    // empty: built-in candidates
	FixturesDir string   `toml:"fixtures_dir,omitempty"` // empty: <root>/TestInputs
	Deadline    Duration `toml:"deadline"`
	Formats     []string `toml:"formats"`

	Options Toggles `toml:"options"`
	Canvas  Canvas  `toml:"canvas"`

	Modules []pipeline.Module `toml:"modules"`
	Stages  []pipeline.Stage  `toml:"stages"`
	Markers merge.MarkerTable `toml:"markers"`
	Palette map[string]string `toml:"palette,omitempty"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{
		Options: Toggles{PlanBeacons: true, PlanHeatPipes: true, PlanPowerPoles: true},
	}
	c.fill()
	return c
}

// fill sets every unset field to its default.
func (c *Config) fill() {
	if len(c.Formats) == 0 {
		c.Formats = []string{pipeline.FormatSVG}
	}
	if c.Canvas.Width == 0 {
		c.Canvas.Width = pipeline.DefaultWidth
	}
	if c.Canvas.Height == 0 {
		c.Canvas.Height = pipeline.DefaultHeight
	}
	if c.Canvas.Scale == 0 {
		c.Canvas.Scale = pipeline.DefaultScale
	}
	if c.Modules == nil {
		c.Modules = pipeline.DefaultModules()
	}
	if c.Stages == nil {
		c.Stages = pipeline.DefaultStages()
	}
	c.Markers = merge.DefaultMarkers().With(c.Markers)
}

// Find returns the configuration file to load: explicit when set, else
// ./layouttester.toml, else the user config dir. An empty path with a nil
// error means no file exists and the defaults apply.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", explicit)
		}
		return explicit, nil
	}
	for _, path := range searchPaths() {
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

func searchPaths() []string {
	paths := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName, "config.toml"))
	}
	return paths
}

// Load reads the configuration found by [Find].
func Load(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads one configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	c.Path = path
	return c, nil
}

// Parse decodes TOML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	// Lists and the marker table are decoded into empty values; merging
	// them into the default slices would leak default fields into entries.
	c := &Config{
		Options: Toggles{PlanBeacons: true, PlanHeatPipes: true, PlanPowerPoles: true},
	}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	c.fill()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values the pipeline would reject at run time.
func (c *Config) Validate() error {
	_, err := c.PipelineOptions()
	return err
}

// PipelineOptions converts the configuration into run options.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	pal, err := render.DefaultPalette().With(c.Palette)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		PipelineDir:    c.PipelineDir,
		DataDirs:       slices.Clone(c.DataDirs),
		Modules:        slices.Clone(c.Modules),
		Stages:         slices.Clone(c.Stages),
		Markers:        merge.MarkerTable{}.With(c.Markers),
		PlanBeacons:    c.Options.PlanBeacons,
		PlanHeatPipes:  c.Options.PlanHeatPipes,
		PlanPowerPoles: c.Options.PlanPowerPoles,
		Deadline:       c.Deadline.Duration,
		Width:          c.Canvas.Width,
		Height:         c.Canvas.Height,
		Scale:          c.Canvas.Scale,
		Formats:        slices.Clone(c.Formats),
		Palette:        pal,
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid options")
	}
	return opts, nil
}

// FixturesPath resolves the fixture directory. Without an explicit setting
// it is TestInputs below the repository root, or below the working
// directory when no root is found.
func (c *Config) FixturesPath() string {
	if c.FixturesDir != "" {
		return c.FixturesDir
	}
	if wd, err := os.Getwd(); err == nil {
		if root, ok := pipeline.FindRoot(wd); ok {
			return filepath.Join(root, DefaultFixturesDir)
		}
	}
	return DefaultFixturesDir
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return err.Error()
	}
	return buf.String()
}
