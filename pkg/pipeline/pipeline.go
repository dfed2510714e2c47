// Package pipeline runs one layout test: a fixture is marshalled into a Lua
// session, the planning pipeline's stages run against it, and the resulting
// construction plan is merged back onto the fixture grid.
//
// # Architecture
//
// A run goes through these steps:
//
//  1. Resolve the pipeline and runtime data directories ([ResolveEnvironment])
//  2. Open a fresh Lua session and load the configured modules
//  3. Marshal the fixture into the shared context table
//  4. Run the setup stages, then read the toolbox footprints
//  5. Run the enabled planning stages in order, timing each one
//  6. Write the report: stage timings, samples, failures and warnings
//  7. Merge the construction plan onto the grid ([merge.Merge])
//  8. Dump the plan and close the session
//
// Failures never escape as Go errors. [Runner.Run] always returns a
// [Result] whose Diagnostics carry the run log; Layout is nil when the run
// failed.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, logger)
//	opts := pipeline.Options{PipelineDir: "mod", DataDirs: []string{"../factorio-data"}}
//	res := runner.Run(ctx, "Oilfield1", fx, opts)
//	fmt.Println(res.Diagnostics.Log.String())
//	artifacts, err := runner.Render(ctx, res, opts)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/merge"
	"github.com/matzehuels/layouttester/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = render.DefaultWidth

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = render.DefaultHeight

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// ContextGlobal is the Lua global holding the shared stage context.
	ContextGlobal = "planner_input_stage"
)

// Stage toggles. A stage with an empty toggle always runs.
const (
	ToggleBeacons    = "beacons"
	ToggleHeatPipes  = "heat_pipes"
	TogglePowerPoles = "power_poles"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Stages and Modules
// =============================================================================

// Module is a Lua module loaded before any stage runs.
type Module struct {
	Name   string `toml:"name" json:"name"`
	Global string `toml:"global,omitempty" json:"global,omitempty"` // binds global = require(name)
}

// Stage is one pipeline entry point.
type Stage struct {
	Label       string `toml:"label" json:"label"`
	Entry       string `toml:"entry" json:"entry"` // dotted path from the globals
	Toggle      string `toml:"toggle,omitempty" json:"toggle,omitempty"`
	Setup       bool   `toml:"setup,omitempty" json:"setup,omitempty"`
	ExtraNilArg bool   `toml:"extra_nil_arg,omitempty" json:"extra_nil_arg,omitempty"`
}

// DefaultModules returns the module list of the current pipeline.
func DefaultModules() []Module {
	return []Module{
		{Name: "util"},
		{Name: "math2d"},
		{Name: "plib"},
		{Name: "prospector"},
		{Name: "toolbox"},
		{Name: "toolshop"},
		{Name: "plumber-pro"},
		{Name: "electrician"},
		{Name: "heater", Global: "heater"},
		{Name: "beaconer", Global: "beaconer"},
	}
}

// DefaultStages returns the stage list of the current pipeline.
func DefaultStages() []Stage {
	return []Stage{
		{Label: "populate", Entry: "populate_blocked_positions_from_area", Setup: true},
		{Label: "toolbox", Entry: "add_development_toolbox", Setup: true},
		{Label: "plumbing", Entry: "plan_plumbing"},
		{Label: "beaconing", Entry: "beaconer.plan_beacons", Toggle: ToggleBeacons},
		{Label: "heating", Entry: "heater.plan_heat_pipes", Toggle: ToggleHeatPipes, ExtraNilArg: true},
		{Label: "electricity", Entry: "plan_power", Toggle: TogglePowerPoles},
	}
}

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options contains all configuration for one run.
type Options struct {
	// Environment
	PipelineDir string   `json:"pipeline_dir,omitempty"`
	DataDirs    []string `json:"data_dirs,omitempty"`

	// Pipeline shape
	Modules []Module          `json:"modules,omitempty"`
	Stages  []Stage           `json:"stages,omitempty"`
	Markers merge.MarkerTable `json:"markers,omitempty"`

	// Stage toggles
	PlanBeacons    bool `json:"plan_beacons"`
	PlanHeatPipes  bool `json:"plan_heat_pipes"`
	PlanPowerPoles bool `json:"plan_power_poles"`

	// Deadline interrupts a runaway stage. Zero disables it.
	Deadline time.Duration `json:"deadline,omitempty"`

	// Render options
	Width   float64        `json:"width,omitempty"`
	Height  float64        `json:"height,omitempty"`
	Scale   float64        `json:"scale,omitempty"`
	Formats []string       `json:"formats,omitempty"`
	Palette render.Palette `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns options with every stage enabled.
func DefaultOptions() Options {
	o := Options{PlanBeacons: true, PlanHeatPipes: true, PlanPowerPoles: true}
	o.SetDefaults()
	return o
}

// SetDefaults fills unset fields. It is idempotent.
func (o *Options) SetDefaults() {
	if o.Modules == nil {
		o.Modules = DefaultModules()
	}
	if o.Stages == nil {
		o.Stages = DefaultStages()
	}
	if o.Markers == nil {
		o.Markers = merge.DefaultMarkers()
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Palette.Colors == nil {
		o.Palette = render.DefaultPalette()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after defaults were applied.
func (o *Options) Validate() error {
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas size must be positive, got %vx%v", o.Width, o.Height)
	}
	if o.Deadline < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "deadline must not be negative")
	}
	for i, st := range o.Stages {
		if st.Entry == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "stage %d has no entry point", i+1)
		}
		if st.Toggle != "" && !slices.Contains(Toggles(), st.Toggle) {
			return errors.New(errors.ErrCodeInvalidConfig, "stage %q: unknown toggle %q (must be one of: %s)",
				st.Name(), st.Toggle, strings.Join(Toggles(), ", "))
		}
	}
	for i, m := range o.Modules {
		if m.Name == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "module %d has no name", i+1)
		}
	}
	return nil
}

// Toggles lists the known stage toggles.
func Toggles() []string {
	return []string{ToggleBeacons, ToggleHeatPipes, TogglePowerPoles}
}

// Enabled reports whether a stage with the given toggle should run.
func (o *Options) Enabled(toggle string) bool {
	switch toggle {
	case "":
		return true
	case ToggleBeacons:
		return o.PlanBeacons
	case ToggleHeatPipes:
		return o.PlanHeatPipes
	case TogglePowerPoles:
		return o.PlanPowerPoles
	}
	return false
}

// SetToggle switches a stage toggle by name.
func (o *Options) SetToggle(toggle string, on bool) error {
	switch toggle {
	case ToggleBeacons:
		o.PlanBeacons = on
	case ToggleHeatPipes:
		o.PlanHeatPipes = on
	case TogglePowerPoles:
		o.PlanPowerPoles = on
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown toggle %q (must be one of: %s)", toggle, strings.Join(Toggles(), ", "))
	}
	return nil
}

// Name is the stage's label, or its entry point when unlabelled.
func (s Stage) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Entry
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated list, defaulting to SVG.
func ParseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (s Stage) String() string {
	return fmt.Sprintf("%s (%s)", s.Name(), s.Entry)
}
