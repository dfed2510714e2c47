package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layouttester/pkg/config"
	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/pipeline"
)

// runFlags are the run options every fixture-running command accepts. They
// override the configuration file when set.
type runFlags struct {
	pipelineDir  string
	dataDirs     []string
	fixturesDir  string
	deadline     time.Duration
	noBeacons    bool
	noHeatPipes  bool
	noPowerPoles bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pipelineDir, "pipeline-dir", "", "directory holding the pipeline's Lua modules")
	cmd.Flags().StringSliceVar(&f.dataDirs, "data-dir", nil, "runtime data directory candidates (repeatable)")
	cmd.Flags().StringVar(&f.fixturesDir, "fixtures", "", "fixtures directory")
	cmd.Flags().DurationVar(&f.deadline, "deadline", 0, "interrupt a stage running longer than this (0 disables)")
	cmd.Flags().BoolVar(&f.noBeacons, "no-beacons", false, "skip beacon planning")
	cmd.Flags().BoolVar(&f.noHeatPipes, "no-heat-pipes", false, "skip heat pipe planning")
	cmd.Flags().BoolVar(&f.noPowerPoles, "no-power-poles", false, "skip power pole planning")
}

// apply layers the flags that were set over cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("pipeline-dir") {
		cfg.PipelineDir = f.pipelineDir
	}
	if flags.Changed("data-dir") {
		cfg.DataDirs = f.dataDirs
	}
	if flags.Changed("fixtures") {
		cfg.FixturesDir = f.fixturesDir
	}
	if flags.Changed("deadline") {
		cfg.Deadline = config.Duration{Duration: f.deadline}
	}
	if f.noBeacons {
		cfg.Options.PlanBeacons = false
	}
	if f.noHeatPipes {
		cfg.Options.PlanHeatPipes = false
	}
	if f.noPowerPoles {
		cfg.Options.PlanPowerPoles = false
	}
}

// options loads the configuration, applies the flags and returns both.
func (c *CLI) options(cmd *cobra.Command, f *runFlags) (*config.Config, pipeline.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	f.apply(cmd, cfg)
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	opts.Logger = c.Logger
	return cfg, opts, nil
}

// loadFixture accepts a fixture file path or a name inside the fixtures directory.
func loadFixture(cfg *config.Config, arg string) (*fixture.Source, error) {
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		return fixture.Load(arg)
	}
	entry, err := fixture.Find(cfg.FixturesPath(), arg)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no fixture file or fixture named %q (see '%s fixtures')", arg, appName)
		}
		return nil, err
	}
	return fixture.Load(entry.Path)
}
