package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layouttester/pkg/bridge"
	"github.com/matzehuels/layouttester/pkg/cache"
	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/grid"
	"github.com/matzehuels/layouttester/pkg/merge"
	"github.com/matzehuels/layouttester/pkg/observability"
)

// Runner executes runs and renders their results.
//
// The Runner is stateless except for the cache and logger. Every run opens
// its own Lua session, so multiple goroutines can use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables artifact caching; a nil
// logger uses the default charm logger.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// RunSource parses a fixture source and runs it. Parse errors are reported
// through the result like any other run failure.
func (r *Runner) RunSource(ctx context.Context, src *fixture.Source, opts Options) *Result {
	fx, err := fixture.Parse(src.Data)
	if err != nil {
		res := newResult(src.Name, r.logFor(opts))
		res.Diagnostics.Log.Printf("%s: %s", src.Name, errors.UserMessage(err))
		res.fail(err)
		return res
	}
	return r.Run(ctx, src.Name, fx, opts)
}

// Run executes the pipeline against fx and merges the plan into fx.Grid.
// The fixture's grid is mutated; parse a fresh fixture for every run.
func (r *Runner) Run(ctx context.Context, name string, fx *fixture.Fixture, opts Options) *Result {
	r.applyLogger(&opts)
	opts.SetDefaults()

	res := newResult(name, opts.Logger)
	observability.Pipeline().OnRunStart(ctx, name)
	defer func() {
		res.Stats.Duration = time.Since(res.Stats.Started)
		observability.Pipeline().OnRunComplete(ctx, name, res.Stats.Planned, res.Stats.Duration, res.Diagnostics.Err)
		if res.Failed() {
			opts.Logger.Warn("run failed", "fixture", name, "code", res.Diagnostics.Code, "duration", res.Stats.Duration)
			return
		}
		opts.Logger.Info("run finished", "fixture", name, "planned", res.Stats.Planned, "duration", res.Stats.Duration)
	}()

	if err := opts.Validate(); err != nil {
		writeFault(res.Diagnostics.Log, err)
		res.fail(err)
		return res
	}
	layout, err := r.execute(ctx, fx, opts, res)
	if err != nil {
		writeFault(res.Diagnostics.Log, err)
		res.fail(err)
		return res
	}
	res.Layout = layout
	return res
}

func newResult(name string, logger *log.Logger) *Result {
	res := &Result{Fixture: name, Stats: Stats{Started: time.Now()}}
	res.Diagnostics.Log = bridge.NewLog(func(line string) {
		logger.Debug(line, "fixture", name)
	})
	return res
}

func (r *Runner) execute(ctx context.Context, fx *fixture.Fixture, opts Options, res *Result) (*grid.LayoutResult, error) {
	env, err := ResolveEnvironment(opts)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("resolved environment", "pipeline", env.PipelineDir, "data", env.DataDir)

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	s := bridge.Open(ctx, res.Diagnostics.Log)
	defer s.Close()
	s.AddSearchPath(env.SearchPath()...)

	for _, m := range opts.Modules {
		if err := s.Require(m.Name, m.Global); err != nil {
			return nil, err
		}
	}

	c := s.NewContext(ContextGlobal, contextValue(fx))
	res.Stats.Cells = fx.Grid.Len()

	for _, st := range opts.Stages {
		if !st.Setup {
			continue
		}
		if _, err := s.CallStage(st.Entry, c, st.ExtraNilArg); err != nil {
			return nil, err
		}
	}

	layout := &grid.LayoutResult{
		Grid:         fx.Grid,
		Bounds:       fx.Bounds,
		ExtractorBox: fx.ExtractorBox,
		BeaconBox:    fx.BeaconBox,
	}
	toolbox := c.Get("toolbox")
	if box := boxFromValue(toolbox.Field(grid.ContentExtractor, "relative_bounds")); box != nil {
		layout.ExtractorBox = box
	}
	if box := boxFromValue(toolbox.Field(grid.ContentBeacon, "relative_bounds")); box != nil {
		layout.BeaconBox = box
	}

	for _, st := range opts.Stages {
		if st.Setup {
			continue
		}
		if !opts.Enabled(st.Toggle) {
			res.Stats.Stages = append(res.Stats.Stages, StageTiming{Label: st.Name(), Skipped: true})
			continue
		}
		start := time.Now()
		failure, err := s.CallStage(st.Entry, c, st.ExtraNilArg)
		d := time.Since(start)
		observability.Pipeline().OnStageComplete(ctx, res.Fixture, st.Name(), d, !failure.IsNull(), err)
		res.Stats.Stages = append(res.Stats.Stages, StageTiming{Label: st.Name(), Duration: d})
		opts.Logger.Debug("stage finished", "stage", st.Name(), "duration", d)
		if err != nil {
			return nil, err
		}
		if !failure.IsNull() {
			res.Diagnostics.StageFailures = append(res.Diagnostics.StageFailures, StageFailure{Stage: st.Name(), Value: failure})
		}
	}

	return r.extract(s, c, layout, opts, res)
}

// extract writes the report and merges the plan. Panics while walking the
// plan are converted into a failed run.
func (r *Runner) extract(s *bridge.Session, c *bridge.Context, layout *grid.LayoutResult, opts Options, res *Result) (out *grid.LayoutResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, errors.New(errors.ErrCodeInternal, "%v", p)
		}
	}()

	runLog := res.Diagnostics.Log
	res.Diagnostics.Samples = s.Samples().Sorted()
	writeTimings(runLog, res.Stats, res.Diagnostics.Samples)
	writeFailures(runLog, res.Diagnostics.StageFailures)
	res.Diagnostics.Warnings = writeWarnings(runLog, c.Get("warnings"))

	plan := c.Get("construction_plan")
	stats, err := merge.Merge(plan, layout.Bounds, layout.Grid, opts.Markers, runLog)
	res.Stats.Planned = stats.Planned
	res.Diagnostics.OutOfBounds = stats.Warnings
	if err != nil {
		return nil, err
	}

	writePlan(runLog, plan)
	return layout, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// logFor returns the logger a run with opts would use.
func (r *Runner) logFor(opts Options) *log.Logger {
	r.applyLogger(&opts)
	opts.SetDefaults()
	return opts.Logger
}
