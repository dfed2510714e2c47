package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/layouttester/pkg/pipeline"
	"github.com/matzehuels/layouttester/pkg/scheduler"
	"github.com/matzehuels/layouttester/pkg/watch"
)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	runFlags
	output   string
	formats  string
	debounce time.Duration
}

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch <fixture>",
		Short: "Re-run a fixture whenever a pipeline file changes",
		Long: `Run a fixture, then run it again every time a Lua file in the
pipeline directory changes. Bursts of saves collapse into one run, and a
run still in progress when the next change arrives is abandoned.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeFixtures,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also render every run to this base path")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s) when --output is set")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, arg string, opts *watchOpts) error {
	cfg, popts, err := c.options(cmd, &opts.runFlags)
	if err != nil {
		return err
	}
	if opts.formats != "" {
		popts.Formats = pipeline.ParseFormats(opts.formats)
		if err := pipeline.ValidateFormats(popts.Formats); err != nil {
			return err
		}
	}
	src, err := loadFixture(cfg, arg)
	if err != nil {
		return err
	}
	env, err := pipeline.ResolveEnvironment(popts)
	if err != nil {
		return err
	}

	runner, err := c.newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	sched := scheduler.New(runner.RunSource, c.Logger)
	runs, unsubscribe := sched.Subscribe()
	defer unsubscribe()

	w, err := watch.New(env.PipelineDir, func(string) { sched.Refresh() }, watch.Options{Debounce: opts.debounce, Logger: c.Logger})
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case run, ok := <-runs:
				if !ok {
					return nil
				}
				c.reportRun(ctx, runner, run, opts.output)
			}
		}
	})

	if err := w.Start(ctx); err != nil {
		cancel()
		_ = g.Wait()
		return err
	}
	printInfo("Watching %s (Ctrl+C to stop)", env.PipelineDir)
	sched.Submit(scheduler.Request{Source: src, Options: popts})

	return g.Wait()
}

// reportRun prints a completed run and renders it when output is set.
func (c *CLI) reportRun(ctx context.Context, runner *pipeline.Runner, run *scheduler.Run, output string) {
	printNewline()
	fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("%s · %s", run.Request.Fixture(), run.Finished.Format("15:04:05"))))
	res := run.Result
	printRunLog(res)
	if res.Failed() {
		printError("%s failed (%s)", run.Request.Fixture(), res.Diagnostics.Code)
		return
	}
	printRunStats(res)
	if output == "" {
		return
	}
	if err := c.writeRenderings(ctx, runner, res, run.Request.Options, output); err != nil {
		printWarning("render failed: %v", err)
	}
}
