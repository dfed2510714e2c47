package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/layouttester/internal/server"
	"github.com/matzehuels/layouttester/pkg/observability"
	"github.com/matzehuels/layouttester/pkg/pipeline"
	"github.com/matzehuels/layouttester/pkg/scheduler"
	"github.com/matzehuels/layouttester/pkg/watch"
)

const defaultAddr = "localhost:8080"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	runFlags
	addr    string
	fixture string
	watch   bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve runs over HTTP for inspection in a browser",
		Long: `Start the inspection server. Runs are submitted with POST /api/runs;
the latest run is served as SVG and JSON, /api/cell hit-tests a pixel and
/ws pushes an event whenever a run completes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "fixture to run at startup")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-run the latest fixture when a pipeline file changes")
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	cfg, popts, err := c.options(cmd, &opts.runFlags)
	if err != nil {
		return err
	}
	runner, err := c.newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	rec := observability.NewRecorder()
	observability.SetPipelineHooks(rec)
	observability.SetCacheHooks(rec)
	observability.SetHTTPHooks(rec)
	defer observability.Reset()

	sched := scheduler.New(runner.RunSource, c.Logger)
	srv := server.New(server.Config{
		Scheduler:   sched,
		Runner:      runner,
		Options:     popts,
		FixturesDir: cfg.FixturesPath(),
		Recorder:    rec,
		Logger:      c.Logger,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx, opts.addr) })

	if opts.watch {
		env, err := pipeline.ResolveEnvironment(popts)
		if err == nil {
			var w *watch.Watcher
			w, err = watch.New(env.PipelineDir, func(string) { sched.Refresh() }, watch.Options{Logger: c.Logger})
			if err == nil {
				defer w.Stop()
				err = w.Start(ctx)
			}
		}
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	}

	if opts.fixture != "" {
		src, err := loadFixture(cfg, opts.fixture)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		sched.Submit(scheduler.Request{Source: src, Options: popts})
	}

	printInfo("Serving on %s", styleCommand.Render("http://"+opts.addr))
	return g.Wait()
}
