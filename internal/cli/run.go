package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layouttester/pkg/observability"
	"github.com/matzehuels/layouttester/pkg/pipeline"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	runFlags
	output  string // output file (single format) or base path
	formats string // comma-separated output formats
	quiet   bool   // suppress the run log
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run <fixture>",
		Short: "Run a fixture through the pipeline and render the result",
		Long: `Run a fixture through the planning pipeline, print the run log and
render the merged grid.

The fixture is either a file path or a name from the fixtures directory.`,
		Example: `  layouttester run Oilfield1
  layouttester run Oilfield1 -f svg,png -o out/oilfield
  layouttester run fixtures/custom.json.gz --no-heat-pipes`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeFixtures,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (default: fixture name)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the run log")

	return cmd
}

func (c *CLI) runRun(cmd *cobra.Command, arg string, opts *runOpts) error {
	cfg, popts, err := c.options(cmd, &opts.runFlags)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("format") {
		popts.Formats = pipeline.ParseFormats(opts.formats)
		if err := pipeline.ValidateFormats(popts.Formats); err != nil {
			return err
		}
	}
	src, err := loadFixture(cfg, arg)
	if err != nil {
		return err
	}

	runner, err := c.newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	res := runWithSpinner(cmd.Context(), src.Name, func(ctx context.Context) *pipeline.Result {
		return runner.RunSource(ctx, src, popts)
	})
	if !opts.quiet {
		printRunLog(res)
	}
	if res.Failed() {
		printError("%s failed (%s)", src.Name, res.Diagnostics.Code)
		return res.Diagnostics.Err
	}
	printSuccess("Ran %s", src.Name)
	printRunStats(res)

	base := opts.output
	if base == "" {
		base = src.Name
	}
	return c.writeRenderings(cmd.Context(), runner, res, popts, base)
}

// runWithSpinner shows a stage-aware spinner on stderr while fn runs.
func runWithSpinner(ctx context.Context, name string, fn func(context.Context) *pipeline.Result) *pipeline.Result {
	prev := observability.Pipeline()
	spinner := newRunSpinner(os.Stderr, name, prev)
	observability.SetPipelineHooks(spinner)
	defer observability.SetPipelineHooks(prev)

	spinner.Start(ctx)
	defer spinner.Stop()
	return fn(ctx)
}

// writeRenderings renders res in every requested format and writes the files.
func (c *CLI) writeRenderings(ctx context.Context, runner *pipeline.Runner, res *pipeline.Result, opts pipeline.Options, base string) error {
	prog := newProgress(c.Logger)
	artifacts, err := runner.Render(ctx, res, opts)
	if err != nil {
		return err
	}

	for _, format := range opts.Formats {
		path := outputPath(base, format, len(opts.Formats) > 1)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	prog.done(fmt.Sprintf("Rendered %d file(s)", len(opts.Formats)))
	return nil
}

// outputPath names the file for one format. A single-format output that
// already carries the right extension is used as is.
func outputPath(base, format string, multiple bool) string {
	ext := "." + format
	if !multiple && filepath.Ext(base) == ext {
		return base
	}
	if filepath.Ext(base) == ext {
		base = base[:len(base)-len(ext)]
	}
	return base + ext
}
