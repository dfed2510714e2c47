package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/pipeline"
	"github.com/matzehuels/layouttester/pkg/render"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags runFlags
	var at string

	cmd := &cobra.Command{
		Use:   "inspect <fixture> --at px,py",
		Short: "Show the cell under a pixel of the rendered grid",
		Long: `Run a fixture and hit-test a pixel of its rendering. The pixel is
given on the configured canvas (800x600 unless changed), the same
coordinates the SVG uses.`,
		Example:           `  layouttester inspect Oilfield1 --at 412,300`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeFixtures,
		RunE: func(cmd *cobra.Command, args []string) error {
			px, py, err := parsePoint(at)
			if err != nil {
				return err
			}
			return c.runInspect(cmd, args[0], px, py, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "pixel coordinate px,py on the canvas")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, arg string, px, py float64, flags *runFlags) error {
	cfg, opts, err := c.options(cmd, flags)
	if err != nil {
		return err
	}
	src, err := loadFixture(cfg, arg)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, c.Logger)
	res := runWithSpinner(cmd.Context(), src.Name, func(ctx context.Context) *pipeline.Result {
		return runner.RunSource(ctx, src, opts)
	})
	if res.Failed() {
		printRunLog(res)
		printError("%s failed (%s)", src.Name, res.Diagnostics.Code)
		return res.Diagnostics.Err
	}

	proj := render.NewProjection(res.Layout.Grid, opts.Width, opts.Height)
	hit, ok := proj.HitTest(px, py)
	if !ok {
		printWarning("No cell at pixel (%s, %s)", formatPixel(px), formatPixel(py))
		return nil
	}
	printCell(proj, hit)
	return nil
}

func printCell(proj *render.Projection, hit render.Hit) {
	cell := hit.Cell
	printSuccess("%s", hit.Text())
	printKeyValue("Content", cell.Content)
	if cell.HasMarker() {
		printKeyValue("Marker", cell.Marker)
	}
	if cell.Direction.Valid() {
		printKeyValue("Direction", cell.Direction.String())
	}
	x, y, w, h := proj.Pixels(cell.Position(), nil)
	printKeyValue("Pixels", fmt.Sprintf("%s,%s %sx%s", formatPixel(x), formatPixel(y), formatPixel(w), formatPixel(h)))
}

// parsePoint parses "x,y".
func parsePoint(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid point %q (want px,py)", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid point %q (want px,py)", s)
	}
	return x, y, nil
}

func formatPixel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
