package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/grid"
	"github.com/matzehuels/layouttester/pkg/pipeline"
	"github.com/matzehuels/layouttester/pkg/render"
	"github.com/matzehuels/layouttester/pkg/scheduler"
	"github.com/matzehuels/layouttester/pkg/watch"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	glyphStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("16"))
)

const (
	browseListHeight = 8
	browseHeader     = 3 // title, help, blank
	browseGridLeft   = 2
	cellWidth        = 2 // terminal columns per grid cell
)

// browseCommand creates the interactive browser command.
func (c *CLI) browseCommand() *cobra.Command {
	var flags runFlags
	var watchFlag bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse fixtures and runs in the terminal",
		Long: `Pick a fixture, toggle the optional stages and inspect the merged grid
in the terminal. Hovering the mouse over a cell shows its world coordinate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd, &flags, watchFlag)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "re-run when a pipeline file changes")
	return cmd
}

func (c *CLI) runBrowse(cmd *cobra.Command, flags *runFlags, watchFlag bool) error {
	cfg, opts, err := c.options(cmd, flags)
	if err != nil {
		return err
	}
	entries, err := fixture.List(cfg.FixturesPath())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errors.New(errors.ErrCodeNotFound, "no fixtures in %s", cfg.FixturesPath())
	}

	// The alternate screen owns the terminal; process logging would tear it.
	quiet := log.NewWithOptions(io.Discard, log.Options{})
	opts.Logger = quiet
	store, err := newCache(c.noCache)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(store, quiet)
	defer runner.Close()

	sched := scheduler.New(runner.RunSource, quiet)
	runs, unsubscribe := sched.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })

	if watchFlag {
		env, err := pipeline.ResolveEnvironment(opts)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		w, err := watch.New(env.PipelineDir, func(string) { sched.Refresh() }, watch.Options{Logger: quiet})
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		defer w.Stop()
		if err := w.Start(ctx); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	}

	submit := func(e fixture.Entry, o pipeline.Options) error {
		src, err := fixture.Load(e.Path)
		if err != nil {
			return err
		}
		sched.Submit(scheduler.Request{Source: src, Options: o})
		return nil
	}
	m := newBrowseModel(entries, opts, runs, submit)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx)).Run()

	cancel()
	_ = g.Wait()
	if cmd.Context().Err() != nil {
		return nil
	}
	return err
}

// =============================================================================
// browseModel - Interactive fixture browser
// =============================================================================

type runMsg struct{ run *scheduler.Run }

// browseModel is the bubbletea model of the browser.
type browseModel struct {
	fixtures []fixture.Entry
	cursor   int
	offset   int

	opts   pipeline.Options
	runs   <-chan *scheduler.Run
	submit func(fixture.Entry, pipeline.Options) error

	run      *scheduler.Run
	selected int    // fixture index of the last submission, -1 before any
	running  string // fixture being run, empty when idle
	proj     *render.Projection
	rows     []string
	hover    string
	err      error
	showLog  bool
}

func newBrowseModel(entries []fixture.Entry, opts pipeline.Options, runs <-chan *scheduler.Run, submit func(fixture.Entry, pipeline.Options) error) browseModel {
	return browseModel{fixtures: entries, opts: opts, runs: runs, submit: submit, selected: -1}
}

// waitForRun delivers the next completed run as a runMsg.
func waitForRun(runs <-chan *scheduler.Run) tea.Cmd {
	return func() tea.Msg {
		run, ok := <-runs
		if !ok {
			return nil
		}
		return runMsg{run: run}
	}
}

func (m browseModel) Init() tea.Cmd {
	return waitForRun(m.runs)
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runMsg:
		m.setRun(msg.run)
		return m, waitForRun(m.runs)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionMotion {
			m.hover = m.hoverText(msg.X, msg.Y)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.fixtures)-1 {
				m.cursor++
				if m.cursor >= m.offset+browseListHeight {
					m.offset = m.cursor - browseListHeight + 1
				}
			}
		case "enter":
			m.start(m.cursor)
		case "r":
			if m.selected >= 0 {
				m.start(m.selected)
			}
		case "b":
			m.toggle(pipeline.ToggleBeacons)
		case "h":
			m.toggle(pipeline.ToggleHeatPipes)
		case "p":
			m.toggle(pipeline.TogglePowerPoles)
		case "l":
			m.showLog = !m.showLog
		}
	}
	return m, nil
}

// start submits fixture i.
func (m *browseModel) start(i int) {
	m.selected = i
	m.err = m.submit(m.fixtures[i], m.opts)
	if m.err == nil {
		m.running = m.fixtures[i].Name
	}
}

// toggle flips a stage toggle and re-runs the current fixture.
func (m *browseModel) toggle(name string) {
	_ = m.opts.SetToggle(name, !m.opts.Enabled(name))
	if m.selected >= 0 {
		m.start(m.selected)
	}
}

func (m *browseModel) setRun(run *scheduler.Run) {
	m.run = run
	m.running = ""
	m.hover = ""
	m.proj, m.rows = nil, nil
	if run.Result.Layout != nil {
		m.proj, m.rows = gridRows(run.Result.Layout.Grid, m.opts.Palette)
	}
}

// listRows is the number of fixture lines on screen.
func (m browseModel) listRows() int {
	return min(len(m.fixtures), browseListHeight)
}

// gridTop is the terminal row of the first grid line.
func (m browseModel) gridTop() int {
	return browseHeader + m.listRows() + 4 // blank, toggles, run summary, blank
}

// hoverText hit-tests the terminal cell (x, y).
func (m browseModel) hoverText(x, y int) string {
	if m.proj == nil || m.showLog {
		return ""
	}
	dx, dy := x-browseGridLeft, y-m.gridTop()
	if dx < 0 || dy < 0 {
		return ""
	}
	hit, ok := m.proj.HitTest(float64(dx/cellWidth), float64(dy))
	if !ok {
		return ""
	}
	text := fmt.Sprintf("%s (%s)", hit.Text(), hit.Cell.Content)
	if hit.Cell.HasMarker() {
		text += fmt.Sprintf(" %s", hit.Cell.Marker)
		if hit.Cell.Direction.Valid() {
			text += " facing " + hit.Cell.Direction.String()
		}
	}
	return text
}

// gridRows draws g with one terminal line per grid row. The projection
// maps one column or row to one unit so hit tests take cell indices.
func gridRows(g *grid.Grid, pal render.Palette) (*render.Projection, []string) {
	cols, rows := len(g.XKeys()), len(g.YKeys())
	proj := render.NewProjection(g, float64(cols), float64(rows))
	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		var b strings.Builder
		for col := 0; col < cols; col++ {
			cell, ok := proj.CellAt(col, r)
			if !ok {
				b.WriteString(strings.Repeat(" ", cellWidth))
				continue
			}
			b.WriteString(glyphStyle.Background(lipgloss.Color(pal.Fill(cell).Hex())).Render(glyph(cell)))
		}
		lines = append(lines, b.String())
	}
	return proj, lines
}

// glyph is the cell's marker fitted to cellWidth columns.
func glyph(c *grid.Cell) string {
	m := c.Marker
	if len(m) > cellWidth {
		m = m[len(m)-cellWidth:]
	}
	return fmt.Sprintf("%-*s", cellWidth, m)
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Layout Tester"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ fixture  ⏎ run  r rerun  b/h/p toggle stages  l log  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.listRows()
	for i := m.offset; i < end; i++ {
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		b.WriteString(style.Render(cursor + m.fixtures[i].Name))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.togglesLine())
	b.WriteString("\n")
	b.WriteString(m.runLine())
	b.WriteString("\n\n")

	switch {
	case m.showLog && m.run != nil:
		for _, line := range m.run.Result.Diagnostics.Log.Lines() {
			b.WriteString(strings.Repeat(" ", browseGridLeft) + line + "\n")
		}
	case m.rows != nil:
		for _, line := range m.rows {
			b.WriteString(strings.Repeat(" ", browseGridLeft) + line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(m.hover))
	return b.String()
}

func (m browseModel) togglesLine() string {
	parts := make([]string, 0, 3)
	for _, t := range pipeline.Toggles() {
		mark := StyleWarning.Render("off")
		if m.opts.Enabled(t) {
			mark = StyleSuccess.Render("on")
		}
		parts = append(parts, fmt.Sprintf("%s %s", strings.ReplaceAll(t, "_", " "), mark))
	}
	return strings.Join(parts, listDimStyle.Render(" · "))
}

func (m browseModel) runLine() string {
	switch {
	case m.err != nil:
		return styleIconError.Render(iconError) + " " + errors.UserMessage(m.err)
	case m.running != "":
		return styleIconSpinner.Render("⠿") + " " + StyleDim.Render("running "+m.running+"...")
	case m.run == nil:
		return StyleDim.Render("no run yet")
	}
	res := m.run.Result
	if res.Failed() {
		return styleIconError.Render(iconError) + " " + fmt.Sprintf("%s failed (%s)", m.run.Request.Fixture(), res.Diagnostics.Code)
	}
	return styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf("%s · %d planned · %d warnings",
		m.run.Request.Fixture(), res.Stats.Planned, len(res.Diagnostics.Warnings))
}
