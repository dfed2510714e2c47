package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/layouttester/pkg/bridge"
	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/grid"
	"github.com/matzehuels/layouttester/pkg/pipeline"
	"github.com/matzehuels/layouttester/pkg/scheduler"
)

type submission struct {
	name string
	opts pipeline.Options
}

func testBrowseModel(t *testing.T) (browseModel, *[]submission) {
	t.Helper()
	var subs []submission
	entries := []fixture.Entry{
		{Name: "Oilfield1", Path: "TestInputs/Oilfield1.json"},
		{Name: "Oilfield2", Path: "TestInputs/Oilfield2.json"},
		{Name: "Square", Path: "TestInputs/Square.json"},
	}
	submit := func(e fixture.Entry, o pipeline.Options) error {
		subs = append(subs, submission{name: e.Name, opts: o})
		return nil
	}
	return newBrowseModel(entries, pipeline.DefaultOptions(), make(chan *scheduler.Run), submit), &subs
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m browseModel, msgs ...tea.Msg) browseModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(browseModel)
	}
	return m
}

func testRun(t *testing.T) *scheduler.Run {
	t.Helper()
	g := grid.New()
	for _, xy := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		g.Add(xy[0], xy[1], "buildable")
	}
	c, _ := g.Cell(0, 0)
	if err := c.Deposit("pipe", "+", "pipe", grid.North); err != nil {
		t.Fatal(err)
	}
	res := &pipeline.Result{
		Fixture: "Square",
		Layout:  &grid.LayoutResult{Grid: g},
		Stats:   pipeline.Stats{Planned: 1, Cells: 4},
	}
	res.Diagnostics.Log = bridge.NewLog(nil)
	res.Diagnostics.Log.Println("Planned entities: 1")
	return &scheduler.Run{
		Request: scheduler.Request{Source: &fixture.Source{Name: "Square"}},
		Result:  res,
	}
}

func TestBrowseCursor(t *testing.T) {
	m, _ := testBrowseModel(t)

	m = update(m, key("up"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 at the top", m.cursor)
	}
	m = update(m, key("down"), key("j"), key("down"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 at the bottom", m.cursor)
	}
	m = update(m, key("k"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestBrowseSubmit(t *testing.T) {
	m, subs := testBrowseModel(t)

	m = update(m, key("r"))
	if len(*subs) != 0 {
		t.Fatalf("rerun before any run submitted %d requests", len(*subs))
	}

	m = update(m, key("down"), key("enter"))
	if len(*subs) != 1 || (*subs)[0].name != "Oilfield2" {
		t.Fatalf("submissions = %+v, want Oilfield2", *subs)
	}
	if m.running != "Oilfield2" {
		t.Errorf("running = %q", m.running)
	}

	// Moving the cursor does not change what r re-runs.
	m = update(m, key("down"), key("r"))
	if got := (*subs)[1].name; got != "Oilfield2" {
		t.Errorf("rerun submitted %s, want Oilfield2", got)
	}
}

func TestBrowseToggles(t *testing.T) {
	m, subs := testBrowseModel(t)

	m = update(m, key("b"))
	if m.opts.PlanBeacons {
		t.Error("b did not disable beacons")
	}
	if len(*subs) != 0 {
		t.Error("toggle before any run submitted a request")
	}

	m = update(m, key("enter"), key("h"), key("p"))
	if len(*subs) != 3 {
		t.Fatalf("got %d submissions, want 3", len(*subs))
	}
	last := (*subs)[2]
	if last.opts.PlanBeacons || last.opts.PlanHeatPipes || last.opts.PlanPowerPoles {
		t.Errorf("last submission toggles = %v %v %v, want all off",
			last.opts.PlanBeacons, last.opts.PlanHeatPipes, last.opts.PlanPowerPoles)
	}

	m = update(m, key("b"))
	if !m.opts.PlanBeacons {
		t.Error("second b did not re-enable beacons")
	}
}

func TestBrowseRunAndHover(t *testing.T) {
	m, _ := testBrowseModel(t)
	m = update(m, key("enter"), runMsg{run: testRun(t)})

	if m.running != "" {
		t.Errorf("running = %q after the run arrived", m.running)
	}
	if len(m.rows) != 2 {
		t.Fatalf("got %d grid rows, want 2", len(m.rows))
	}
	view := m.View()
	if !strings.Contains(view, "Square · 1 planned") {
		t.Errorf("view lacks run summary:\n%s", view)
	}

	top := m.gridTop()
	tests := []struct {
		name string
		x, y int
		want string
	}{
		{"marked cell", browseGridLeft, top, "World: X=0, Y=0 (pipe) + facing north"},
		{"second column", browseGridLeft + cellWidth + 1, top + 1, "World: X=1, Y=1 (buildable)"},
		{"left of grid", 0, top, ""},
		{"above grid", browseGridLeft, top - 1, ""},
		{"past grid", browseGridLeft + 2*cellWidth, top, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := update(m, tea.MouseMsg{X: tt.x, Y: tt.y, Action: tea.MouseActionMotion})
			if got.hover != tt.want {
				t.Errorf("hover = %q, want %q", got.hover, tt.want)
			}
		})
	}
}

func TestBrowseLogView(t *testing.T) {
	m, _ := testBrowseModel(t)
	m = update(m, runMsg{run: testRun(t)}, key("l"))

	if !strings.Contains(m.View(), "Planned entities: 1") {
		t.Error("log view does not show the run log")
	}
	m = update(m, tea.MouseMsg{X: browseGridLeft, Y: m.gridTop(), Action: tea.MouseActionMotion})
	if m.hover != "" {
		t.Errorf("hover = %q while the log is shown", m.hover)
	}
}

func TestBrowseFailedRun(t *testing.T) {
	m, _ := testBrowseModel(t)
	run := testRun(t)
	run.Result.Layout = nil
	run.Result.Diagnostics.Code = errors.ErrCodeScriptFault
	run.Result.Diagnostics.Err = errors.New(errors.ErrCodeScriptFault, "pipe budget exhausted")
	m = update(m, runMsg{run: run})

	if m.rows != nil || m.proj != nil {
		t.Error("failed run left a grid")
	}
	if !strings.Contains(m.View(), "Square failed (SCRIPT_FAULT)") {
		t.Errorf("view lacks failure line:\n%s", m.View())
	}
}

func TestBrowseQuit(t *testing.T) {
	m, _ := testBrowseModel(t)
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(k)
		if cmd == nil {
			t.Fatalf("%s returned no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not quit", k)
		}
	}
}

func TestWaitForRun(t *testing.T) {
	runs := make(chan *scheduler.Run, 1)
	run := testRun(t)
	runs <- run
	if msg, ok := waitForRun(runs)().(runMsg); !ok || msg.run != run {
		t.Errorf("waitForRun = %v, want the queued run", msg)
	}
	close(runs)
	if msg := waitForRun(runs)(); msg != nil {
		t.Errorf("waitForRun on a closed channel = %v, want nil", msg)
	}
}
