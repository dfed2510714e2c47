package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layouttester/pkg/config"
	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/fixture"
)

const squareFixture = `{
  "area": {
    "0": { "0": "buildable", "1": "buildable" },
    "1": { "0": "buildable", "1": "buildable" }
  },
  "area_bounds": {
    "left_top": { "x": "0", "y": "0" },
    "right_bottom": { "x": "1", "y": "1" }
  }
}`

// isolate runs the test in an empty directory without user configuration.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(os.Stderr, log.InfoLevel).RootCommand()

	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	want := []string{"browse", "cache", "completion", "config", "fixtures", "inspect", "run", "serve", "watch"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
	}
	for _, name := range []string{"config", "no-cache"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
}

func TestRunFlagsApply(t *testing.T) {
	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	err := cmd.ParseFlags([]string{
		"--pipeline-dir", "pipe",
		"--data-dir", "a", "--data-dir", "b",
		"--deadline", "2s",
		"--no-beacons", "--no-power-poles",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.FixturesDir = "keep"
	f.apply(cmd, cfg)

	if cfg.PipelineDir != "pipe" {
		t.Errorf("PipelineDir = %q", cfg.PipelineDir)
	}
	if diff := cmp.Diff([]string{"a", "b"}, cfg.DataDirs); diff != "" {
		t.Errorf("DataDirs mismatch (-want +got):\n%s", diff)
	}
	if cfg.FixturesDir != "keep" {
		t.Errorf("unset flag overwrote FixturesDir: %q", cfg.FixturesDir)
	}
	if cfg.Deadline.Duration != 2*time.Second {
		t.Errorf("Deadline = %v", cfg.Deadline)
	}
	if cfg.Options.PlanBeacons || !cfg.Options.PlanHeatPipes || cfg.Options.PlanPowerPoles {
		t.Errorf("toggles = %+v", cfg.Options)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		base, format string
		multiple     bool
		want         string
	}{
		{"out", "svg", false, "out.svg"},
		{"out.svg", "svg", false, "out.svg"},
		{"out.svg", "png", false, "out.svg.png"},
		{"out.svg", "svg", true, "out.svg"},
		{"out", "json", true, "out.json"},
		{"dir/Oilfield1", "pdf", true, "dir/Oilfield1.pdf"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.base, tt.format, tt.multiple); got != tt.want {
			t.Errorf("outputPath(%q, %q, %v) = %q, want %q", tt.base, tt.format, tt.multiple, got, tt.want)
		}
	}
}

func TestParsePoint(t *testing.T) {
	x, y, err := parsePoint(" 150, 50.5 ")
	if err != nil {
		t.Fatal(err)
	}
	if x != 150 || y != 50.5 {
		t.Errorf("parsePoint = %v,%v", x, y)
	}

	for _, in := range []string{"", "150", "a,b", "1,", ",2"} {
		if _, _, err := parsePoint(in); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("parsePoint(%q) error = %v, want INVALID_INPUT", in, err)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		0:             "0 B",
		1023:          "1023 B",
		1536:          "1.5 KB",
		3 << 20:       "3.0 MB",
		5<<20 + 1:     "5.0 MB",
		(1 << 20) - 1: "1024.0 KB",
	}
	for n, want := range tests {
		if got := formatSize(n); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFixtureRow(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "Square.json")
	bad := filepath.Join(dir, "Broken.json")
	writeFile(t, good, squareFixture)
	writeFile(t, bad, `{"area": 3}`)

	row := fixtureRow(fixture.Entry{Name: "Square", Path: good})
	want := []string{"Square", "—", formatSize(int64(len(squareFixture))), "4", "0..1 × 0..1"}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("fixtureRow mismatch (-want +got):\n%s", diff)
	}

	row = fixtureRow(fixture.Entry{Name: "Broken", Path: bad})
	if row[4] != "invalid" {
		t.Errorf("broken fixture row = %v", row)
	}
	row = fixtureRow(fixture.Entry{Name: "Gone", Path: filepath.Join(dir, "Gone.json")})
	if row[2] != "—" || row[4] != "unreadable" {
		t.Errorf("missing fixture row = %v", row)
	}

	table := fixtureTable([][]string{want})
	for _, s := range []string{"Fixture", "Square", "0..1 × 0..1"} {
		if !strings.Contains(table, s) {
			t.Errorf("table lacks %q:\n%s", s, table)
		}
	}
}

func TestLoadFixture(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "TestInputs", "Square.json"), squareFixture)
	cfg := config.Default()
	cfg.FixturesDir = filepath.Join(dir, "TestInputs")

	byName, err := loadFixture(cfg, "Square")
	if err != nil {
		t.Fatal(err)
	}
	if byName.Name != "Square" {
		t.Errorf("Name = %q", byName.Name)
	}

	byPath, err := loadFixture(cfg, filepath.Join(dir, "TestInputs", "Square.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(byPath.Data) != string(byName.Data) {
		t.Error("path and name loaded different data")
	}

	_, err = loadFixture(cfg, "Nope")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown fixture error = %v, want NOT_FOUND", err)
	}
}

func TestOptionsReadsConfigFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, config.FileName), `
pipeline_dir = "from-config"

[options]
plan_heat_pipes = false
`)

	c := New(os.Stderr, log.InfoLevel)
	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags([]string{"--no-beacons"}); err != nil {
		t.Fatal(err)
	}

	cfg, opts, err := c.options(cmd, &f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path == "" {
		t.Error("configuration file was not found")
	}
	if opts.PipelineDir != "from-config" {
		t.Errorf("PipelineDir = %q", opts.PipelineDir)
	}
	if opts.PlanBeacons || opts.PlanHeatPipes || !opts.PlanPowerPoles {
		t.Errorf("toggles = %v %v %v", opts.PlanBeacons, opts.PlanHeatPipes, opts.PlanPowerPoles)
	}
	if opts.Logger != c.Logger {
		t.Error("options do not carry the CLI logger")
	}
}
