package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/grid"
)

// fixturesCommand creates the fixtures listing command.
func (c *CLI) fixturesCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:     "fixtures",
		Aliases: []string{"ls"},
		Short:   "List the available fixtures",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFixtures(dir)
		},
	}

	cmd.Flags().StringVar(&dir, "fixtures", "", "fixtures directory")
	return cmd
}

func (c *CLI) runFixtures(dir string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if dir != "" {
		cfg.FixturesDir = dir
	}
	path := cfg.FixturesPath()

	entries, err := fixture.List(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printInfo("No fixtures in %s", path)
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, fixtureRow(e))
	}
	fmt.Fprintln(stdout, fixtureTable(rows))
	printDetail("%d fixture(s) in %s", len(entries), path)
	printNextStep("Run one", appName+" run "+entries[0].Name)
	return nil
}

// fixtureRow summarizes one fixture. Unreadable fixtures keep their row
// with the error in place of the grid summary.
func fixtureRow(e fixture.Entry) []string {
	size := "—"
	if fi, err := os.Stat(e.Path); err == nil {
		size = formatSize(fi.Size())
	}
	compression := "—"
	switch extOf(e.Path) {
	case ".json.gz":
		compression = "gzip"
	case ".json.zst":
		compression = "zstd"
	}

	src, err := fixture.Load(e.Path)
	if err != nil {
		return []string{e.Name, compression, size, "—", "unreadable"}
	}
	fx, err := fixture.Parse(src.Data)
	if err != nil {
		return []string{e.Name, compression, size, "—", "invalid"}
	}
	return []string{e.Name, compression, size, fmt.Sprintf("%d", fx.Grid.Len()), formatBounds(fx.Bounds)}
}

// extOf returns the fixture extension of path, ".json" when unknown.
func extOf(path string) string {
	for _, ext := range []string{".json.zst", ".json.gz"} {
		if strings.HasSuffix(path, ext) {
			return ext
		}
	}
	return ".json"
}

func fixtureTable(rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Fixture", "Compression", "Size", "Cells", "Bounds").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return headerStyle.Padding(0, 1)
			case col == 0:
				return base.Foreground(colorCyan)
			case rows[row][4] == "invalid" || rows[row][4] == "unreadable":
				return base.Foreground(colorRed)
			}
			return base.Foreground(colorGray)
		}).
		Render()
}

func formatBounds(b grid.Bounds) string {
	return fmt.Sprintf("%s..%s × %s..%s",
		grid.FormatCoord(b.LeftTop.X), grid.FormatCoord(b.RightBottom.X),
		grid.FormatCoord(b.LeftTop.Y), grid.FormatCoord(b.RightBottom.Y))
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
