package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/layouttester/pkg/pipeline"
)

// stdout receives all status output. Tests swap it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Styles
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - titles, spinner
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings, out of bounds
	colorRed    = lipgloss.Color("167") // Soft red - failures, faults
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - labels
	colorDim    = lipgloss.Color("240") // Dim gray - timings, rules
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleDim for muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	// StyleFailure for run failures.
	StyleFailure = lipgloss.NewStyle().Foreground(colorRed)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func status(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(stdout, icon.Render(glyph)+" "+msg)
}

func printSuccess(format string, args ...any) {
	status(styleIconSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	status(styleIconError, iconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status(styleIconWarning, iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(styleIconInfo, iconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile announces a written file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Run Output
// =============================================================================

// printRunLog writes the run's text log. Report lines are tinted so a
// failure or an out-of-bounds placement stands out in a long log.
func printRunLog(res *pipeline.Result) {
	if res.Diagnostics.Log == nil {
		return
	}
	for _, line := range res.Diagnostics.Log.Lines() {
		fmt.Fprintln(stdout, styleLogLine(line).Render(line))
	}
}

func styleLogLine(line string) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "---"),
		strings.HasPrefix(line, "'") && strings.Contains(line, "' took "),
		strings.Contains(line, " samples | "):
		return StyleDim
	case strings.HasPrefix(line, "Entity planned out of bounds"):
		return StyleWarning
	case strings.Contains(line, "reported a failure"),
		strings.Contains(line, "failed while building"),
		strings.Contains(line, "is already assigned here"):
		return StyleFailure
	case strings.HasPrefix(line, "Planned entities:"):
		return StyleSuccess
	}
	return lipgloss.NewStyle()
}

// printRunStats prints a one-line run summary followed by the stage
// failures the run reported.
func printRunStats(res *pipeline.Result) {
	parts := []string{
		fmt.Sprintf("%d planned", res.Stats.Planned),
		fmt.Sprintf("%d cells", res.Stats.Cells),
	}
	if n := len(res.Diagnostics.Warnings); n > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", n))
	}
	if n := len(res.Diagnostics.OutOfBounds); n > 0 {
		parts = append(parts, fmt.Sprintf("%d out of bounds", n))
	}
	parts = append(parts, res.Stats.Duration.Round(time.Millisecond).String())
	fmt.Fprintln(stdout, "  "+StyleDim.Render(strings.Join(parts, " · ")))

	for _, f := range res.Diagnostics.StageFailures {
		printWarning("%s reported a failure: %s", f.Stage, f.Value)
	}
}
