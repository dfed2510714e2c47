package bridge

import "strings"

// RenderLines returns the run-log rendering of v. Scalars render on one line.
// Tables render as a "---" separator followed by one line per leaf, each leaf
// prefixed with its key path, e.g. "[1][2]=value". Empty nested tables
// produce no lines.
func RenderLines(v Value) []string {
	if !v.IsTable() {
		return []string{v.String()}
	}
	lines := []string{"---"}
	return appendTable(lines, v, "")
}

func appendTable(lines []string, v Value, prefix string) []string {
	for _, e := range v.Entries() {
		path := prefix + "[" + e.Key.String() + "]"
		if e.Val.IsTable() {
			lines = appendTable(lines, e.Val, path)
			continue
		}
		lines = append(lines, path+"="+e.Val.String())
	}
	return lines
}

// Render joins RenderLines with newlines.
func Render(v Value) string {
	return strings.Join(RenderLines(v), "\n")
}
