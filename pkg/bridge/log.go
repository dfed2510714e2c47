package bridge

import (
	"fmt"
	"strings"
	"sync"
)

// Log is the append-only text log of one run. It is safe for concurrent use
// so that observers may snapshot it while a run is still writing.
type Log struct {
	mu    sync.Mutex
	lines []string
	tee   func(string)
}

// NewLog creates an empty log. When tee is non-nil every appended line is
// also passed to it.
func NewLog(tee func(line string)) *Log {
	return &Log{tee: tee}
}

// Println appends one line. Embedded newlines split into several lines.
func (l *Log) Println(line string) {
	parts := strings.Split(line, "\n")
	l.mu.Lock()
	l.lines = append(l.lines, parts...)
	tee := l.tee
	l.mu.Unlock()
	if tee != nil {
		for _, p := range parts {
			tee(p)
		}
	}
}

// Printf appends one formatted line.
func (l *Log) Printf(format string, args ...any) {
	l.Println(fmt.Sprintf(format, args...))
}

// PrintValue appends the rendering of v.
func (l *Log) PrintValue(v Value) {
	for _, line := range RenderLines(v) {
		l.Println(line)
	}
}

// Lines returns a copy of the lines written so far.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// String returns the log as newline-separated text.
func (l *Log) String() string {
	return strings.Join(l.Lines(), "\n")
}

// Contains reports whether any line contains substr.
func (l *Log) Contains(substr string) bool {
	for _, line := range l.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
