package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// captureStdout redirects status output for the rest of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func seedCache(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", home)
	dir := filepath.Join(home, appName)
	for _, name := range []string{"ab/abcdef.png", "cd/cdef01.pdf", "root.tmp"} {
		writeFile(t, filepath.Join(dir, name), "xyz")
	}
	return dir
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := New(os.Stderr, log.InfoLevel).RootCommand()
	root.SetArgs(args)
	return root.Execute()
}

func TestCacheInfo(t *testing.T) {
	dir := seedCache(t)
	out := captureStdout(t)

	if err := execute(t, "cache", "info"); err != nil {
		t.Fatalf("cache info: %v", err)
	}
	for _, want := range []string{dir, "3", "9 B"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("cache info output lacks %q:\n%s", want, out)
		}
	}
}

func TestCacheClear(t *testing.T) {
	dir := seedCache(t)
	out := captureStdout(t)

	if err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cache dir removed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache still holds %d entries", len(entries))
	}
	if !strings.Contains(out.String(), "Cleared 3 cached rendering(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCacheClearEmpty(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	out := captureStdout(t)

	if err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear on missing dir: %v", err)
	}
	if !strings.Contains(out.String(), "Cache is empty") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCachePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", home)
	out := captureStdout(t)

	if err := execute(t, "cache", "path"); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.Join(home, appName) {
		t.Errorf("cache path = %q", got)
	}
}
