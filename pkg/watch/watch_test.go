package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/layouttester/pkg/errors"
)

func TestDebouncedTrigger(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	fired := make(chan string, 8)
	w, err := New(dir, func(path string) { fired <- path }, Options{Debounce: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	path := filepath.Join(dir, "plumber.lua")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("return {}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case got := <-fired:
		if got != path {
			t.Errorf("trigger path = %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no trigger after writing a Lua file")
	}
	select {
	case got := <-fired:
		t.Errorf("burst triggered twice (second: %q)", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	fired := make(chan string, 1)
	w, err := New(dir, func(path string) { fired <- path }, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-fired:
		t.Errorf("non-Lua file triggered a refresh: %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchesSubdirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	fired := make(chan string, 1)
	w, err := New(dir, func(path string) { fired <- path }, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(sub, "math2d.lua"), []byte("return {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("change in a subdirectory was not seen")
	}
}

func TestStartMissingDir(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(filepath.Join(t.TempDir(), "nope"), func(string) {}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); !errors.Is(err, errors.ErrCodeEnvironment) {
		t.Errorf("Start() = %v, want ENVIRONMENT", err)
	}
}

func TestBadPattern(t *testing.T) {
	if _, err := New(t.TempDir(), func(string) {}, Options{Pattern: "["}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("New() = %v, want INVALID_CONFIG", err)
	}
}
