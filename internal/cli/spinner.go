package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/layouttester/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// runSpinner animates a status line while a fixture runs. It receives the
// runner's stage events so the line names the last finished stage, and
// forwards every event to the hooks that were registered before it.
type runSpinner struct {
	w       io.Writer
	fixture string
	next    observability.PipelineHooks
	start   time.Time

	mu     sync.Mutex
	status string
	width  int // widest line written, for clearing

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newRunSpinner(w io.Writer, fixture string, next observability.PipelineHooks) *runSpinner {
	return &runSpinner{
		w:       w,
		fixture: fixture,
		next:    next,
		status:  "starting",
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start draws the spinner until Stop is called or ctx is done.
func (s *runSpinner) Start(ctx context.Context) {
	s.start = time.Now()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// Stop ends the animation and clears the line. It is safe to call twice.
func (s *runSpinner) Stop() {
	s.once.Do(func() {
		close(s.done)
		<-s.stopped
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.width > 0 {
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		}
	})
}

// Line is the status text without the animation frame.
func (s *runSpinner) Line() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.line()
}

func (s *runSpinner) line() string {
	elapsed := time.Since(s.start).Round(100 * time.Millisecond)
	return fmt.Sprintf("Running %s · %s · %s", s.fixture, s.status, elapsed)
}

func (s *runSpinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.line()
	s.width = max(s.width, len([]rune(text))+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(text))
}

func (s *runSpinner) OnRunStart(ctx context.Context, fixture string) {
	s.next.OnRunStart(ctx, fixture)
}

func (s *runSpinner) OnStageComplete(ctx context.Context, fixture, stage string, d time.Duration, failed bool, err error) {
	s.mu.Lock()
	switch {
	case err != nil:
		s.status = stage + " faulted"
	case failed:
		s.status = stage + " failed"
	default:
		s.status = stage + " done"
	}
	s.mu.Unlock()
	s.next.OnStageComplete(ctx, fixture, stage, d, failed, err)
}

func (s *runSpinner) OnRunComplete(ctx context.Context, fixture string, planned int, d time.Duration, err error) {
	s.mu.Lock()
	s.status = fmt.Sprintf("%d planned", planned)
	s.mu.Unlock()
	s.next.OnRunComplete(ctx, fixture, planned, d, err)
}
