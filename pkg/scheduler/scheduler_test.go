package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/pipeline"
)

func request(name string) Request {
	return Request{Source: &fixture.Source{Name: name}}
}

// recordingRun reports each started fixture and blocks "slow" runs until
// they are cancelled.
func recordingRun(started chan<- string) RunFunc {
	return func(ctx context.Context, src *fixture.Source, _ pipeline.Options) *pipeline.Result {
		started <- src.Name
		if src.Name == "slow" {
			<-ctx.Done()
		}
		return &pipeline.Result{Fixture: src.Name}
	}
}

func startLoop(t *testing.T, s *Scheduler) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() = %v", err)
		}
	}
}

func receive(t *testing.T, runs <-chan *Run) *Run {
	t.Helper()
	select {
	case r := <-runs:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a run")
		return nil
	}
}

func TestSupersededRunIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan string, 4)
	s := New(recordingRun(started), nil)
	runs, unsubscribe := s.Subscribe()
	defer unsubscribe()
	stop := startLoop(t, s)
	defer stop()

	s.Submit(request("slow"))
	if got := <-started; got != "slow" {
		t.Fatalf("started %q, want slow", got)
	}
	id := s.Submit(request("fast"))

	run := receive(t, runs)
	if run.Request.Fixture() != "fast" || run.ID != id {
		t.Errorf("received %s (%s), want fast (%s)", run.Request.Fixture(), run.ID, id)
	}
	if latest, ok := s.Latest(); !ok || latest != run {
		t.Errorf("Latest() = %v, %v", latest, ok)
	}
	if got, want := s.Stats(), (Stats{Submitted: 2, Completed: 1, Discarded: 1}); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestPendingRequestsCoalesce(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan string, 4)
	s := New(recordingRun(started), nil)
	for _, name := range []string{"a", "b", "c"} {
		s.Submit(request(name))
	}
	runs, unsubscribe := s.Subscribe()
	defer unsubscribe()
	stop := startLoop(t, s)
	defer stop()

	if run := receive(t, runs); run.Request.Fixture() != "c" {
		t.Errorf("ran %q, want c", run.Request.Fixture())
	}
	if len(started) != 1 {
		t.Errorf("%d runs started, want 1", len(started))
	}
}

func TestRefreshReplaysLastRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan string, 4)
	s := New(recordingRun(started), nil)
	if _, ok := s.Refresh(); ok {
		t.Error("Refresh() with no request should report false")
	}

	runs, unsubscribe := s.Subscribe()
	defer unsubscribe()
	stop := startLoop(t, s)
	defer stop()

	first := s.Submit(request("square"))
	receive(t, runs)
	second, ok := s.Refresh()
	if !ok || second == first {
		t.Fatalf("Refresh() = %s, %v", second, ok)
	}
	if run := receive(t, runs); run.ID != second || run.Request.Fixture() != "square" {
		t.Errorf("refresh ran %s (%s)", run.Request.Fixture(), run.ID)
	}
}

func TestSlowSubscriberSeesNewest(t *testing.T) {
	ch := make(chan *Run, 1)
	older, newer := &Run{}, &Run{}
	offer(ch, older)
	offer(ch, newer)
	if got := <-ch; got != newer {
		t.Error("slow subscriber received a stale run")
	}
}

func TestUnsubscribeCloses(t *testing.T) {
	s := New(recordingRun(make(chan string, 1)), nil)
	runs, unsubscribe := s.Subscribe()
	unsubscribe()
	unsubscribe()
	if _, ok := <-runs; ok {
		t.Error("channel still open after unsubscribe")
	}
}
