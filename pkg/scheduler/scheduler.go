// Package scheduler runs layout tests one at a time with latest-wins
// semantics.
//
// Refresh requests (a fixture pick, an option toggle, a pipeline file
// change) arrive faster than runs finish. The scheduler keeps a single
// pending slot: a new request replaces whatever is pending and cancels the
// run in flight. A run that was superseded before it finished is discarded,
// so subscribers only ever see the result of the newest request.
//
//	s := scheduler.New(runner.RunSource, logger)
//	go s.Run(ctx)
//	runs, stop := s.Subscribe()
//	defer stop()
//	s.Submit(scheduler.Request{Source: src, Options: opts})
//	run := <-runs
package scheduler

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/pipeline"
)

// Request is one run to perform.
type Request struct {
	Source  *fixture.Source
	Options pipeline.Options
}

// Fixture returns the name of the requested fixture.
func (r Request) Fixture() string {
	if r.Source == nil {
		return ""
	}
	return r.Source.Name
}

// RunFunc executes a request. It must return promptly once ctx is done.
type RunFunc func(ctx context.Context, src *fixture.Source, opts pipeline.Options) *pipeline.Result

// Run is a completed, non-superseded run.
type Run struct {
	ID       uuid.UUID
	Request  Request
	Result   *pipeline.Result
	Finished time.Time
}

// Stats counts what the scheduler did with its requests.
type Stats struct {
	Submitted int `json:"submitted"`
	Completed int `json:"completed"`
	Discarded int `json:"discarded"`
}

type pending struct {
	id  uuid.UUID
	req Request
}

// Scheduler serializes runs. The zero value is not usable; call [New].
type Scheduler struct {
	run    RunFunc
	logger *log.Logger
	wake   chan struct{}

	mu      sync.Mutex
	next    *pending
	last    *Request // most recent request, replayed by Refresh
	cancel  context.CancelFunc
	latest  *Run
	subs    map[int]chan *Run
	nextSub int
	stats   Stats
}

// New creates a scheduler. A nil logger discards log output.
func New(run RunFunc, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Scheduler{
		run:    run,
		logger: logger,
		wake:   make(chan struct{}, 1),
		subs:   make(map[int]chan *Run),
	}
}

// Submit queues req, replacing any pending request and cancelling the run
// in flight. It never blocks.
func (s *Scheduler) Submit(req Request) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.next = &pending{id: id, req: req}
	s.last = &req
	s.stats.Submitted++
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	s.logger.Debug("run requested", "id", id, "fixture", req.Fixture())
	return id
}

// Refresh resubmits the most recent request. It reports false when nothing
// was ever submitted.
func (s *Scheduler) Refresh() (uuid.UUID, bool) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return uuid.Nil, false
	}
	return s.Submit(*last), true
}

// Latest returns the newest completed run.
func (s *Scheduler) Latest() (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latest != nil
}

// Stats returns the request counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Subscribe returns a channel receiving every completed run. A slow
// subscriber only sees the newest run. Call the returned function to
// unsubscribe; it closes the channel.
func (s *Scheduler) Subscribe() (<-chan *Run, func()) {
	ch := make(chan *Run, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Run executes requests until ctx is done. Only one Run loop may be active.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		}

		s.mu.Lock()
		p := s.next
		s.next = nil
		if p == nil {
			s.mu.Unlock()
			continue
		}
		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.mu.Unlock()

		res := s.run(runCtx, p.req.Source, p.req.Options)
		cancel()

		s.mu.Lock()
		s.cancel = nil
		if s.next != nil || ctx.Err() != nil {
			s.stats.Discarded++
			s.mu.Unlock()
			s.logger.Debug("discarded superseded run", "id", p.id, "fixture", p.req.Fixture())
			continue
		}
		run := &Run{ID: p.id, Request: p.req, Result: res, Finished: time.Now()}
		s.latest = run
		s.stats.Completed++
		for _, ch := range s.subs {
			offer(ch, run)
		}
		s.mu.Unlock()
	}
}

// offer delivers r, replacing an unread older run.
func offer(ch chan *Run, r *Run) {
	for {
		select {
		case ch <- r:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
