package observability

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of a Recorder's counters.
type Snapshot struct {
	Runs          int                      `json:"runs"`
	FailedRuns    int                      `json:"failed_runs"`
	LastRun       time.Duration            `json:"last_run_ns"`
	StageTime     map[string]time.Duration `json:"stage_time_ns"`
	StageFailures map[string]int           `json:"stage_failures"`
	CacheHits     int                      `json:"cache_hits"`
	CacheMisses   int                      `json:"cache_misses"`
	Requests      int                      `json:"requests"`
}

// Recorder accumulates counters from every hook category. It is safe for
// concurrent use and is what the inspection server exposes as statistics.
type Recorder struct {
	mu sync.Mutex
	s  Snapshot
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{s: Snapshot{
		StageTime:     map[string]time.Duration{},
		StageFailures: map[string]int{},
	}}
}

// Snapshot copies the current counters.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.s
	out.StageTime = maps.Clone(r.s.StageTime)
	out.StageFailures = maps.Clone(r.s.StageFailures)
	return out
}

func (r *Recorder) OnRunStart(context.Context, string) {}

func (r *Recorder) OnStageComplete(_ context.Context, _, stage string, d time.Duration, failed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.StageTime[stage] += d
	if failed || err != nil {
		r.s.StageFailures[stage]++
	}
}

func (r *Recorder) OnRunComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Runs++
	r.s.LastRun = d
	if err != nil {
		r.s.FailedRuns++
	}
}

func (r *Recorder) OnCacheHit(context.Context, string) {
	r.mu.Lock()
	r.s.CacheHits++
	r.mu.Unlock()
}

func (r *Recorder) OnCacheMiss(context.Context, string) {
	r.mu.Lock()
	r.s.CacheMisses++
	r.mu.Unlock()
}

func (r *Recorder) OnCacheSet(context.Context, string, int) {}

func (r *Recorder) OnRequest(context.Context, string, string) {
	r.mu.Lock()
	r.s.Requests++
	r.mu.Unlock()
}

func (r *Recorder) OnResponse(context.Context, string, string, int, time.Duration) {}

var (
	_ PipelineHooks = (*Recorder)(nil)
	_ CacheHooks    = (*Recorder)(nil)
	_ HTTPHooks     = (*Recorder)(nil)
)
