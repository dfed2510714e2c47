package bridge

import (
	"cmp"
	"slices"
	"time"
)

// Sample is the accumulated timing of one sample key.
type Sample struct {
	Key   string
	Ticks int64
	Count int
}

// Duration converts the accumulated ticks to wall time.
func (s Sample) Duration() time.Duration { return time.Duration(s.Ticks) }

// Sampler accumulates (ticks, count) per key for one run.
// Ticks are nanoseconds since the run started.
type Sampler struct {
	samples map[string]*Sample
}

// NewSampler creates an empty sampler.
func NewSampler() *Sampler {
	return &Sampler{samples: make(map[string]*Sample)}
}

// Add records one hit of key lasting ticks.
func (s *Sampler) Add(key string, ticks int64) {
	sm, ok := s.samples[key]
	if !ok {
		sm = &Sample{Key: key}
		s.samples[key] = sm
	}
	sm.Ticks += ticks
	sm.Count++
}

// Get returns the sample recorded under key.
func (s *Sampler) Get(key string) (Sample, bool) {
	sm, ok := s.samples[key]
	if !ok {
		return Sample{}, false
	}
	return *sm, true
}

// Len returns the number of distinct keys.
func (s *Sampler) Len() int { return len(s.samples) }

// Sorted returns all samples, most expensive first. Equal costs sort by key.
func (s *Sampler) Sorted() []Sample {
	out := make([]Sample, 0, len(s.samples))
	for _, sm := range s.samples {
		out = append(out, *sm)
	}
	slices.SortFunc(out, func(a, b Sample) int {
		if c := cmp.Compare(b.Ticks, a.Ticks); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
