package pipeline

import (
	"time"

	"github.com/matzehuels/layouttester/pkg/bridge"
	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/grid"
)

// Result is the outcome of one run.
type Result struct {
	// Fixture is the name of the fixture the run used.
	Fixture string

	// Layout is the merged grid with its footprints. It is nil when the run failed.
	Layout *grid.LayoutResult

	// Diagnostics is always populated, whether the run succeeded or not.
	Diagnostics Diagnostics

	// Stats contains timing information.
	Stats Stats
}

// Failed reports whether the run ended without a layout.
func (r *Result) Failed() bool {
	return r.Diagnostics.Err != nil
}

func (r *Result) fail(err error) {
	r.Layout = nil
	r.Diagnostics.Err = err
	r.Diagnostics.Code = errors.GetCode(err)
	if r.Diagnostics.Code == "" {
		r.Diagnostics.Code = errors.ErrCodeInternal
	}
}

// Diagnostics is everything a run reports besides its layout.
type Diagnostics struct {
	// Log is the run's text log.
	Log *bridge.Log

	// Code classifies Err. Empty on success.
	Code errors.Code

	// Err is the fatal error that ended the run, nil on success.
	Err error

	// StageFailures are the failure values stages reported. Non-fatal.
	StageFailures []StageFailure

	// Warnings are the rendered entries of the context's warnings list.
	Warnings []string

	// OutOfBounds holds one OUT_OF_BOUNDS error per skipped record.
	OutOfBounds []error

	// Samples are the pipeline's timing samples, most expensive first.
	Samples []bridge.Sample
}

// StageFailure is a failure value reported by a stage.
type StageFailure struct {
	Stage string
	Value bridge.Value
}

func (f StageFailure) Error() string {
	return "stage " + f.Stage + " failed: " + f.Value.String()
}

// ErrorCode implements errors.Coder.
func (f StageFailure) ErrorCode() errors.Code { return errors.ErrCodeStageFailure }

// Stats contains run execution statistics.
type Stats struct {
	Started  time.Time
	Duration time.Duration
	Stages   []StageTiming
	Planned  int
	Cells    int
}

// StageTiming is the wall time of one planning stage.
type StageTiming struct {
	Label    string
	Duration time.Duration
	Skipped  bool
}
