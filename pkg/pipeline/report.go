package pipeline

import (
	"time"

	"github.com/matzehuels/layouttester/pkg/bridge"
	"github.com/matzehuels/layouttester/pkg/errors"
)

const (
	reportRule           = "---"
	resultRule           = "---------------"
	nothingPlanned       = "Nothing was planned"
	visualizationFailure = "failed while building the visualization"
)

// writeTimings logs the stage timings and the pipeline's samples.
func writeTimings(l *bridge.Log, stats Stats, samples []bridge.Sample) {
	l.Println(reportRule)
	for _, st := range stats.Stages {
		// Stages switched off by a toggle still get a line, at 0ms.
		l.Printf("'%s' took %dms", st.Label, st.Duration.Milliseconds())
	}
	l.Println(reportRule)
	for _, s := range samples {
		l.Printf("%dms | %d samples | %s", s.Duration().Milliseconds(), s.Count, s.Key)
	}
}

// writeFailures logs every stage failure value.
func writeFailures(l *bridge.Log, failures []StageFailure) {
	for _, f := range failures {
		l.Printf("'%s' reported a failure:", f.Stage)
		l.PrintValue(f.Value)
	}
}

// writeWarnings logs the context's warnings and returns their renderings.
func writeWarnings(l *bridge.Log, warnings bridge.Value) []string {
	if warnings.IsNull() {
		return nil
	}
	items := []bridge.Value{warnings}
	if warnings.IsTable() {
		items = items[:0]
		for _, e := range warnings.Entries() {
			items = append(items, e.Val)
		}
	}
	out := make([]string, 0, len(items))
	for _, w := range items {
		l.PrintValue(w)
		out = append(out, bridge.Render(w))
	}
	return out
}

// writePlan logs the construction plan under a Result banner.
func writePlan(l *bridge.Log, plan bridge.Value) {
	l.Println(resultRule)
	l.Println("Result")
	l.Println(resultRule)
	if plan.Len() == 0 {
		l.Println(nothingPlanned)
	} else {
		l.PrintValue(plan)
	}
	l.Println(time.Now().Format(time.DateTime))
}

// writeFault logs a fatal error. Script faults are logged with their
// traceback; conflicts verbatim; everything else under the generic
// visualization failure banner.
func writeFault(l *bridge.Log, err error) {
	var fault *bridge.ScriptFault
	switch {
	case errors.As(err, &fault):
		l.Println(fault.Error())
		if fault.Traceback != "" {
			l.Println(fault.Traceback)
		}
	case errors.Is(err, errors.ErrCodeConflict):
		l.Println(err.Error())
	case errors.Is(err, errors.ErrCodeEnvironment), errors.Is(err, errors.ErrCodeInvalidConfig):
		l.Println(errors.UserMessage(err))
	default:
		l.Println(visualizationFailure)
		l.Println(err.Error())
	}
}
