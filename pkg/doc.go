// Package pkg provides the libraries behind layouttester, a harness that
// runs Lua construction-planning pipelines against synthetic area fixtures.
//
// # Overview
//
// A fixture describes a rectangular area as a sparse grid of labelled
// cells. The harness hands it to a planning pipeline running in an embedded
// Lua interpreter, merges the planned entities back onto the grid and
// renders the result so a developer can inspect where each pipe, pole and
// beacon ended up.
//
// # Architecture
//
//	fixture file (.json, .json.gz, .json.zst)
//	         ↓
//	    [fixture] package (schema check, area → grid)
//	         ↓
//	    [bridge] package (Lua session, fixed planning stages)
//	         ↓
//	    [merge] package (planned entities → grid markers)
//	         ↓
//	    [render] package (SVG/PNG/PDF/JSON, pixel hit tests)
//
// [pipeline] orchestrates one run end to end and returns a [pipeline.Result]
// carrying the merged layout and the run's diagnostics. [scheduler] keeps at
// most one run in flight for interactive front ends, and [watch] re-triggers
// runs when pipeline sources change.
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/layouttester/pkg/cache"
//	    "github.com/matzehuels/layouttester/pkg/fixture"
//	    "github.com/matzehuels/layouttester/pkg/pipeline"
//	)
//
//	src, _ := fixture.Load("TestInputs/Oilfield1.json")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil)
//	res := runner.RunSource(context.Background(), src, pipeline.DefaultOptions())
//	if res.Failed() {
//	    fmt.Println(res.Diagnostics.Log)
//	}
//
// # Supporting Packages
//
// [grid] is the sparse world-coordinate grid shared by all stages.
// [config] reads layouttester.toml. [cache] stores converted renderings.
// [observability] exposes hooks for run, cache and HTTP metrics.
// [errors] classifies failures with stable codes.
//
// [fixture]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/fixture
// [bridge]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/bridge
// [merge]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/merge
// [render]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/pipeline
// [pipeline.Result]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/pipeline#Result
// [scheduler]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/scheduler
// [watch]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/watch
// [grid]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/grid
// [config]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/layouttester/pkg/errors
package pkg
