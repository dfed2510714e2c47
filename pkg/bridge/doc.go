// Package bridge runs planning pipeline stages inside a Lua session.
//
// The pipeline only understands nested Lua tables. This package keeps Go code
// away from raw Lua values: everything crossing the boundary is a [Value], a
// tagged variant with six shapes (null, bool, number, text, sequence,
// mapping). Tables whose keys are exactly 1..n become sequences; every other
// table becomes a mapping whose keys are numbers or text.
//
// # Sessions
//
// A [Session] owns one Lua state for the lifetime of one run. Nothing is shared
// between sessions, and [Session.Close] releases everything the run created.
//
//	s := bridge.Open(ctx, runLog)
//	defer s.Close()
//	s.AddSearchPath("/path/to/mod/?.lua")
//	if err := s.Require("planner", ""); err != nil { ... }
//	c := s.NewContext("planner_input_stage", input)
//	failure, err := s.CallStage("plan_plumbing", c, false)
//
// # Diagnostics
//
// Open installs the callbacks pipelines use for developer output:
//
//	log(value)                         -- also pumpdebug.log
//	pumpdebug.lap(value)               -- prefixed with elapsed run time
//	pumpdebug.sample_start()           -- returns an opaque tick
//	pumpdebug.sample_finish(key, tick) -- accumulates time and hits under key
//
// Logged tables are written recursively, one leaf per line, using a
// path-prefixed notation such as "[1][2]=value".
package bridge
