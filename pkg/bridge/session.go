package bridge

import (
	"context"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	lterrors "github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/grid"
)

// Session is one isolated Lua state. A Session is not safe for concurrent use.
type Session struct {
	L       *lua.LState
	ctx     context.Context
	log     *Log
	samples *Sampler
	start   time.Time
}

// Open creates a fresh Lua state with the standard libraries, the defines
// table and the diagnostic callbacks installed. When ctx carries a deadline
// or can be cancelled, running scripts are interrupted once it is done.
// A nil log discards nothing: a private log is created instead.
func Open(ctx context.Context, log *Log) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = NewLog(nil)
	}
	s := &Session{
		L:       lua.NewState(),
		ctx:     ctx,
		log:     log,
		samples: NewSampler(),
		start:   time.Now(),
	}
	if ctx.Done() != nil {
		s.L.SetContext(ctx)
	}
	s.installDefines()
	s.installDiagnostics()
	return s
}

// Close releases the Lua state. It is safe to call more than once.
func (s *Session) Close() {
	if s.L != nil {
		s.L.Close()
		s.L = nil
	}
}

// Log returns the run log callbacks write to.
func (s *Session) Log() *Log { return s.log }

// Samples returns the sample accumulator fed by pumpdebug.sample_finish.
func (s *Session) Samples() *Sampler { return s.samples }

// Elapsed returns the time since the session was opened.
func (s *Session) Elapsed() time.Duration { return time.Since(s.start) }

func (s *Session) ticks() int64 { return int64(s.Elapsed()) }

// AddSearchPath appends module search patterns such as "/x/mod/?.lua" to
// package.path.
func (s *Session) AddSearchPath(patterns ...string) {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok || len(patterns) == 0 {
		return
	}
	path := lua.LVAsString(s.L.GetField(pkg, "path"))
	parts := []string{}
	if path != "" {
		parts = append(parts, path)
	}
	parts = append(parts, patterns...)
	s.L.SetField(pkg, "path", lua.LString(strings.Join(parts, ";")))
}

// SearchPath returns the current package.path.
func (s *Session) SearchPath() string {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return ""
	}
	return lua.LVAsString(s.L.GetField(pkg, "path"))
}

// Require loads module name. When global is non-empty the module's return
// value is also bound to that global.
func (s *Session) Require(name, global string) error {
	req := s.L.GetGlobal("require")
	if err := s.L.CallByParam(lua.P{Fn: req, NRet: 1, Protect: true}, lua.LString(name)); err != nil {
		return newFault(s.ctx, "require "+name, err)
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	if global != "" {
		s.L.SetGlobal(global, ret)
	}
	return nil
}

// Exec runs a chunk of Lua source.
func (s *Session) Exec(chunk string) error {
	if err := s.L.DoString(chunk); err != nil {
		return newFault(s.ctx, "", err)
	}
	return nil
}

// Global returns a copy of a global variable.
func (s *Session) Global(name string) Value {
	return FromLua(s.L.GetGlobal(name))
}

// SetGlobal binds a copy of v to a global variable.
func (s *Session) SetGlobal(name string, v Value) {
	s.L.SetGlobal(name, ToLua(s.L, v))
}

// Lookup resolves a dotted path such as "heater.plan_heat_pipes" starting
// at the globals.
func (s *Session) Lookup(path string) Value {
	return FromLua(s.lookup(path))
}

func (s *Session) lookup(path string) lua.LValue {
	names := strings.Split(path, ".")
	cur := s.L.GetGlobal(names[0])
	for _, name := range names[1:] {
		t, ok := cur.(*lua.LTable)
		if !ok {
			return lua.LNil
		}
		cur = s.L.GetField(t, name)
	}
	return cur
}

// Context is the shared table threaded through every pipeline stage.
// Stages mutate it in place.
type Context struct {
	Name  string
	table *lua.LTable
}

// NewContext converts v into a table and binds it to the global name.
func (s *Session) NewContext(name string, v Value) *Context {
	t, ok := ToLua(s.L, v).(*lua.LTable)
	if !ok {
		t = s.L.NewTable()
	}
	s.L.SetGlobal(name, t)
	return &Context{Name: name, table: t}
}

// Get returns a copy of one field of the context.
func (c *Context) Get(field string) Value {
	return FromLua(c.table.RawGetString(field))
}

// Value returns a copy of the whole context.
func (c *Context) Value() Value {
	return FromLua(c.table)
}

// CallStage invokes the function at entry with the context as its first
// argument, optionally followed by an explicit nil. The reported failure is
// the stage's return value, or the context's "failure" field when the stage
// returned nothing. Errors raised inside the stage are returned as
// *ScriptFault.
func (s *Session) CallStage(entry string, c *Context, extraNil bool) (Value, error) {
	fn, ok := s.lookup(entry).(*lua.LFunction)
	if !ok {
		return Null(), &ScriptFault{
			Entry:   entry,
			Message: "entry point is not a function",
			Cause:   lterrors.New(lterrors.ErrCodeScriptFault, "%s is not a function", entry),
		}
	}
	args := []lua.LValue{c.table}
	if extraNil {
		args = append(args, lua.LNil)
	}
	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return Null(), newFault(s.ctx, entry, err)
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	failure := FromLua(ret)
	if failure.IsNull() {
		failure = c.Get("failure")
	}
	return failure, nil
}

func (s *Session) installDefines() {
	dirs := s.L.NewTable()
	for i, name := range grid.DirectionNames() {
		s.L.SetField(dirs, name, lua.LNumber(i))
	}
	defines := s.L.NewTable()
	s.L.SetField(defines, "direction", dirs)
	s.L.SetGlobal("defines", defines)
}
