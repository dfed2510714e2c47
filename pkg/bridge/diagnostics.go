package bridge

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// traceKeyword makes log() append the current Lua traceback.
const traceKeyword = "trace"

func (s *Session) installDiagnostics() {
	logFn := s.L.NewFunction(s.luaLog)
	s.L.SetGlobal("log", logFn)

	pd := s.L.NewTable()
	s.L.SetField(pd, "log", logFn)
	s.L.SetField(pd, "lap", s.L.NewFunction(s.luaLap))
	s.L.SetField(pd, "sample_start", s.L.NewFunction(s.luaSampleStart))
	s.L.SetField(pd, "sample_finish", s.L.NewFunction(s.luaSampleFinish))
	s.L.SetGlobal("pumpdebug", pd)
}

// log(value)
func (s *Session) luaLog(L *lua.LState) int {
	v := FromLua(L.Get(1))
	s.log.PrintValue(v)
	if text, ok := v.AsText(); ok && strings.EqualFold(text, traceKeyword) {
		if tb := s.traceback(); tb != "" {
			s.log.Println(tb)
		}
	}
	return 0
}

// pumpdebug.lap(value)
func (s *Session) luaLap(L *lua.LState) int {
	s.log.Printf("%dms -- %s", s.Elapsed().Milliseconds(), FromLua(L.Get(1)).String())
	return 0
}

// pumpdebug.sample_start() -> tick
func (s *Session) luaSampleStart(L *lua.LState) int {
	L.Push(lua.LNumber(s.ticks()))
	return 1
}

// pumpdebug.sample_finish(key, tick)
func (s *Session) luaSampleFinish(L *lua.LState) int {
	key := FromLua(L.Get(1)).String()
	start := int64(L.OptNumber(2, 0))
	s.samples.Add(key, s.ticks()-start)
	return 0
}

func (s *Session) traceback() string {
	dbg, ok := s.L.GetGlobal("debug").(*lua.LTable)
	if !ok {
		return ""
	}
	fn, ok := s.L.GetField(dbg, "traceback").(*lua.LFunction)
	if !ok {
		return ""
	}
	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return ""
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	return lua.LVAsString(ret)
}
