package bridge

import (
	"math"

	lua "github.com/yuin/gopher-lua"
)

// cycleText replaces a table that contains itself.
const cycleText = "<cycle>"

// FromLua converts a Lua value into a Value. Functions, userdata, threads
// and channels are carried as their Lua text form. Self-referencing tables
// are cut at the repeated table.
func FromLua(lv lua.LValue) Value {
	return fromLua(lv, map[*lua.LTable]bool{})
}

func fromLua(lv lua.LValue, path map[*lua.LTable]bool) Value {
	switch v := lv.(type) {
	case nil:
		return Null()
	case lua.LBool:
		return Bool(bool(v))
	case lua.LNumber:
		return Number(float64(v))
	case lua.LString:
		return Text(string(v))
	case *lua.LTable:
		if path[v] {
			return Text(cycleText)
		}
		path[v] = true
		defer delete(path, v)
		if n, ok := sequenceLen(v); ok {
			items := make([]Value, n)
			for i := range n {
				items[i] = fromLua(v.RawGetInt(i+1), path)
			}
			return Sequence(items...)
		}
		m := NewMapping()
		v.ForEach(func(k, val lua.LValue) {
			m.Set(fromLua(k, path), fromLua(val, path))
		})
		return Map(m)
	}
	if lv == lua.LNil {
		return Null()
	}
	return Text(lv.String())
}

// sequenceLen reports whether t's keys are exactly 1..n.
func sequenceLen(t *lua.LTable) (int, bool) {
	count := 0
	ok := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		n, isNum := k.(lua.LNumber)
		if !isNum {
			ok = false
			return
		}
		f := float64(n)
		if f != math.Trunc(f) || f < 1 {
			ok = false
		}
	})
	if !ok {
		return 0, false
	}
	// Integer keys >= 1 with count entries; make sure none exceeds count.
	for i := 1; i <= count; i++ {
		if t.RawGetInt(i) == lua.LNil {
			return 0, false
		}
	}
	return count, true
}

// ToLua converts a Value into a fresh Lua value owned by L.
func ToLua(L *lua.LState, v Value) lua.LValue {
	switch v.kind {
	case KindBool:
		return lua.LBool(v.b)
	case KindNumber:
		return lua.LNumber(v.n)
	case KindText:
		return lua.LString(v.s)
	case KindSequence:
		t := L.CreateTable(len(v.seq), 0)
		for i, item := range v.seq {
			t.RawSetInt(i+1, ToLua(L, item))
		}
		return t
	case KindMapping:
		t := L.CreateTable(0, v.m.Len())
		for _, e := range v.m.entries {
			t.RawSet(ToLua(L, e.Key), ToLua(L, e.Val))
		}
		return t
	}
	return lua.LNil
}
