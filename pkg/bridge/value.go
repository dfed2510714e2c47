package bridge

import (
	"cmp"
	"slices"
	"strconv"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindSequence
	KindMapping
)

var kindNames = [...]string{"null", "bool", "number", "text", "sequence", "mapping"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a dynamic value exchanged with the scripting runtime.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	seq  []Value
	m    *Mapping
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Sequence wraps an ordered list.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, seq: items}
}

// Map wraps a mapping. A nil mapping is treated as empty.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsTable reports whether v is a sequence or a mapping.
func (v Value) IsTable() bool { return v.kind == KindSequence || v.kind == KindMapping }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsText returns the string held by v.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// Items returns the elements of a sequence, or nil.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// AsMapping returns the mapping held by v.
func (v Value) AsMapping() (*Mapping, bool) { return v.m, v.kind == KindMapping }

// Len returns the number of entries of a table value, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return v.m.Len()
	}
	return 0
}

// Entries returns the key/value pairs of a table regardless of its shape.
// Sequence elements are keyed by their 1-based position. Non-tables have no entries.
func (v Value) Entries() []Entry {
	switch v.kind {
	case KindSequence:
		out := make([]Entry, len(v.seq))
		for i, item := range v.seq {
			out[i] = Entry{Key: Number(float64(i + 1)), Val: item}
		}
		return out
	case KindMapping:
		return v.m.Entries()
	}
	return nil
}

// Field returns the value reached by following text keys through nested
// mappings. Any missing step yields null.
func (v Value) Field(path ...string) Value {
	cur := v
	for _, name := range path {
		m, ok := cur.AsMapping()
		if !ok {
			return Null()
		}
		cur = m.Get(Text(name))
	}
	return cur
}

// String renders a scalar the way the run log shows it. Tables render as "table".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	case KindText:
		return v.s
	}
	return "table"
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key Value
	Val Value
}

// mapKey is the comparable identity of a mapping key.
type mapKey struct {
	kind Kind
	n    float64
	s    string
	b    bool
}

func keyOf(v Value) mapKey {
	return mapKey{kind: v.kind, n: v.n, s: v.s, b: v.b}
}

// Mapping is a table with arbitrary scalar keys.
type Mapping struct {
	entries []Entry
	index   map[mapKey]int
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{index: make(map[mapKey]int)}
}

// Set stores val under key, replacing any previous value. Only scalar keys
// are meaningful; null keys are ignored.
func (m *Mapping) Set(key, val Value) *Mapping {
	if key.IsNull() || key.IsTable() {
		return m
	}
	k := keyOf(key)
	if i, ok := m.index[k]; ok {
		m.entries[i].Val = val
		return m
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Val: val})
	return m
}

// SetField stores val under a text key.
func (m *Mapping) SetField(name string, val Value) *Mapping {
	return m.Set(Text(name), val)
}

// Get returns the value stored under key, or null.
func (m *Mapping) Get(key Value) Value {
	if m == nil {
		return Null()
	}
	if i, ok := m.index[keyOf(key)]; ok {
		return m.entries[i].Val
	}
	return Null()
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the entries in a stable order: numeric keys ascending,
// then text keys, then booleans.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := slices.Clone(m.entries)
	slices.SortFunc(out, func(a, b Entry) int {
		if a.Key.kind != b.Key.kind {
			return cmp.Compare(keyRank(a.Key.kind), keyRank(b.Key.kind))
		}
		switch a.Key.kind {
		case KindNumber:
			return cmp.Compare(a.Key.n, b.Key.n)
		case KindText:
			return cmp.Compare(a.Key.s, b.Key.s)
		case KindBool:
			if a.Key.b == b.Key.b {
				return 0
			}
			if !a.Key.b {
				return -1
			}
			return 1
		}
		return 0
	})
	return out
}

func keyRank(k Kind) int {
	switch k {
	case KindNumber:
		return 0
	case KindText:
		return 1
	}
	return 2
}
