package feature

import (
	"bytes"
	"io"
	"maps"
)

// Map is a plan's named feature set. The shape is plan-defined: keys and
// value kinds vary between plans, so lookups return an explicit ok flag.
type Map map[string]Value

// Get returns the named feature value. Missing keys return the zero Value
// (a disabled flag) and false.
func (m Map) Get(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Enabled reports whether the named feature exists and is truthy.
func (m Map) Enabled(name string) bool {
	v, ok := m[name]
	return ok && v.Enabled()
}

// Clone returns a shallow copy of the map. Group values share their nested
// maps; treat values as immutable.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
