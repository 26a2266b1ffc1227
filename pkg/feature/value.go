package feature

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Unlimited indicates no limit for a countable feature (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Kind discriminates the three value shapes a plan feature can take.
type Kind string

const (
	KindFlag  Kind = "flag"  // boolean capability toggle
	KindLimit Kind = "limit" // integer quantity limit, Unlimited (-1) for no cap
	KindGroup Kind = "group" // nested sub-features with their own values
)

// Value is a plan feature value: a boolean flag, an integer limit, or a group
// of nested sub-features. Plans define their feature maps freely, so consumers
// must check key existence and kind defensively rather than assume a schema.
//
// The zero Value is a disabled flag.
type Value struct {
	kind  Kind
	flag  bool
	limit int64
	group map[string]Value
}

// Flag returns a boolean feature value.
func Flag(enabled bool) Value {
	return Value{kind: KindFlag, flag: enabled}
}

// Limit returns a countable feature value. Pass Unlimited for no cap.
func Limit(n int64) Value {
	return Value{kind: KindLimit, limit: n}
}

// Group returns a nested feature value grouping named sub-features.
func Group(features map[string]Value) Value {
	return Value{kind: KindGroup, group: features}
}

// Kind returns the value's shape discriminator.
// The zero Value reports KindFlag.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindFlag
	}
	return v.kind
}

// Enabled reports the feature's truthiness: a set flag, a non-zero limit
// (Unlimited counts as enabled), or a non-empty group.
func (v Value) Enabled() bool {
	switch v.Kind() {
	case KindLimit:
		return v.limit != 0
	case KindGroup:
		return len(v.group) > 0
	default:
		return v.flag
	}
}

// Allows reports whether a requested quantity n fits the feature. Limits
// permit n when unlimited or n <= limit; flags and groups fall back to
// Enabled because they carry no quantity semantics.
func (v Value) Allows(n int64) bool {
	if v.Kind() != KindLimit {
		return v.Enabled()
	}
	if v.limit == Unlimited {
		return true
	}
	return n <= v.limit
}

// LimitValue returns the stored limit and whether the value is a limit at all.
func (v Value) LimitValue() (int64, bool) {
	if v.Kind() != KindLimit {
		return 0, false
	}
	return v.limit, true
}

// Bool returns the stored flag and whether the value is a flag.
func (v Value) Bool() (bool, bool) {
	if v.Kind() != KindFlag {
		return false, false
	}
	return v.flag, true
}

// Sub returns a named sub-feature of a group value.
func (v Value) Sub(name string) (Value, bool) {
	if v.Kind() != KindGroup {
		return Value{}, false
	}
	sub, ok := v.group[name]
	return sub, ok
}

// MarshalJSON encodes the value in its wire shape: bool, integer, or object.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindLimit:
		return json.Marshal(v.limit)
	case KindGroup:
		return json.Marshal(v.group)
	default:
		return json.Marshal(v.flag)
	}
}

// UnmarshalJSON decodes booleans into flags, integers into limits, and
// objects into groups. Fractional numbers, strings, arrays and null are
// rejected so malformed plan rows fail loudly instead of gating silently.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytesReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML plan catalogs.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := node.Decode(&b); err == nil {
			*v = Flag(b)
			return nil
		}
		var n int64
		if err := node.Decode(&n); err == nil {
			*v = Limit(n)
			return nil
		}
		return fmt.Errorf("%w: scalar %q", ErrInvalidValue, node.Value)
	case yaml.MappingNode:
		group := make(map[string]Value)
		if err := node.Decode(&group); err != nil {
			return err
		}
		*v = Group(group)
		return nil
	default:
		return fmt.Errorf("%w: unsupported yaml node", ErrInvalidValue)
	}
}

func fromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case bool:
		return Flag(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: non-integer number %q", ErrInvalidValue, t.String())
		}
		return Limit(n), nil
	case float64:
		if t != math.Trunc(t) {
			return Value{}, fmt.Errorf("%w: non-integer number %v", ErrInvalidValue, t)
		}
		return Limit(int64(t)), nil
	case map[string]any:
		group := make(map[string]Value, len(t))
		for name, sub := range t {
			val, err := fromAny(sub)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", name, err)
			}
			group[name] = val
		}
		return Group(group), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, raw)
	}
}
