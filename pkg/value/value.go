// Package value normalizes loosely typed answers so that rules compare them consistently,
// whether they came from Go callers, JSON payloads or YAML definitions.
package value

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// Number converts numeric values to float64. Strings are not numbers here.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ParseNumber is Number plus numeric strings.
func ParseNumber(v any) (float64, bool) {
	if f, ok := Number(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// Bool accepts booleans and the strings yes/no/true/false in any case.
func Bool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "yes", "true":
			return true, true
		case "no", "false":
			return false, true
		}
	}
	return false, false
}

// List returns the elements of a slice or array value.
func List(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Empty reports whether v counts as unanswered: nil, a blank string, or an empty collection.
func Empty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Equal is structural equality with numbers compared by value and yes/no strings
// matching booleans.
func Equal(a, b any) bool {
	if x, ok := Number(a); ok {
		y, ok := Number(b)
		return ok && x == y
	}
	if _, ok := a.(bool); ok {
		y, ok := Bool(b)
		return ok && y == a.(bool)
	}
	if _, ok := b.(bool); ok {
		x, ok := Bool(a)
		return ok && x == b.(bool)
	}
	if _, ok := a.(string); !ok {
		if la, ok := List(a); ok {
			lb, ok := List(b)
			if !ok || len(la) != len(lb) {
				return false
			}
			for i := range la {
				if !Equal(la[i], lb[i]) {
					return false
				}
			}
			return true
		}
	}
	return reflect.DeepEqual(a, b)
}

// Contains reports substring membership for strings and element membership for lists.
func Contains(haystack, needle any) bool {
	if s, ok := haystack.(string); ok {
		n, ok := needle.(string)
		return ok && strings.Contains(s, n)
	}
	list, ok := List(haystack)
	if !ok {
		return false
	}
	for _, item := range list {
		if Equal(item, needle) {
			return true
		}
	}
	return false
}
