// Package prefill builds the initial answers of a form from question defaults and
// external profile data (patient record, previous submissions).
package prefill

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/value"
)

// Initial returns the starting response map. A question's PrePopulationMapping is a
// dot path into profile ("patient.contact.phone", "medications.0.name"); a non-empty
// value found there wins over the question's DefaultValue. Section headers never get
// a value. profile may be a map or a struct.
func Initial(questions []domain.Question, profile any) map[string]any {
	out := make(map[string]any)
	for _, q := range questions {
		if q.Type == domain.QuestionSectionHeader {
			continue
		}
		if q.PrePopulationMapping != "" {
			if v, ok := Lookup(profile, q.PrePopulationMapping); ok && !value.Empty(v) {
				out[q.ID] = v
				continue
			}
		}
		if q.DefaultValue != nil {
			out[q.ID] = q.DefaultValue
		}
	}
	return out
}

// Lookup resolves a dot path inside nested maps, structs and slices.
func Lookup(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(current any, segment string) (any, bool) {
	if current == nil || segment == "" {
		return nil, false
	}
	if m, ok := current.(map[string]any); ok {
		v, found := m[segment]
		return v, found
	}

	rv := reflect.ValueOf(current)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		var m map[string]any
		if err := mapstructure.Decode(rv.Interface(), &m); err != nil {
			return nil, false
		}
		v, found := m[segment]
		return v, found
	}
	return nil, false
}
