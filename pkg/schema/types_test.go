package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTypes(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		value   any
		wantErr bool
	}{
		{"String OK", String(), "hello", false},
		{"String Wrong", String(), 12, true},
		{"Number Int", Number(), 3, false},
		{"Number Float", Number(), 3.5, false},
		{"Number JSON", Number(), json.Number("7"), false},
		{"Number String", Number(), "7", true},
		{"Date OK", Date(), "2026-03-01", false},
		{"Date Time Value", Date(), time.Now(), false},
		{"Date Bad Format", Date(), "01/03/2026", true},
		{"DateTime OK", DateTime(), "2026-03-01T10:00:00Z", false},
		{"DateTime Date Only", DateTime(), "2026-03-01", true},
		{"Boolean True", Boolean(), true, false},
		{"Boolean Yes", Boolean(), "Yes", false},
		{"Boolean Maybe", Boolean(), "maybe", true},
		{"Choice OK", Choice("a", "b"), "b", false},
		{"Choice Numeric", Choice(1, 2), 2.0, false},
		{"Choice Missing", Choice("a", "b"), "c", true},
		{"Choices OK", Slice(Choice("a", "b")), []any{"a", "b"}, false},
		{"Choices Bad Item", Slice(Choice("a", "b")), []string{"a", "z"}, true},
		{"Choices Not List", Slice(Choice("a")), "a", true},
		{"File String", File(), "uploads/123", false},
		{"File Object", File(), map[string]any{"id": "f-1"}, false},
		{"File Empty Object", File(), map[string]any{"name": "x.pdf"}, true},
		{"Custom", Custom("never", func(any) error { return errTest }), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("%s.Validate(%v) error = %v, wantErr %v", tt.typ.Name(), tt.value, err, tt.wantErr)
			}
		})
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("rejected")

func TestSliceName(t *testing.T) {
	if got := Slice(String()).Name(); got != "[string]" {
		t.Errorf("Name() = %q", got)
	}
}
