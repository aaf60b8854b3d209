// Package fieldparse turns loosely formatted spreadsheet and form text into
// typed values. Parsing is lenient: bad input is dropped, never fatal, and
// every dropped piece is reported as a Warning so callers can audit it.
package fieldparse

// Warning describes a piece of input that was discarded or replaced.
type Warning struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// Result carries a leniently parsed value together with what was discarded.
type Result[T any] struct {
	Value    T
	Warnings []Warning
}

// Clean reports whether parsing discarded nothing.
func (r Result[T]) Clean() bool {
	return len(r.Warnings) == 0
}

func (r *Result[T]) warn(input, reason string) {
	r.Warnings = append(r.Warnings, Warning{Input: input, Reason: reason})
}
