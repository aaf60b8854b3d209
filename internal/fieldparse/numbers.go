package fieldparse

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseNumbers extracts every signed, optionally decimal number in text, in
// left-to-right order. Anything between matches other than separators is
// reported as a warning.
func ParseNumbers(text string) Result[[]float64] {
	result := Result[[]float64]{Value: []float64{}}

	text = strings.TrimSpace(text)
	if text == "" {
		return result
	}

	cursor := 0
	for _, loc := range numberPattern.FindAllStringIndex(text, -1) {
		result.noteResidue(text[cursor:loc[0]])
		cursor = loc[1]

		token := text[loc[0]:loc[1]]
		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			result.warn(token, "not a number")
			continue
		}
		result.Value = append(result.Value, value)
	}
	result.noteResidue(text[cursor:])

	return result
}

func (r *Result[T]) noteResidue(gap string) {
	for _, token := range strings.FieldsFunc(gap, isSeparator) {
		r.warn(token, "non-numeric token skipped")
	}
}

func isSeparator(r rune) bool {
	switch r {
	case ',', ';', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
