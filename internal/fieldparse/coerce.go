package fieldparse

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedIndex is returned when a question index cannot be read as an integer.
var ErrMalformedIndex = errors.New("malformed question index")

// CoerceInt reads a JSON number or integer string, truncating fractional
// numbers toward zero. Anything else yields nil plus a warning.
func CoerceInt(raw json.RawMessage) Result[*int] {
	result := Result[*int]{}
	if isAbsent(raw) {
		return result
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		result.warn(string(raw), "invalid json")
		return result
	}

	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
			result.warn(string(raw), "integer out of range")
			return result
		}
		n := int(v)
		result.Value = &n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			result.warn(v, "not an integer")
			return result
		}
		result.Value = &n
	default:
		result.warn(string(raw), "not an integer")
	}

	return result
}

// CoerceFloat reads a JSON number or numeric string. Non-finite values and
// anything else yield nil plus a warning.
func CoerceFloat(raw json.RawMessage) Result[*float64] {
	result := Result[*float64]{}
	if isAbsent(raw) {
		return result
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		result.warn(string(raw), "invalid json")
		return result
	}

	var parsed float64
	switch v := value.(type) {
	case float64:
		parsed = v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			result.warn(v, "not a number")
			return result
		}
		parsed = f
	default:
		result.warn(string(raw), "not a number")
		return result
	}

	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		result.warn(string(raw), "non-finite number")
		return result
	}

	result.Value = &parsed
	return result
}

// CoerceIndex reads a question index. An absent index is -1, which no
// question bank contains.
func CoerceIndex(raw json.RawMessage) (int, error) {
	if isAbsent(raw) {
		return -1, nil
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, ErrMalformedIndex
	}

	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, ErrMalformedIndex
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, ErrMalformedIndex
		}
		return n, nil
	default:
		return 0, ErrMalformedIndex
	}
}

// CoerceText returns a JSON string as-is; other JSON values are kept in their
// raw encoded form. Absent or null yields nil.
func CoerceText(raw json.RawMessage) *string {
	if isAbsent(raw) {
		return nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return &text
	}

	compact := string(bytes.TrimSpace(raw))
	return &compact
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
