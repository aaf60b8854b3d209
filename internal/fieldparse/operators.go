package fieldparse

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FloorDivide is the only two-character operator.
const FloorDivide = "//"

var allowedOperators = map[string]bool{
	"+":         true,
	"-":         true,
	"*":         true,
	"/":         true,
	FloorDivide: true,
	"%":         true,
	"^":         true,
}

// IsOperator reports whether op is one of the supported operator symbols.
func IsOperator(op string) bool {
	return allowedOperators[op]
}

// ParseOperators reads an operator list written with commas, whitespace or no
// delimiter at all ("+, -", "+ -", "+-"). The multiplication sign × is read
// as *. The result is deduplicated and keeps first-occurrence order.
func ParseOperators(text string) Result[[]string] {
	result := Result[[]string]{Value: []string{}}

	text = strings.ReplaceAll(strings.TrimSpace(text), "×", "*")
	if text == "" {
		return result
	}

	var parts []string
	if strings.Contains(text, ",") {
		parts = strings.Split(text, ",")
	} else {
		parts = strings.Fields(text)
	}

	var ops []string
	for _, part := range parts {
		token := stripSpace(part)
		if token == "" {
			continue
		}
		if IsOperator(token) {
			ops = append(ops, token)
			continue
		}
		ops = append(ops, result.scanOperators(token)...)
	}

	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		if seen[op] {
			result.warn(op, "duplicate operator dropped")
			continue
		}
		seen[op] = true
		result.Value = append(result.Value, op)
	}

	return result
}

// scanOperators walks a token that is not itself an operator, taking "//"
// greedily before single-character operators and discarding anything else.
func (r *Result[T]) scanOperators(token string) []string {
	var ops []string
	rest := token
	for rest != "" {
		if strings.HasPrefix(rest, FloorDivide) {
			ops = append(ops, FloorDivide)
			rest = rest[len(FloorDivide):]
			continue
		}

		ch, size := utf8.DecodeRuneInString(rest)
		if IsOperator(string(ch)) {
			ops = append(ops, string(ch))
		} else {
			r.warn(string(ch), "unrecognised operator character")
		}
		rest = rest[size:]
	}
	return ops
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
