package service

import (
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	accessCodeMaxLength = 128
	genderMaxLength     = 64
)

// textChange records how sanitising altered a submitted value.
type textChange struct {
	MarkupRemoved bool
	Truncated     bool
}

func (c textChange) changed() bool {
	return c.MarkupRemoved || c.Truncated
}

// sanitizeText strips markup from free text and caps it at limit runes. A
// limit of zero leaves the length alone. Surrounding whitespace is trimmed
// without counting as a change.
func sanitizeText(policy *bluemonday.Policy, value string, limit int) (string, textChange) {
	trimmed := strings.TrimSpace(value)
	cleaned := strings.TrimSpace(html.UnescapeString(policy.Sanitize(trimmed)))

	change := textChange{MarkupRemoved: cleaned != trimmed}
	if limit > 0 && utf8.RuneCountInString(cleaned) > limit {
		cleaned = string([]rune(cleaned)[:limit])
		change.Truncated = true
	}
	return cleaned, change
}

func cleanText(policy *bluemonday.Policy, value string, limit int) string {
	cleaned, _ := sanitizeText(policy, value, limit)
	return cleaned
}

// parseAge accepts ASCII digits only; anything else is unknown. The second
// result is false when a non-empty value had to be discarded.
func parseAge(raw string) (*int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}

	for _, r := range raw {
		if r < '0' || r > '9' {
			return nil, false
		}
	}

	// Digits only, so the one remaining failure is overflow.
	age, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, false
	}
	value := int(age)
	return &value, true
}
