package service

import (
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTextReportsChanges(t *testing.T) {
	policy := bluemonday.StrictPolicy()

	cleaned, change := sanitizeText(policy, "  p-17  ", 8)
	require.Equal(t, "p-17", cleaned)
	require.False(t, change.changed())

	cleaned, change = sanitizeText(policy, "a < b & c", 0)
	require.Equal(t, "a < b & c", cleaned)
	require.False(t, change.changed())

	cleaned, change = sanitizeText(policy, "<b>bold</b>", 0)
	require.Equal(t, "bold", cleaned)
	require.True(t, change.MarkupRemoved)
	require.False(t, change.Truncated)

	cleaned, change = sanitizeText(policy, "éééééé", 4)
	require.Equal(t, "éééé", cleaned)
	require.True(t, change.Truncated)
	require.False(t, change.MarkupRemoved)
}

func TestParseAge(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want *int
		kept bool
	}{
		"blank":      {raw: "  ", kept: true},
		"digits":     {raw: " 42 ", want: intPtr(42), kept: true},
		"large":      {raw: "1500", want: intPtr(1500), kept: true},
		"signed":     {raw: "-3", kept: false},
		"decimal":    {raw: "21.5", kept: false},
		"words":      {raw: "twenty", kept: false},
		"unicode":    {raw: "٤٢", kept: false},
		"overflowed": {raw: "99999999999", kept: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, kept := parseAge(tc.raw)
			require.Equal(t, tc.kept, kept)
			require.Equal(t, tc.want, got)
		})
	}
}

func intPtr(v int) *int {
	return &v
}
