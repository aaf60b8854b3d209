package fieldparse

import (
	"math"
	"strconv"
	"strings"
)

const integralTolerance = 1e-12

// FormatNumber renders x as an integer when it is within 1e-12 of one,
// otherwise as its shortest decimal form.
func FormatNumber(x float64) string {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	rounded := math.Round(x)
	if math.Abs(x-rounded) < integralTolerance {
		if rounded == 0 {
			rounded = 0 // drop negative zero
		}
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}

	return strconv.FormatFloat(x, 'f', -1, 64)
}

// FormatNumbers joins numbers for display and canonical storage.
func FormatNumbers(values []float64) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, FormatNumber(v))
	}
	return strings.Join(parts, ", ")
}

// FormatOperators joins operator symbols for display and canonical storage.
func FormatOperators(ops []string) string {
	return strings.Join(ops, ", ")
}
