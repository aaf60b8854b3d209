package service

import "math"

// CorrectnessTolerance is the largest distance from the target that still
// counts as a correct result.
const CorrectnessTolerance = 1e-9

// IsCorrect reports whether a submitted result hits the target.
func IsCorrect(result *float64, target float64) bool {
	if result == nil {
		return false
	}
	return math.Abs(*result-target) < CorrectnessTolerance
}
