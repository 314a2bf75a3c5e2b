package progression

import "math"

// MaxPhase is the highest intensity phase.
const MaxPhase = 4

// DefaultThresholds partition a record value into phases when a task does
// not carry its own.
var DefaultThresholds = []float64{5, 10, 15, 20}

// phasePercent is the share of the base reward paid per phase.
var phasePercent = [MaxPhase + 1]float64{0, 0.25, 0.50, 0.75, 1.00}

// Classify maps a value to an intensity phase 0..4. Custom thresholds are
// honoured only when exactly four are supplied.
func Classify(value float64, thresholds []float64) int {
	if math.IsNaN(value) || value <= 0 {
		return 0
	}
	if len(thresholds) != MaxPhase {
		thresholds = DefaultThresholds
	}
	for i, t := range thresholds {
		if value <= t {
			return i + 1
		}
	}
	return MaxPhase
}

// ValidThresholds reports whether t is usable as a task's custom
// thresholds: empty, or four positive strictly ascending values.
func ValidThresholds(t []float64) bool {
	if len(t) == 0 {
		return true
	}
	if len(t) != MaxPhase {
		return false
	}
	for i, v := range t {
		if v <= 0 || math.IsNaN(v) {
			return false
		}
		if i > 0 && v <= t[i-1] {
			return false
		}
	}
	return true
}
