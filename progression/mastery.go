package progression

import "math"

const (
	DefaultMasteryBase   = 100
	DefaultMasteryGrowth = 1.2
	// MasteryBonusPerLevel is the XP bonus percentage earned per mastery level above 1.
	MasteryBonusPerLevel = 2.0

	maxMasteryLevel = 1000
)

// MasteryCurve is the geometric per-task levelling track.
type MasteryCurve struct {
	Base   int
	Growth float64
}

// MasteryInfo is the derived state of one task's mastery XP.
type MasteryInfo struct {
	Level              int     `json:"level"`
	XP                 int     `json:"xp"`
	XPIntoLevel        int     `json:"xp_into_level"`
	XPForNextLevel     int     `json:"xp_for_next_level"`
	ProgressPercentage float64 `json:"progress_percentage"`
	XPBonus            float64 `json:"xp_bonus"`
}

// DefaultMastery returns the curve with B=100 and g=1.2.
func DefaultMastery() MasteryCurve {
	return MasteryCurve{Base: DefaultMasteryBase, Growth: DefaultMasteryGrowth}
}

func (m MasteryCurve) normalized() MasteryCurve {
	if m.Base <= 0 {
		m.Base = DefaultMasteryBase
	}
	if m.Growth <= 1 {
		m.Growth = DefaultMasteryGrowth
	}
	return m
}

// Threshold is the XP needed to complete level (not cumulative).
func (m MasteryCurve) Threshold(level int) int {
	m = m.normalized()
	if level < 1 {
		level = 1
	}
	return int(math.Round(float64(m.Base) * math.Pow(m.Growth, float64(level-1))))
}

// Resolve walks the cumulative thresholds: level L holds while
// cum(L-1) <= xp < cum(L).
func (m MasteryCurve) Resolve(xp int) MasteryInfo {
	if xp < 0 {
		xp = 0
	}
	level, cum := 1, 0
	next := m.Threshold(level)
	for cum+next <= xp && level < maxMasteryLevel {
		cum += next
		level++
		next = m.Threshold(level)
	}
	into := xp - cum
	return MasteryInfo{
		Level:              level,
		XP:                 xp,
		XPIntoLevel:        into,
		XPForNextLevel:     next,
		ProgressPercentage: clampPercent(float64(into) / float64(next) * 100),
		XPBonus:            float64(level-1) * MasteryBonusPerLevel,
	}
}
