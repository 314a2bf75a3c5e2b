package progression

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var defaultCurveYAML []byte

// LevelEntry is one row of the global level curve.
type LevelEntry struct {
	Level      int `yaml:"level" json:"level"`
	XPRequired int `yaml:"xp_required" json:"xp_required"`
	BaseLowXP  int `yaml:"base_low_xp" json:"base_low_xp"`
	BaseHighXP int `yaml:"base_high_xp" json:"base_high_xp"`
}

// Tier groups a consecutive range of levels.
type Tier struct {
	Name     string `yaml:"name" json:"name"`
	Group    string `yaml:"group" json:"group"`
	MinLevel int    `yaml:"min_level" json:"min_level"`
	MaxLevel int    `yaml:"max_level" json:"max_level"`
}

// Curve is the static level table plus the tier ranges layered over it.
type Curve struct {
	Levels []LevelEntry `yaml:"levels" json:"levels"`
	Tiers  []Tier       `yaml:"tiers" json:"tiers"`
}

// LevelInfo is the derived view of a cumulative XP total. The next-level
// fields are nil at the maximum level.
type LevelInfo struct {
	CurrentLevel          int     `json:"current_level"`
	LevelName             string  `json:"level_name"`
	TierName              string  `json:"tier_name"`
	TierGroup             string  `json:"tier_group"`
	ProgressPercentage    float64 `json:"progress_percentage"`
	ValueTowardsNextLevel *int    `json:"value_towards_next_level"`
	PointsForNextLevel    *int    `json:"points_for_next_level"`
	TotalAccumulatedValue int     `json:"total_accumulated_value"`
	IsMaxLevel            bool    `json:"is_max_level"`
}

var (
	errLevelsUnordered = errors.New("level curve: levels must be consecutive starting at 1")
	errXPNotIncreasing = errors.New("level curve: xp_required must be strictly increasing")
	errTierOverlap     = errors.New("level curve: tier ranges overlap")
)

// DefaultCurve returns the embedded level curve. It panics if the embedded
// document is malformed, which would be a build defect.
func DefaultCurve() *Curve {
	c, err := ParseCurve(defaultCurveYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCurve reads a curve from path, falling back to the embedded table
// when path is empty.
func LoadCurve(path string) (*Curve, error) {
	if path == "" {
		return DefaultCurve(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level curve: %w", err)
	}
	return ParseCurve(data)
}

// ParseCurve decodes and validates a YAML level curve.
func ParseCurve(data []byte) (*Curve, error) {
	var c Curve
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse level curve: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the ordering invariants of the table. An empty curve is valid.
func (c *Curve) Validate() error {
	for i, e := range c.Levels {
		if e.Level != i+1 {
			return errLevelsUnordered
		}
		if i == 0 && e.XPRequired != 0 {
			return fmt.Errorf("level curve: level 1 must start at 0 xp, got %d", e.XPRequired)
		}
		if i > 0 && e.XPRequired <= c.Levels[i-1].XPRequired {
			return errXPNotIncreasing
		}
	}
	tiers := append([]Tier(nil), c.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinLevel < tiers[j].MinLevel })
	for i, t := range tiers {
		if t.MaxLevel < t.MinLevel {
			return fmt.Errorf("level curve: tier %q has an empty range", t.Name)
		}
		if i > 0 && t.MinLevel <= tiers[i-1].MaxLevel {
			return errTierOverlap
		}
	}
	return nil
}

// MaxLevel is the highest defined level, or 1 for an empty curve.
func (c *Curve) MaxLevel() int {
	if c == nil || len(c.Levels) == 0 {
		return 1
	}
	return c.Levels[len(c.Levels)-1].Level
}

// Entry returns the row for level, clamped into the defined range.
func (c *Curve) Entry(level int) (LevelEntry, bool) {
	if c == nil || len(c.Levels) == 0 {
		return LevelEntry{}, false
	}
	if level < 1 {
		level = 1
	}
	if level > len(c.Levels) {
		level = len(c.Levels)
	}
	return c.Levels[level-1], true
}

// LevelFor returns the highest level whose threshold is at or below xp.
func (c *Curve) LevelFor(xp int) int {
	if c == nil || len(c.Levels) == 0 {
		return 1
	}
	// first index whose threshold exceeds xp
	idx := sort.Search(len(c.Levels), func(i int) bool { return c.Levels[i].XPRequired > xp })
	if idx == 0 {
		return 1
	}
	return c.Levels[idx-1].Level
}

// TierFor returns the tier containing level.
func (c *Curve) TierFor(level int) (Tier, bool) {
	if c == nil {
		return Tier{}, false
	}
	for _, t := range c.Tiers {
		if level >= t.MinLevel && level <= t.MaxLevel {
			return t, true
		}
	}
	return Tier{}, false
}

// Resolve derives the level, tier and progress for a cumulative XP total.
func (c *Curve) Resolve(xp int) LevelInfo {
	if xp < 0 {
		xp = 0
	}
	level := c.LevelFor(xp)
	info := LevelInfo{
		CurrentLevel:          level,
		LevelName:             c.levelName(level),
		TotalAccumulatedValue: xp,
	}
	if t, ok := c.TierFor(level); ok {
		info.TierName = t.Name
		info.TierGroup = t.Group
	}

	if level >= c.MaxLevel() {
		info.IsMaxLevel = true
		info.ProgressPercentage = 100
		return info
	}

	start := c.Levels[level-1].XPRequired
	next := c.Levels[level].XPRequired
	towards := xp - start
	span := next - start
	info.ValueTowardsNextLevel = &towards
	info.PointsForNextLevel = &span
	info.ProgressPercentage = clampPercent(float64(towards) / float64(span) * 100)
	return info
}

func (c *Curve) levelName(level int) string {
	t, ok := c.TierFor(level)
	if !ok {
		return fmt.Sprintf("Level %d", level)
	}
	return t.Name + " " + roman(level-t.MinLevel+1)
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func roman(n int) string {
	numerals := []struct {
		v int
		s string
	}{{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"}}
	out := ""
	for _, r := range numerals {
		for n >= r.v {
			out += r.s
			n -= r.v
		}
	}
	return out
}
