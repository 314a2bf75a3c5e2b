package progression

import (
	"errors"
	"sort"
)

// Category groups related achievements.
type Category string

const (
	CategoryLevel      Category = "level"
	CategoryStreak     Category = "streak"
	CategorySkills     Category = "skills"
	CategoryLore       Category = "lore"
	CategoryDedication Category = "dedication"
)

// AchievementContext is the derived state achievements are checked against.
// Streaks and task sums are keyed by task key.
type AchievementContext struct {
	LevelInfo          LevelInfo
	Streaks            map[string]int
	UnlockedSkillCount int
	LoreEntryCount     int
	TaskSum            func(taskKey string) float64
}

// MaxStreak is the best current streak over all tasks.
func (c *AchievementContext) MaxStreak() int {
	best := 0
	for _, s := range c.Streaks {
		if s > best {
			best = s
		}
	}
	return best
}

// AggregateSumForTask returns the total logged value for a task key.
func (c *AchievementContext) AggregateSumForTask(key string) float64 {
	if c.TaskSum == nil {
		return 0
	}
	return c.TaskSum(key)
}

// Achievement is a static definition. Check must be a pure predicate.
type Achievement struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Icon        string   `json:"icon"`
	IsSecret    bool     `json:"is_secret"`
	IsTitle     bool     `json:"is_title"`

	Check func(*AchievementContext) bool `json:"-"`
}

// Registry holds the achievement set.
type Registry struct {
	items []Achievement
	byID  map[string]int
}

// NewRegistry builds a registry from defs. Later duplicates replace earlier ones.
func NewRegistry(defs ...Achievement) *Registry {
	r := &Registry{byID: make(map[string]int, len(defs))}
	for _, a := range defs {
		if i, ok := r.byID[a.ID]; ok {
			r.items[i] = a
			continue
		}
		r.byID[a.ID] = len(r.items)
		r.items = append(r.items, a)
	}
	return r
}

// DefaultRegistry returns the built-in achievements.
func DefaultRegistry() *Registry {
	return NewRegistry(builtinAchievements()...)
}

// All returns a copy of the registered achievements.
func (r *Registry) All() []Achievement {
	out := make([]Achievement, len(r.items))
	copy(out, r.items)
	return out
}

// Get looks up an achievement by id.
func (r *Registry) Get(id string) (Achievement, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Achievement{}, false
	}
	return r.items[i], true
}

// Evaluate returns the ids whose predicate holds and which are neither
// claimable nor unlocked yet, in registry order.
func (r *Registry) Evaluate(ctx *AchievementContext, state *UnlockState) []string {
	var fresh []string
	for _, a := range r.items {
		if state.Status(a.ID) != StatusLocked {
			continue
		}
		if a.Check != nil && a.Check(ctx) {
			fresh = append(fresh, a.ID)
		}
	}
	return fresh
}

// UnlockStatus is the per-user state of one achievement.
type UnlockStatus string

const (
	StatusLocked    UnlockStatus = "locked"
	StatusClaimable UnlockStatus = "claimable"
	StatusUnlocked  UnlockStatus = "unlocked"
)

var ErrNotClaimable = errors.New("achievement is not claimable")

// UnlockState tracks the claimable and unlocked sets for one user. An id
// lives in at most one of them.
type UnlockState struct {
	status map[string]UnlockStatus
}

// NewUnlockState seeds a state from stored sets. Unlocked wins if an id is in both.
func NewUnlockState(claimable, unlocked []string) *UnlockState {
	s := &UnlockState{status: make(map[string]UnlockStatus, len(claimable)+len(unlocked))}
	for _, id := range claimable {
		s.status[id] = StatusClaimable
	}
	for _, id := range unlocked {
		s.status[id] = StatusUnlocked
	}
	return s
}

// Status reports where id currently sits.
func (s *UnlockState) Status(id string) UnlockStatus {
	if st, ok := s.status[id]; ok {
		return st
	}
	return StatusLocked
}

// MarkClaimable moves locked ids to claimable and returns the ones that moved.
func (s *UnlockState) MarkClaimable(ids ...string) []string {
	var moved []string
	for _, id := range ids {
		if s.Status(id) != StatusLocked {
			continue
		}
		s.status[id] = StatusClaimable
		moved = append(moved, id)
	}
	return moved
}

// Claim moves id from claimable to unlocked. Claiming an unlocked id is a
// no-op and returns false.
func (s *UnlockState) Claim(id string) (bool, error) {
	switch s.Status(id) {
	case StatusUnlocked:
		return false, nil
	case StatusClaimable:
		s.status[id] = StatusUnlocked
		return true, nil
	default:
		return false, ErrNotClaimable
	}
}

// Release removes an unlocked id, used when a title token leaves the user.
func (s *UnlockState) Release(id string) bool {
	if s.Status(id) != StatusUnlocked {
		return false
	}
	delete(s.status, id)
	return true
}

// Grant puts id straight into the unlocked set. It fails if the id is already held.
func (s *UnlockState) Grant(id string) bool {
	if s.Status(id) != StatusLocked {
		return false
	}
	s.status[id] = StatusUnlocked
	return true
}

// Claimable returns the claimable ids, sorted.
func (s *UnlockState) Claimable() []string { return s.ids(StatusClaimable) }

// Unlocked returns the unlocked ids, sorted.
func (s *UnlockState) Unlocked() []string { return s.ids(StatusUnlocked) }

func (s *UnlockState) ids(want UnlockStatus) []string {
	out := []string{}
	for id, st := range s.status {
		if st == want {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func builtinAchievements() []Achievement {
	levelAtLeast := func(n int) func(*AchievementContext) bool {
		return func(c *AchievementContext) bool { return c.LevelInfo.CurrentLevel >= n }
	}
	streakAtLeast := func(n int) func(*AchievementContext) bool {
		return func(c *AchievementContext) bool { return c.MaxStreak() >= n }
	}
	taskSumAtLeast := func(key string, n float64) func(*AchievementContext) bool {
		return func(c *AchievementContext) bool { return c.AggregateSumForTask(key) >= n }
	}

	return []Achievement{
		{ID: "first-steps", Name: "First Steps", Description: "Reach level 2.", Category: CategoryLevel, Icon: "footprints", Check: levelAtLeast(2)},
		{ID: "acolyte", Name: "Acolyte", Description: "Reach level 6.", Category: CategoryLevel, Icon: "candle", Check: levelAtLeast(6)},
		{ID: "the-adept", Name: "The Adept", Description: "Reach level 11.", Category: CategoryLevel, Icon: "wand", IsTitle: true, Check: levelAtLeast(11)},
		{ID: "sage", Name: "Sage", Description: "Reach level 21.", Category: CategoryLevel, Icon: "scroll", IsTitle: true, Check: levelAtLeast(21)},
		{ID: "sigil-bearer", Name: "Sigil-Bearer", Description: "Reach the final level.", Category: CategoryLevel, Icon: "sigil", IsTitle: true, Check: func(c *AchievementContext) bool { return c.LevelInfo.IsMaxLevel && c.LevelInfo.CurrentLevel > 1 }},

		{ID: "kindling", Name: "Kindling", Description: "Keep any streak for 3 periods.", Category: CategoryStreak, Icon: "spark", Check: streakAtLeast(3)},
		{ID: "steadfast", Name: "Steadfast", Description: "Keep any streak for 7 periods.", Category: CategoryStreak, Icon: "flame", Check: streakAtLeast(7)},
		{ID: "unbroken", Name: "The Unbroken", Description: "Keep any streak for 30 periods.", Category: CategoryStreak, Icon: "chain", IsTitle: true, Check: streakAtLeast(30)},
		{ID: "centurion", Name: "Centurion", Description: "Keep any streak for 100 periods.", Category: CategoryStreak, Icon: "crown", IsSecret: true, IsTitle: true, Check: streakAtLeast(100)},

		{ID: "first-rune", Name: "First Rune", Description: "Unlock a skill.", Category: CategorySkills, Icon: "rune", Check: func(c *AchievementContext) bool { return c.UnlockedSkillCount >= 1 }},
		{ID: "polymath", Name: "Polymath", Description: "Unlock five skills.", Category: CategorySkills, Icon: "runes", IsTitle: true, Check: func(c *AchievementContext) bool { return c.UnlockedSkillCount >= 5 }},

		{ID: "chronicler", Name: "Chronicler", Description: "Write a lore entry.", Category: CategoryLore, Icon: "quill", Check: func(c *AchievementContext) bool { return c.LoreEntryCount >= 1 }},
		{ID: "loremaster", Name: "Loremaster", Description: "Write ten lore entries.", Category: CategoryLore, Icon: "tome", IsTitle: true, Check: func(c *AchievementContext) bool { return c.LoreEntryCount >= 10 }},

		{ID: "deep-diver", Name: "Deep Diver", Description: "Log 100 hours of deep work.", Category: CategoryDedication, Icon: "anchor", IsTitle: true, Check: taskSumAtLeast("deep-work", 6000)},
		{ID: "iron-will", Name: "Iron Will", Description: "Log 50 hours of exercise.", Category: CategoryDedication, Icon: "dumbbell", Check: taskSumAtLeast("exercise", 3000)},
		{ID: "bookworm", Name: "Bookworm", Description: "Read 1000 pages.", Category: CategoryDedication, Icon: "book", Check: taskSumAtLeast("reading", 1000)},
		{ID: "still-mind", Name: "Still Mind", Description: "Meditate for 1000 minutes.", Category: CategoryDedication, Icon: "lotus", IsSecret: true, Check: taskSumAtLeast("meditation", 1000)},
	}
}
