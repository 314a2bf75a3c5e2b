package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryUniqueIDs(t *testing.T) {
	r := DefaultRegistry()
	seen := map[string]bool{}
	for _, a := range r.All() {
		require.NotEmpty(t, a.ID)
		require.NotNil(t, a.Check, a.ID)
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
	}
	_, ok := r.Get("first-steps")
	assert.True(t, ok)
	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestRegistryAllReturnsCopy(t *testing.T) {
	r := DefaultRegistry()
	all := r.All()
	all[0].ID = "mutated"
	_, ok := r.Get("mutated")
	assert.False(t, ok)
	assert.NotEqual(t, "mutated", r.All()[0].ID)
}

func TestEvaluateSkipsKnownIDs(t *testing.T) {
	r := NewRegistry(
		Achievement{ID: "lvl2", Check: func(c *AchievementContext) bool { return c.LevelInfo.CurrentLevel >= 2 }},
		Achievement{ID: "streak3", Check: func(c *AchievementContext) bool { return c.MaxStreak() >= 3 }},
		Achievement{ID: "reader", Check: func(c *AchievementContext) bool { return c.AggregateSumForTask("reading") >= 10 }},
		Achievement{ID: "lore", Check: func(c *AchievementContext) bool { return c.LoreEntryCount > 0 }},
	)
	ctx := &AchievementContext{
		LevelInfo: LevelInfo{CurrentLevel: 2},
		Streaks:   map[string]int{"reading": 1, "exercise": 4},
		TaskSum: func(key string) float64 {
			if key == "reading" {
				return 12
			}
			return 0
		},
	}

	state := NewUnlockState([]string{"streak3"}, nil)
	fresh := r.Evaluate(ctx, state)
	assert.Equal(t, []string{"lvl2", "reader"}, fresh)

	moved := state.MarkClaimable(fresh...)
	assert.Equal(t, fresh, moved)
	assert.Empty(t, r.Evaluate(ctx, state))
}

func TestClaimIsIdempotentAndExclusive(t *testing.T) {
	state := NewUnlockState([]string{"a", "b"}, []string{"c"})

	changed, err := state.Claim("a")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = state.Claim("a")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = state.Claim("c")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = state.Claim("zzz")
	assert.ErrorIs(t, err, ErrNotClaimable)

	assert.Equal(t, []string{"b"}, state.Claimable())
	assert.Equal(t, []string{"a", "c"}, state.Unlocked())
	for _, id := range state.Claimable() {
		assert.NotContains(t, state.Unlocked(), id)
	}
}

func TestNewUnlockStatePrefersUnlocked(t *testing.T) {
	state := NewUnlockState([]string{"x"}, []string{"x"})
	assert.Equal(t, StatusUnlocked, state.Status("x"))
	assert.Empty(t, state.Claimable())
}

func TestReleaseAndGrant(t *testing.T) {
	state := NewUnlockState(nil, []string{"title"})
	assert.False(t, state.Grant("title"))
	assert.True(t, state.Release("title"))
	assert.False(t, state.Release("title"))
	assert.True(t, state.Grant("title"))
	assert.Equal(t, StatusUnlocked, state.Status("title"))
}

func TestBuiltinPredicates(t *testing.T) {
	r := DefaultRegistry()
	curve := DefaultCurve()
	ctx := &AchievementContext{
		LevelInfo:          curve.Resolve(250),
		Streaks:            map[string]int{"deep-work": 7},
		UnlockedSkillCount: 1,
		LoreEntryCount:     0,
		TaskSum:            func(key string) float64 { return map[string]float64{"reading": 1200}[key] },
	}
	fresh := r.Evaluate(ctx, NewUnlockState(nil, nil))
	assert.ElementsMatch(t, []string{"first-steps", "kindling", "steadfast", "first-rune", "bookworm"}, fresh)
}
