package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streakFor(sum *ProgressSummary, key string) int {
	for _, st := range sum.Streaks {
		if st.Key == key {
			return st.Streak
		}
	}
	return -1
}

func TestSummaryStreaksMasteryAndClaimables(t *testing.T) {
	s, clock := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "hal")
	deep := taskByKey(t, s, u.ID, "deep-work")

	var last *RecordResult
	for _, d := range []string{"2024-06-10", "2024-06-11", "2024-06-12"} {
		res, err := s.LogRecord(ctx, u.ID, RecordInput{TaskID: &deep.ID, Date: d, Value: 30})
		require.NoError(t, err)
		// 30 minutes is the first deep-work threshold
		assert.Equal(t, 4, res.XPAwarded)
		last = res
	}
	assert.Contains(t, last.NewlyClaimable, "kindling")

	sum, err := s.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-12", sum.Today)
	assert.Equal(t, 12, sum.RecordXP)
	assert.Equal(t, 1, sum.Level.CurrentLevel)
	assert.Equal(t, 3, sum.OverallStreak)
	assert.Equal(t, 3, streakFor(sum, "deep-work"))
	assert.Equal(t, 0, streakFor(sum, "exercise"))
	assert.Contains(t, sum.Claimable, "kindling")
	assert.Empty(t, sum.Unlocked)

	for _, m := range sum.Mastery {
		if m.Key == "deep-work" {
			assert.Equal(t, 12, m.XP)
			assert.Equal(t, 1, m.Level)
			assert.Equal(t, 100, m.XPForNextLevel)
		}
	}

	// a day without a record still shows yesterday's streak
	clock.AddDays(1)
	sum, err = s.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, streakFor(sum, "deep-work"))

	clock.AddDays(1)
	sum, err = s.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, streakFor(sum, "deep-work"))
}

func TestSummaryUnknownUser(t *testing.T) {
	s, _ := newService(t)
	_, err := s.Summary(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
