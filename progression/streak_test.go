package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailyStreak(t *testing.T) {
	today := "2024-06-12"

	assert.Equal(t, 0, DailyStreak(nil, today))
	assert.Equal(t, 3, DailyStreak([]string{"2024-06-12", "2024-06-11", "2024-06-10", "2024-06-08"}, today))
	// nothing yet today: count from yesterday
	assert.Equal(t, 3, DailyStreak([]string{"2024-06-11", "2024-06-10", "2024-06-09", "2024-06-07"}, today))
	// yesterday missing as well breaks the streak
	assert.Equal(t, 0, DailyStreak([]string{"2024-06-10", "2024-06-09"}, today))
	// duplicates count once
	assert.Equal(t, 2, DailyStreak([]string{"2024-06-12", "2024-06-12", "2024-06-11"}, today))
	// month boundary
	assert.Equal(t, 3, DailyStreak([]string{"2024-03-01", "2024-02-29", "2024-02-28"}, "2024-03-01"))
}

func TestWeeklyStreak(t *testing.T) {
	// 2024-06-12 is a Wednesday; its ISO week starts Monday 2024-06-10.
	today := "2024-06-12"
	dates := []string{
		// current week: 3 days
		"2024-06-10", "2024-06-11", "2024-06-12",
		// week of 06-03: 3 days
		"2024-06-03", "2024-06-05", "2024-06-07",
		// week of 05-27: only 2 days, stops the streak
		"2024-05-27", "2024-05-28",
		// week of 05-20: 4 days, unreachable
		"2024-05-20", "2024-05-21", "2024-05-22", "2024-05-23",
	}
	assert.Equal(t, 2, WeeklyStreak(dates, today, 3))
	assert.Equal(t, 4, WeeklyStreak(dates, today, 2))
}

func TestWeeklyStreakStartsAtCurrentWeek(t *testing.T) {
	dates := []string{
		"2024-06-10",
		"2024-06-03", "2024-06-04", "2024-06-05",
		"2024-05-27", "2024-05-29", "2024-05-31",
	}
	// the current week has one day of three and fails first
	assert.Equal(t, 0, WeeklyStreak(dates, "2024-06-11", 3))
	assert.Equal(t, 3, WeeklyStreak(dates, "2024-06-11", 1))
	// a Sunday still belongs to the week that began the previous Monday
	assert.Equal(t, 2, WeeklyStreak(dates[1:], "2024-06-09", 3))
}

func TestWeeklyStreakClampsFrequency(t *testing.T) {
	dates := []string{"2024-06-10"}
	assert.Equal(t, 1, WeeklyStreak(dates, "2024-06-12", 0))
	assert.Equal(t, 0, WeeklyStreak(nil, "2024-06-12", 3))
}

func TestStreakDispatch(t *testing.T) {
	dates := []string{"2024-06-12", "2024-06-11"}
	assert.Equal(t, 2, Streak(dates, "2024-06-12", "", 0))
	assert.Equal(t, 2, Streak(dates, "2024-06-12", FrequencyDaily, 0))
	assert.Equal(t, 1, Streak(dates, "2024-06-12", FrequencyWeekly, 2))
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2024, 6, 12, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-13", Today(now, loc))
	assert.Equal(t, "2024-06-12", Today(now, nil))
}
