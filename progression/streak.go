package progression

import "time"

// DateLayout is the calendar-day format used for record dates.
const DateLayout = "2006-01-02"

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// Today returns the civil date of now in loc, formatted with DateLayout.
func Today(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format(DateLayout)
}

// Streak dispatches on the task's frequency policy. An unset type is daily.
func Streak(dates []string, today string, frequencyType string, frequencyCount int) int {
	if frequencyType == FrequencyWeekly {
		return WeeklyStreak(dates, today, frequencyCount)
	}
	return DailyStreak(dates, today)
}

// DailyStreak counts consecutive days with at least one record, ending
// today, or yesterday when nothing has been logged today yet.
func DailyStreak(dates []string, today string) int {
	set := dateSet(dates)
	if len(set) == 0 {
		return 0
	}
	cur, err := time.Parse(DateLayout, today)
	if err != nil {
		return 0
	}
	if !set[cur] {
		cur = cur.AddDate(0, 0, -1)
	}
	streak := 0
	for set[cur] {
		streak++
		cur = cur.AddDate(0, 0, -1)
	}
	return streak
}

// WeeklyStreak counts consecutive ISO weeks (Monday start) holding at least
// frequencyCount distinct record dates, walking back from the current week
// and stopping at the first week short of the target.
func WeeklyStreak(dates []string, today string, frequencyCount int) int {
	set := dateSet(dates)
	if len(set) == 0 {
		return 0
	}
	now, err := time.Parse(DateLayout, today)
	if err != nil {
		return 0
	}
	need := frequencyCount
	if need < 1 {
		need = 1
	}
	if need > 7 {
		need = 7
	}

	perWeek := make(map[time.Time]int)
	for d := range set {
		perWeek[weekStart(d)]++
	}

	cur := weekStart(now)
	streak := 0
	for perWeek[cur] >= need {
		streak++
		cur = cur.AddDate(0, 0, -7)
	}
	return streak
}

func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func dateSet(dates []string) map[time.Time]bool {
	set := make(map[time.Time]bool, len(dates))
	for _, s := range dates {
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			continue
		}
		set[d] = true
	}
	return set
}
