package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		value      float64
		thresholds []float64
		want       int
	}{
		{0, nil, 0},
		{-3, nil, 0},
		{1, nil, 1},
		{5, nil, 1},
		{5.5, nil, 2},
		{10, nil, 2},
		{15, nil, 3},
		{20, nil, 4},
		{500, nil, 4},
		{45, []float64{30, 60, 120, 180}, 2},
		// only exactly four custom thresholds are honoured
		{45, []float64{30, 60, 120}, 4},
		{7, []float64{1, 2, 3, 4, 5}, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.value, tc.thresholds), "value=%v thresholds=%v", tc.value, tc.thresholds)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	for _, th := range [][]float64{DefaultThresholds, {1, 2, 3, 4}, {30, 60, 120, 180}} {
		prev := Classify(0, th)
		assert.Equal(t, 0, prev)
		for v := 0.0; v <= 250; v += 0.5 {
			got := Classify(v, th)
			assert.GreaterOrEqual(t, got, prev, "value %v", v)
			prev = got
		}
	}
}

func TestValidThresholds(t *testing.T) {
	assert.True(t, ValidThresholds(nil))
	assert.True(t, ValidThresholds([]float64{1, 2, 3, 4}))
	assert.False(t, ValidThresholds([]float64{1, 2, 3}))
	assert.False(t, ValidThresholds([]float64{1, 3, 2, 4}))
	assert.False(t, ValidThresholds([]float64{1, 1, 2, 3}))
	assert.False(t, ValidThresholds([]float64{0, 1, 2, 3}))
}

func TestRecordXP(t *testing.T) {
	c := threeLevelCurve()
	normal := &Task{Priority: PriorityNormal, Unit: UnitMinutes}
	high := &Task{Priority: PriorityHigh, Unit: UnitMinutes}
	hours := &Task{Priority: PriorityNormal, Unit: UnitHours}

	assert.Equal(t, 0, RecordXP(0, normal, 1, c))
	assert.Equal(t, 3, RecordXP(3, normal, 1, c)) // 25% of 10 = 2.5, rounds up
	assert.Equal(t, 5, RecordXP(8, normal, 1, c))
	assert.Equal(t, 10, RecordXP(25, normal, 1, c))
	assert.Equal(t, 20, RecordXP(25, high, 1, c))
	assert.Equal(t, 15, RecordXP(12, normal, 2, c))
	assert.Equal(t, 60, RecordXP(12, high, 3, c))
	// 1 hour normalises to 60 minutes, above every default threshold
	assert.Equal(t, 10, RecordXP(1, hours, 1, c))
	// levels beyond the curve price at the top row
	assert.Equal(t, 40, RecordXP(25, normal, 99, c))
	// records without a task use normal priority and default thresholds
	assert.Equal(t, 10, RecordXP(25, nil, 1, c))
}

func orderSensitiveCurve() *Curve {
	return &Curve{Levels: []LevelEntry{
		{Level: 1, XPRequired: 0, BaseLowXP: 10, BaseHighXP: 10},
		{Level: 2, XPRequired: 10, BaseLowXP: 20, BaseHighXP: 20},
	}}
}

func TestReplayIsOrderIndependentAfterSort(t *testing.T) {
	c := orderSensitiveCurve()
	a := Record{ID: 1, Date: "2024-03-01", Value: 20}
	b := Record{ID: 2, Date: "2024-03-02", Value: 5}

	first, awarded := Replay([]Record{a, b}, nil, c)
	second, _ := Replay([]Record{b, a}, nil, c)
	again, _ := Replay([]Record{a, b}, nil, c)

	assert.Equal(t, 15, first.Total)
	assert.Equal(t, first, second)
	assert.Equal(t, first, again)
	assert.Equal(t, 10, awarded[1])
	assert.Equal(t, 5, awarded[2])
	assert.Equal(t, "2024-03-02", first.LastDate)
	assert.Equal(t, uint(2), first.LastRecordID)
}

func TestFoldWithoutSortDependsOnOrder(t *testing.T) {
	c := orderSensitiveCurve()
	a := Record{ID: 1, Date: "2024-03-01", Value: 20}
	b := Record{ID: 2, Date: "2024-03-02", Value: 5}

	inOrder, _ := Fold([]Record{a, b}, nil, c)
	reversed, _ := Fold([]Record{b, a}, nil, c)
	assert.Equal(t, 15, inOrder.Total)
	assert.Equal(t, 13, reversed.Total)
}

func TestFoldUsesTaskDefinitions(t *testing.T) {
	c := threeLevelCurve()
	tasks := map[uint]Task{7: {ID: 7, Priority: PriorityHigh, Unit: UnitHours}}
	cp, awarded := Replay([]Record{{ID: 1, Date: "2024-01-01", Value: 2, TaskID: 7}}, tasks, c)
	assert.Equal(t, 20, cp.Total)
	assert.Equal(t, 20, awarded[1])
}

func TestFoldPrefersRecordSnapshot(t *testing.T) {
	c := threeLevelCurve()
	tasks := map[uint]Task{7: {ID: 7, Priority: PriorityNormal}}
	snap := &Task{ID: 7, Priority: PriorityHigh, Unit: UnitHours}
	records := []Record{
		{ID: 1, Date: "2024-01-01", Value: 2, TaskID: 7, Task: snap},
		{ID: 2, Date: "2024-01-02", Value: 2, TaskID: 9, Task: snap},
	}
	_, awarded := Replay(records, tasks, c)
	assert.Equal(t, 20, awarded[1])
	assert.Equal(t, 20, awarded[2])

	// without a snapshot the live definition prices it: phase 1 of 10
	live, _ := Replay([]Record{{ID: 1, Date: "2024-01-01", Value: 2, TaskID: 7}}, tasks, c)
	assert.Equal(t, 3, live.Total)
}

func TestCheckpointAdvanceMatchesReplay(t *testing.T) {
	c := DefaultCurve()
	records := []Record{
		{ID: 1, Date: "2024-01-01", Value: 25},
		{ID: 2, Date: "2024-01-01", Value: 12},
		{ID: 3, Date: "2024-01-03", Value: 40},
		{ID: 4, Date: "2024-01-04", Value: 7},
	}
	for i := 5; i < 60; i++ {
		records = append(records, Record{ID: uint(i), Date: "2024-02-10", Value: float64(i % 23)})
	}

	var cp Checkpoint
	for _, r := range records {
		_, ok := cp.Advance(r, nil, c)
		require.True(t, ok)
	}
	full, _ := Replay(records, nil, c)
	assert.Equal(t, full, cp)
}

func TestCheckpointRejectsBackdatedRecords(t *testing.T) {
	c := threeLevelCurve()
	cp := Checkpoint{Total: 50, LastDate: "2024-05-10", LastRecordID: 9}

	assert.True(t, cp.Covers(Record{ID: 3, Date: "2024-05-01"}))
	assert.True(t, cp.Covers(Record{ID: 9, Date: "2024-05-10"}))
	assert.False(t, cp.Covers(Record{ID: 10, Date: "2024-05-10"}))

	xp, ok := cp.Advance(Record{ID: 4, Date: "2024-05-02", Value: 30}, nil, c)
	assert.False(t, ok)
	assert.Equal(t, 0, xp)
	assert.Equal(t, 50, cp.Total)

	var zero Checkpoint
	assert.False(t, zero.Covers(Record{ID: 1, Date: "2020-01-01"}))
}

func TestCumulativeXPAddsBonusAtFaceValue(t *testing.T) {
	assert.Equal(t, 137, CumulativeXP(Checkpoint{Total: 100}, 37))
}
