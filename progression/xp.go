package progression

import (
	"math"
	"sort"
)

const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"

	UnitMinutes = "minutes"
	UnitHours   = "hours"
)

// Task is the part of a task definition that pricing and streaks depend on.
type Task struct {
	ID             uint
	Key            string
	Priority       string
	Unit           string
	Thresholds     []float64
	FrequencyType  string
	FrequencyCount int
}

// Record is a single logged activity. Date is a calendar day (DateLayout).
// Task, when set, is the task as it stood when the record was first priced
// and takes precedence over the task map passed to Fold.
type Record struct {
	ID     uint
	Date   string
	Value  float64
	TaskID uint
	Task   *Task
}

// Before reports whether r sorts before o in chronological fold order.
func (r Record) Before(o Record) bool {
	if r.Date != o.Date {
		return r.Date < o.Date
	}
	return r.ID < o.ID
}

// NormalizeValue converts a value into the task's base unit.
func NormalizeValue(value float64, unit string) float64 {
	if unit == UnitHours {
		return value * 60
	}
	return value
}

// RecordXP prices one record at the given level. A nil task is priced at
// normal priority with the default thresholds.
func RecordXP(value float64, task *Task, level int, curve *Curve) int {
	var (
		thresholds []float64
		priority   = PriorityNormal
	)
	if task != nil {
		value = NormalizeValue(value, task.Unit)
		thresholds = task.Thresholds
		priority = task.Priority
	}
	phase := Classify(value, thresholds)
	if phase == 0 {
		return 0
	}
	entry, ok := curve.Entry(level)
	if !ok {
		return 0
	}
	base := entry.BaseLowXP
	if priority == PriorityHigh {
		base = entry.BaseHighXP
	}
	return int(math.Round(float64(base) * phasePercent[phase]))
}

// Checkpoint is the running XP total folded over records up to and
// including LastDate/LastRecordID.
type Checkpoint struct {
	Total        int
	LastDate     string
	LastRecordID uint
}

// Covers reports whether r sorts at or before the checkpoint position, in
// which case an incremental Advance would break chronological order.
func (cp Checkpoint) Covers(r Record) bool {
	if cp.LastDate == "" && cp.LastRecordID == 0 {
		return false
	}
	last := Record{ID: cp.LastRecordID, Date: cp.LastDate}
	return !last.Before(r)
}

// Advance prices r at the level implied by the running total and folds it
// in. It returns false without changes if r does not sort after the checkpoint.
func (cp *Checkpoint) Advance(r Record, task *Task, curve *Curve) (int, bool) {
	if cp.Covers(r) {
		return 0, false
	}
	xp := RecordXP(r.Value, task, curve.LevelFor(cp.Total), curve)
	cp.Total += xp
	cp.LastDate = r.Date
	cp.LastRecordID = r.ID
	return xp, true
}

// Fold applies the records in the order given. Callers that need the
// canonical result must sort first; see Replay.
func Fold(records []Record, tasks map[uint]Task, curve *Curve) (Checkpoint, map[uint]int) {
	var cp Checkpoint
	awarded := make(map[uint]int, len(records))
	for _, r := range records {
		xp := RecordXP(r.Value, taskFor(r, tasks), curve.LevelFor(cp.Total), curve)
		cp.Total += xp
		cp.LastDate = r.Date
		cp.LastRecordID = r.ID
		awarded[r.ID] = xp
	}
	return cp, awarded
}

// Replay sorts a copy of records chronologically and folds them.
func Replay(records []Record, tasks map[uint]Task, curve *Curve) (Checkpoint, map[uint]int) {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	SortRecords(sorted)
	return Fold(sorted, tasks, curve)
}

// SortRecords orders records by date, then id.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Before(records[j]) })
}

// CumulativeXP adds manual bonus points on top of the folded total.
func CumulativeXP(cp Checkpoint, bonusPoints int) int {
	return cp.Total + bonusPoints
}

func taskFor(r Record, tasks map[uint]Task) *Task {
	if r.Task != nil {
		return r.Task
	}
	return lookupTask(tasks, r.TaskID)
}

func lookupTask(tasks map[uint]Task, id uint) *Task {
	if id == 0 || tasks == nil {
		return nil
	}
	t, ok := tasks[id]
	if !ok {
		return nil
	}
	return &t
}
