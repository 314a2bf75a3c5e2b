package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cppla/sigil/progression"
)

// ActivityRecord is one logged activity. Date is a calendar day (YYYY-MM-DD).
// XPAwarded is what the record earned when it was priced; edits and deletes
// leave granted XP untouched, and deleted rows still take part in replays.
//
// The Priced* columns freeze the inputs of that pricing: date, value and
// the task's pricing fields. Replays read them instead of the editable
// columns or the live task definition.
type ActivityRecord struct {
	ID               uint                         `gorm:"primaryKey" json:"id"`
	UserID           uint                         `gorm:"not null;index:idx_record_user_date" json:"user_id"`
	TaskID           *uint                        `gorm:"index" json:"task_id"`
	Date             string                       `gorm:"size:10;not null;index:idx_record_user_date" json:"date"`
	Value            float64                      `gorm:"not null" json:"value"`
	Notes            string                       `gorm:"type:text" json:"notes"`
	XPAwarded        int                          `gorm:"not null;default:0" json:"xp_awarded"`
	PricedDate       string                       `gorm:"size:10" json:"-"`
	PricedValue      float64                      `json:"-"`
	PricedTaskID     *uint                        `json:"-"`
	PricedPriority   string                       `gorm:"size:16" json:"-"`
	PricedUnit       string                       `gorm:"size:32" json:"-"`
	PricedThresholds datatypes.JSONSlice[float64] `json:"-"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
	DeletedAt        gorm.DeletedAt               `gorm:"index" json:"-"`
}

// Freeze captures the pricing inputs from the current date, value and task.
func (r *ActivityRecord) Freeze(task *progression.Task) {
	r.PricedDate = r.Date
	r.PricedValue = r.Value
	r.PricedTaskID = nil
	r.PricedPriority = ""
	r.PricedUnit = ""
	r.PricedThresholds = nil
	if task != nil {
		id := task.ID
		r.PricedTaskID = &id
		r.PricedPriority = task.Priority
		r.PricedUnit = task.Unit
		r.PricedThresholds = datatypes.JSONSlice[float64](task.Thresholds)
	}
}

// Spec returns the engine view of the record as it currently reads.
func (r ActivityRecord) Spec() progression.Record {
	rec := progression.Record{ID: r.ID, Date: r.Date, Value: r.Value}
	if r.TaskID != nil {
		rec.TaskID = *r.TaskID
	}
	return rec
}

// Priced returns the engine view of the record as it was priced, with the
// task snapshot attached. Rows without a snapshot fall back to Spec.
func (r ActivityRecord) Priced() progression.Record {
	if r.PricedDate == "" {
		return r.Spec()
	}
	rec := progression.Record{ID: r.ID, Date: r.PricedDate, Value: r.PricedValue}
	if r.PricedTaskID != nil {
		rec.TaskID = *r.PricedTaskID
		rec.Task = &progression.Task{
			ID:         *r.PricedTaskID,
			Priority:   r.PricedPriority,
			Unit:       r.PricedUnit,
			Thresholds: []float64(r.PricedThresholds),
		}
	}
	return rec
}
