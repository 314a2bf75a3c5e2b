package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/cppla/sigil/progression"
)

const (
	TaskStatusActive    = "active"
	TaskStatusPaused    = "paused"
	TaskStatusCompleted = "completed"
)

// TaskDefinition is a user's activity category. Key is unique per user and
// is what achievements and alliances refer to.
type TaskDefinition struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	UserID              uint                        `gorm:"not null;uniqueIndex:idx_task_user_key" json:"user_id"`
	Key                 string                      `gorm:"column:task_key;size:64;not null;uniqueIndex:idx_task_user_key" json:"key"`
	Name                string                      `gorm:"size:128;not null" json:"name"`
	Color               string                      `gorm:"size:16" json:"color"`
	Icon                string                      `gorm:"size:64" json:"icon"`
	Status              string                      `gorm:"size:16;not null;default:active" json:"status"`
	Priority            string                      `gorm:"size:16;not null;default:normal" json:"priority"`
	Unit                string                      `gorm:"size:32" json:"unit"`
	IntensityThresholds datatypes.JSONSlice[float64] `json:"intensity_thresholds"`
	FrequencyType       string                      `gorm:"size:16;not null;default:daily" json:"frequency_type"`
	FrequencyCount      int                         `gorm:"default:0" json:"frequency_count"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// Spec returns the engine view of the task.
func (t TaskDefinition) Spec() progression.Task {
	return progression.Task{
		ID:             t.ID,
		Key:            t.Key,
		Priority:       t.Priority,
		Unit:           t.Unit,
		Thresholds:     []float64(t.IntensityThresholds),
		FrequencyType:  t.FrequencyType,
		FrequencyCount: t.FrequencyCount,
	}
}

// TaskMastery is the per-task mastery accumulator.
type TaskMastery struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_mastery_user_task" json:"user_id"`
	TaskID    uint      `gorm:"not null;uniqueIndex:idx_mastery_user_task" json:"task_id"`
	Level     int       `gorm:"not null;default:1" json:"level"`
	XP        int       `gorm:"not null;default:0" json:"xp"`
	UpdatedAt time.Time `json:"updated_at"`
}
