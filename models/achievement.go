package models

import "time"

const (
	AchievementClaimable = "claimable"
	AchievementUnlocked  = "unlocked"
	// AchievementTraded is a title that left the user through the market.
	// It still counts as earned so the evaluator never re-offers it.
	AchievementTraded = "traded"
)

// UserAchievement holds one achievement's state for a user. The unique key
// keeps an id in exactly one of the claimable/unlocked sets.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID string    `gorm:"size:64;not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	State         string    `gorm:"size:16;not null" json:"state"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserSkill marks a skill-tree node as unlocked.
type UserSkill struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_skill" json:"user_id"`
	SkillID   string    `gorm:"size:64;not null;uniqueIndex:idx_user_skill" json:"skill_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LoreEntry is a free-form journal entry.
type LoreEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
