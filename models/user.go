package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a tracker account. Passwords are stored as bcrypt hashes only.
// XPTotal together with XPCheckpointDate/XPCheckpointRecordID is the folded
// record XP as of the last priced record; bonus points are kept apart.
type User struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Username             string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	DisplayName          string         `gorm:"size:64" json:"display_name"`
	PasswordHash         string         `gorm:"size:255" json:"-"`
	AvatarURL            string         `gorm:"size:512" json:"avatar_url"`
	Timezone             string         `gorm:"size:64" json:"timezone"`
	RegisterIP           string         `gorm:"size:45" json:"-"`
	XPTotal              int            `gorm:"not null;default:0" json:"xp_total"`
	XPCheckpointDate     string         `gorm:"size:10" json:"-"`
	XPCheckpointRecordID uint           `gorm:"default:0" json:"-"`
	BonusPoints          int            `gorm:"not null;default:0" json:"bonus_points"`
	AetherShards         int            `gorm:"not null;default:0" json:"aether_shards"`
	MasterBonusAwarded   bool           `gorm:"not null;default:false" json:"master_bonus_awarded"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// Location resolves the user's timezone, defaulting to the server's.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
