package models

import (
	"encoding/json"
	"time"
)

const (
	AllianceOngoing   = "ongoing"
	AllianceCompleted = "completed"
	AllianceFailed    = "failed"

	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"

	ChallengePending   = "pending"
	ChallengeActive    = "active"
	ChallengeDeclined  = "declined"
	ChallengeCompleted = "completed"
)

// Alliance is a group working toward a shared target on one task key.
// Progress only moves through the ledger. OpponentProgress is this
// alliance's view of its challenge opponent.
type Alliance struct {
	ID                 string           `gorm:"primaryKey;size:36" json:"id"`
	Name               string           `gorm:"size:128;not null" json:"name"`
	CreatorID          uint             `gorm:"not null;index" json:"creator_id"`
	TaskKey            string           `gorm:"size:64;not null" json:"task_key"`
	Target             float64          `gorm:"not null" json:"target"`
	Progress           float64          `gorm:"not null;default:0" json:"progress"`
	Status             string           `gorm:"size:16;not null;default:ongoing" json:"status"`
	EndDate            string           `gorm:"size:10;not null" json:"end_date"`
	ActiveChallengeID  *string          `gorm:"size:36" json:"active_challenge_id"`
	OpponentAllianceID *string          `gorm:"size:36" json:"opponent_alliance_id"`
	OpponentProgress   float64          `gorm:"not null;default:0" json:"opponent_progress"`
	Members            []AllianceMember `gorm:"foreignKey:AllianceID" json:"members"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// MemberIDs lists member user ids in member order.
func (a *Alliance) MemberIDs() []uint {
	ids := make([]uint, 0, len(a.Members))
	for _, m := range a.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// MarshalJSON renders the alliance with member_ids next to members.
func (a Alliance) MarshalJSON() ([]byte, error) {
	type plain Alliance
	return json.Marshal(struct {
		plain
		MemberIDs []uint `json:"member_ids"`
	}{plain(a), a.MemberIDs()})
}

// EffectiveStatus evaluates the lifecycle lazily. Once EndDate has passed
// the alliance is completed or failed depending on whether it hit its target.
func (a *Alliance) EffectiveStatus(today string) string {
	if a.Status != AllianceOngoing {
		return a.Status
	}
	if today <= a.EndDate {
		return AllianceOngoing
	}
	if a.Progress >= a.Target {
		return AllianceCompleted
	}
	return AllianceFailed
}

// AllianceMember is one member's contribution to an alliance.
type AllianceMember struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	AllianceID   string    `gorm:"size:36;not null;uniqueIndex:idx_alliance_member" json:"-"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_alliance_member;index" json:"uid"`
	Contribution float64   `gorm:"not null;default:0" json:"contribution"`
	JoinedAt     time.Time `json:"joined_at"`
}

// AllianceInvitation invites a user into an alliance.
type AllianceInvitation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AllianceID string    `gorm:"size:36;not null;index" json:"alliance_id"`
	InviterID  uint      `gorm:"not null" json:"inviter_id"`
	InviteeID  uint      `gorm:"not null;index" json:"invitee_id"`
	Status     string    `gorm:"size:16;not null" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AllianceChallenge is a head-to-head duel between two alliances.
type AllianceChallenge struct {
	ID                   string    `gorm:"primaryKey;size:36" json:"id"`
	ChallengerAllianceID string    `gorm:"size:36;not null;index" json:"challenger_alliance_id"`
	ChallengedAllianceID string    `gorm:"size:36;not null;index" json:"challenged_alliance_id"`
	Status               string    `gorm:"size:16;not null" json:"status"`
	WinnerAllianceID     *string   `gorm:"size:36" json:"winner_alliance_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
