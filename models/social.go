package models

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipDeclined = "declined"

	ListingActive    = "active"
	ListingSold      = "sold"
	ListingCancelled = "cancelled"
)

// Friendship is a friend request between two users.
type Friendship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"not null;index" json:"requester_id"`
	AddresseeID uint      `gorm:"not null;index" json:"addressee_id"`
	Status      string    `gorm:"size:16;not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoItem is a daily pact. Missing it past its date triggers the dare.
type TodoItem struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index:idx_todo_user_date" json:"user_id"`
	Date          string     `gorm:"size:10;not null;index:idx_todo_user_date" json:"date"`
	Text          string     `gorm:"size:255;not null" json:"text"`
	Dare          string     `gorm:"size:255" json:"dare"`
	Completed     bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt   *time.Time `json:"completed_at"`
	DareTriggered bool       `gorm:"not null;default:false" json:"dare_triggered"`
	CreatedAt     time.Time  `json:"created_at"`
}

// MarketListing offers a title achievement for shards.
type MarketListing struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	SellerID      uint      `gorm:"not null;index" json:"seller_id"`
	AchievementID string    `gorm:"size:64;not null" json:"achievement_id"`
	Price         int       `gorm:"not null" json:"price"`
	Status        string    `gorm:"size:16;not null;index" json:"status"`
	BuyerID       *uint     `json:"buyer_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// All returns every model for migration.
func All() []interface{} {
	return []interface{}{
		&User{}, &TaskDefinition{}, &TaskMastery{}, &ActivityRecord{},
		&UserAchievement{}, &UserSkill{}, &LoreEntry{},
		&Alliance{}, &AllianceMember{}, &AllianceInvitation{}, &AllianceChallenge{},
		&Friendship{}, &TodoItem{}, &MarketListing{},
	}
}
