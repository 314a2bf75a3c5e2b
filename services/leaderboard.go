package services

import (
	"context"

	"github.com/cppla/sigil/models"
)

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
	LevelName   string `json:"level_name"`
	TierName    string `json:"tier_name"`
}

// Leaderboard ranks users by cumulative XP (record XP plus bonus).
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("(xp_total + bonus_points) DESC, id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(users))
	for i := range users {
		u := &users[i]
		info := s.levelInfo(u)
		out = append(out, LeaderboardEntry{
			Rank:        i + 1,
			UserID:      u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			AvatarURL:   u.AvatarURL,
			XP:          info.TotalAccumulatedValue,
			Level:       info.CurrentLevel,
			LevelName:   info.LevelName,
			TierName:    info.TierName,
		})
	}
	return out, nil
}

// Stats are public site-wide counters.
type Stats struct {
	UserCount        int64 `json:"user_count"`
	RecordCount      int64 `json:"record_count"`
	AllianceCount    int64 `json:"alliance_count"`
	ActiveChallenges int64 `json:"active_challenges"`
	OpenListings     int64 `json:"open_listings"`
}

// SiteStats counts users, records and social activity. A failing count
// reads as zero instead of failing the whole call.
func (s *Service) SiteStats(ctx context.Context) Stats {
	db := s.db.WithContext(ctx)
	var st Stats
	if err := db.Model(&models.User{}).Count(&st.UserCount).Error; err != nil {
		st.UserCount = 0
	}
	if err := db.Model(&models.ActivityRecord{}).Count(&st.RecordCount).Error; err != nil {
		st.RecordCount = 0
	}
	if err := db.Model(&models.Alliance{}).Count(&st.AllianceCount).Error; err != nil {
		st.AllianceCount = 0
	}
	if err := db.Model(&models.AllianceChallenge{}).Where("status = ?", models.ChallengeActive).Count(&st.ActiveChallenges).Error; err != nil {
		st.ActiveChallenges = 0
	}
	if err := db.Model(&models.MarketListing{}).Where("status = ?", models.ListingActive).Count(&st.OpenListings).Error; err != nil {
		st.OpenListings = 0
	}
	return st
}
