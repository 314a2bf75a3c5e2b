package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
	"github.com/cppla/sigil/utils"
)

// AchievementView is an achievement together with the user's status.
// Secret achievements are masked until the user holds them.
type AchievementView struct {
	progression.Achievement
	Status progression.UnlockStatus `json:"status"`
	Traded bool                     `json:"traded,omitempty"`
}

// ListAchievements returns every registered achievement with its status.
func (s *Service) ListAchievements(ctx context.Context, uid uint) ([]AchievementView, error) {
	state, rows, err := unlockState(s.db.WithContext(ctx), uid)
	if err != nil {
		return nil, err
	}
	traded := map[string]bool{}
	for _, r := range rows {
		if r.State == models.AchievementTraded {
			traded[r.AchievementID] = true
		}
	}
	all := s.registry.All()
	out := make([]AchievementView, 0, len(all))
	for _, a := range all {
		v := AchievementView{Achievement: a, Status: state.Status(a.ID), Traded: traded[a.ID]}
		if v.Traded {
			v.Status = progression.StatusLocked
		}
		if a.IsSecret && v.Status == progression.StatusLocked && !v.Traded {
			v.Name = "???"
			v.Description = "A secret waits to be uncovered."
			v.Icon = "secret"
		}
		out = append(out, v)
	}
	return out, nil
}

// ClaimAchievement moves a claimable achievement to unlocked. Claiming an
// already unlocked id is a no-op and reports false.
func (s *Service) ClaimAchievement(ctx context.Context, uid uint, id string) (bool, error) {
	if _, ok := s.registry.Get(id); !ok {
		return false, ErrAchievementNotFound
	}
	var claimed bool
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		var row models.UserAchievement
		err := lockForUpdate(tx).Where("user_id = ? AND achievement_id = ?", uid, id).First(&row).Error
		if err != nil {
			return notFound(err, ErrNotClaimable)
		}
		var state *progression.UnlockState
		switch row.State {
		case models.AchievementClaimable:
			state = progression.NewUnlockState([]string{id}, nil)
		case models.AchievementUnlocked:
			state = progression.NewUnlockState(nil, []string{id})
		default:
			return ErrNotClaimable
		}
		claimed, err = state.Claim(id)
		if err != nil || !claimed {
			return err
		}
		return tx.Model(&row).Update("state", models.AchievementUnlocked).Error
	})
	if err != nil {
		return false, err
	}
	if claimed {
		utils.Sugar.Infow("achievement claimed", "user_id", uid, "achievement_id", id)
	}
	return claimed, nil
}
