package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/utils"
)

// Conversion is the outcome of ConvertXPToShards.
type Conversion struct {
	Converted    int `json:"converted"`
	Shards       int `json:"shards"`
	BonusPoints  int `json:"bonus_points"`
	AetherShards int `json:"aether_shards"`
}

// ConvertXPToShards spends amount bonus XP for amount/rate shards. The
// full amount is deducted even when it is not a multiple of the rate.
func (s *Service) ConvertXPToShards(ctx context.Context, uid uint, amount int) (*Conversion, error) {
	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	shards := amount / s.shardRate()
	if shards == 0 {
		return nil, ErrAmountTooLow
	}
	var out Conversion
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		u, err := lockUser(tx, uid)
		if err != nil {
			return err
		}
		if amount > u.BonusPoints {
			return ErrInsufficientBonus
		}
		if err := tx.Model(u).Updates(map[string]interface{}{
			"bonus_points":  gorm.Expr("bonus_points - ?", amount),
			"aether_shards": gorm.Expr("aether_shards + ?", shards),
		}).Error; err != nil {
			return err
		}
		out = Conversion{
			Converted:    amount,
			Shards:       shards,
			BonusPoints:  u.BonusPoints - amount,
			AetherShards: u.AetherShards + shards,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("xp converted", "user_id", uid, "amount", amount, "shards", shards)
	return &out, nil
}

// AwardMasterBonus grants the one-time master bonus. A second call is a
// no-op and reports false.
func (s *Service) AwardMasterBonus(ctx context.Context, uid uint, points int) (bool, error) {
	if points <= 0 {
		points = s.cfg.MasterBonusPoints
	}
	awarded := false
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		awarded = false
		u, err := lockUser(tx, uid)
		if err != nil {
			return err
		}
		if u.MasterBonusAwarded {
			return nil
		}
		res := tx.Model(&models.User{}).
			Where("id = ? AND master_bonus_awarded = ?", uid, false).
			Updates(map[string]interface{}{
				"bonus_points":         gorm.Expr("bonus_points + ?", points),
				"master_bonus_awarded": true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		awarded = true
		u.BonusPoints += points
		u.MasterBonusAwarded = true
		_, err = s.evaluateAchievements(tx, u)
		return err
	})
	if err != nil {
		return false, err
	}
	if awarded {
		utils.Sugar.Infow("master bonus awarded", "user_id", uid, "points", points)
	}
	return awarded, nil
}
