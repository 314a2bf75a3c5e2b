package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
)

// ApplyProgress adds amount to an alliance's progress. Progress only ever
// grows through this path. When the alliance is in an active challenge
// the opponent's view of it grows by the same amount in the same
// transaction.
func (s *Service) ApplyProgress(ctx context.Context, allianceID string, amount float64) (*models.Alliance, error) {
	if amount < 0 {
		return nil, ErrNegativeValue
	}
	var out *models.Alliance
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		a, err := applyProgress(tx, allianceID, amount)
		out = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyMemberContribution adds xp to one member's contribution.
func (s *Service) ApplyMemberContribution(ctx context.Context, allianceID string, uid uint, xp float64) error {
	if xp < 0 {
		return ErrNegativeValue
	}
	return s.withRetry(ctx, func(tx *gorm.DB) error {
		return applyMemberContribution(tx, allianceID, uid, xp)
	})
}

func applyProgress(tx *gorm.DB, allianceID string, amount float64) (*models.Alliance, error) {
	var a models.Alliance
	if err := lockForUpdate(tx).First(&a, "id = ?", allianceID).Error; err != nil {
		return nil, notFound(err, ErrAllianceNotFound)
	}
	if err := tx.Model(&models.Alliance{}).Where("id = ?", allianceID).
		Update("progress", gorm.Expr("progress + ?", amount)).Error; err != nil {
		return nil, err
	}
	if a.ActiveChallengeID != nil && a.OpponentAllianceID != nil {
		err := tx.Model(&models.Alliance{}).
			Where("id = ? AND active_challenge_id = ?", *a.OpponentAllianceID, *a.ActiveChallengeID).
			Update("opponent_progress", gorm.Expr("opponent_progress + ?", amount)).Error
		if err != nil {
			return nil, err
		}
	}
	if err := tx.First(&a, "id = ?", allianceID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func applyMemberContribution(tx *gorm.DB, allianceID string, uid uint, xp float64) error {
	var m models.AllianceMember
	err := lockForUpdate(tx).Where("alliance_id = ? AND user_id = ?", allianceID, uid).First(&m).Error
	if err != nil {
		return notFound(err, ErrNotMember)
	}
	return tx.Model(&models.AllianceMember{}).Where("id = ?", m.ID).
		Update("contribution", gorm.Expr("contribution + ?", xp)).Error
}
