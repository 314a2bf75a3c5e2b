package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/utils"
)

// CreateChallenge opens a pending duel from one alliance to another. Only
// the challenger's creator may do this, and it fails while any pending or
// active challenge links the two alliances in either direction.
func (s *Service) CreateChallenge(ctx context.Context, uid uint, challengerID, challengedID string) (*models.AllianceChallenge, error) {
	if challengerID == challengedID {
		return nil, ErrSelfChallenge
	}
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	today := s.today(user)
	var ch models.AllianceChallenge
	err = s.withRetry(ctx, func(tx *gorm.DB) error {
		challenger, err := loadAlliance(tx, challengerID)
		if err != nil {
			return err
		}
		challenged, err := loadAlliance(tx, challengedID)
		if err != nil {
			return err
		}
		if challenger.CreatorID != uid {
			return ErrNotCreator
		}
		if challenger.EffectiveStatus(today) != models.AllianceOngoing || challenged.EffectiveStatus(today) != models.AllianceOngoing {
			return ErrAllianceClosed
		}
		if challenger.ActiveChallengeID != nil || challenged.ActiveChallengeID != nil {
			return ErrChallengeBusy
		}
		var open int64
		if err := tx.Model(&models.AllianceChallenge{}).
			Where("((challenger_alliance_id = ? AND challenged_alliance_id = ?) OR (challenger_alliance_id = ? AND challenged_alliance_id = ?)) AND status IN ?",
				challengerID, challengedID, challengedID, challengerID,
				[]string{models.ChallengePending, models.ChallengeActive}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrChallengeExists
		}
		ch = models.AllianceChallenge{
			ID:                   uuid.NewString(),
			ChallengerAllianceID: challengerID,
			ChallengedAllianceID: challengedID,
			Status:               models.ChallengePending,
		}
		return tx.Create(&ch).Error
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("challenge created", "challenge_id", ch.ID, "challenger", challengerID, "challenged", challengedID)
	return &ch, nil
}

// RespondChallenge lets the challenged alliance's creator accept or
// decline. Accepting links both alliances to the challenge and starts
// both opponent counters at zero.
func (s *Service) RespondChallenge(ctx context.Context, uid uint, challengeID string, accept bool) (*models.AllianceChallenge, error) {
	var ch models.AllianceChallenge
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&ch, "id = ?", challengeID).Error; err != nil {
			return notFound(err, ErrChallengeNotFound)
		}
		if ch.Status != models.ChallengePending {
			return ErrChallengeState
		}
		challenger, err := loadAlliance(tx, ch.ChallengerAllianceID)
		if err != nil {
			return err
		}
		challenged, err := loadAlliance(tx, ch.ChallengedAllianceID)
		if err != nil {
			return err
		}
		if challenged.CreatorID != uid {
			return ErrNotCreator
		}
		if !accept {
			ch.Status = models.ChallengeDeclined
			return tx.Model(&ch).Update("status", ch.Status).Error
		}
		if challenger.ActiveChallengeID != nil || challenged.ActiveChallengeID != nil {
			return ErrChallengeBusy
		}
		for _, pair := range [][2]string{{challenger.ID, challenged.ID}, {challenged.ID, challenger.ID}} {
			err := tx.Model(&models.Alliance{}).Where("id = ?", pair[0]).Updates(map[string]interface{}{
				"active_challenge_id":  ch.ID,
				"opponent_alliance_id": pair[1],
				"opponent_progress":    0,
			}).Error
			if err != nil {
				return err
			}
		}
		ch.Status = models.ChallengeActive
		return tx.Model(&ch).Update("status", ch.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// CompleteChallenge closes an active challenge. Either creator may call
// it. The winner is the side that made more progress during the
// challenge; a tie has no winner.
func (s *Service) CompleteChallenge(ctx context.Context, uid uint, challengeID string) (*models.AllianceChallenge, error) {
	var ch models.AllianceChallenge
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&ch, "id = ?", challengeID).Error; err != nil {
			return notFound(err, ErrChallengeNotFound)
		}
		if ch.Status != models.ChallengeActive {
			return ErrChallengeState
		}
		challenger, err := loadAlliance(tx, ch.ChallengerAllianceID)
		if err != nil {
			return err
		}
		challenged, err := loadAlliance(tx, ch.ChallengedAllianceID)
		if err != nil {
			return err
		}
		if challenger.CreatorID != uid && challenged.CreatorID != uid {
			return ErrNotCreator
		}
		// each side's counter holds the other's challenge progress
		challengerScore, challengedScore := challenged.OpponentProgress, challenger.OpponentProgress
		switch {
		case challengerScore > challengedScore:
			ch.WinnerAllianceID = &challenger.ID
		case challengedScore > challengerScore:
			ch.WinnerAllianceID = &challenged.ID
		}
		if err := tx.Model(&models.Alliance{}).
			Where("id IN ? AND active_challenge_id = ?", []string{challenger.ID, challenged.ID}, ch.ID).
			Updates(map[string]interface{}{"active_challenge_id": nil, "opponent_alliance_id": nil}).Error; err != nil {
			return err
		}
		ch.Status = models.ChallengeCompleted
		return tx.Model(&ch).Updates(map[string]interface{}{
			"status":             ch.Status,
			"winner_alliance_id": ch.WinnerAllianceID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListChallenges returns the challenges an alliance took part in.
func (s *Service) ListChallenges(ctx context.Context, allianceID string) ([]models.AllianceChallenge, error) {
	var out []models.AllianceChallenge
	err := s.db.WithContext(ctx).
		Where("challenger_alliance_id = ? OR challenged_alliance_id = ?", allianceID, allianceID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
