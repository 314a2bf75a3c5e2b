package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
	"github.com/cppla/sigil/utils"
)

// AllianceInput creates an alliance. EndDate defaults to the configured
// number of days from today.
type AllianceInput struct {
	Name    string  `json:"name"`
	TaskKey string  `json:"task_key"`
	Target  float64 `json:"target"`
	EndDate string  `json:"end_date"`
}

// CreateAlliance creates an alliance with the creator as its only member.
func (s *Service) CreateAlliance(ctx context.Context, uid uint, in AllianceInput) (*models.Alliance, error) {
	name := utils.SanitizePlain(in.Name)
	if name == "" {
		return nil, invalid("alliance name is required")
	}
	if in.Target <= 0 {
		return nil, invalid("target must be positive")
	}
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	today := s.today(user)
	end := strings.TrimSpace(in.EndDate)
	if end == "" {
		t, _ := time.Parse(progression.DateLayout, today)
		end = t.AddDate(0, 0, s.cfg.AllianceDefaultDays).Format(progression.DateLayout)
	}
	if !validDate(end) {
		return nil, ErrInvalidDate
	}
	if end < today {
		return nil, invalid("end date must not be in the past")
	}

	key := strings.TrimSpace(in.TaskKey)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TaskDefinition{}).Where("user_id = ? AND task_key = ?", uid, key).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrTaskNotFound
	}

	a := models.Alliance{
		ID:        uuid.NewString(),
		Name:      name,
		CreatorID: uid,
		TaskKey:   key,
		Target:    in.Target,
		Status:    models.AllianceOngoing,
		EndDate:   end,
		Members:   []models.AllianceMember{{UserID: uid, JoinedAt: s.now()}},
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	utils.Sugar.Infow("alliance created", "alliance_id", a.ID, "creator_id", uid, "task_key", key)
	return &a, nil
}

// GetAlliance loads an alliance with its members. Status is evaluated
// against today; the stored row is left alone.
func (s *Service) GetAlliance(ctx context.Context, uid uint, id string) (*models.Alliance, error) {
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	var a models.Alliance
	err = s.db.WithContext(ctx).Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("contribution DESC, id ASC")
	}).First(&a, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, ErrAllianceNotFound)
	}
	a.Status = a.EffectiveStatus(s.today(user))
	return &a, nil
}

// ListAlliances returns the alliances the user is a member of.
func (s *Service) ListAlliances(ctx context.Context, uid uint) ([]models.Alliance, error) {
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	var out []models.Alliance
	err = s.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN alliance_members ON alliance_members.alliance_id = alliances.id").
		Where("alliance_members.user_id = ?", uid).
		Order("alliances.created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	today := s.today(user)
	for i := range out {
		out[i].Status = out[i].EffectiveStatus(today)
	}
	return out, nil
}

func loadAlliance(tx *gorm.DB, id string) (*models.Alliance, error) {
	var a models.Alliance
	if err := lockForUpdate(tx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrAllianceNotFound)
	}
	return &a, nil
}

func isMember(tx *gorm.DB, allianceID string, uid uint) (bool, error) {
	var n int64
	err := tx.Model(&models.AllianceMember{}).Where("alliance_id = ? AND user_id = ?", allianceID, uid).Count(&n).Error
	return n > 0, err
}

// Invite invites a user into an alliance. Any member may invite; a second
// pending invitation for the same user is rejected.
func (s *Service) Invite(ctx context.Context, inviterID uint, allianceID string, inviteeID uint) (*models.AllianceInvitation, error) {
	inviter, err := s.loadUser(ctx, inviterID)
	if err != nil {
		return nil, err
	}
	today := s.today(inviter)
	var inv models.AllianceInvitation
	err = s.withRetry(ctx, func(tx *gorm.DB) error {
		a, err := loadAlliance(tx, allianceID)
		if err != nil {
			return err
		}
		if a.EffectiveStatus(today) != models.AllianceOngoing {
			return ErrAllianceClosed
		}
		ok, err := isMember(tx, allianceID, inviterID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotMember
		}
		var invitee models.User
		if err := tx.First(&invitee, inviteeID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if ok, err = isMember(tx, allianceID, inviteeID); err != nil {
			return err
		} else if ok {
			return ErrAlreadyMember
		}
		var pending int64
		if err := tx.Model(&models.AllianceInvitation{}).
			Where("alliance_id = ? AND invitee_id = ? AND status = ?", allianceID, inviteeID, models.InvitationPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateInvitation
		}
		inv = models.AllianceInvitation{
			AllianceID: allianceID,
			InviterID:  inviterID,
			InviteeID:  inviteeID,
			Status:     models.InvitationPending,
		}
		return tx.Create(&inv).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvitations returns the user's pending invitations.
func (s *Service) ListInvitations(ctx context.Context, uid uint) ([]models.AllianceInvitation, error) {
	var out []models.AllianceInvitation
	err := s.db.WithContext(ctx).
		Where("invitee_id = ? AND status = ?", uid, models.InvitationPending).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// RespondInvitation accepts or declines an invitation addressed to uid.
// Accepting adds the user as a member with zero contribution.
func (s *Service) RespondInvitation(ctx context.Context, uid, invitationID uint, accept bool) (*models.AllianceInvitation, error) {
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	today := s.today(user)
	var inv models.AllianceInvitation
	err = s.withRetry(ctx, func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ? AND invitee_id = ?", invitationID, uid).First(&inv).Error; err != nil {
			return notFound(err, ErrInvitationNotFound)
		}
		if inv.Status != models.InvitationPending {
			return ErrInvitationHandled
		}
		if !accept {
			inv.Status = models.InvitationDeclined
			return tx.Model(&inv).Update("status", inv.Status).Error
		}
		a, err := loadAlliance(tx, inv.AllianceID)
		if err != nil {
			return err
		}
		if a.EffectiveStatus(today) != models.AllianceOngoing {
			return ErrAllianceClosed
		}
		if ok, err := isMember(tx, a.ID, uid); err != nil {
			return err
		} else if !ok {
			member := models.AllianceMember{AllianceID: a.ID, UserID: uid, JoinedAt: s.now()}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		inv.Status = models.InvitationAccepted
		return tx.Model(&inv).Update("status", inv.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// LeaveAlliance removes a member. The creator has to disband instead.
// Progress already contributed stays with the alliance.
func (s *Service) LeaveAlliance(ctx context.Context, uid uint, allianceID string) error {
	return s.withRetry(ctx, func(tx *gorm.DB) error {
		a, err := loadAlliance(tx, allianceID)
		if err != nil {
			return err
		}
		if a.CreatorID == uid {
			return invalid("the creator cannot leave; disband the alliance instead")
		}
		res := tx.Where("alliance_id = ? AND user_id = ?", allianceID, uid).Delete(&models.AllianceMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotMember
		}
		return nil
	})
}

// DisbandAlliance deletes an alliance. During an active challenge the
// alliance forfeits: the opponent's view of it resets to zero, its
// challenge link is cleared and the challenge completes with the
// opponent as winner.
func (s *Service) DisbandAlliance(ctx context.Context, uid uint, allianceID string) error {
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		a, err := loadAlliance(tx, allianceID)
		if err != nil {
			return err
		}
		if a.CreatorID != uid {
			return ErrNotCreator
		}
		if a.ActiveChallengeID != nil {
			if err := forfeit(tx, a); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.AllianceChallenge{}).
			Where("(challenger_alliance_id = ? OR challenged_alliance_id = ?) AND status = ?", a.ID, a.ID, models.ChallengePending).
			Update("status", models.ChallengeDeclined).Error; err != nil {
			return err
		}
		if err := tx.Where("alliance_id = ? AND status = ?", a.ID, models.InvitationPending).
			Delete(&models.AllianceInvitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("alliance_id = ?", a.ID).Delete(&models.AllianceMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Alliance{}, "id = ?", a.ID).Error
	})
	if err != nil {
		return err
	}
	utils.Sugar.Infow("alliance disbanded", "alliance_id", allianceID, "user_id", uid)
	return nil
}

func forfeit(tx *gorm.DB, a *models.Alliance) error {
	challengeID := *a.ActiveChallengeID
	if a.OpponentAllianceID != nil {
		err := tx.Model(&models.Alliance{}).
			Where("id = ? AND active_challenge_id = ?", *a.OpponentAllianceID, challengeID).
			Updates(map[string]interface{}{
				"opponent_progress":    0,
				"active_challenge_id":  nil,
				"opponent_alliance_id": nil,
			}).Error
		if err != nil {
			return err
		}
	}
	updates := map[string]interface{}{"status": models.ChallengeCompleted}
	if a.OpponentAllianceID != nil {
		updates["winner_alliance_id"] = *a.OpponentAllianceID
	}
	return tx.Model(&models.AllianceChallenge{}).Where("id = ?", challengeID).Updates(updates).Error
}
