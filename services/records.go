package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
	"github.com/cppla/sigil/utils"
)

// RecordInput logs one activity. An empty date means today in the user's timezone.
type RecordInput struct {
	TaskID *uint   `json:"task_id"`
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
	Notes  string  `json:"notes"`
}

// RecordResult is everything a logged record changed.
type RecordResult struct {
	Record         models.ActivityRecord    `json:"record"`
	XPAwarded      int                      `json:"xp_awarded"`
	Replayed       bool                     `json:"replayed"`
	Level          progression.LevelInfo    `json:"level"`
	Mastery        *progression.MasteryInfo `json:"mastery,omitempty"`
	Alliances      []string                 `json:"alliances,omitempty"`
	NewlyClaimable []string                 `json:"newly_claimable"`
}

// LogRecord stores a record and applies its effects in one transaction:
// XP pricing at the running level, task mastery, alliance progress and
// member contribution, then an achievement scan.
//
// Records that sort after the user's XP checkpoint are folded in
// incrementally. A backdated record forces a full chronological replay
// over the user's records read inside the same transaction.
func (s *Service) LogRecord(ctx context.Context, uid uint, in RecordInput) (*RecordResult, error) {
	if in.Value < 0 {
		return nil, ErrNegativeValue
	}
	var res RecordResult
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		res = RecordResult{}
		user, err := lockUser(tx, uid)
		if err != nil {
			return err
		}
		today := s.today(user)
		date := strings.TrimSpace(in.Date)
		if date == "" {
			date = today
		}
		if !validDate(date) {
			return ErrInvalidDate
		}

		var task *models.TaskDefinition
		if in.TaskID != nil {
			var t models.TaskDefinition
			if err := tx.Where("id = ? AND user_id = ?", *in.TaskID, uid).First(&t).Error; err != nil {
				return notFound(err, ErrTaskNotFound)
			}
			task = &t
		}

		var spec *progression.Task
		if task != nil {
			ts := task.Spec()
			spec = &ts
		}
		rec := models.ActivityRecord{
			UserID: uid,
			TaskID: in.TaskID,
			Date:   date,
			Value:  in.Value,
			Notes:  utils.Sanitize(in.Notes),
		}
		rec.Freeze(spec)
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}

		cp := progression.Checkpoint{
			Total:        user.XPTotal,
			LastDate:     user.XPCheckpointDate,
			LastRecordID: user.XPCheckpointRecordID,
		}
		xp, advanced := cp.Advance(rec.Priced(), spec, s.curve)
		if !advanced {
			var awarded map[uint]int
			cp, awarded, err = s.replay(tx, uid)
			if err != nil {
				return err
			}
			xp = awarded[rec.ID]
			res.Replayed = true
		}

		rec.XPAwarded = xp
		if err := tx.Model(&rec).Update("xp_awarded", xp).Error; err != nil {
			return err
		}
		user.XPTotal = cp.Total
		user.XPCheckpointDate = cp.LastDate
		user.XPCheckpointRecordID = cp.LastRecordID
		if err := tx.Model(user).Updates(map[string]interface{}{
			"xp_total":                cp.Total,
			"xp_checkpoint_date":      cp.LastDate,
			"xp_checkpoint_record_id": cp.LastRecordID,
		}).Error; err != nil {
			return err
		}

		if task != nil {
			info, err := s.addMastery(tx, uid, task.ID, xp)
			if err != nil {
				return err
			}
			res.Mastery = &info
			ids, err := contribute(tx, uid, task.Key, today, rec.Value, xp)
			if err != nil {
				return err
			}
			res.Alliances = ids
		}

		fresh, err := s.evaluateAchievements(tx, user)
		if err != nil {
			return err
		}
		res.Record = rec
		res.XPAwarded = xp
		res.Level = s.levelInfo(user)
		res.NewlyClaimable = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("record logged",
		"user_id", uid, "record_id", res.Record.ID, "xp", res.XPAwarded,
		"replayed", res.Replayed, "level", res.Level.CurrentLevel)
	return &res, nil
}

// replay folds every record the user ever logged, deleted ones included,
// in chronological order and stores the re-priced XP on each row. Each
// record is folded from its frozen pricing inputs, so later edits to the
// record or its task cannot lower what it earned.
func (s *Service) replay(tx *gorm.DB, uid uint) (progression.Checkpoint, map[uint]int, error) {
	var rows []models.ActivityRecord
	if err := tx.Unscoped().Where("user_id = ?", uid).Find(&rows).Error; err != nil {
		return progression.Checkpoint{}, nil, err
	}
	var tasks []models.TaskDefinition
	if err := tx.Where("user_id = ?", uid).Find(&tasks).Error; err != nil {
		return progression.Checkpoint{}, nil, err
	}
	recs := make([]progression.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.Priced())
	}
	cp, awarded := progression.Replay(recs, taskSpecs(tasks), s.curve)
	for _, r := range rows {
		if xp := awarded[r.ID]; xp != r.XPAwarded {
			if err := tx.Unscoped().Model(&models.ActivityRecord{}).Where("id = ?", r.ID).Update("xp_awarded", xp).Error; err != nil {
				return progression.Checkpoint{}, nil, err
			}
		}
	}
	return cp, awarded, nil
}

func (s *Service) addMastery(tx *gorm.DB, uid, taskID uint, xp int) (progression.MasteryInfo, error) {
	var m models.TaskMastery
	err := lockForUpdate(tx).Where("user_id = ? AND task_id = ?", uid, taskID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m = models.TaskMastery{UserID: uid, TaskID: taskID, Level: 1}
	} else if err != nil {
		return progression.MasteryInfo{}, err
	}
	m.XP += xp
	info := s.mastery.Resolve(m.XP)
	m.Level = info.Level
	if err := tx.Save(&m).Error; err != nil {
		return progression.MasteryInfo{}, err
	}
	return info, nil
}

// contribute feeds a record into every running alliance the user belongs
// to on this task key: the record value goes to group progress and the
// awarded XP to the member's contribution.
func contribute(tx *gorm.DB, uid uint, taskKey, today string, value float64, xp int) ([]string, error) {
	var ids []string
	err := tx.Model(&models.Alliance{}).
		Joins("JOIN alliance_members ON alliance_members.alliance_id = alliances.id").
		Where("alliance_members.user_id = ? AND alliances.task_key = ? AND alliances.status = ? AND alliances.end_date >= ?",
			uid, taskKey, models.AllianceOngoing, today).
		Order("alliances.id").
		Pluck("alliances.id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if value > 0 {
			if _, err := applyProgress(tx, id, value); err != nil {
				return nil, err
			}
		}
		if err := applyMemberContribution(tx, id, uid, float64(xp)); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// RecordFilter narrows ListRecords. Dates are inclusive.
type RecordFilter struct {
	From     string
	To       string
	TaskID   *uint
	Page     int
	PageSize int
}

// ListRecords pages through the user's records, newest first.
func (s *Service) ListRecords(ctx context.Context, uid uint, f RecordFilter) ([]models.ActivityRecord, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}
	q := s.db.WithContext(ctx).Model(&models.ActivityRecord{}).Where("user_id = ?", uid)
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}
	if f.TaskID != nil {
		q = q.Where("task_id = ?", *f.TaskID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.ActivityRecord
	err := q.Order("date DESC, id DESC").Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&out).Error
	return out, total, err
}

// RecordPatch edits a record; nil fields are left unchanged.
type RecordPatch struct {
	TaskID *uint    `json:"task_id"`
	Date   *string  `json:"date"`
	Value  *float64 `json:"value"`
	Notes  *string  `json:"notes"`
}

// UpdateRecord edits a record in place. XP, mastery and alliance effects
// granted when the record was logged are kept as they are. Task totals may
// change, so the achievement scan runs again; newly claimable ids are
// returned.
func (s *Service) UpdateRecord(ctx context.Context, uid, id uint, p RecordPatch) (*models.ActivityRecord, []string, error) {
	updates := map[string]interface{}{}
	if p.Date != nil {
		if !validDate(*p.Date) {
			return nil, nil, ErrInvalidDate
		}
		updates["date"] = *p.Date
	}
	if p.Value != nil {
		if *p.Value < 0 {
			return nil, nil, ErrNegativeValue
		}
		updates["value"] = *p.Value
	}
	if p.Notes != nil {
		updates["notes"] = utils.Sanitize(*p.Notes)
	}
	if p.TaskID != nil {
		if _, err := s.GetTask(ctx, uid, *p.TaskID); err != nil {
			return nil, nil, err
		}
		updates["task_id"] = *p.TaskID
	}

	var (
		rec   models.ActivityRecord
		fresh []string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, uid)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ? AND user_id = ?", id, uid).First(&rec).Error; err != nil {
			return notFound(err, ErrRecordNotFound)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&rec).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(&rec, rec.ID).Error; err != nil {
			return err
		}
		fresh, err = s.evaluateAchievements(tx, user)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &rec, fresh, nil
}

// DeleteRecord soft-deletes a record. Its XP stays granted.
func (s *Service) DeleteRecord(ctx context.Context, uid, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, uid).Delete(&models.ActivityRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
