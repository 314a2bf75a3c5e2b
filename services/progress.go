package services

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
)

// TaskStreak is the current streak of one task.
type TaskStreak struct {
	TaskID         uint   `json:"task_id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	FrequencyType  string `json:"frequency_type"`
	FrequencyCount int    `json:"frequency_count"`
	Streak         int    `json:"streak"`
}

// TaskMasteryView pairs a task with its derived mastery.
type TaskMasteryView struct {
	TaskID uint   `json:"task_id"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	progression.MasteryInfo
}

// ProgressSummary is the read model of a user's progression.
type ProgressSummary struct {
	UserID             uint                  `json:"user_id"`
	Username           string                `json:"username"`
	DisplayName        string                `json:"display_name"`
	Today              string                `json:"today"`
	Level              progression.LevelInfo `json:"level"`
	RecordXP           int                   `json:"record_xp"`
	BonusPoints        int                   `json:"bonus_points"`
	AetherShards       int                   `json:"aether_shards"`
	MasterBonusAwarded bool                  `json:"master_bonus_awarded"`
	OverallStreak      int                   `json:"overall_streak"`
	Streaks            []TaskStreak          `json:"streaks"`
	Mastery            []TaskMasteryView     `json:"mastery"`
	Claimable          []string              `json:"claimable_achievements"`
	Unlocked           []string              `json:"unlocked_achievements"`
}

// derived is what the achievement scan and the summary both need.
type derived struct {
	tasks   []models.TaskDefinition
	streaks []TaskStreak
	overall int
	context *progression.AchievementContext
}

// derive reads the user's tasks and live records through tx and computes
// streaks and per-task totals.
func (s *Service) derive(tx *gorm.DB, u *models.User) (*derived, error) {
	var tasks []models.TaskDefinition
	if err := tx.Where("user_id = ?", u.ID).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	var rows []models.ActivityRecord
	if err := tx.Select("task_id", "date", "value").Where("user_id = ?", u.ID).Find(&rows).Error; err != nil {
		return nil, err
	}
	var skills, lore int64
	if err := tx.Model(&models.UserSkill{}).Where("user_id = ?", u.ID).Count(&skills).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.LoreEntry{}).Where("user_id = ?", u.ID).Count(&lore).Error; err != nil {
		return nil, err
	}

	units := make(map[uint]string, len(tasks))
	for _, t := range tasks {
		units[t.ID] = t.Unit
	}
	allDates := make([]string, 0, len(rows))
	dates := map[uint][]string{}
	sums := map[uint]float64{}
	for _, r := range rows {
		allDates = append(allDates, r.Date)
		if r.TaskID == nil {
			continue
		}
		id := *r.TaskID
		dates[id] = append(dates[id], r.Date)
		sums[id] += progression.NormalizeValue(r.Value, units[id])
	}

	today := s.today(u)
	d := &derived{tasks: tasks, overall: progression.DailyStreak(allDates, today)}
	byKey := make(map[string]int, len(tasks))
	sumByKey := make(map[string]float64, len(tasks))
	for _, t := range tasks {
		n := progression.Streak(dates[t.ID], today, t.FrequencyType, t.FrequencyCount)
		d.streaks = append(d.streaks, TaskStreak{
			TaskID:         t.ID,
			Key:            t.Key,
			Name:           t.Name,
			FrequencyType:  t.FrequencyType,
			FrequencyCount: t.FrequencyCount,
			Streak:         n,
		})
		byKey[t.Key] = n
		sumByKey[t.Key] = sums[t.ID]
	}
	d.context = &progression.AchievementContext{
		LevelInfo:          s.levelInfo(u),
		Streaks:            byKey,
		UnlockedSkillCount: int(skills),
		LoreEntryCount:     int(lore),
		TaskSum:            func(key string) float64 { return sumByKey[key] },
	}
	return d, nil
}

// unlockState loads the stored achievement sets. Traded titles count as
// held so the scan never offers them again.
func unlockState(tx *gorm.DB, uid uint) (*progression.UnlockState, []models.UserAchievement, error) {
	var rows []models.UserAchievement
	if err := tx.Where("user_id = ?", uid).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	var claimable, held []string
	for _, r := range rows {
		if r.State == models.AchievementClaimable {
			claimable = append(claimable, r.AchievementID)
		} else {
			held = append(held, r.AchievementID)
		}
	}
	return progression.NewUnlockState(claimable, held), rows, nil
}

// evaluateAchievements runs the registry against fresh derived state and
// stores newly met achievements as claimable. It returns the new ids.
func (s *Service) evaluateAchievements(tx *gorm.DB, u *models.User) ([]string, error) {
	d, err := s.derive(tx, u)
	if err != nil {
		return nil, err
	}
	state, _, err := unlockState(tx, u.ID)
	if err != nil {
		return nil, err
	}
	moved := state.MarkClaimable(s.registry.Evaluate(d.context, state)...)
	if len(moved) == 0 {
		return []string{}, nil
	}
	rows := make([]models.UserAchievement, 0, len(moved))
	for _, id := range moved {
		rows = append(rows, models.UserAchievement{UserID: u.ID, AchievementID: id, State: models.AchievementClaimable})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return moved, nil
}

// Summary assembles the user's progression from one consistent read.
func (s *Service) Summary(ctx context.Context, uid uint) (*ProgressSummary, error) {
	var out *ProgressSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, uid).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		d, err := s.derive(tx, &u)
		if err != nil {
			return err
		}
		var masteries []models.TaskMastery
		if err := tx.Where("user_id = ?", uid).Find(&masteries).Error; err != nil {
			return err
		}
		state, rows, err := unlockState(tx, uid)
		if err != nil {
			return err
		}

		xpByTask := make(map[uint]int, len(masteries))
		for _, m := range masteries {
			xpByTask[m.TaskID] = m.XP
		}
		views := make([]TaskMasteryView, 0, len(d.tasks))
		for _, t := range d.tasks {
			views = append(views, TaskMasteryView{
				TaskID:      t.ID,
				Key:         t.Key,
				Name:        t.Name,
				MasteryInfo: s.mastery.Resolve(xpByTask[t.ID]),
			})
		}
		unlocked := make([]string, 0, len(rows))
		for _, r := range rows {
			if r.State == models.AchievementUnlocked {
				unlocked = append(unlocked, r.AchievementID)
			}
		}
		sort.Strings(unlocked)

		out = &ProgressSummary{
			UserID:             u.ID,
			Username:           u.Username,
			DisplayName:        u.DisplayName,
			Today:              s.today(&u),
			Level:              d.context.LevelInfo,
			RecordXP:           u.XPTotal,
			BonusPoints:        u.BonusPoints,
			AetherShards:       u.AetherShards,
			MasterBonusAwarded: u.MasterBonusAwarded,
			OverallStreak:      d.overall,
			Streaks:            d.streaks,
			Mastery:            views,
			Claimable:          state.Claimable(),
			Unlocked:           unlocked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
