package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
	"github.com/cppla/sigil/utils"
)

// FriendView is a public profile shown in friend lists.
type FriendView struct {
	FriendshipID uint   `json:"friendship_id"`
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url"`
	Level        int    `json:"level"`
	LevelName    string `json:"level_name"`
}

// FriendList groups accepted friends and pending requests.
type FriendList struct {
	Friends  []FriendView `json:"friends"`
	Incoming []FriendView `json:"incoming"`
	Outgoing []FriendView `json:"outgoing"`
}

// SendFriendRequest asks username to become a friend of uid. A declined
// request between the same pair may be sent again.
func (s *Service) SendFriendRequest(ctx context.Context, uid uint, username string) (*models.Friendship, error) {
	var target models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&target).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if target.ID == uid {
		return nil, ErrSelfFriendship
	}
	var f models.Friendship
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Friendship
		if err := tx.Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			uid, target.ID, target.ID, uid).Find(&existing).Error; err != nil {
			return err
		}
		for _, e := range existing {
			if e.Status != models.FriendshipDeclined {
				return ErrDuplicateFriendship
			}
		}
		if len(existing) > 0 {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		}
		f = models.Friendship{RequesterID: uid, AddresseeID: target.ID, Status: models.FriendshipPending}
		return tx.Create(&f).Error
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// RespondFriendRequest accepts or declines a request addressed to uid.
func (s *Service) RespondFriendRequest(ctx context.Context, uid, id uint, accept bool) (*models.Friendship, error) {
	var f models.Friendship
	if err := s.db.WithContext(ctx).Where("id = ? AND addressee_id = ? AND status = ?", id, uid, models.FriendshipPending).First(&f).Error; err != nil {
		return nil, notFound(err, ErrFriendshipNotFound)
	}
	f.Status = models.FriendshipDeclined
	if accept {
		f.Status = models.FriendshipAccepted
	}
	if err := s.db.WithContext(ctx).Model(&f).Update("status", f.Status).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// RemoveFriend ends a friendship or withdraws a request.
func (s *Service) RemoveFriend(ctx context.Context, uid, friendID uint) error {
	res := s.db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", uid, friendID, friendID, uid).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}

// ListFriends returns friends with their current level and open requests.
func (s *Service) ListFriends(ctx context.Context, uid uint) (*FriendList, error) {
	var rows []models.Friendship
	if err := s.db.WithContext(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status IN ?", uid, uid,
			[]string{models.FriendshipPending, models.FriendshipAccepted}).
		Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, f := range rows {
		other := f.AddresseeID
		if other == uid {
			other = f.RequesterID
		}
		ids = append(ids, other)
	}
	ids = utils.Unique(ids)
	users := map[uint]models.User{}
	if len(ids) > 0 {
		var found []models.User
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
			return nil, err
		}
		for _, u := range found {
			users[u.ID] = u
		}
	}

	out := &FriendList{Friends: []FriendView{}, Incoming: []FriendView{}, Outgoing: []FriendView{}}
	for _, f := range rows {
		other := f.AddresseeID
		if other == uid {
			other = f.RequesterID
		}
		u, ok := users[other]
		if !ok {
			continue
		}
		info := s.levelInfo(&u)
		v := FriendView{
			FriendshipID: f.ID,
			UserID:       u.ID,
			Username:     u.Username,
			DisplayName:  u.DisplayName,
			AvatarURL:    u.AvatarURL,
			Level:        info.CurrentLevel,
			LevelName:    info.LevelName,
		}
		switch {
		case f.Status == models.FriendshipAccepted:
			out.Friends = append(out.Friends, v)
		case f.AddresseeID == uid:
			out.Incoming = append(out.Incoming, v)
		default:
			out.Outgoing = append(out.Outgoing, v)
		}
	}
	return out, nil
}

// PactInput creates a daily pact. Date defaults to today.
type PactInput struct {
	Date string `json:"date"`
	Text string `json:"text"`
	Dare string `json:"dare"`
}

// PactBoard is one day of pacts plus the dares owed for missed ones.
type PactBoard struct {
	Date  string            `json:"date"`
	Pacts []models.TodoItem `json:"pacts"`
	Dares []models.TodoItem `json:"dares"`
}

// CreatePact adds a pact for today or a future day.
func (s *Service) CreatePact(ctx context.Context, uid uint, in PactInput) (*models.TodoItem, error) {
	text := utils.SanitizePlain(in.Text)
	if text == "" {
		return nil, invalid("pact text is required")
	}
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	today := s.today(user)
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = today
	}
	if !validDate(date) {
		return nil, ErrInvalidDate
	}
	if date < today {
		return nil, ErrPactExpired
	}
	item := models.TodoItem{UserID: uid, Date: date, Text: text, Dare: utils.SanitizePlain(in.Dare)}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Pacts returns the pacts of date and triggers the dare of every earlier
// pact left incomplete. Dares are evaluated here, on read.
func (s *Service) Pacts(ctx context.Context, uid uint, date string) (*PactBoard, error) {
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	today := s.today(user)
	if date == "" {
		date = today
	}
	if !validDate(date) {
		return nil, ErrInvalidDate
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.TodoItem{}).
		Where("user_id = ? AND date < ? AND completed = ? AND dare_triggered = ?", uid, today, false, false).
		Update("dare_triggered", true).Error; err != nil {
		return nil, err
	}
	board := &PactBoard{Date: date}
	if err := db.Where("user_id = ? AND date = ?", uid, date).Order("id ASC").Find(&board.Pacts).Error; err != nil {
		return nil, err
	}
	day, _ := time.Parse(progression.DateLayout, today)
	if err := db.Where("user_id = ? AND dare_triggered = ? AND dare <> '' AND date >= ?", uid, true,
		day.AddDate(0, 0, -7).Format(progression.DateLayout)).
		Order("date DESC").Find(&board.Dares).Error; err != nil {
		return nil, err
	}
	return board, nil
}

// CompletePact marks a pact done and pays the pact reward into bonus XP
// once. Completing it again is a no-op that pays nothing.
func (s *Service) CompletePact(ctx context.Context, uid, id uint) (*models.TodoItem, int, []string, error) {
	var (
		item    models.TodoItem
		reward  int
		claimed []string
	)
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		reward, claimed = 0, nil
		user, err := lockUser(tx, uid)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ? AND user_id = ?", id, uid).First(&item).Error; err != nil {
			return notFound(err, ErrPactNotFound)
		}
		if item.Completed {
			return nil
		}
		if item.Date < s.today(user) {
			return ErrPactExpired
		}
		now := s.now()
		item.Completed = true
		item.CompletedAt = &now
		if err := tx.Model(&item).Updates(map[string]interface{}{"completed": true, "completed_at": now}).Error; err != nil {
			return err
		}
		reward = s.cfg.PactRewardPoints
		if err := tx.Model(user).Update("bonus_points", gorm.Expr("bonus_points + ?", reward)).Error; err != nil {
			return err
		}
		user.BonusPoints += reward
		claimed, err = s.evaluateAchievements(tx, user)
		return err
	})
	if err != nil {
		return nil, 0, nil, err
	}
	return &item, reward, claimed, nil
}

// DeletePact removes a pact that has not been completed.
func (s *Service) DeletePact(ctx context.Context, uid, id uint) error {
	var item models.TodoItem
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, uid).First(&item).Error; err != nil {
		return notFound(err, ErrPactNotFound)
	}
	if item.Completed {
		return invalid("completed pacts cannot be deleted")
	}
	return s.db.WithContext(ctx).Delete(&item).Error
}

// SkillView is a skill-tree node with the user's state.
type SkillView struct {
	progression.Skill
	Unlocked  bool `json:"unlocked"`
	Available bool `json:"available"`
}

// ListSkills returns the skill tree for uid.
func (s *Service) ListSkills(ctx context.Context, uid uint) ([]SkillView, error) {
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.UserSkill{}).Where("user_id = ?", uid).Pluck("skill_id", &ids).Error; err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(ids))
	for _, id := range ids {
		have[id] = true
	}
	level := s.levelInfo(user).CurrentLevel
	out := make([]SkillView, 0, len(progression.Skills))
	for _, sk := range progression.Skills {
		out = append(out, SkillView{Skill: sk, Unlocked: have[sk.ID], Available: level >= sk.RequiredLevel})
	}
	return out, nil
}

// UnlockSkill unlocks a skill once the user has reached its level.
// Unlocking twice is a no-op.
func (s *Service) UnlockSkill(ctx context.Context, uid uint, skillID string) ([]string, error) {
	skill, ok := progression.SkillByID(skillID)
	if !ok {
		return nil, ErrSkillNotFound
	}
	var claimed []string
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		user, err := lockUser(tx, uid)
		if err != nil {
			return err
		}
		if s.levelInfo(user).CurrentLevel < skill.RequiredLevel {
			return ErrLevelTooLow
		}
		var row models.UserSkill
		err = tx.Where("user_id = ? AND skill_id = ?", uid, skillID).First(&row).Error
		if err == nil {
			claimed = []string{}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&models.UserSkill{UserID: uid, SkillID: skillID}).Error; err != nil {
			return err
		}
		claimed, err = s.evaluateAchievements(tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// LoreInput is a new lore entry.
type LoreInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CreateLore stores a lore entry and rescans achievements.
func (s *Service) CreateLore(ctx context.Context, uid uint, in LoreInput) (*models.LoreEntry, []string, error) {
	title := utils.SanitizePlain(in.Title)
	if title == "" {
		return nil, nil, invalid("lore title is required")
	}
	entry := models.LoreEntry{UserID: uid, Title: title, Body: utils.Sanitize(in.Body)}
	var claimed []string
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		user, err := lockUser(tx, uid)
		if err != nil {
			return err
		}
		entry.ID = 0
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		claimed, err = s.evaluateAchievements(tx, user)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &entry, claimed, nil
}

// ListLore returns the user's lore entries, newest first.
func (s *Service) ListLore(ctx context.Context, uid uint) ([]models.LoreEntry, error) {
	var out []models.LoreEntry
	err := s.db.WithContext(ctx).Where("user_id = ?", uid).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}
