package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
	"github.com/cppla/sigil/utils"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

// RegisterInput describes a new account.
type RegisterInput struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

// Register creates an account and seeds the default task set.
func (s *Service) Register(ctx context.Context, in RegisterInput, ip string) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		return nil, invalid("username must be 2-32 letters, digits, '-' or '_'")
	}
	if len(in.Password) < 6 || len(in.Password) > 64 {
		return nil, invalid("password must be 6-64 characters")
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, invalid("unknown timezone %q", in.Timezone)
		}
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	display := utils.SanitizePlain(in.DisplayName)
	if display == "" {
		display = username
	}

	user := models.User{
		Username:     username,
		DisplayName:  display,
		PasswordHash: hash,
		Timezone:     in.Timezone,
		RegisterIP:   ip,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return seedTasks(tx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("user registered", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, uid uint) (*models.User, error) {
	return s.loadUser(ctx, uid)
}

// FindUser loads a user by username.
func (s *Service) FindUser(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

// ProfileInput updates optional profile fields; nil leaves a field as is.
type ProfileInput struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Timezone    *string `json:"timezone"`
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, uid uint, in ProfileInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.DisplayName != nil {
		name := utils.SanitizePlain(*in.DisplayName)
		if name == "" {
			return nil, invalid("display name must not be empty")
		}
		updates["display_name"] = name
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if in.Timezone != nil {
		if _, err := time.LoadLocation(*in.Timezone); err != nil {
			return nil, invalid("unknown timezone %q", *in.Timezone)
		}
		updates["timezone"] = *in.Timezone
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.loadUser(ctx, uid)
}

func seedTasks(tx *gorm.DB, uid uint) error {
	tasks := make([]models.TaskDefinition, 0, len(progression.DefaultTasks))
	for _, t := range progression.DefaultTasks {
		tasks = append(tasks, models.TaskDefinition{
			UserID:              uid,
			Key:                 t.Key,
			Name:                t.Name,
			Color:               t.Color,
			Icon:                t.Icon,
			Status:              models.TaskStatusActive,
			Priority:            t.Priority,
			Unit:                t.Unit,
			IntensityThresholds: t.Thresholds,
			FrequencyType:       t.FrequencyType,
			FrequencyCount:      t.FrequencyCount,
		})
	}
	return tx.Create(&tasks).Error
}
