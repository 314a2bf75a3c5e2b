package services

import (
	"context"
	"regexp"
	"strings"

	"gorm.io/datatypes"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
	"github.com/cppla/sigil/utils"
)

var keyCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// TaskInput creates or patches a task definition. On update, zero values
// and nil thresholds leave the stored field unchanged; an empty threshold
// list resets the task to the default thresholds.
type TaskInput struct {
	Key                 string    `json:"key"`
	Name                string    `json:"name"`
	Color               string    `json:"color"`
	Icon                string    `json:"icon"`
	Status              string    `json:"status"`
	Priority            string    `json:"priority"`
	Unit                string    `json:"unit"`
	IntensityThresholds []float64 `json:"intensity_thresholds"`
	FrequencyType       string    `json:"frequency_type"`
	FrequencyCount      int       `json:"frequency_count"`
}

func slugKey(s string) string {
	return strings.Trim(keyCleaner.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func clampFrequency(freqType string, count int) int {
	if freqType != progression.FrequencyWeekly {
		return 0
	}
	if count < 1 {
		return 1
	}
	if count > 7 {
		return 7
	}
	return count
}

func validateTaskEnums(in TaskInput) error {
	switch in.Status {
	case "", models.TaskStatusActive, models.TaskStatusPaused, models.TaskStatusCompleted:
	default:
		return invalid("unknown task status %q", in.Status)
	}
	switch in.Priority {
	case "", progression.PriorityNormal, progression.PriorityHigh:
	default:
		return invalid("unknown priority %q", in.Priority)
	}
	switch in.FrequencyType {
	case "", progression.FrequencyDaily, progression.FrequencyWeekly:
	default:
		return invalid("unknown frequency type %q", in.FrequencyType)
	}
	if in.IntensityThresholds != nil && !progression.ValidThresholds(in.IntensityThresholds) {
		return ErrInvalidThresholds
	}
	return nil
}

// ListTasks returns the user's task definitions.
func (s *Service) ListTasks(ctx context.Context, uid uint) ([]models.TaskDefinition, error) {
	var tasks []models.TaskDefinition
	err := s.db.WithContext(ctx).Where("user_id = ?", uid).Order("id ASC").Find(&tasks).Error
	return tasks, err
}

// GetTask loads one of the user's tasks.
func (s *Service) GetTask(ctx context.Context, uid, id uint) (*models.TaskDefinition, error) {
	var t models.TaskDefinition
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, uid).First(&t).Error; err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	return &t, nil
}

// CreateTask adds a task definition. The key defaults to a slug of the name.
func (s *Service) CreateTask(ctx context.Context, uid uint, in TaskInput) (*models.TaskDefinition, error) {
	name := utils.SanitizePlain(in.Name)
	if name == "" {
		return nil, invalid("task name is required")
	}
	if err := validateTaskEnums(in); err != nil {
		return nil, err
	}
	key := slugKey(in.Key)
	if key == "" {
		key = slugKey(name)
	}
	if key == "" {
		return nil, invalid("task key is required")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TaskDefinition{}).Where("user_id = ? AND task_key = ?", uid, key).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, invalid("task key %q already exists", key)
	}

	t := models.TaskDefinition{
		UserID:              uid,
		Key:                 key,
		Name:                name,
		Color:               in.Color,
		Icon:                in.Icon,
		Status:              in.Status,
		Priority:            in.Priority,
		Unit:                strings.TrimSpace(in.Unit),
		IntensityThresholds: datatypes.JSONSlice[float64](in.IntensityThresholds),
		FrequencyType:       in.FrequencyType,
	}
	if t.Status == "" {
		t.Status = models.TaskStatusActive
	}
	if t.Priority == "" {
		t.Priority = progression.PriorityNormal
	}
	if t.FrequencyType == "" {
		t.FrequencyType = progression.FrequencyDaily
	}
	t.FrequencyCount = clampFrequency(t.FrequencyType, in.FrequencyCount)
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask patches a task definition. The key is immutable because
// alliances and achievements refer to it.
func (s *Service) UpdateTask(ctx context.Context, uid, id uint, in TaskInput) (*models.TaskDefinition, error) {
	if err := validateTaskEnums(in); err != nil {
		return nil, err
	}
	t, err := s.GetTask(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if name := utils.SanitizePlain(in.Name); name != "" {
		t.Name = name
	}
	if in.Color != "" {
		t.Color = in.Color
	}
	if in.Icon != "" {
		t.Icon = in.Icon
	}
	if in.Status != "" {
		t.Status = in.Status
	}
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	if in.Unit != "" {
		t.Unit = strings.TrimSpace(in.Unit)
	}
	if in.IntensityThresholds != nil {
		t.IntensityThresholds = datatypes.JSONSlice[float64](in.IntensityThresholds)
	}
	if in.FrequencyType != "" {
		t.FrequencyType = in.FrequencyType
	}
	count := t.FrequencyCount
	if in.FrequencyCount != 0 {
		count = in.FrequencyCount
	}
	t.FrequencyCount = clampFrequency(t.FrequencyType, count)
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask removes a task definition. Its records stay and keep the
// pricing snapshot they were logged with.
func (s *Service) DeleteTask(ctx context.Context, uid, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, uid).Delete(&models.TaskDefinition{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func taskSpecs(tasks []models.TaskDefinition) map[uint]progression.Task {
	out := make(map[uint]progression.Task, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t.Spec()
	}
	return out
}
