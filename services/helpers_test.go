package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/testutil"
)

// Wednesday
var baseTime = time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) AddDays(n int) { c.t = c.t.AddDate(0, 0, n) }

func newService(t *testing.T) (*Service, *testClock) {
	t.Helper()
	clock := &testClock{t: baseTime}
	return New(testutil.DB(t), testutil.Config(), WithClock(clock.Now)), clock
}

func newUser(t *testing.T, s *Service, name string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), RegisterInput{Username: name, Password: "secret1", Timezone: "UTC"}, "127.0.0.1")
	require.NoError(t, err)
	return u
}

func taskByKey(t *testing.T, s *Service, uid uint, key string) models.TaskDefinition {
	t.Helper()
	var task models.TaskDefinition
	require.NoError(t, s.db.Where("user_id = ? AND task_key = ?", uid, key).First(&task).Error)
	return task
}

func reloadUser(t *testing.T, s *Service, uid uint) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, s.db.First(&u, uid).Error)
	return u
}

func setWallet(t *testing.T, s *Service, uid uint, bonus, shards int) {
	t.Helper()
	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", uid).
		Updates(map[string]interface{}{"bonus_points": bonus, "aether_shards": shards}).Error)
}

func grantAchievement(t *testing.T, s *Service, uid uint, id, state string) {
	t.Helper()
	require.NoError(t, s.db.Create(&models.UserAchievement{UserID: uid, AchievementID: id, State: state}).Error)
}

func ptr[T any](v T) *T { return &v }
