package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sigil/models"
)

func TestLogRecordIncrementalThenBackdated(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "ada")
	deep := taskByKey(t, s, u.ID, "deep-work")
	reading := taskByKey(t, s, u.ID, "reading")

	// high priority, phase 4 at level 1: 15
	res, err := s.LogRecord(ctx, u.ID, RecordInput{TaskID: &deep.ID, Date: "2024-06-10", Value: 180})
	require.NoError(t, err)
	assert.Equal(t, 15, res.XPAwarded)
	assert.False(t, res.Replayed)

	// phase 2: 7.5 rounds to 8
	res, err = s.LogRecord(ctx, u.ID, RecordInput{TaskID: &deep.ID, Date: "2024-06-11", Value: 60})
	require.NoError(t, err)
	assert.Equal(t, 8, res.XPAwarded)
	require.NotNil(t, res.Mastery)
	assert.Equal(t, 23, res.Mastery.XP)
	assert.Equal(t, 1, res.Mastery.Level)

	got := reloadUser(t, s, u.ID)
	assert.Equal(t, 23, got.XPTotal)
	assert.Equal(t, "2024-06-11", got.XPCheckpointDate)
	assert.Equal(t, res.Record.ID, got.XPCheckpointRecordID)

	res, err = s.LogRecord(ctx, u.ID, RecordInput{TaskID: &reading.ID, Date: "2024-06-01", Value: 20})
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, 10, res.XPAwarded)

	got = reloadUser(t, s, u.ID)
	assert.Equal(t, 33, got.XPTotal)
	assert.Equal(t, "2024-06-11", got.XPCheckpointDate)
	assert.Equal(t, 33, res.Level.TotalAccumulatedValue)
}

func TestLogRecordDefaultsToToday(t *testing.T) {
	s, _ := newService(t)
	u := newUser(t, s, "bea")

	res, err := s.LogRecord(context.Background(), u.ID, RecordInput{Value: 20})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-12", res.Record.Date)
	assert.Equal(t, 10, res.XPAwarded)
	assert.Nil(t, res.Mastery)
}

func TestLogRecordValidation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "cy")
	other := newUser(t, s, "dot")
	foreign := taskByKey(t, s, other.ID, "reading")

	_, err := s.LogRecord(ctx, u.ID, RecordInput{Value: -1})
	assert.ErrorIs(t, err, ErrNegativeValue)

	_, err = s.LogRecord(ctx, u.ID, RecordInput{Value: 1, Date: "12/06/2024"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = s.LogRecord(ctx, u.ID, RecordInput{Value: 1, TaskID: &foreign.ID})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	var n int64
	require.NoError(t, s.db.Model(&models.ActivityRecord{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDeletedRecordsKeepTheirXP(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "eve")
	deep := taskByKey(t, s, u.ID, "deep-work")
	reading := taskByKey(t, s, u.ID, "reading")

	res, err := s.LogRecord(ctx, u.ID, RecordInput{TaskID: &deep.ID, Date: "2024-06-10", Value: 180})
	require.NoError(t, err)
	require.NoError(t, s.DeleteRecord(ctx, u.ID, res.Record.ID))
	assert.ErrorIs(t, s.DeleteRecord(ctx, u.ID, res.Record.ID), ErrRecordNotFound)
	assert.Equal(t, 15, reloadUser(t, s, u.ID).XPTotal)

	list, total, err := s.ListRecords(ctx, u.ID, RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	// the replay triggered by a backdated record still counts the deleted one
	_, err = s.LogRecord(ctx, u.ID, RecordInput{TaskID: &reading.ID, Date: "2024-06-01", Value: 20})
	require.NoError(t, err)
	assert.Equal(t, 25, reloadUser(t, s, u.ID).XPTotal)
}

func TestUpdateRecordKeepsXP(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "fay")
	deep := taskByKey(t, s, u.ID, "deep-work")

	res, err := s.LogRecord(ctx, u.ID, RecordInput{TaskID: &deep.ID, Date: "2024-06-10", Value: 180})
	require.NoError(t, err)

	rec, fresh, err := s.UpdateRecord(ctx, u.ID, res.Record.ID, RecordPatch{Value: ptr(5.0), Notes: ptr("<b>ok</b><script>x</script>")})
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Equal(t, 5.0, rec.Value)
	assert.Equal(t, "<b>ok</b>", rec.Notes)
	assert.Equal(t, 15, rec.XPAwarded)
	assert.Equal(t, 15, reloadUser(t, s, u.ID).XPTotal)

	_, _, err = s.UpdateRecord(ctx, u.ID, res.Record.ID, RecordPatch{Date: ptr("nope")})
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, _, err = s.UpdateRecord(ctx, u.ID, 999, RecordPatch{Value: ptr(1.0)})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestReplayUsesPricedInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, s *Service, uid uint, task models.TaskDefinition, recordID uint)
	}{
		{
			name: "record value edited to zero",
			mutate: func(t *testing.T, s *Service, uid uint, _ models.TaskDefinition, recordID uint) {
				_, _, err := s.UpdateRecord(context.Background(), uid, recordID, RecordPatch{Value: ptr(0.0)})
				require.NoError(t, err)
			},
		},
		{
			name: "record moved after the checkpoint",
			mutate: func(t *testing.T, s *Service, uid uint, _ models.TaskDefinition, recordID uint) {
				_, _, err := s.UpdateRecord(context.Background(), uid, recordID, RecordPatch{Date: ptr("2024-06-12"), Value: ptr(1.0)})
				require.NoError(t, err)
			},
		},
		{
			name: "task downgraded",
			mutate: func(t *testing.T, s *Service, uid uint, task models.TaskDefinition, _ uint) {
				_, err := s.UpdateTask(context.Background(), uid, task.ID, TaskInput{
					Priority:            "normal",
					IntensityThresholds: []float64{500, 600, 700, 800},
				})
				require.NoError(t, err)
			},
		},
		{
			name: "task deleted",
			mutate: func(t *testing.T, s *Service, uid uint, task models.TaskDefinition, _ uint) {
				require.NoError(t, s.DeleteTask(context.Background(), uid, task.ID))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newService(t)
			ctx := context.Background()
			u := newUser(t, s, "gil")
			deep := taskByKey(t, s, u.ID, "deep-work")
			reading := taskByKey(t, s, u.ID, "reading")

			res, err := s.LogRecord(ctx, u.ID, RecordInput{TaskID: &deep.ID, Date: "2024-06-10", Value: 180})
			require.NoError(t, err)
			require.Equal(t, 15, res.XPAwarded)

			tt.mutate(t, s, u.ID, deep, res.Record.ID)

			back, err := s.LogRecord(ctx, u.ID, RecordInput{TaskID: &reading.ID, Date: "2024-06-01", Value: 20})
			require.NoError(t, err)
			assert.True(t, back.Replayed)
			assert.Equal(t, 10, back.XPAwarded)
			assert.Equal(t, 25, reloadUser(t, s, u.ID).XPTotal)

			var row models.ActivityRecord
			require.NoError(t, s.db.Unscoped().First(&row, res.Record.ID).Error)
			assert.Equal(t, 15, row.XPAwarded)
		})
	}
}

func TestUpdateRecordUnlocksDedication(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "hal")
	reading := taskByKey(t, s, u.ID, "reading")

	res, err := s.LogRecord(ctx, u.ID, RecordInput{TaskID: &reading.ID, Value: 20})
	require.NoError(t, err)
	assert.NotContains(t, res.NewlyClaimable, "bookworm")

	_, fresh, err := s.UpdateRecord(ctx, u.ID, res.Record.ID, RecordPatch{Value: ptr(999.0)})
	require.NoError(t, err)
	assert.NotContains(t, fresh, "bookworm")

	_, fresh, err = s.UpdateRecord(ctx, u.ID, res.Record.ID, RecordPatch{Value: ptr(1000.0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"bookworm"}, fresh)

	var ach models.UserAchievement
	require.NoError(t, s.db.Where("user_id = ? AND achievement_id = ?", u.ID, "bookworm").First(&ach).Error)
	assert.Equal(t, models.AchievementClaimable, ach.State)

	// already claimable: a second edit reports nothing new
	_, fresh, err = s.UpdateRecord(ctx, u.ID, res.Record.ID, RecordPatch{Value: ptr(1200.0)})
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestListRecordsFilters(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "gus")
	deep := taskByKey(t, s, u.ID, "deep-work")

	for _, d := range []string{"2024-06-08", "2024-06-09", "2024-06-10"} {
		_, err := s.LogRecord(ctx, u.ID, RecordInput{TaskID: &deep.ID, Date: d, Value: 30})
		require.NoError(t, err)
	}
	_, err := s.LogRecord(ctx, u.ID, RecordInput{Date: "2024-06-10", Value: 5})
	require.NoError(t, err)

	list, total, err := s.ListRecords(ctx, u.ID, RecordFilter{From: "2024-06-09", TaskID: &deep.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-06-10", list[0].Date)

	list, total, err = s.ListRecords(ctx, u.ID, RecordFilter{PageSize: 3, Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, list, 1)
}
