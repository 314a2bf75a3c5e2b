package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sigil/models"
)

func TestCreateAllianceValidation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "abe")

	a := newAlliance(t, s, u.ID, "<b>Guild</b>", "deep-work", 600)
	assert.Equal(t, "Guild", a.Name)
	assert.Equal(t, "2024-07-12", a.EndDate)
	assert.Equal(t, []uint{u.ID}, a.MemberIDs())

	tests := []struct {
		name string
		in   AllianceInput
		want error
	}{
		{"unknown task", AllianceInput{Name: "x", TaskKey: "juggling", Target: 1}, ErrTaskNotFound},
		{"bad date", AllianceInput{Name: "x", TaskKey: "reading", Target: 1, EndDate: "12/06/2024"}, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateAlliance(ctx, u.ID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := s.CreateAlliance(ctx, u.ID, AllianceInput{Name: "x", TaskKey: "reading", Target: 0})
	assert.Equal(t, 40000, AsError(err).Code)
	_, err = s.CreateAlliance(ctx, u.ID, AllianceInput{Name: "x", TaskKey: "reading", Target: 5, EndDate: "2024-06-11"})
	assert.Equal(t, 40000, AsError(err).Code)
}

func TestRecordsFeedAlliances(t *testing.T) {
	s, clock := newService(t)
	ctx := context.Background()
	a := newUser(t, s, "bea")
	b := newUser(t, s, "cal")
	outsider := newUser(t, s, "dot")

	al := newAlliance(t, s, a.ID, "Iron", "exercise", 100)
	other := newAlliance(t, s, a.ID, "Pages", "reading", 100)
	joinAlliance(t, s, a.ID, al.ID, b.ID)

	exercise := taskByKey(t, s, b.ID, "exercise")
	res, err := s.LogRecord(ctx, b.ID, RecordInput{TaskID: &exercise.ID, Value: 45})
	require.NoError(t, err)
	assert.Equal(t, 8, res.XPAwarded)
	assert.Equal(t, []string{al.ID}, res.Alliances)

	assert.Equal(t, 45.0, reloadAlliance(t, s, al.ID).Progress)
	assert.Equal(t, 8.0, memberContribution(t, s, al.ID, b.ID))
	assert.Equal(t, 0.0, memberContribution(t, s, al.ID, a.ID))
	assert.Equal(t, 0.0, reloadAlliance(t, s, other.ID).Progress)

	// records of non-members do not count
	oex := taskByKey(t, s, outsider.ID, "exercise")
	_, err = s.LogRecord(ctx, outsider.ID, RecordInput{TaskID: &oex.ID, Value: 60})
	require.NoError(t, err)
	assert.Equal(t, 45.0, reloadAlliance(t, s, al.ID).Progress)

	got, err := s.GetAlliance(ctx, a.ID, al.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AllianceOngoing, got.Status)
	require.Len(t, got.Members, 2)
	assert.Equal(t, b.ID, got.Members[0].UserID)

	// past the end date the alliance fails without a write
	clock.AddDays(31)
	got, err = s.GetAlliance(ctx, a.ID, al.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AllianceFailed, got.Status)
	assert.Equal(t, models.AllianceOngoing, reloadAlliance(t, s, al.ID).Status)

	res, err = s.LogRecord(ctx, b.ID, RecordInput{TaskID: &exercise.ID, Value: 45})
	require.NoError(t, err)
	assert.Empty(t, res.Alliances)
	assert.Equal(t, 45.0, reloadAlliance(t, s, al.ID).Progress)

	_, err = s.Invite(ctx, a.ID, al.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrAllianceClosed)
}

func TestEffectiveStatusCompleted(t *testing.T) {
	s, clock := newService(t)
	ctx := context.Background()
	u := newUser(t, s, "eli")
	al := newAlliance(t, s, u.ID, "Quiet", "meditation", 10)
	_, err := s.ApplyProgress(ctx, al.ID, 12)
	require.NoError(t, err)

	clock.AddDays(30)
	list, err := s.ListAlliances(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.AllianceOngoing, list[0].Status)

	clock.AddDays(1)
	list, err = s.ListAlliances(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AllianceCompleted, list[0].Status)
}

func TestInvitations(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	owner := newUser(t, s, "fay")
	guest := newUser(t, s, "gus")
	stranger := newUser(t, s, "hana")
	al := newAlliance(t, s, owner.ID, "Circle", "reading", 50)

	_, err := s.Invite(ctx, stranger.ID, al.ID, guest.ID)
	assert.ErrorIs(t, err, ErrNotMember)
	_, err = s.Invite(ctx, owner.ID, al.ID, owner.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	_, err = s.Invite(ctx, owner.ID, al.ID, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	inv, err := s.Invite(ctx, owner.ID, al.ID, guest.ID)
	require.NoError(t, err)
	_, err = s.Invite(ctx, owner.ID, al.ID, guest.ID)
	assert.ErrorIs(t, err, ErrDuplicateInvitation)

	pending, err := s.ListInvitations(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = s.RespondInvitation(ctx, stranger.ID, inv.ID, true)
	assert.ErrorIs(t, err, ErrInvitationNotFound)

	declined, err := s.RespondInvitation(ctx, guest.ID, inv.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationDeclined, declined.Status)
	_, err = s.RespondInvitation(ctx, guest.ID, inv.ID, true)
	assert.ErrorIs(t, err, ErrInvitationHandled)

	joinAlliance(t, s, owner.ID, al.ID, guest.ID)
	list, err := s.ListAlliances(ctx, guest.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLeaveAndDisband(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	owner := newUser(t, s, "ida")
	member := newUser(t, s, "jay")
	al := newAlliance(t, s, owner.ID, "Tide", "deep-work", 100)
	joinAlliance(t, s, owner.ID, al.ID, member.ID)

	assert.Equal(t, 40000, AsError(s.LeaveAlliance(ctx, owner.ID, al.ID)).Code)
	require.NoError(t, s.LeaveAlliance(ctx, member.ID, al.ID))
	assert.ErrorIs(t, s.LeaveAlliance(ctx, member.ID, al.ID), ErrNotMember)

	assert.ErrorIs(t, s.DisbandAlliance(ctx, member.ID, al.ID), ErrNotCreator)
	require.NoError(t, s.DisbandAlliance(ctx, owner.ID, al.ID))
	_, err := s.GetAlliance(ctx, owner.ID, al.ID)
	assert.ErrorIs(t, err, ErrAllianceNotFound)

	var members int64
	require.NoError(t, s.db.Model(&models.AllianceMember{}).Where("alliance_id = ?", al.ID).Count(&members).Error)
	assert.Zero(t, members)
}
