package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sigil/models"
)

type duel struct {
	s      *Service
	x, y   *models.User
	ax, ay *models.Alliance
}

func newDuel(t *testing.T) *duel {
	t.Helper()
	s, _ := newService(t)
	d := &duel{s: s, x: newUser(t, s, "kai"), y: newUser(t, s, "lou")}
	d.ax = newAlliance(t, s, d.x.ID, "Ember", "reading", 100)
	d.ay = newAlliance(t, s, d.y.ID, "Frost", "reading", 100)
	return d
}

func TestChallengeExclusivity(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	_, err := d.s.CreateChallenge(ctx, d.x.ID, d.ax.ID, d.ax.ID)
	assert.ErrorIs(t, err, ErrSelfChallenge)
	_, err = d.s.CreateChallenge(ctx, d.y.ID, d.ax.ID, d.ay.ID)
	assert.ErrorIs(t, err, ErrNotCreator)

	ch, err := d.s.CreateChallenge(ctx, d.x.ID, d.ax.ID, d.ay.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengePending, ch.Status)

	_, err = d.s.CreateChallenge(ctx, d.x.ID, d.ax.ID, d.ay.ID)
	assert.ErrorIs(t, err, ErrChallengeExists)
	_, err = d.s.CreateChallenge(ctx, d.y.ID, d.ay.ID, d.ax.ID)
	assert.ErrorIs(t, err, ErrChallengeExists)

	_, err = d.s.RespondChallenge(ctx, d.x.ID, ch.ID, true)
	assert.ErrorIs(t, err, ErrNotCreator)
	_, err = d.s.RespondChallenge(ctx, d.y.ID, ch.ID, true)
	require.NoError(t, err)

	// a third alliance cannot challenge either busy side
	z := newUser(t, d.s, "max")
	az := newAlliance(t, d.s, z.ID, "Gale", "reading", 100)
	_, err = d.s.CreateChallenge(ctx, z.ID, az.ID, d.ay.ID)
	assert.ErrorIs(t, err, ErrChallengeBusy)

	_, err = d.s.RespondChallenge(ctx, d.y.ID, ch.ID, true)
	assert.ErrorIs(t, err, ErrChallengeState)
}

func TestChallengeWinner(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()

	// progress before the challenge does not count
	_, err := d.s.ApplyProgress(ctx, d.ay.ID, 50)
	require.NoError(t, err)

	ch, err := d.s.CreateChallenge(ctx, d.x.ID, d.ax.ID, d.ay.ID)
	require.NoError(t, err)
	_, err = d.s.RespondChallenge(ctx, d.y.ID, ch.ID, true)
	require.NoError(t, err)

	ax := reloadAlliance(t, d.s, d.ax.ID)
	require.NotNil(t, ax.ActiveChallengeID)
	assert.Equal(t, ch.ID, *ax.ActiveChallengeID)
	require.NotNil(t, ax.OpponentAllianceID)
	assert.Equal(t, d.ay.ID, *ax.OpponentAllianceID)

	_, err = d.s.ApplyProgress(ctx, d.ax.ID, 6)
	require.NoError(t, err)
	_, err = d.s.ApplyProgress(ctx, d.ay.ID, 4)
	require.NoError(t, err)

	stranger := newUser(t, d.s, "ned2")
	_, err = d.s.CompleteChallenge(ctx, stranger.ID, ch.ID)
	assert.ErrorIs(t, err, ErrNotCreator)

	done, err := d.s.CompleteChallenge(ctx, d.y.ID, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeCompleted, done.Status)
	require.NotNil(t, done.WinnerAllianceID)
	assert.Equal(t, d.ax.ID, *done.WinnerAllianceID)

	for _, id := range []string{d.ax.ID, d.ay.ID} {
		a := reloadAlliance(t, d.s, id)
		assert.Nil(t, a.ActiveChallengeID)
		assert.Nil(t, a.OpponentAllianceID)
	}

	_, err = d.s.CompleteChallenge(ctx, d.x.ID, ch.ID)
	assert.ErrorIs(t, err, ErrChallengeState)

	// a new challenge is possible once the old one is done
	_, err = d.s.CreateChallenge(ctx, d.y.ID, d.ay.ID, d.ax.ID)
	assert.NoError(t, err)

	history, err := d.s.ListChallenges(ctx, d.ax.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestChallengeTieHasNoWinner(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()
	ch, err := d.s.CreateChallenge(ctx, d.x.ID, d.ax.ID, d.ay.ID)
	require.NoError(t, err)
	_, err = d.s.RespondChallenge(ctx, d.y.ID, ch.ID, true)
	require.NoError(t, err)

	done, err := d.s.CompleteChallenge(ctx, d.x.ID, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, done.WinnerAllianceID)
}

func TestDeclinedChallenge(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()
	ch, err := d.s.CreateChallenge(ctx, d.x.ID, d.ax.ID, d.ay.ID)
	require.NoError(t, err)

	declined, err := d.s.RespondChallenge(ctx, d.y.ID, ch.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeDeclined, declined.Status)
	assert.Nil(t, reloadAlliance(t, d.s, d.ax.ID).ActiveChallengeID)

	_, err = d.s.CreateChallenge(ctx, d.x.ID, d.ax.ID, d.ay.ID)
	assert.NoError(t, err)
}

func TestDisbandDuringChallengeForfeits(t *testing.T) {
	d := newDuel(t)
	ctx := context.Background()
	ch, err := d.s.CreateChallenge(ctx, d.x.ID, d.ax.ID, d.ay.ID)
	require.NoError(t, err)
	_, err = d.s.RespondChallenge(ctx, d.y.ID, ch.ID, true)
	require.NoError(t, err)
	_, err = d.s.ApplyProgress(ctx, d.ax.ID, 9)
	require.NoError(t, err)
	require.Equal(t, 9.0, reloadAlliance(t, d.s, d.ay.ID).OpponentProgress)

	require.NoError(t, d.s.DisbandAlliance(ctx, d.x.ID, d.ax.ID))

	ay := reloadAlliance(t, d.s, d.ay.ID)
	assert.Equal(t, 0.0, ay.OpponentProgress)
	assert.Nil(t, ay.ActiveChallengeID)
	assert.Nil(t, ay.OpponentAllianceID)

	var stored models.AllianceChallenge
	require.NoError(t, d.s.db.First(&stored, "id = ?", ch.ID).Error)
	assert.Equal(t, models.ChallengeCompleted, stored.Status)
	require.NotNil(t, stored.WinnerAllianceID)
	assert.Equal(t, d.ay.ID, *stored.WinnerAllianceID)
}
