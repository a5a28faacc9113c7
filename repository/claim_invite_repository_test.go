package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinship-app/kinshipbackend/models"
)

func newInviteRepo(t *testing.T) ClaimInviteRepository {
	t.Helper()
	return NewGormClaimInviteRepository(newTestDB(t))
}

func TestInviteCreateAssignsCode(t *testing.T) {
	repo := newInviteRepo(t)

	invite := &models.ClaimInvite{PersonID: "p1", Message: "join us"}
	require.NoError(t, repo.Create(invite))
	assert.NotEmpty(t, invite.Code)

	got, err := repo.GetByCode(invite.Code)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.PersonID)
	assert.True(t, got.IsValid())
}

func TestInviteMarkClaimed(t *testing.T) {
	repo := newInviteRepo(t)

	invite := &models.ClaimInvite{PersonID: "p1", IsActive: true}
	require.NoError(t, repo.Create(invite))
	require.NoError(t, repo.MarkClaimed(invite.ID, "acct-1"))

	got, err := repo.GetByCode(invite.Code)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.ClaimedByAccountID)
	assert.Equal(t, "acct-1", *got.ClaimedByAccountID)
	assert.False(t, got.IsValid())
}

func TestDeactivateExpiredSweepsOnlyPastDue(t *testing.T) {
	repo := newInviteRepo(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expired := &models.ClaimInvite{PersonID: "p1", IsActive: true, ExpiresAt: &past}
	live := &models.ClaimInvite{PersonID: "p2", IsActive: true, ExpiresAt: &future}
	eternal := &models.ClaimInvite{PersonID: "p3", IsActive: true}
	require.NoError(t, repo.Create(expired))
	require.NoError(t, repo.Create(live))
	require.NoError(t, repo.Create(eternal))

	swept, err := repo.DeactivateExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	got, err := repo.GetByCode(expired.Code)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	for _, code := range []string{live.Code, eternal.Code} {
		got, err = repo.GetByCode(code)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	}

	// second sweep finds nothing left to do
	swept, err = repo.DeactivateExpired(time.Now())
	require.NoError(t, err)
	assert.Zero(t, swept)
}
