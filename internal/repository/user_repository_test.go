package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emclab/station-booking/internal/model"
)

func newUserRepo(t *testing.T) *UserRepo {
	return NewUserRepo(newUserDB(t), testLogger())
}

func seedUser(t *testing.T, repo *UserRepo, username string) model.User {
	t.Helper()
	id, err := repo.Create(context.Background(), model.UserInput{
		UserName:    username,
		FullName:    "Zhang Wei",
		MachineName: "emc-ws-01",
		Team:        "EMC",
		Role:        model.RoleEngineer,
	}, "$2a$10$fakehashfakehashfakehashfakehashfakehashfakehashfake")
	require.NoError(t, err)
	u, err := repo.ByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestCreateAndLookup(t *testing.T) {
	repo := newUserRepo(t)

	u := seedUser(t, repo, "zhangwei")
	assert.Equal(t, "zhangwei", u.UserName)
	assert.Equal(t, model.RoleEngineer, u.Role)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.RefreshToken)

	byName, err := repo.ByUsername(context.Background(), "zhangwei")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = repo.ByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo := newUserRepo(t)
	seedUser(t, repo, "zhangwei")

	_, err := repo.Create(context.Background(), model.UserInput{UserName: "zhangwei", MachineName: "x", Role: model.RoleUser}, "hash")
	assert.ErrorIs(t, err, ErrUserExists)
}

// Rotation overwrites the single stored token, so the previous value stops
// matching the moment a new one is written.
func TestRefreshTokenRotation(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "zhangwei")

	expiry := time.Now().Add(24 * time.Hour).UnixMilli()
	require.NoError(t, repo.UpdateRefreshToken(ctx, u.ID, "token-one", expiry))

	stored, err := repo.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "token-one", stored.RefreshToken)
	assert.Equal(t, expiry, stored.RefreshTokenExpiry)

	require.NoError(t, repo.UpdateRefreshToken(ctx, u.ID, "token-two", expiry))
	stored, err = repo.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "token-two", stored.RefreshToken)
	assert.NotEqual(t, "token-one", stored.RefreshToken, "old token must no longer match")
}

func TestRefreshTokenRevoke(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "zhangwei")

	require.NoError(t, repo.UpdateRefreshToken(ctx, u.ID, "token-one", time.Now().Add(time.Hour).UnixMilli()))
	require.NoError(t, repo.UpdateRefreshToken(ctx, u.ID, "", 0))

	stored, err := repo.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)
	assert.Zero(t, stored.RefreshTokenExpiry)
}

func TestUpdatePasswordLeavesRefreshToken(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "zhangwei")

	require.NoError(t, repo.UpdateRefreshToken(ctx, u.ID, "token-one", time.Now().Add(time.Hour).UnixMilli()))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "newhash"))

	stored, err := repo.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", stored.PasswordHash)
	assert.Equal(t, "token-one", stored.RefreshToken)
}

func TestSetActiveAndRemove(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "zhangwei")

	require.NoError(t, repo.SetActive(ctx, u.ID, false))
	stored, err := repo.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	require.NoError(t, repo.Remove(ctx, u.ID))
	_, err = repo.ByID(ctx, u.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	users, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
