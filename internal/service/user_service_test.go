package service

import (
	"context"
	"testing"

	"formpilot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	users := NewUserService(repo, nil, zap.NewNop())
	auth := NewAuthService(repo, "test-secret")

	created, err := users.Create(ctx, &model.CreateUserRequest{UserID: " alice ", Password: "s3cret", Credits: 20})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, model.RoleUser, created.Role)
	assert.Equal(t, model.UserActive, created.Status)
	assert.NotEqual(t, "s3cret", created.PasswordHash)

	_, err = users.Create(ctx, &model.CreateUserRequest{UserID: "alice", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)

	resp, err := auth.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, 20, resp.User.CreditsRemaining)

	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)

	_, err = auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "bob", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	users := NewUserService(repo, nil, zap.NewNop())
	auth := NewAuthService(repo, "test-secret")

	_, err := users.Create(ctx, &model.CreateUserRequest{UserID: "carol", Password: "pw"})
	require.NoError(t, err)
	disabled := model.UserDisabled
	_, err = users.Update(ctx, "carol", &model.UpdateUserRequest{Status: &disabled})
	require.NoError(t, err)

	_, err = auth.Login(ctx, "carol", "pw")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newFakeUserRepo()
	token, err := NewAuthService(repo, "one").IssueToken(&model.User{UserID: "u"})
	require.NoError(t, err)

	_, err = NewAuthService(repo, "two").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = NewAuthService(repo, "one").ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdateUserCredits(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&model.User{UserID: "u1", CreditsRemaining: 5})
	users := NewUserService(repo, nil, zap.NewNop())

	add := 10
	plan := "pro"
	user, err := users.Update(ctx, "u1", &model.UpdateUserRequest{AddCredits: &add, Plan: &plan})
	require.NoError(t, err)
	assert.Equal(t, 15, user.CreditsRemaining)
	assert.Equal(t, "pro", user.Plan)

	remove := -100
	user, err = users.Update(ctx, "u1", &model.UpdateUserRequest{AddCredits: &remove})
	require.NoError(t, err)
	assert.Zero(t, user.CreditsRemaining)

	_, err = users.Update(ctx, "ghost", &model.UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeduct(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&model.User{UserID: "u1", CreditsRemaining: 5})
	users := NewUserService(repo, nil, zap.NewNop())

	remaining, err := users.Deduct(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	_, err = users.Deduct(ctx, "u1", 3)
	assert.ErrorIs(t, err, ErrCreditExceeded)
	assert.True(t, isCreditError(err))

	_, err = users.Deduct(ctx, "ghost", 1)
	assert.ErrorIs(t, err, ErrUserNotFound)

	usage, err := users.Usage(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, usage)
}

func TestUpdateCreditsKeepsConcurrentDeduction(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&model.User{UserID: "u1", CreditsRemaining: 10})
	users := NewUserService(repo, nil, zap.NewNop())

	// a run reconciles between the admin's read and write
	repo.onUpdate = func() {
		repo.onUpdate = nil
		_, err := users.Deduct(ctx, "u1", 3)
		require.NoError(t, err)
	}

	add := 5
	plan := "pro"
	user, err := users.Update(ctx, "u1", &model.UpdateUserRequest{AddCredits: &add, Plan: &plan})
	require.NoError(t, err)
	assert.Equal(t, 12, user.CreditsRemaining)
	assert.Equal(t, 3, user.CreditsAvailed)
	assert.Equal(t, "pro", user.Plan)

	stored, _ := repo.GetByUserID(ctx, "u1")
	assert.Equal(t, 12, stored.CreditsRemaining)
}

