package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/user/dto"
	"anoa.com/moviecatalog/internal/modules/user/repository"
	"anoa.com/moviecatalog/internal/testutil"
	"anoa.com/moviecatalog/pkg/apperror"
	"anoa.com/moviecatalog/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (b *memoryBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = ttl
	return nil
}

func (b *memoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[jti]
	return ok, nil
}

func newTestService(t *testing.T) (AuthService, *gorm.DB, *memoryBlacklist) {
	t.Helper()
	db := testutil.NewDB(t)
	blacklist := &memoryBlacklist{revoked: map[string]time.Duration{}}
	tokens := jwt.NewManager("test-secret", time.Minute, time.Hour)
	svc := NewAuthService(repository.NewUserRepository(db), tokens, blacklist, nil, 0)
	return svc, db, blacklist
}

func validInput(username string) dto.RegisterInput {
	return dto.RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "Str0ngPassw0rd!",
		PasswordConfirm: "Str0ngPassw0rd!",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok, "expected *apperror.AppError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	return appErr.Fields
}

func TestRegister_CreatesSpectator(t *testing.T) {
	svc, db, _ := newTestService(t)

	resp, err := svc.Register(context.Background(), validInput("newuser"), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Registration successful.", resp.Message)
	assert.Equal(t, "newuser", resp.User.Username)
	assert.Equal(t, "newuser@example.com", resp.User.Email)

	var spectator entity.Spectator
	require.NoError(t, db.Preload("User.Role").First(&spectator, "user_id = ?", resp.User.ID).Error)
	assert.Equal(t, entity.RoleSpectator, spectator.User.Role.Name)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	svc, db, _ := newTestService(t)

	input := validInput("newuser")
	input.PasswordConfirm = "DifferentPass123!"

	_, err := svc.Register(context.Background(), input, "127.0.0.1")
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match.", fieldsOf(t, err)["password_confirm"])

	var count int64
	db.Model(&entity.User{}).Where("username = ?", "newuser").Count(&count)
	assert.Zero(t, count)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, db, _ := newTestService(t)
	testutil.CreateSpectator(t, db, "existinguser")

	_, err := svc.Register(context.Background(), validInput("existinguser"), "127.0.0.1")
	require.Error(t, err)
	assert.Equal(t, "A user with that username already exists.", fieldsOf(t, err)["username"])

	var count int64
	db.Model(&entity.User{}).Where("username = ?", "existinguser").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegister_WeakPasswords(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := map[string]string{
		"short":      "This password is too short. It must contain at least 8 characters.",
		"1234567890": "This password is entirely numeric.",
		"weakling1":  "The password is too similar to the username.",
	}
	for password, want := range cases {
		input := validInput("weakling1")
		input.Password = password
		input.PasswordConfirm = password

		_, err := svc.Register(context.Background(), input, "127.0.0.1")
		require.Error(t, err, password)
		assert.Equal(t, want, fieldsOf(t, err)["password"], password)
	}
}

func TestRegister_InvalidUsername(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), validInput("has space"), "127.0.0.1")
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err)["username"], "Enter a valid username.")
}

func TestObtainToken(t *testing.T) {
	svc, db, _ := newTestService(t)
	testutil.CreateSpectator(t, db, "viewer")

	pair, err := svc.ObtainToken(context.Background(), dto.LoginInput{Username: "viewer", Password: testutil.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	_, err = svc.ObtainToken(context.Background(), dto.LoginInput{Username: "viewer", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))

	_, err = svc.ObtainToken(context.Background(), dto.LoginInput{Username: "ghost", Password: testutil.Password})
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))
}

func TestRefreshAndLogout(t *testing.T) {
	svc, db, blacklist := newTestService(t)
	testutil.CreateSpectator(t, db, "viewer")

	pair, err := svc.ObtainToken(context.Background(), dto.LoginInput{Username: "viewer", Password: testutil.Password})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), dto.RefreshInput{Refresh: pair.Refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)
	assert.Empty(t, refreshed.Refresh)

	_, err = svc.Refresh(context.Background(), dto.RefreshInput{Refresh: pair.Access})
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err), "access token must not refresh")

	require.NoError(t, svc.Logout(context.Background(), dto.RefreshInput{Refresh: pair.Refresh}))
	require.Len(t, blacklist.revoked, 1)
	for _, ttl := range blacklist.revoked {
		assert.Greater(t, ttl, time.Duration(0))
	}

	_, err = svc.Refresh(context.Background(), dto.RefreshInput{Refresh: pair.Refresh})
	require.Error(t, err)
	assert.Equal(t, "Token is blacklisted.", err.Error())
}
