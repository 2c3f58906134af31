package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/credits"
	"github.com/capycoin/perkstore/internal/db"
	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/transport"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))

	svc := &Service{
		DB:            gdb,
		Credits:       credits.NewService(gdb, nil),
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	return svc, gdb
}

func TestAuthService_DevLogin_ProvisionsNewEmployee(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.DevLogin(ctx, transport.DevLoginRequest{Email: "Casey@Example.com"})
	require.NoError(t, err)

	assert.Equal(t, "casey@example.com", result.User.Email)
	assert.Equal(t, models.RoleEmployee, result.User.Role)
	assert.Equal(t, "Casey", result.User.Name)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	balance, err := svc.Credits.Balance(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, balance, "new employee gets the employee starting grant")
}

func TestAuthService_DevLogin_ExistingUserKeepsBalance(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.DevLogin(ctx, transport.DevLoginRequest{Email: "repeat@example.com"})
	require.NoError(t, err)

	second, err := svc.DevLogin(ctx, transport.DevLoginRequest{Email: "repeat@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	balance, err := svc.Credits.Balance(ctx, second.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, balance, "no second grant on repeat login")
}

func TestAuthService_DevLogin_RejectsInactive(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()

	result, err := svc.DevLogin(ctx, transport.DevLoginRequest{Email: "gone@example.com"})
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&models.User{}).Where("id = ?", result.User.ID).Update("is_active", false).Error)

	_, err = svc.DevLogin(ctx, transport.DevLoginRequest{Email: "gone@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_DevLogin_EmptyEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.DevLogin(context.Background(), transport.DevLoginRequest{Email: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()

	login, err := svc.DevLogin(ctx, transport.DevLoginRequest{Email: "rotate@example.com"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	var old models.RefreshToken
	require.NoError(t, gdb.Where("token = ?", login.RefreshToken).First(&old).Error)
	assert.True(t, old.Revoked)

	// the revoked token cannot be replayed
	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Refresh_RejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	login, err := svc.DevLogin(ctx, transport.DevLoginRequest{Email: "bye@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.RefreshToken))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_DevUsers_ListsOnlyActive(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestService(t)
	ctx := context.Background()

	_, err := svc.DevLogin(ctx, transport.DevLoginRequest{Email: "a@example.com"})
	require.NoError(t, err)
	inactive, err := svc.DevLogin(ctx, transport.DevLoginRequest{Email: "b@example.com"})
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&models.User{}).Where("id = ?", inactive.User.ID).Update("is_active", false).Error)

	users, err := svc.DevUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@example.com", users[0].Email)
}
