package users

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

func newTestService(t *testing.T) (*Service, *credits.Service) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))

	return NewService(gdb), credits.NewService(gdb, nil)
}

func TestUserService_Import_CreatesUsersWithInitialCredits(t *testing.T) {
	t.Parallel()

	svc, cred := newTestService(t)
	ctx := context.Background()

	result, err := svc.Import(ctx, []transport.UserImport{
		{Email: "intern@example.com", Name: "Ida Intern", Role: models.RoleIntern, StartDate: "2026-09-01"},
		{Email: "boss@example.com", Name: "Bea Boss", Role: models.RoleAdmin},
		{Email: "plain@example.com", Name: "Pat Plain"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Empty(t, result.Failed)

	byEmail := map[string]models.User{}
	for _, u := range result.Imported {
		byEmail[u.Email] = u
	}

	assert.Equal(t, models.RoleIntern, byEmail["intern@example.com"].Role)
	assert.Equal(t, models.RoleAdmin, byEmail["boss@example.com"].Role)
	assert.Equal(t, models.RoleEmployee, byEmail["plain@example.com"].Role, "role defaults to employee")

	assert.Equal(t, 2026, byEmail["intern@example.com"].StartDate.Year())

	wantBalance := map[string]float64{
		"intern@example.com": 100,
		"boss@example.com":   1000,
		"plain@example.com":  200,
	}
	for email, want := range wantBalance {
		balance, err := cred.Balance(ctx, byEmail[email].ID)
		require.NoError(t, err)
		assert.Equal(t, want, balance, email)
	}
}

func TestUserService_Import_EmptyBatch(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.Import(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// Bad rows are reported per row; the rest of the batch still lands.
func TestUserService_Import_ReportsBadRows(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Import(ctx, []transport.UserImport{
		{Name: "No Email"},
		{Email: "noname@example.com"},
		{Email: "late@example.com", Name: "Lee Late", StartDate: "01/09/2026"},
		{Email: "ok@example.com", Name: "Olive Okay"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, "ok@example.com", result.Imported[0].Email)

	require.Len(t, result.Failed, 3)
	reasons := map[string]string{}
	for _, f := range result.Failed {
		reasons[f.Email] = f.Reason
	}
	assert.Contains(t, reasons[""], "email and name required")
	assert.Contains(t, reasons["late@example.com"], "bad start_date")
}

func TestUserService_Import_DuplicateEmailSkipsRow(t *testing.T) {
	t.Parallel()

	svc, cred := newTestService(t)
	ctx := context.Background()

	first, err := svc.Import(ctx, []transport.UserImport{
		{Email: "dupe@example.com", Name: "Original", Role: models.RoleSenior},
	})
	require.NoError(t, err)
	require.Equal(t, 1, first.Count)
	original := first.Imported[0]

	second, err := svc.Import(ctx, []transport.UserImport{
		{Email: "dupe@example.com", Name: "Impostor"},
		{Email: "fresh@example.com", Name: "Fran Fresh"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, second.Count)
	require.Len(t, second.Failed, 1)
	assert.Equal(t, "dupe@example.com", second.Failed[0].Email)
	assert.Contains(t, second.Failed[0].Reason, "already registered")

	// the original account and its balance are untouched
	var kept models.User
	require.NoError(t, svc.DB.Where("email = ?", "dupe@example.com").First(&kept).Error)
	assert.Equal(t, "Original", kept.Name)

	balance, err := cred.Balance(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, balance, "no second initial grant")
}

func TestUserService_List(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, []transport.UserImport{
		{Email: "one@example.com", Name: "One"},
		{Email: "two@example.com", Name: "Two"},
	})
	require.NoError(t, err)

	users, err := svc.List(ctx, 0, 20)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	page, err := svc.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two@example.com", page[0].Email)
}
