package orders

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

type testEnv struct {
	db      *gorm.DB
	orders  *Service
	credits *credits.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))

	return &testEnv{
		db:      gdb,
		orders:  NewService(gdb, nil),
		credits: credits.NewService(gdb, nil),
	}
}

// seedUser creates an active user with the given starting balance.
func (e *testEnv) seedUser(t *testing.T, balance float64) *models.User {
	t.Helper()

	user := &models.User{Email: "buyer@example.com", Name: "Buyer", Role: models.RoleEmployee, IsActive: true}
	require.NoError(t, e.db.Create(user).Error)

	if balance != 0 {
		_, err := e.credits.Grant(context.Background(), user.ID, balance, "Initial credits")
		require.NoError(t, err)
	}
	return user
}

// seedVariant creates an active product with one variant and a stocked lot.
func (e *testEnv) seedVariant(t *testing.T, base, modifier float64, stock int) *models.ProductVariant {
	t.Helper()

	product := &models.Product{Name: "Hoodie", BaseCredits: base, IsActive: true}
	require.NoError(t, e.db.Create(product).Error)

	variant := &models.ProductVariant{ProductID: product.ID, Size: "M", Color: "black", CreditsModifier: modifier}
	require.NoError(t, e.db.Create(variant).Error)

	require.NoError(t, e.db.Create(&models.InventoryLot{VariantID: variant.ID, Quantity: stock}).Error)
	return variant
}

func (e *testEnv) lot(t *testing.T, variantID uint) models.InventoryLot {
	t.Helper()

	var lot models.InventoryLot
	require.NoError(t, e.db.Where("variant_id = ?", variantID).First(&lot).Error)
	return lot
}

func (e *testEnv) balance(t *testing.T, userID uint) float64 {
	t.Helper()

	balance, err := e.credits.Balance(context.Background(), userID)
	require.NoError(t, err)
	return balance
}

func orderReq(variantID uint, qty int) transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		Items: []transport.CreateOrderItem{{VariantID: variantID, Quantity: qty}},
	}
}

func TestOrderService_Create_DebitsAndReserves(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 100)
	variant := env.seedVariant(t, 25, 5, 10)

	order, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 2))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, 60.0, order.TotalCredits)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 30.0, order.Items[0].UnitCredits)
	assert.Nil(t, order.CompletedAt)

	assert.Equal(t, 40.0, env.balance(t, user.ID))

	lot := env.lot(t, variant.ID)
	assert.Equal(t, 10, lot.Quantity)
	assert.Equal(t, 2, lot.Reserved)
	assert.Equal(t, 8, lot.Available())
}

func TestOrderService_Create_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 100)

	tests := []struct {
		name string
		req  transport.CreateOrderRequest
		want error
	}{
		{name: "no items", req: transport.CreateOrderRequest{}, want: domain.ErrValidation},
		{name: "zero quantity", req: orderReq(1, 0), want: domain.ErrValidation},
		{name: "negative quantity", req: orderReq(1, -1), want: domain.ErrValidation},
		{name: "unknown variant", req: orderReq(9999, 1), want: domain.ErrNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.Create(ctx, user.ID, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOrderService_Create_InsufficientCredits_NoSideEffects(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 10)
	variant := env.seedVariant(t, 25, 5, 10)

	_, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)

	// the whole transaction rolled back
	assert.Equal(t, 10.0, env.balance(t, user.ID))
	lot := env.lot(t, variant.ID)
	assert.Equal(t, 0, lot.Reserved)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrderService_Create_InsufficientStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 1000)
	variant := env.seedVariant(t, 10, 0, 3)

	_, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 4))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVariantUnavailable)

	assert.Equal(t, 1000.0, env.balance(t, user.ID))
}

func TestOrderService_Create_InactiveProduct(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 100)
	variant := env.seedVariant(t, 25, 0, 10)
	require.NoError(t, env.db.Model(&models.Product{}).Where("id = ?", variant.ProductID).Update("is_active", false).Error)

	_, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVariantUnavailable)
}

func TestOrderService_Approve_CommitsStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 100)
	variant := env.seedVariant(t, 25, 5, 10)

	created, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 2))
	require.NoError(t, err)

	lotBefore := env.lot(t, variant.ID)
	availableBefore := lotBefore.Available()

	approved, err := env.orders.Approve(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, approved.Status)
	require.NotNil(t, approved.CompletedAt)

	lot := env.lot(t, variant.ID)
	assert.Equal(t, 8, lot.Quantity)
	assert.Equal(t, 0, lot.Reserved)
	assert.Equal(t, availableBefore, lot.Available(), "approval converts the hold, available must not move")

	// credits were captured at creation, approval adds nothing
	assert.Equal(t, 40.0, env.balance(t, user.ID))
}

func TestOrderService_Reject_ReleasesAndRefunds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 100)
	variant := env.seedVariant(t, 25, 5, 10)

	created, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 2))
	require.NoError(t, err)

	rejected, err := env.orders.Reject(ctx, created.ID, "out of season")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, rejected.Status)

	lot := env.lot(t, variant.ID)
	assert.Equal(t, 10, lot.Quantity)
	assert.Equal(t, 0, lot.Reserved)

	assert.Equal(t, 100.0, env.balance(t, user.ID))

	var refund models.CreditLedgerEntry
	require.NoError(t, env.db.
		Where("user_id = ? AND credit_type = ?", user.ID, models.CreditTypeAdjust).
		First(&refund).Error)
	assert.Equal(t, 60.0, refund.Amount)
	require.NotNil(t, refund.ReferenceOrderID)
	assert.Equal(t, created.ID, *refund.ReferenceOrderID)
	assert.Contains(t, refund.Description, "out of season")
}

func TestOrderService_Reject_RefundsSnapshotNotCurrentPrice(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 100)
	variant := env.seedVariant(t, 25, 5, 10)

	created, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 2))
	require.NoError(t, err)

	// price hike after checkout must not inflate the refund
	require.NoError(t, env.db.Model(&models.Product{}).Where("id = ?", variant.ProductID).Update("base_credits", 500).Error)

	_, err = env.orders.Reject(ctx, created.ID, "")
	require.NoError(t, err)

	assert.Equal(t, 100.0, env.balance(t, user.ID))
}

func TestOrderService_DoubleApprove_FailsWithoutSideEffects(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 100)
	variant := env.seedVariant(t, 25, 5, 10)

	created, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 2))
	require.NoError(t, err)

	_, err = env.orders.Approve(ctx, created.ID)
	require.NoError(t, err)

	_, err = env.orders.Approve(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	lot := env.lot(t, variant.ID)
	assert.Equal(t, 8, lot.Quantity, "second approval must not deduct again")
	assert.Equal(t, 0, lot.Reserved)
}

func TestOrderService_RejectAfterApprove_Fails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 100)
	variant := env.seedVariant(t, 25, 5, 10)

	created, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 1))
	require.NoError(t, err)

	_, err = env.orders.Approve(ctx, created.ID)
	require.NoError(t, err)

	_, err = env.orders.Reject(ctx, created.ID, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// no phantom refund
	assert.Equal(t, 70.0, env.balance(t, user.ID))
}

func TestOrderService_Approve_UnknownOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.orders.Approve(context.Background(), 9999)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderService_LedgerSumMatchesBalance(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 300)
	variant := env.seedVariant(t, 20, 0, 50)

	first, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 3))
	require.NoError(t, err)
	second, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 2))
	require.NoError(t, err)

	_, err = env.orders.Approve(ctx, first.ID)
	require.NoError(t, err)
	_, err = env.orders.Reject(ctx, second.ID, "changed mind")
	require.NoError(t, err)

	// 300 - 60 - 40 + 40 back
	assert.Equal(t, 240.0, env.balance(t, user.ID))

	var sum float64
	require.NoError(t, env.db.Model(&models.CreditLedgerEntry{}).
		Where("user_id = ?", user.ID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error)
	assert.Equal(t, env.balance(t, user.ID), sum)
}

func TestOrderService_ListOpen_ExcludesTerminalOrders(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, 1000)
	variant := env.seedVariant(t, 10, 0, 50)

	first, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 1))
	require.NoError(t, err)
	second, err := env.orders.Create(ctx, user.ID, orderReq(variant.ID, 1))
	require.NoError(t, err)

	_, err = env.orders.Approve(ctx, first.ID)
	require.NoError(t, err)

	open, err := env.orders.ListOpen(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)
}
