package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/auth"
	"github.com/capycoin/perkstore/internal/cart"
	"github.com/capycoin/perkstore/internal/catalog"
	"github.com/capycoin/perkstore/internal/credits"
	"github.com/capycoin/perkstore/internal/db"
	"github.com/capycoin/perkstore/internal/inventory"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/orders"
	"github.com/capycoin/perkstore/internal/users"
)

var testJWTSecret = []byte("test-jwt-secret")

type serverEnv struct {
	e  *echo.Echo
	db *gorm.DB
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))

	creditSvc := credits.NewService(gdb, nil)
	orderSvc := orders.NewService(gdb, nil)
	catalogSvc := catalog.NewService(gdb, nil, nil)
	inventorySvc := inventory.NewService(gdb)
	cartSvc := cart.NewService(gdb, catalogSvc, orderSvc)
	userSvc := users.NewService(gdb)
	authSvc := &auth.Service{
		DB:            gdb,
		Credits:       creditSvc,
		JWTSecret:     testJWTSecret,
		RefreshSecret: []byte("test-refresh-secret"),
	}

	e := echo.New()
	Register(e, &Deps{
		Auth:     &AuthHTTP{Svc: authSvc, DevLoginEnabled: true},
		Products: &ProductHTTP{Svc: catalogSvc, Inventory: inventorySvc},
		Cart:     &CartHTTP{Svc: cartSvc},
		Orders:   &OrderHTTP{Svc: orderSvc},
		Credits:  &CreditHTTP{Svc: creditSvc},
		Admin: &AdminHTTP{
			Catalog:   catalogSvc,
			Orders:    orderSvc,
			Inventory: inventorySvc,
			Credits:   creditSvc,
			Users:     userSvc,
		},
		JWTSecret: testJWTSecret,
	})

	return &serverEnv{e: e, db: gdb}
}

func (env *serverEnv) seedUser(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()

	user := &models.User{Email: email, Name: "Test", Role: role, IsActive: true}
	require.NoError(t, env.db.Create(user).Error)

	token, err := auth.SignAccessToken(user.ID, user.Role, testJWTSecret, time.Now().Add(auth.AccessTokenTTL))
	require.NoError(t, err)
	return user, token
}

func (env *serverEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	rec := env.request(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequireLogin(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	rec := env.request(t, http.MethodGet, "/api/v1/credits/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/credits/balance", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, token := env.seedUser(t, "member@example.com", models.RoleEmployee)
	rec = env.request(t, http.MethodGet, "/api/v1/credits/balance", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminOnly(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	_, employee := env.seedUser(t, "emp@example.com", models.RoleEmployee)
	rec := env.request(t, http.MethodGet, "/api/v1/admin/users", employee, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, admin := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	rec = env.request(t, http.MethodGet, "/api/v1/admin/users", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_DevLogin(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/auth/dev/login", "", echo.Map{"email": "fresh@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		User   models.User `json:"user"`
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fresh@example.com", resp.User.Email)
	require.NotEmpty(t, resp.Tokens.AccessToken)

	rec = env.request(t, http.MethodGet, "/api/v1/me", resp.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// malformed email is rejected by request validation
	rec = env.request(t, http.MethodPost, "/api/v1/auth/dev/login", "", echo.Map{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_OrderLifecycleStatusCodes(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	user, userToken := env.seedUser(t, "buyer@example.com", models.RoleEmployee)
	_, adminToken := env.seedUser(t, "boss@example.com", models.RoleAdmin)

	require.NoError(t, env.db.Create(&models.CreditLedgerEntry{
		UserID: user.ID, Amount: 100, CreditType: models.CreditTypeGrant, Description: "seed",
	}).Error)

	product := &models.Product{Name: "Hoodie", BaseCredits: 30, IsActive: true}
	require.NoError(t, env.db.Create(product).Error)
	variant := &models.ProductVariant{ProductID: product.ID}
	require.NoError(t, env.db.Create(variant).Error)
	require.NoError(t, env.db.Create(&models.InventoryLot{VariantID: variant.ID, Quantity: 5}).Error)

	body := echo.Map{"items": []echo.Map{{"variant_id": variant.ID, "quantity": 2}}}
	rec := env.request(t, http.MethodPost, "/api/v1/orders", userToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	// a second 60-credit order exceeds the remaining balance
	big := echo.Map{"items": []echo.Map{{"variant_id": variant.ID, "quantity": 2}}}
	rec = env.request(t, http.MethodPost, "/api/v1/orders", userToken, big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// other users cannot see the order
	_, otherToken := env.seedUser(t, "other@example.com", models.RoleEmployee)
	rec = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the owner and admins can
	rec = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// approval is admin-only
	approvePath := fmt.Sprintf("/api/v1/admin/orders/%d/approve", order.ID)
	rec = env.request(t, http.MethodPost, approvePath, userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodPost, approvePath, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// double approval conflicts
	rec = env.request(t, http.MethodPost, approvePath, adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/v1/admin/orders/9999/approve", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AdminInventoryAdjust(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)
	_, adminToken := env.seedUser(t, "ops@example.com", models.RoleAdmin)

	product := &models.Product{Name: "Mug", BaseCredits: 10, IsActive: true}
	require.NoError(t, env.db.Create(product).Error)
	variant := &models.ProductVariant{ProductID: product.ID}
	require.NoError(t, env.db.Create(variant).Error)

	path := fmt.Sprintf("/api/v1/admin/inventory/adjust?variant_id=%d&adjustment=12&reason=restock", variant.ID)
	rec := env.request(t, http.MethodPost, path, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result inventory.AdjustResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 12, result.Quantity)

	// zero delta is a validation failure
	path = fmt.Sprintf("/api/v1/admin/inventory/adjust?variant_id=%d&adjustment=0&reason=noop", variant.ID)
	rec = env.request(t, http.MethodPost, path, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ProductDetailIncludesAvailability(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	product := &models.Product{Name: "Bottle", BaseCredits: 15, IsActive: true}
	require.NoError(t, env.db.Create(product).Error)
	variant := &models.ProductVariant{ProductID: product.ID, Size: "L"}
	require.NoError(t, env.db.Create(variant).Error)
	require.NoError(t, env.db.Create(&models.InventoryLot{VariantID: variant.ID, Quantity: 10, Reserved: 3}).Error)

	rec := env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Variants []struct {
			ID        uint `json:"id"`
			Available int  `json:"available"`
			InStock   bool `json:"in_stock"`
		} `json:"variants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Variants, 1)
	assert.Equal(t, 7, resp.Variants[0].Available)
	assert.True(t, resp.Variants[0].InStock)
}

func TestRouter_SearchUnconfigured(t *testing.T) {
	t.Parallel()

	env := newServerEnv(t)

	rec := env.request(t, http.MethodGet, "/api/v1/products/search?q=hoodie", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/products/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
