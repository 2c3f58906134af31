package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/catalog"
	"github.com/capycoin/perkstore/internal/credits"
	"github.com/capycoin/perkstore/internal/inventory"
	"github.com/capycoin/perkstore/internal/logging"
	"github.com/capycoin/perkstore/internal/orders"
	"github.com/capycoin/perkstore/internal/transport"
	"github.com/capycoin/perkstore/internal/users"
)

// AdminHTTP bundles the back-office endpoints behind the admin middleware.
type AdminHTTP struct {
	Catalog   *catalog.Service
	Orders    *orders.Service
	Inventory *inventory.Service
	Credits   *credits.Service
	Users     *users.Service
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	offset, limit := pageParams(c)
	list, err := h.Users.List(ctx, offset, limit)
	if err != nil {
		return httpError(l, "list_users", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": list})
}

func (h *AdminHTTP) ImportUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.import_users")

	var rows []transport.UserImport
	if err := c.Bind(&rows); err != nil {
		return badRequest(l, "import_users", err)
	}

	result, err := h.Users.Import(ctx, rows)
	if err != nil {
		return httpError(l, "import_users", err)
	}

	l.Info("import_users_success", "count", result.Count, "failed", len(result.Failed))
	return c.JSON(http.StatusCreated, result)
}

func (h *AdminHTTP) UserOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.user_orders")

	userID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "user_orders", err)
	}

	offset, limit := pageParams(c)
	list, err := h.Orders.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return httpError(l, "user_orders", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": list})
}

func (h *AdminHTTP) UserBalance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.user_balance")

	userID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "user_balance", err)
	}

	balance, err := h.Credits.Balance(ctx, userID)
	if err != nil {
		return httpError(l, "user_balance", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID, "balance": balance})
}

func (h *AdminHTTP) UserLedger(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.user_ledger")

	userID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "user_ledger", err)
	}

	offset, limit := pageParams(c)
	entries, err := h.Credits.Ledger(ctx, userID, offset, limit)
	if err != nil {
		return httpError(l, "user_ledger", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}
