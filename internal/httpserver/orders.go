package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/logging"
	authmw "github.com/capycoin/perkstore/internal/middleware/auth"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/orders"
	"github.com/capycoin/perkstore/internal/redisx"
	"github.com/capycoin/perkstore/internal/transport"
)

const idempotencyHeader = "Idempotency-Key"

type OrderHTTP struct {
	Svc *orders.Service

	// Idem is optional; without Redis, order creation simply has no retry
	// protection.
	Idem *redisx.Idempotency
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.create")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	userID := authmw.CallerID(c)
	idemToken := c.Request().Header.Get(idempotencyHeader)

	if h.Idem != nil && idemToken != "" {
		priorID, err := h.Idem.Claim(ctx, userID, idemToken)
		if err != nil {
			if errors.Is(err, redisx.ErrInFlight) {
				l.Warn("create_order_error", "status", 409, "reason", "duplicate in flight")
				return echo.NewHTTPError(http.StatusConflict, "a request with this idempotency key is already in flight")
			}
			return httpError(l, "create_order", err)
		}
		if priorID != 0 {
			order, err := h.Svc.Get(ctx, priorID)
			if err != nil {
				return httpError(l, "create_order", err)
			}
			l.Info("create_order_replayed", "order_id", order.ID)
			return c.JSON(http.StatusOK, order)
		}
	}

	order, err := h.Svc.Create(ctx, userID, req)
	if err != nil {
		if h.Idem != nil && idemToken != "" {
			if relErr := h.Idem.Release(ctx, userID, idemToken); relErr != nil {
				l.Warn("idempotency_release_failed", "error", relErr)
			}
		}
		return httpError(l, "create_order", err)
	}

	if h.Idem != nil && idemToken != "" {
		if err := h.Idem.Complete(ctx, userID, idemToken, order.ID); err != nil {
			l.Warn("idempotency_complete_failed", "order_id", order.ID, "error", err)
		}
	}

	l.Info("create_order_success", "order_id", order.ID, "total_credits", order.TotalCredits)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list_mine")

	offset, limit := pageParams(c)
	list, err := h.Svc.ListByUser(ctx, authmw.CallerID(c), offset, limit)
	if err != nil {
		return httpError(l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": list})
}

// Get returns a single order, visible to its owner and to admins.
func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_order", err)
	}

	order, err := h.Svc.Get(ctx, id)
	if err != nil {
		return httpError(l, "get_order", err)
	}

	if order.UserID != authmw.CallerID(c) && authmw.CallerRole(c) != models.RoleAdmin {
		l.Warn("get_order_error", "status", 404, "reason", "not owner")
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, order)
}
