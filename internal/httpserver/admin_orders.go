package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/logging"
)

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	offset, limit := pageParams(c)
	list, err := h.Orders.ListAll(ctx, offset, limit)
	if err != nil {
		return httpError(l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": list})
}

func (h *AdminHTTP) ListPendingOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_pending_orders")

	offset, limit := pageParams(c)
	list, err := h.Orders.ListOpen(ctx, offset, limit)
	if err != nil {
		return httpError(l, "list_pending_orders", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": list})
}

func (h *AdminHTTP) ApproveOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.approve_order")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "approve_order", err)
	}

	order, err := h.Orders.Approve(ctx, id)
	if err != nil {
		return httpError(l, "approve_order", err)
	}

	l.Info("approve_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *AdminHTTP) RejectOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reject_order")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "reject_order", err)
	}

	order, err := h.Orders.Reject(ctx, id, c.QueryParam("reason"))
	if err != nil {
		return httpError(l, "reject_order", err)
	}

	l.Info("reject_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}
