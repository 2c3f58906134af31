package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/cart"
	"github.com/capycoin/perkstore/internal/logging"
	authmw "github.com/capycoin/perkstore/internal/middleware/auth"
	"github.com/capycoin/perkstore/internal/transport"
)

type CartHTTP struct {
	Svc *cart.Service
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	view, err := h.Svc.Get(ctx, authmw.CallerID(c))
	if err != nil {
		return httpError(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_cart_item", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	item, err := h.Svc.Add(ctx, authmw.CallerID(c), req)
	if err != nil {
		return httpError(l, "add_cart_item", err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	var req transport.SetCartQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_cart_quantity", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.Svc.SetQuantity(ctx, authmw.CallerID(c), req); err != nil {
		return httpError(l, "set_cart_quantity", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	variantID, err := pathID(c, "variant_id")
	if err != nil {
		return badRequest(l, "remove_cart_item", err)
	}

	if err := h.Svc.Remove(ctx, authmw.CallerID(c), variantID); err != nil {
		return httpError(l, "remove_cart_item", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, authmw.CallerID(c)); err != nil {
		return httpError(l, "clear_cart", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	order, err := h.Svc.Checkout(ctx, authmw.CallerID(c))
	if err != nil {
		return httpError(l, "checkout", err)
	}

	l.Info("checkout_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}
