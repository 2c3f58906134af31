package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/inventory"
	"github.com/capycoin/perkstore/internal/logging"
)

func (h *AdminHTTP) AdjustInventory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.adjust_inventory")

	variantID, err := strconv.ParseUint(c.QueryParam("variant_id"), 10, 64)
	if err != nil || variantID == 0 {
		return badRequest(l, "adjust_inventory", err)
	}
	delta, err := strconv.Atoi(c.QueryParam("adjustment"))
	if err != nil {
		return badRequest(l, "adjust_inventory", err)
	}

	result, err := h.Inventory.Adjust(ctx, uint(variantID), delta, c.QueryParam("reason"))
	if err != nil {
		return httpError(l, "adjust_inventory", err)
	}

	l.Info("adjust_inventory_success", "variant_id", variantID, "adjustment", delta)
	return c.JSON(http.StatusOK, result)
}

func (h *AdminHTTP) InventoryOverview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.inventory_overview")

	overview, err := h.Inventory.Overview(ctx)
	if err != nil {
		return httpError(l, "inventory_overview", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"products": overview})
}

func (h *AdminHTTP) LowStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.low_stock")

	threshold := inventory.DefaultLowStockThreshold
	if raw := c.QueryParam("threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return badRequest(l, "low_stock", err)
		}
		threshold = v
	}

	items, err := h.Inventory.LowStock(ctx, threshold)
	if err != nil {
		return httpError(l, "low_stock", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"threshold": threshold, "items": items})
}
