package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/catalog"
	"github.com/capycoin/perkstore/internal/inventory"
	"github.com/capycoin/perkstore/internal/logging"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/search"
)

type ProductHTTP struct {
	Svc       *catalog.Service
	Inventory *inventory.Service
	Search    *search.ES
}

type variantDetail struct {
	models.ProductVariant
	Available int  `json:"available"`
	InStock   bool `json:"in_stock"`
}

func (h *ProductHTTP) variantDetails(c echo.Context, variants []models.ProductVariant) ([]variantDetail, error) {
	ctx := c.Request().Context()

	out := make([]variantDetail, 0, len(variants))
	for _, v := range variants {
		available, err := h.Inventory.Available(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, variantDetail{ProductVariant: v, Available: available, InStock: available > 0})
	}
	return out, nil
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.list")

	offset, limit := pageParams(c)
	total, products, err := h.Svc.ListActive(ctx, offset, limit)
	if err != nil {
		return httpError(l, "list_products", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.get")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_product", err)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return httpError(l, "get_product", err)
	}

	variants, err := h.variantDetails(c, product.Variants)
	if err != nil {
		return httpError(l, "get_product", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":           product.ID,
		"name":         product.Name,
		"description":  product.Description,
		"base_credits": product.BaseCredits,
		"image_url":    product.ImageURL,
		"is_active":    product.IsActive,
		"created_at":   product.CreatedAt,
		"variants":     variants,
	})
}

func (h *ProductHTTP) GetVariant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.get_variant")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "get_variant", err)
	}

	variant, err := h.Svc.GetVariant(ctx, id)
	if err != nil {
		return httpError(l, "get_variant", err)
	}

	details, err := h.variantDetails(c, []models.ProductVariant{*variant})
	if err != nil {
		return httpError(l, "get_variant", err)
	}
	return c.JSON(http.StatusOK, details[0])
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.search")

	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		l.Warn("search_error", "status", 400, "reason", "empty query")
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	if h.Search == nil {
		l.Warn("search_error", "status", 503, "reason", "search disabled")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	from, size := pageParams(c)
	total, docs, err := h.Search.Search(ctx, query, from, size)
	if err != nil {
		return httpError(l, "search", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "results": docs})
}
