package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/logging"
	"github.com/capycoin/perkstore/internal/transport"
)

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	product, err := h.Catalog.CreateProduct(ctx, req)
	if err != nil {
		return httpError(l, "create_product", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *AdminHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_product")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "update_product", err)
	}

	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_product", err)
	}

	product, err := h.Catalog.UpdateProduct(ctx, id, req)
	if err != nil {
		return httpError(l, "update_product", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *AdminHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "delete_product", err)
	}

	if err := h.Catalog.DeleteProduct(ctx, id); err != nil {
		return httpError(l, "delete_product", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) CreateVariant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_variant")

	productID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "create_variant", err)
	}

	var input transport.VariantInput
	if err := c.Bind(&input); err != nil {
		return badRequest(l, "create_variant", err)
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	variant, err := h.Catalog.CreateVariant(ctx, productID, input)
	if err != nil {
		return httpError(l, "create_variant", err)
	}
	return c.JSON(http.StatusCreated, variant)
}

func (h *AdminHTTP) UpdateVariant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_variant")

	productID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "update_variant", err)
	}
	variantID, err := pathID(c, "variant_id")
	if err != nil {
		return badRequest(l, "update_variant", err)
	}

	var input transport.VariantInput
	if err := c.Bind(&input); err != nil {
		return badRequest(l, "update_variant", err)
	}

	variant, err := h.Catalog.UpdateVariant(ctx, productID, variantID, input)
	if err != nil {
		return httpError(l, "update_variant", err)
	}
	return c.JSON(http.StatusOK, variant)
}

func (h *AdminHTTP) DeleteVariant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_variant")

	productID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "delete_variant", err)
	}
	variantID, err := pathID(c, "variant_id")
	if err != nil {
		return badRequest(l, "delete_variant", err)
	}

	if err := h.Catalog.DeleteVariant(ctx, productID, variantID); err != nil {
		return httpError(l, "delete_variant", err)
	}
	return c.NoContent(http.StatusNoContent)
}
