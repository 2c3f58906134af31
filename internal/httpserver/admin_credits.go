package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/logging"
	"github.com/capycoin/perkstore/internal/transport"
)

func (h *AdminHTTP) GrantCredits(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.grant_credits")

	var req transport.CreditGrantRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "grant_credits", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry, err := h.Credits.Grant(ctx, req.UserID, req.Amount, req.Description)
	if err != nil {
		return httpError(l, "grant_credits", err)
	}

	l.Info("grant_credits_success", "user_id", req.UserID, "amount", req.Amount)
	return c.JSON(http.StatusCreated, entry)
}

func (h *AdminHTTP) BulkGrantCredits(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.bulk_grant_credits")

	var req transport.BulkCreditGrantRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "bulk_grant_credits", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.Credits.BulkGrant(ctx, req.UserIDs, req.Amount, req.Description)
	if err != nil {
		return httpError(l, "bulk_grant_credits", err)
	}

	l.Info("bulk_grant_credits_success", "granted", result.SuccessfulCount, "failed", result.FailedCount)
	return c.JSON(http.StatusOK, result)
}
