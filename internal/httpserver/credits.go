package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/credits"
	"github.com/capycoin/perkstore/internal/logging"
	authmw "github.com/capycoin/perkstore/internal/middleware/auth"
)

type CreditHTTP struct {
	Svc *credits.Service
}

func (h *CreditHTTP) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "credits.balance")

	balance, err := h.Svc.Balance(ctx, authmw.CallerID(c))
	if err != nil {
		return httpError(l, "balance", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

func (h *CreditHTTP) Ledger(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "credits.ledger")

	offset, limit := pageParams(c)
	entries, err := h.Svc.Ledger(ctx, authmw.CallerID(c), offset, limit)
	if err != nil {
		return httpError(l, "ledger", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}
