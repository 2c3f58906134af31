package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/auth"
	"github.com/capycoin/perkstore/internal/hash"
	"github.com/capycoin/perkstore/internal/logging"
	authmw "github.com/capycoin/perkstore/internal/middleware/auth"
	"github.com/capycoin/perkstore/internal/transport"
)

type AuthHTTP struct {
	Svc *auth.Service

	// DevLoginEnabled gates the passwordless dev login; it is off in
	// production where the real identity provider fronts the service.
	DevLoginEnabled  bool
	DemoPasswordHash string
}

func (h *AuthHTTP) DevLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.dev_login")

	if !h.DevLoginEnabled {
		l.Warn("dev_login_error", "status", 403, "reason", "disabled in production")
		return echo.NewHTTPError(http.StatusForbidden, "dev login is disabled")
	}

	var req transport.DevLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "dev_login", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.Svc.DevLogin(ctx, req)
	if err != nil {
		return httpError(l, "dev_login", err)
	}

	l.Info("dev_login_success", "user_id", result.User.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"user": result.User,
		"tokens": transport.TokenResponse{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
			TokenType:    "bearer",
		},
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "refresh", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return httpError(l, "refresh", err)
	}

	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "bearer",
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "logout", err)
	}

	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		return httpError(l, "logout", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) DevUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.dev_users")

	if !h.DevLoginEnabled {
		return echo.NewHTTPError(http.StatusForbidden, "dev login is disabled")
	}

	users, err := h.Svc.DevUsers(ctx)
	if err != nil {
		return httpError(l, "dev_users", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	user, err := h.Svc.GetUser(ctx, authmw.CallerID(c))
	if err != nil {
		return httpError(l, "me", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) DemoVerify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.demo_verify")

	var req transport.DemoVerifyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "demo_verify", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if h.DemoPasswordHash == "" || !hash.CheckPassword(h.DemoPasswordHash, req.Password) {
		l.Warn("demo_verify_error", "status", 401, "reason", "bad password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
