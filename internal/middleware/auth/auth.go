package authmw

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/capycoin/perkstore/internal/auth"
	"github.com/capycoin/perkstore/internal/models"
)

const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// RequireLogin validates the bearer access token and stores the caller's
// identity on the echo context.
func RequireLogin(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := auth.AccessClaimsFromToken(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}

// AdminOnly must run after RequireLogin.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role != models.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// CallerID returns the authenticated user id set by RequireLogin.
func CallerID(c echo.Context) uint {
	id, _ := c.Get(ContextUserID).(uint)
	return id
}

// CallerRole returns the authenticated role set by RequireLogin.
func CallerRole(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}
