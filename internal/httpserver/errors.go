package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/auth"
	"github.com/capycoin/perkstore/internal/domain"
)

// httpError translates service errors into HTTP responses and logs them
// once at the boundary.
func httpError(l *slog.Logger, action string, err error) error {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientCredits),
		errors.Is(err, domain.ErrVariantUnavailable):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	}

	if status >= http.StatusInternalServerError {
		l.Error(action+"_error", "status", status, "error", err)
	} else {
		l.Warn(action+"_error", "status", status, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, action string, err error) error {
	l.Warn(action+"_error", "status", 400, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}
