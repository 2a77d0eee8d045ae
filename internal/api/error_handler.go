package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/api/handler"
	"github.com/eatwhat/eatwhat-api/internal/core/domain"
)

// errorStatus maps domain sentinels to HTTP codes. Unauthorized actions are
// argument errors here, not authentication failures.
var errorStatus = []struct {
	target error
	status int
}{
	{domain.ErrSessionNotFound, http.StatusNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrRestaurantNotFound, http.StatusNotFound},

	{domain.ErrInvalidArgument, http.StatusBadRequest},
	{domain.ErrNotAuthorized, http.StatusBadRequest},
	{domain.ErrUserExists, http.StatusBadRequest},
	{domain.ErrEmailExists, http.StatusBadRequest},

	{domain.ErrSessionLocked, http.StatusConflict},
	{domain.ErrSessionAlreadyLocked, http.StatusConflict},
	{domain.ErrEmptyLedger, http.StatusConflict},
	{domain.ErrPickInProgress, http.StatusConflict},

	{domain.ErrCodeGenerationExhausted, http.StatusServiceUnavailable},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the response envelope: {"success": false, "message": "...", "code": N}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = handler.Fail(c, code, msg)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, validation, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			return m.status, err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
