package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/core/domain"
)

const serverErrorMessage = "server error, please try again"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// domainStatus maps sentinel errors to HTTP codes. Order matters only for
// errors that wrap more than one sentinel, which none currently do.
// detail marks sentinels whose wrapping text is written for the client;
// the rest answer with the sentinel's own message.
var domainStatus = []struct {
	err    error
	code   int
	detail bool
}{
	{domain.ErrDuplicateEmail, http.StatusBadRequest, false},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, false},
	{domain.ErrUnauthorizedRole, http.StatusForbidden, false},
	{domain.ErrUserNotFound, http.StatusNotFound, false},
	{domain.ErrInvalidOrExpiredToken, http.StatusBadRequest, false},
	{domain.ErrUnauthorized, http.StatusUnauthorized, false},
	{domain.ErrForbidden, http.StatusForbidden, false},
	{domain.ErrInvalidInput, http.StatusBadRequest, true},
	{domain.ErrTaskNotFound, http.StatusNotFound, false},
	{domain.ErrInvalidTask, http.StatusUnprocessableEntity, true},
	{domain.ErrVersionConflict, http.StatusConflict, false},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
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
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, rate limiter, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("http error")
			return he.Code, serverErrorMessage
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors answer with the sentinel text. Wrapping context
	// added inside the server is dropped unless the sentinel carries detail.
	for _, m := range domainStatus {
		if errors.Is(err, m.err) {
			if m.detail {
				return m.code, err.Error()
			}
			return m.code, m.err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, serverErrorMessage
}
