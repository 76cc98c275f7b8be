package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// statusFor maps service errors onto stable status codes and client-safe
// messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrWeakCredential):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, common.ErrTokenTampered), errors.Is(err, common.ErrTokenRevoked):
		return http.StatusUnauthorized, "invalid token"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// handleError is the echo HTTPErrorHandler. Internal failures are logged
// with their stack and answered with a generic message.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code int
		msg  string
	)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		msg = fmt.Sprint(httpErr.Message)
		if code >= http.StatusInternalServerError {
			msg = "internal error"
		}
	} else {
		code, msg = statusFor(err)
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "Unhandled error",
			"error", fmt.Sprintf("%+v", err),
			"path", c.Request().URL.Path,
			"method", c.Request().Method,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Message: msg})
	}
	if err != nil {
		s.logger.Error(c.Request().Context(), "error response write failed", "error", err)
	}
}
