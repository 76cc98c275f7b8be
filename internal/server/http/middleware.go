package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// logRequests writes one access log line per request, at a level chosen by
// the response status. Errors are rendered here first so the status is known.
func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		if err := next(c); err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		latency := time.Since(start)

		fields := []any{
			"method", req.Method,
			"uri", req.URL.Path,
			"status", res.Status,
			"latency", latency,
			"remote_ip", c.RealIP(),
			"user_agent", req.UserAgent(),
		}

		ctx := req.Context()
		switch {
		case res.Status >= http.StatusInternalServerError:
			s.logger.Error(ctx, "HTTP Request", fields...)
		case res.Status >= http.StatusBadRequest:
			s.logger.Warn(ctx, "HTTP Request", fields...)
		default:
			s.logger.Info(ctx, "HTTP Request", fields...)
		}
		return nil
	}
}

// requireBearer authenticates the request and stores the user id and the
// raw token in the echo context.
func (s *Server) requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		bearer := common.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if bearer == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		userID, err := s.service.Authenticate(c.Request().Context(), bearer)
		if err != nil {
			return errors.WithStack(err)
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxBearer, bearer)
		return next(c)
	}
}
