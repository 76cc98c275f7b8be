package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

const (
	ctxUserID = "user_id"
	ctxBearer = "bearer"
)

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func (s *Server) signup(c echo.Context) error {
	var input signupRequest
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.service.Signup(c.Request().Context(), services.SignupRequest{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, signupResponse{User: newUserResponse(user)})
}

func (s *Server) login(c echo.Context) error {
	var input loginRequest
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.service.Login(c.Request().Context(), services.LoginRequest{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		User:      newUserResponse(res.User),
		Token:     res.Token.Value,
		ExpiresAt: res.Token.ExpiresAt,
	})
}

func (s *Server) me(c echo.Context) error {
	userID, _ := c.Get(ctxUserID).(string)
	return c.JSON(http.StatusOK, meResponse{UserID: userID})
}

func (s *Server) logout(c echo.Context) error {
	bearer, _ := c.Get(ctxBearer).(string)
	if err := s.service.Logout(c.Request().Context(), bearer); err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}
