package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerRoutes(metrics http.Handler) {
	e := s.echo

	e.GET("/health", s.health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", s.signup)
		authGroup.POST("/login", s.login)
		authGroup.GET("/me", s.me, s.requireBearer)
		authGroup.POST("/logout", s.logout, s.requireBearer)
	}
}
