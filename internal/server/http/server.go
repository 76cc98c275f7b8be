// Package http serves the credential endpoints over HTTP/JSON with echo.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	pkgerrors "github.com/pkg/errors"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// CredentialService is what the handlers need from the service layer.
type CredentialService interface {
	Signup(ctx context.Context, req services.SignupRequest) (*models.User, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error)
	Authenticate(ctx context.Context, bearer string) (string, error)
	Logout(ctx context.Context, bearer string) error
}

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     string // echo size notation, e.g. "64K"
}

type Server struct {
	opts    Options
	echo    *echo.Echo
	service CredentialService
	logger  logging.Logger
}

// NewServer builds the echo instance and registers all routes. metrics may
// be nil, in which case /metrics is not served.
func NewServer(opts Options, svc CredentialService, metrics http.Handler, l logging.Logger) *Server {
	s := &Server{
		opts:    opts,
		echo:    echo.New(),
		service: svc,
		logger:  l.With("module", "http_server"),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Server.ReadTimeout = opts.ReadTimeout
	e.Server.WriteTimeout = opts.WriteTimeout

	e.Use(s.logRequests)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc:  func(string) (bool, error) { return true, nil },
		AllowCredentials: true,
	}))
	if opts.MaxBodySize != "" {
		e.Use(middleware.BodyLimit(opts.MaxBodySize))
	}

	s.registerRoutes(metrics)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then shuts down gracefully within
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Addr)
		err := s.echo.Start(s.opts.Addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return pkgerrors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.WithStack(err)
	}
	return <-errCh
}
