// Package server wires the authkeeper components together and runs the
// HTTP and gRPC transports until the process is asked to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/hasher"
	"github.com/dmitrijs2005/authkeeper/internal/server/keys"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
	hs "github.com/dmitrijs2005/authkeeper/internal/server/http"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	metrics *metrics.Metrics
	service *services.CredentialService
	httpSrv *hs.Server
	grpcSrv *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	repos, err := repomanager.New(ctx, c.DatabaseDSN, c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, repos)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, repos repomanager.RepositoryManager) (*App, error) {

	if err := repos.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	key, source, err := keys.Load(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("signing key error: %w", err)
	}
	logger.Info(ctx, "Signing key loaded", "source", string(source))
	if source == keys.SourceGenerated {
		logger.Warn(ctx, "Using an ephemeral signing key, tokens will not survive a restart")
	}

	issuer, err := auth.NewIssuer(key, c.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token issuer error: %w", err)
	}

	m := metrics.New()

	params := hasher.DefaultParams()
	params.Time = uint32(c.HashTime)
	params.MemoryKiB = uint32(c.HashMemoryKiB)
	params.Threads = uint8(c.HashThreads)

	h, err := hasher.New(params, c.HashWorkers, hasher.WithObserver(m.ObserveHash))
	if err != nil {
		return nil, fmt.Errorf("hasher error: %w", err)
	}

	policy := services.DefaultPasswordPolicy()
	policy.MinLength = c.PasswordMinLength

	svc, err := services.NewCredentialService(ctx, repos.Users(), repos.Revocations(), h, issuer, policy,
		services.WithRecorder(m),
		services.WithLogger(logger.With("module", "credential_service")),
	)
	if err != nil {
		return nil, fmt.Errorf("credential service error: %w", err)
	}

	httpSrv := hs.NewServer(hs.Options{
		Addr:            c.EndpointAddrHTTP,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
		MaxBodySize:     c.MaxBodySize,
	}, svc, m.Handler(), logger)

	grpcSrv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc)

	return &App{
		config:  c,
		logger:  logger,
		repos:   repos,
		metrics: m,
		service: svc,
		httpSrv: httpSrv,
		grpcSrv: grpcSrv,
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// runServer runs one transport and cancels the whole app if it fails.
func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "Server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// runPurgeLoop drops expired revocation entries every interval. A
// non-positive interval disables it.
func (app *App) runPurgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.service.PurgeRevocations(ctx)
			if err != nil {
				app.logger.Error(ctx, "Revocation purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "Revocations purged", "count", n)
			}
		}
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a transport fails,
// then closes the repositories.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", app.httpSrv.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "grpc", app.grpcSrv.Run)
	}()
	go func() {
		defer wg.Done()
		app.runPurgeLoop(ctx, app.config.RevocationPurgeInterval)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.repos.Close()
}
