// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/auth"
	authpg "github.com/authgate/authgate/internal/auth/postgres"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/logging"
	"github.com/authgate/authgate/internal/observability"
	"github.com/authgate/authgate/internal/store"
	"github.com/authgate/authgate/internal/web"
	"github.com/authgate/authgate/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API server",
		Long: `Start the HTTP API server together with its metrics/health
endpoints. Pending schema migrations are applied before the server
starts accepting requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.PoolFactory == nil {
		deps.PoolFactory = func(ctx context.Context, url string) (DBPool, error) {
			return store.Connect(ctx, url)
		}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(url string) (SchemaMigrator, error) {
			return store.NewMigrator(url)
		}
	}
	if deps.APIServerFactory == nil {
		deps.APIServerFactory = func(addr string, handler http.Handler) APIServer {
			return web.NewServer(addr, handler)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("authgate", version, cfg.LogFormat)
	logger := slog.Default()

	slog.Info("starting authgate", "config", cfg.String())

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL)
	if err != nil {
		errutil.LogError(logger, "database connect failed", err)
		return err
	}
	defer pool.Close()

	slog.Info("connected to database")

	if err := applyMigrations(deps, cfg.DatabaseURL); err != nil {
		errutil.LogError(logger, "migrations failed", err)
		return err
	}

	accounts := authpg.NewAccountRepository(pool)
	sessions := authpg.NewSessionRepository(pool)
	hasher := auth.NewBcryptHasher()

	service, err := auth.NewServiceWithLogger(accounts, sessions, hasher, logger,
		auth.WithSessionTTL(cfg.SessionTTL))
	if err != nil {
		return err
	}

	// Ready once the pool answers pings.
	obsServer := deps.ObservabilityServerFactory(cfg.MetricsListen, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})

	handlerOpts := []web.Option{
		web.WithMetrics(obsServer.Metrics()),
		web.WithRequestTimeout(cfg.RequestTimeout),
	}
	if !cfg.SecureCookies {
		handlerOpts = append(handlerOpts, web.WithInsecureCookies())
	}
	handler, err := web.NewHandler(service, logger, handlerOpts...)
	if err != nil {
		return err
	}

	apiServer := deps.APIServerFactory(cfg.Listen, handler.Routes())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, obsErrCh, "observability")

	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
			slog.Warn("failed to stop observability server during cleanup", "error", stopErr)
		}
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Authgate server started")
	slog.Info("authgate ready",
		"api_addr", apiServer.Addr(),
		"metrics_addr", obsServer.Addr(),
	)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// applyMigrations brings the schema up to date and logs the resulting
// version. An already-current schema is a normal startup condition.
func applyMigrations(deps *ServeDeps, databaseURL string) error {
	migrator, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Debug("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	slog.Info("schema up to date", "version", version, "dirty", dirty)
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error so a failed listener takes the whole process down
// cleanly. It exits when an error arrives, the channel closes, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
