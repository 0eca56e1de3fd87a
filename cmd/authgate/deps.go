// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package main

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authgate/authgate/internal/auth/postgres"
	"github.com/authgate/authgate/internal/observability"
	"github.com/authgate/authgate/internal/web"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory creates a database pool from a connection URL.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, url string) (DBPool, error)

	// MigratorFactory creates a schema migrator for the database.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (SchemaMigrator, error)

	// APIServerFactory creates the API HTTP server.
	// Default: web.NewServer
	APIServerFactory func(addr string, handler http.Handler) APIServer

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer
}

// DBPool interface wraps the methods used from pgxpool.Pool. It includes
// the query surface the repositories consume so test doubles can stand in
// for the whole pool.
type DBPool interface {
	postgres.Pool
	Ping(ctx context.Context) error
	Close()
}

// SchemaMigrator interface wraps the methods used from store.Migrator.
type SchemaMigrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() error
}

// APIServer interface wraps the methods used from web.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

var _ DBPool = (*pgxpool.Pool)(nil)
var _ APIServer = (*web.Server)(nil)
var _ ObservabilityServer = (*observability.Server)(nil)
