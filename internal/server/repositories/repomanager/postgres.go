// Package repomanager wires repository implementations to a storage
// backend: PostgreSQL (with goose migrations) or process memory.
package repomanager

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

const pingTimeout = 5 * time.Second

// PostgresRepositoryManager vends PostgreSQL-backed repositories sharing
// one connection pool.
type PostgresRepositoryManager struct {
	db          *sql.DB
	users       *users.PostgresRepository
	revocations *revocations.PostgresRepository
}

// openPostgres is a seam for tests.
var openPostgres = dbx.OpenPostgres

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresRepositoryManager opens and pings the database at dsn.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := openPostgres(ctx, dsn, pingTimeout)
	if err != nil {
		return nil, err
	}
	return newPostgresRepositoryManager(db), nil
}

func newPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		db:          db,
		users:       users.NewPostgresRepository(db),
		revocations: revocations.NewPostgresRepository(db),
	}
}

// Users returns the users.Repository bound to the pool.
func (m *PostgresRepositoryManager) Users() users.Repository { return m.users }

// Revocations returns the revocations.Repository bound to the pool.
func (m *PostgresRepositoryManager) Revocations() revocations.Repository { return m.revocations }

// RunMigrations sets up goose with the embedded migrations and runs them
// against the pool.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
