package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertIfAbsent relies on the unique index on users.email; ON CONFLICT
// turns a lost race into zero returned rows instead of an error.
func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)

	query :=
		`INSERT INTO users (id, name, email, digest, salt, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id
		 `

	var id string
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.Digest, user.Salt, user.CreatedAt).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrAlreadyExists
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, digest, salt, created_at FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, NormalizeEmail(email)).
		Scan(&user.ID, &user.Name, &user.Email, &user.Digest, &user.Salt, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
