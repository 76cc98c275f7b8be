package revocations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository needs a *sql.DB rather than a dbx.DBTX because Revoke
// opens its own transaction.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Revoke clears out stale rows and records the new one in a single
// transaction, which keeps the table bounded even if the purge ticker lags.
func (r *PostgresRepository) Revoke(ctx context.Context, token *models.RevokedToken) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := purge(ctx, tx, token.RevokedAt); err != nil {
			return err
		}

		query := `
			INSERT INTO revoked_tokens (token_id, user_id, expires_at, revoked_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (token_id) DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, token.TokenID, token.UserID, token.ExpiresAt, token.RevokedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`

	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, tokenID).Scan(&revoked); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return revoked, nil
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return purge(ctx, r.db, now)
}

func purge(ctx context.Context, db dbx.DBTX, now time.Time) (int64, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at <= $1`

	res, err := db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
