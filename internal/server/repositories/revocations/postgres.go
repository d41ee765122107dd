package revocations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// PostgresRepository keeps revocation records in the revoked_tokens table.
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Add(ctx context.Context, tokenID, subject string) error {
	query := `
		INSERT INTO revoked_tokens (token_id, subject, revoked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, tokenID, subject, r.now().UTC()); err != nil {
		return fmt.Errorf("%w: insert revoked token: %w", common.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, tokenID, subject string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE token_id = $1 AND subject = $2
		)
	`
	var found bool
	if err := r.db.QueryRowContext(ctx, query, tokenID, subject).Scan(&found); err != nil {
		return false, fmt.Errorf("%w: lookup revoked token: %w", common.ErrStoreUnavailable, err)
	}
	return found, nil
}

func (r *PostgresRepository) List(ctx context.Context, afterTokenID string, limit int) ([]models.RevokedToken, error) {
	query := `
		SELECT token_id, subject, revoked_at
		FROM revoked_tokens
		WHERE token_id > $1
		ORDER BY token_id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, afterTokenID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list revoked tokens: %w", common.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var page []models.RevokedToken
	for rows.Next() {
		var rec models.RevokedToken
		if err := rows.Scan(&rec.TokenID, &rec.Subject, &rec.RevokedAt); err != nil {
			return nil, fmt.Errorf("%w: scan revoked token: %w", common.ErrStoreUnavailable, err)
		}
		page = append(page, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list revoked tokens: %w", common.ErrStoreUnavailable, err)
	}
	return page, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, record models.RevokedToken) error {
	query := `
		DELETE FROM revoked_tokens
		WHERE token_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, record.TokenID); err != nil {
		return fmt.Errorf("%w: delete revoked token: %w", common.ErrStoreUnavailable, err)
	}
	return nil
}
