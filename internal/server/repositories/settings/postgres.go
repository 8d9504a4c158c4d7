// Package settings provides PostgreSQL-backed storage for per-owner account
// settings.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/passvault/passvault/internal/common"
	"github.com/passvault/passvault/internal/dbx"
	"github.com/passvault/passvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Settings) (*models.Settings, error) {
	query := `
		INSERT INTO settings (id, owner_id, auto_logout_minutes)
		VALUES ($1, $2, $3)
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, s.ID, s.OwnerID, s.AutoLogoutMinutes).Scan(&s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Settings, error) {
	query := `
		SELECT id, owner_id, auto_logout_minutes, updated_at FROM settings
		WHERE owner_id = $1
	`
	s := &models.Settings{}
	err := r.db.QueryRowContext(ctx, query, ownerID).
		Scan(&s.ID, &s.OwnerID, &s.AutoLogoutMinutes, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Update(ctx context.Context, ownerID string, autoLogoutMinutes int) error {
	query := `
		UPDATE settings SET auto_logout_minutes = $2, updated_at = now()
		WHERE owner_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, ownerID, autoLogoutMinutes)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
