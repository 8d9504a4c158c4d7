// Package entries provides PostgreSQL-backed, owner-scoped storage for
// secret entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/passvault/passvault/internal/common"
	"github.com/passvault/passvault/internal/dbx"
	"github.com/passvault/passvault/internal/server/models"
)

// PostgresRepository implements entry storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO entries (id, owner_id, resource_name, username, protected_secret, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.OwnerID, entry.ResourceName, entry.Username, entry.ProtectedSecret, entry.Notes).
		Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	query := `
		SELECT id, owner_id, resource_name, username, protected_secret, notes, created_at, updated_at
		FROM entries
		WHERE owner_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		var item models.Entry
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.ResourceName, &item.Username,
			&item.ProtectedSecret, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the entry matching both id and ownerID. A row that exists but
// belongs to another owner is indistinguishable from an absent one.
func (r *PostgresRepository) Get(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	query := `
		SELECT id, owner_id, resource_name, username, protected_secret, notes, created_at, updated_at
		FROM entries
		WHERE id = $1 AND owner_id = $2
	`
	entry := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&entry.ID, &entry.OwnerID, &entry.ResourceName, &entry.Username,
		&entry.ProtectedSecret, &entry.Notes, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

// Update rewrites the mutable fields of an entry. The WHERE clause carries
// both id and owner_id so the ownership check and the write are one
// statement.
func (r *PostgresRepository) Update(ctx context.Context, entry *models.Entry) error {
	query := `
		UPDATE entries
		SET resource_name = $3, username = $4, protected_secret = $5, notes = $6, updated_at = now()
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.OwnerID, entry.ResourceName, entry.Username, entry.ProtectedSecret, entry.Notes)
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

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `
		DELETE FROM entries
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
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
