// Package owners provides PostgreSQL-backed storage for registered owners.
package owners

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/passvault/passvault/internal/common"
	"github.com/passvault/passvault/internal/dbx"
	"github.com/passvault/passvault/internal/server/models"
)

// PostgresRepository implements owner storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// Create inserts a new owner. A duplicate username yields
// common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, owner *models.Owner) (*models.Owner, error) {

	query :=
		`INSERT INTO owners (id, username, credential_hash)
	     VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		owner.ID, owner.Username, owner.CredentialHash).Scan(&owner.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return owner, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Owner, error) {
	query :=
		`SELECT id, username, credential_hash, created_at FROM owners
		 WHERE username = $1
		 `

	owner := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&owner.ID, &owner.Username, &owner.CredentialHash, &owner.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return owner, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	query :=
		`SELECT id, username, credential_hash, created_at FROM owners
		 WHERE id = $1
		 `

	owner := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&owner.ID, &owner.Username, &owner.CredentialHash, &owner.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return owner, nil
}

func (r *PostgresRepository) UpdateCredentialHash(ctx context.Context, id string, hash []byte) error {
	query :=
		`UPDATE owners SET credential_hash = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, hash)
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
