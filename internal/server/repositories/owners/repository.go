package owners

import (
	"context"

	"github.com/passvault/passvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, owner *models.Owner) (*models.Owner, error)
	GetByUsername(ctx context.Context, username string) (*models.Owner, error)
	GetByID(ctx context.Context, id string) (*models.Owner, error)
	UpdateCredentialHash(ctx context.Context, id string, hash []byte) error
}
