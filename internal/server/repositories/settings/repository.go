package settings

import (
	"context"

	"github.com/passvault/passvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Settings) (*models.Settings, error)
	GetByOwner(ctx context.Context, ownerID string) (*models.Settings, error)
	Update(ctx context.Context, ownerID string, autoLogoutMinutes int) error
}
