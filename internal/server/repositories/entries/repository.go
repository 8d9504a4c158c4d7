package entries

import (
	"context"

	"github.com/passvault/passvault/internal/server/models"
)

// Repository is the entry storage contract. Every read and write that
// targets a single entry is filtered by (id, ownerID) in one statement, so
// a row can never be observed or modified by a different owner.
type Repository interface {
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error)
	Get(ctx context.Context, id, ownerID string) (*models.Entry, error)
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, id, ownerID string) error
}
