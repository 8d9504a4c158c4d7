package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/passvault/passvault/internal/common"
	"github.com/passvault/passvault/internal/cryptox"
	"github.com/passvault/passvault/internal/server/models"
	"github.com/passvault/passvault/internal/server/repositories/repomanager"
)

// EntryInput carries the caller-supplied fields of a create or update call.
// MasterCredential is key material only: it is verified against the owner's
// stored hash before any key is derived from it, and it is never persisted.
type EntryInput struct {
	ResourceName     string
	Username         string
	Secret           string
	MasterCredential string
	Notes            string
}

// EntryService implements the owner-scoped vault operations. Every method
// takes the authenticated owner id as an explicit parameter; no entry can be
// read, modified or deleted through this service without it.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	deriver     *cryptox.Deriver
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, deriver *cryptox.Deriver) *EntryService {
	return &EntryService{db: db, repomanager: m, deriver: deriver}
}

// checkMasterCredential verifies raw against the owner's stored hash.
// An unknown owner and a wrong credential are both ErrorUnauthorized.
func (s *EntryService) checkMasterCredential(ctx context.Context, ownerID, raw string) error {
	owner, err := s.repomanager.Owners(s.db).GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		return common.ErrorInternal
	}
	ok, err := s.deriver.VerifyCredential(ctx, []byte(raw), owner.CredentialHash)
	if err != nil {
		return common.ErrorInternal
	}
	if !ok {
		return common.ErrorUnauthorized
	}
	return nil
}

// Create protects the secret under the owner's master credential and
// persists a new entry owned by ownerID.
func (s *EntryService) Create(ctx context.Context, ownerID string, in EntryInput) (*models.Entry, error) {
	if in.ResourceName == "" || in.Username == "" || in.Secret == "" || in.MasterCredential == "" {
		return nil, common.ErrorValidation
	}

	if err := s.checkMasterCredential(ctx, ownerID, in.MasterCredential); err != nil {
		return nil, err
	}

	blob, err := s.deriver.Protect(ctx, []byte(in.Secret), []byte(in.MasterCredential))
	if err != nil {
		return nil, common.ErrorCrypto
	}

	entry := &models.Entry{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		ResourceName:    in.ResourceName,
		Username:        in.Username,
		ProtectedSecret: blob,
		Notes:           in.Notes,
	}
	return s.repomanager.Entries(s.db).Create(ctx, entry)
}

// List returns all entries owned by ownerID, secrets still protected.
func (s *EntryService) List(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	return s.repomanager.Entries(s.db).ListByOwner(ctx, ownerID)
}

// Get returns a single entry. An id owned by someone else and an id that
// does not exist are the same common.ErrorNotFound.
func (s *EntryService) Get(ctx context.Context, ownerID, entryID string) (*models.Entry, error) {
	return s.repomanager.Entries(s.db).Get(ctx, entryID, ownerID)
}

// Update re-protects the secret and rewrites the entry's mutable fields.
// The repository filters by (id, owner) in the same statement, so there is
// no window between the ownership check and the write.
func (s *EntryService) Update(ctx context.Context, ownerID, entryID string, in EntryInput) error {
	if in.ResourceName == "" || in.Username == "" || in.Secret == "" || in.MasterCredential == "" {
		return common.ErrorValidation
	}

	if err := s.checkMasterCredential(ctx, ownerID, in.MasterCredential); err != nil {
		return err
	}

	blob, err := s.deriver.Protect(ctx, []byte(in.Secret), []byte(in.MasterCredential))
	if err != nil {
		return common.ErrorCrypto
	}

	return s.repomanager.Entries(s.db).Update(ctx, &models.Entry{
		ID:              entryID,
		OwnerID:         ownerID,
		ResourceName:    in.ResourceName,
		Username:        in.Username,
		ProtectedSecret: blob,
		Notes:           in.Notes,
	})
}

// Delete removes the entry matching both id and owner.
func (s *EntryService) Delete(ctx context.Context, ownerID, entryID string) error {
	return s.repomanager.Entries(s.db).Delete(ctx, entryID, ownerID)
}

// Reveal unprotects the entry's secret under the supplied master credential
// and returns the plaintext. Decrypt failures surface as common.ErrorCrypto
// without saying whether the credential was wrong or the blob damaged.
func (s *EntryService) Reveal(ctx context.Context, ownerID, entryID, masterCredential string) (string, error) {
	entry, err := s.repomanager.Entries(s.db).Get(ctx, entryID, ownerID)
	if err != nil {
		return "", err
	}

	plaintext, err := s.deriver.Unprotect(ctx, entry.ProtectedSecret, []byte(masterCredential))
	if err != nil {
		return "", common.ErrorCrypto
	}
	return string(plaintext), nil
}
