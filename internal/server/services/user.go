// Package services contains server-side business logic. This file implements
// UserService: registration, login with token issuance, master-credential
// rotation, and account settings.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/passvault/passvault/internal/common"
	"github.com/passvault/passvault/internal/cryptox"
	"github.com/passvault/passvault/internal/dbx"
	"github.com/passvault/passvault/internal/server/auth"
	"github.com/passvault/passvault/internal/server/config"
	"github.com/passvault/passvault/internal/server/models"
	"github.com/passvault/passvault/internal/server/repositories/repomanager"
)

// UserService provides owner-identity operations:
//   - Register: create an owner and its default settings
//   - Login: verify the master credential and mint a bearer token
//   - ChangeMasterCredential: rotate the credential and re-protect entries
//   - GetSettings / UpdateSettings
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	deriver               *cryptox.Deriver
	jwtSecret             []byte
	tokenIssuer           string
	tokenAudience         string
	tokenValidityDuration time.Duration

	// dummyHash absorbs a bcrypt comparison for unknown usernames so login
	// timing does not reveal whether the username exists.
	dummyHash []byte
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, deriver *cryptox.Deriver, cfg *config.Config) (*UserService, error) {
	dummy, err := deriver.HashCredential(context.Background(), []byte("passvault-login-dummy"))
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy hash: %w", err)
	}
	return &UserService{
		db:                    db,
		repomanager:           m,
		deriver:               deriver,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenIssuer:           cfg.TokenIssuer,
		tokenAudience:         cfg.TokenAudience,
		tokenValidityDuration: cfg.TokenValidityDuration,
		dummyHash:             dummy,
	}, nil
}

// Register creates a new owner with a hashed master credential and a default
// settings row; both inserts run in one transaction. A taken username yields
// common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, username, rawCredential string) (*models.Owner, error) {
	if username == "" || rawCredential == "" {
		return nil, common.ErrorValidation
	}

	hash, err := s.deriver.HashCredential(ctx, []byte(rawCredential))
	if err != nil {
		return nil, common.ErrorInternal
	}

	owner := &models.Owner{ID: uuid.NewString(), Username: username, CredentialHash: hash}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Owners(tx).Create(ctx, owner)
		if err != nil {
			return err
		}
		owner = created

		_, err = s.repomanager.Settings(tx).Create(ctx, &models.Settings{
			ID:                uuid.NewString(),
			OwnerID:           owner.ID,
			AutoLogoutMinutes: models.DefaultAutoLogoutMinutes,
		})
		return err
	}); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating owner: %w", err)
	}

	return owner, nil
}

// Login verifies the master credential against the stored hash and, on
// success, returns a signed bearer token carrying the owner id.
func (s *UserService) Login(ctx context.Context, username, rawCredential string) (string, error) {
	repo := s.repomanager.Owners(s.db)

	owner, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same bcrypt cost as a real comparison
			_, _ = s.deriver.VerifyCredential(ctx, []byte(rawCredential), s.dummyHash)
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	ok, err := s.deriver.VerifyCredential(ctx, []byte(rawCredential), owner.CredentialHash)
	if err != nil {
		return "", common.ErrorInternal
	}
	if !ok {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(owner.ID, s.jwtSecret, s.tokenIssuer, s.tokenAudience, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// ChangeMasterCredential verifies the old credential, stores the hash of the
// new one and re-protects every entry under the new credential. Everything
// runs in a single transaction: a failure anywhere rolls the rotation back,
// so the stored hash and the entry blobs never diverge.
func (s *UserService) ChangeMasterCredential(ctx context.Context, ownerID, oldRaw, newRaw string) error {
	if newRaw == "" {
		return common.ErrorValidation
	}

	owner, err := s.repomanager.Owners(s.db).GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		return common.ErrorInternal
	}

	ok, err := s.deriver.VerifyCredential(ctx, []byte(oldRaw), owner.CredentialHash)
	if err != nil {
		return common.ErrorInternal
	}
	if !ok {
		return common.ErrorUnauthorized
	}

	newHash, err := s.deriver.HashCredential(ctx, []byte(newRaw))
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Owners(tx).UpdateCredentialHash(ctx, ownerID, newHash); err != nil {
			return err
		}

		entryRepo := s.repomanager.Entries(tx)
		entries, err := entryRepo.ListByOwner(ctx, ownerID)
		if err != nil {
			return err
		}

		for _, e := range entries {
			plaintext, err := s.deriver.Unprotect(ctx, e.ProtectedSecret, []byte(oldRaw))
			if err != nil {
				return err
			}
			blob, err := s.deriver.Protect(ctx, plaintext, []byte(newRaw))
			common.WipeByteArray(plaintext)
			if err != nil {
				return err
			}
			e.ProtectedSecret = blob
			if err := entryRepo.Update(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSettings returns the owner's account settings.
func (s *UserService) GetSettings(ctx context.Context, ownerID string) (*models.Settings, error) {
	return s.repomanager.Settings(s.db).GetByOwner(ctx, ownerID)
}

// UpdateSettings changes the auto-lock timeout.
func (s *UserService) UpdateSettings(ctx context.Context, ownerID string, autoLogoutMinutes int) error {
	if autoLogoutMinutes <= 0 {
		return common.ErrorValidation
	}
	return s.repomanager.Settings(s.db).Update(ctx, ownerID, autoLogoutMinutes)
}
