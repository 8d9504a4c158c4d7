package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/passvault/passvault/internal/common"
	"github.com/passvault/passvault/internal/cryptox"
	"github.com/passvault/passvault/internal/dbx"
	"github.com/passvault/passvault/internal/server/config"
	"github.com/passvault/passvault/internal/server/models"
	entriesrepo "github.com/passvault/passvault/internal/server/repositories/entries"
	ownersrepo "github.com/passvault/passvault/internal/server/repositories/owners"
	settingsrepo "github.com/passvault/passvault/internal/server/repositories/settings"
)

// In-memory repositories with real owner-scoping semantics, so service tests
// exercise the same invariants as the SQL ones. The DBTX handed out by the
// manager is ignored; transactional behavior is witnessed via sqlmock.

type memOwnersRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Owner // by id
}

func newMemOwnersRepo() *memOwnersRepo {
	return &memOwnersRepo{rows: make(map[string]*models.Owner)}
}

func (r *memOwnersRepo) Create(ctx context.Context, owner *models.Owner) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.rows {
		if o.Username == owner.Username {
			return nil, common.ErrorConflict
		}
	}
	owner.CreatedAt = time.Now()
	copied := *owner
	r.rows[owner.ID] = &copied
	return owner, nil
}

func (r *memOwnersRepo) GetByUsername(ctx context.Context, username string) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.rows {
		if o.Username == username {
			copied := *o
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memOwnersRepo) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *memOwnersRepo) UpdateCredentialHash(ctx context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	o.CredentialHash = hash
	return nil
}

type memEntriesRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Entry // by id
}

func newMemEntriesRepo() *memEntriesRepo {
	return &memEntriesRepo{rows: make(map[string]*models.Entry)}
}

func (r *memEntriesRepo) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	copied := *entry
	r.rows[entry.ID] = &copied
	return entry, nil
}

func (r *memEntriesRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Entry
	for _, e := range r.rows {
		if e.OwnerID == ownerID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memEntriesRepo) Get(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok || e.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *memEntriesRepo) Update(ctx context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[entry.ID]
	if !ok || e.OwnerID != entry.OwnerID {
		return common.ErrorNotFound
	}
	e.ResourceName = entry.ResourceName
	e.Username = entry.Username
	e.ProtectedSecret = entry.ProtectedSecret
	e.Notes = entry.Notes
	e.UpdatedAt = time.Now()
	return nil
}

func (r *memEntriesRepo) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok || e.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.rows, id)
	return nil
}

type memSettingsRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Settings // by owner id
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{rows: make(map[string]*models.Settings)}
}

func (r *memSettingsRepo) Create(ctx context.Context, s *models.Settings) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.UpdatedAt = time.Now()
	copied := *s
	r.rows[s.OwnerID] = &copied
	return s, nil
}

func (r *memSettingsRepo) GetByOwner(ctx context.Context, ownerID string) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[ownerID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memSettingsRepo) Update(ctx context.Context, ownerID string, autoLogoutMinutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[ownerID]
	if !ok {
		return common.ErrorNotFound
	}
	s.AutoLogoutMinutes = autoLogoutMinutes
	s.UpdatedAt = time.Now()
	return nil
}

type memRepoManager struct {
	owners   *memOwnersRepo
	entries  *memEntriesRepo
	settings *memSettingsRepo
}

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{
		owners:   newMemOwnersRepo(),
		entries:  newMemEntriesRepo(),
		settings: newMemSettingsRepo(),
	}
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Owners(db dbx.DBTX) ownersrepo.Repository     { return m.owners }
func (m *memRepoManager) Entries(db dbx.DBTX) entriesrepo.Repository   { return m.entries }
func (m *memRepoManager) Settings(db dbx.DBTX) settingsrepo.Repository { return m.settings }

// --- shared helpers ---

// testIterations keeps PBKDF2 cheap; bcrypt runs at MinCost.
const testIterations = 100

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestDeriver() *cryptox.Deriver {
	return cryptox.NewDeriver(testIterations, bcrypt.MinCost, 2)
}

func newTestConfig() *config.Config {
	return &config.Config{
		SecretKey:             "k",
		TokenIssuer:           "passvault",
		TokenAudience:         "passvault-clients",
		TokenValidityDuration: time.Hour,
	}
}

func newTestUserService(t *testing.T, db *sql.DB, rm *memRepoManager) *UserService {
	t.Helper()
	s, err := NewUserService(db, rm, newTestDeriver(), newTestConfig())
	if err != nil {
		t.Fatalf("NewUserService error: %v", err)
	}
	return s
}
