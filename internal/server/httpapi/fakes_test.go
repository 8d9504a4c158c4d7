package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/passvault/passvault/internal/common"
	"github.com/passvault/passvault/internal/cryptox"
	"github.com/passvault/passvault/internal/dbx"
	"github.com/passvault/passvault/internal/logging"
	"github.com/passvault/passvault/internal/server/config"
	"github.com/passvault/passvault/internal/server/models"
	entriesrepo "github.com/passvault/passvault/internal/server/repositories/entries"
	ownersrepo "github.com/passvault/passvault/internal/server/repositories/owners"
	settingsrepo "github.com/passvault/passvault/internal/server/repositories/settings"
	"github.com/passvault/passvault/internal/server/services"
)

// In-memory repositories standing in for the SQL ones, so transport tests
// run the full handler/service path without a database. Transactions are
// still witnessed through sqlmock.

type memStore struct {
	mu       sync.Mutex
	owners   map[string]*models.Owner
	entries  map[string]*models.Entry
	settings map[string]*models.Settings // by owner id
}

func newMemStore() *memStore {
	return &memStore{
		owners:   make(map[string]*models.Owner),
		entries:  make(map[string]*models.Entry),
		settings: make(map[string]*models.Settings),
	}
}

func (s *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (s *memStore) Owners(db dbx.DBTX) ownersrepo.Repository     { return (*memOwners)(s) }
func (s *memStore) Entries(db dbx.DBTX) entriesrepo.Repository   { return (*memEntries)(s) }
func (s *memStore) Settings(db dbx.DBTX) settingsrepo.Repository { return (*memSettings)(s) }

type memOwners memStore

func (r *memOwners) Create(ctx context.Context, owner *models.Owner) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.owners {
		if o.Username == owner.Username {
			return nil, common.ErrorConflict
		}
	}
	owner.CreatedAt = time.Now()
	copied := *owner
	r.owners[owner.ID] = &copied
	return owner, nil
}

func (r *memOwners) GetByUsername(ctx context.Context, username string) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.owners {
		if o.Username == username {
			copied := *o
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memOwners) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *memOwners) UpdateCredentialHash(ctx context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[id]
	if !ok {
		return common.ErrorNotFound
	}
	o.CredentialHash = hash
	return nil
}

type memEntries memStore

func (r *memEntries) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	copied := *entry
	r.entries[entry.ID] = &copied
	return entry, nil
}

func (r *memEntries) ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Entry
	for _, e := range r.entries {
		if e.OwnerID == ownerID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memEntries) Get(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *memEntries) Update(ctx context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entry.ID]
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

func (r *memEntries) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.entries, id)
	return nil
}

type memSettings memStore

func (r *memSettings) Create(ctx context.Context, s *models.Settings) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.UpdatedAt = time.Now()
	copied := *s
	r.settings[s.OwnerID] = &copied
	return s, nil
}

func (r *memSettings) GetByOwner(ctx context.Context, ownerID string) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[ownerID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memSettings) Update(ctx context.Context, ownerID string, autoLogoutMinutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[ownerID]
	if !ok {
		return common.ErrorNotFound
	}
	s.AutoLogoutMinutes = autoLogoutMinutes
	s.UpdatedAt = time.Now()
	return nil
}

// --- helpers ---

const testIterations = 100

func newTestConfig() *config.Config {
	return &config.Config{
		EndpointAddr:          ":0",
		SecretKey:             "test-secret",
		TokenIssuer:           "passvault",
		TokenAudience:         "passvault-clients",
		TokenValidityDuration: time.Hour,
	}
}

func newTestDeriver() *cryptox.Deriver {
	return cryptox.NewDeriver(testIterations, bcrypt.MinCost, 2)
}

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := newMemStore()
	deriver := newTestDeriver()
	cfg := newTestConfig()

	us, err := services.NewUserService(db, store, deriver, cfg)
	if err != nil {
		t.Fatalf("NewUserService error: %v", err)
	}
	es := services.NewEntryService(db, store, deriver)

	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(cfg, l, us, es), mock
}

// doJSON performs a request against the route table and returns the recorder.
func doJSON(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
