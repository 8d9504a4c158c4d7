package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/passvault/passvault/internal/common"
	"github.com/passvault/passvault/internal/server/models"
	"github.com/passvault/passvault/internal/server/services"
)

type registerRequest struct {
	Username       string `json:"username"`
	MasterPassword string `json:"masterPassword"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type entryRequest struct {
	ResourceName   string `json:"resourceName"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	MasterPassword string `json:"masterPassword"`
	Notes          string `json:"notes"`
}

type revealRequest struct {
	MasterPassword string `json:"masterPassword"`
}

type changeMasterPasswordRequest struct {
	OldMasterPassword string `json:"oldMasterPassword"`
	NewMasterPassword string `json:"newMasterPassword"`
}

type settingsUpdateRequest struct {
	AutoLogoutMinutes int `json:"autoLogoutMinutes"`
}

// entryResponse carries the protected secret as produced by the cipher;
// plaintext only ever leaves through the reveal endpoint.
type entryResponse struct {
	ID              string    `json:"id"`
	ResourceName    string    `json:"resourceName"`
	Username        string    `json:"username"`
	ProtectedSecret []byte    `json:"protectedSecret"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type settingsResponse struct {
	AutoLogoutMinutes int       `json:"autoLogoutMinutes"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toEntryResponse(e *models.Entry) entryResponse {
	return entryResponse{
		ID:              e.ID,
		ResourceName:    e.ResourceName,
		Username:        e.Username,
		ProtectedSecret: e.ProtectedSecret,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrorValidation
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}

// writeError maps core error kinds to transport status codes. ErrorCrypto on
// entry operations is presented exactly like a missing entry, so a caller
// cannot tell wrong credential from corrupted data from absence.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrorInvalidToken):
		writeUnauthorized(w)
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorCrypto):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, common.ErrorConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already exists"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// entryID validates the {id} path segment before it reaches the database.
func entryID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if err := uuid.Validate(id); err != nil {
		return "", common.ErrorValidation
	}
	return id, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {

	s.logger.Info(r.Context(), "Registration request")

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	owner, err := s.users.Register(r.Context(), req.Username, req.MasterPassword)
	if err != nil {
		s.logError(r, err)
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", owner.Username)
	writeJSON(w, http.StatusCreated, map[string]string{"id": owner.ID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logError(r, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	entries, err := s.entries.List(r.Context(), ownerID)
	if err != nil {
		s.logError(r, err)
		writeError(w, err)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.entries.Create(r.Context(), ownerID, services.EntryInput{
		ResourceName:     req.ResourceName,
		Username:         req.Username,
		Secret:           req.Password,
		MasterCredential: req.MasterPassword,
		Notes:            req.Notes,
	})
	if err != nil {
		s.logError(r, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": entry.ID})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	id, err := entryID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.entries.Get(r.Context(), ownerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	id, err := entryID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.entries.Update(r.Context(), ownerID, id, services.EntryInput{
		ResourceName:     req.ResourceName,
		Username:         req.Username,
		Secret:           req.Password,
		MasterCredential: req.MasterPassword,
		Notes:            req.Notes,
	}); err != nil {
		s.logError(r, err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	id, err := entryID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.entries.Delete(r.Context(), ownerID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRevealEntry(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	id, err := entryID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req revealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	password, err := s.entries.Reveal(r.Context(), ownerID, id, req.MasterPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"password": password})
}

func (s *Server) handleChangeMasterPassword(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req changeMasterPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.ChangeMasterCredential(r.Context(), ownerID, req.OldMasterPassword, req.NewMasterPassword); err != nil {
		s.logError(r, err)
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Master credential changed")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	settings, err := s.users.GetSettings(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		AutoLogoutMinutes: settings.AutoLogoutMinutes,
		UpdatedAt:         settings.UpdatedAt,
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {

	ownerID, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req settingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.UpdateSettings(r.Context(), ownerID, req.AutoLogoutMinutes); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// logError records failures that are the server's fault; expected caller
// errors stay out of the log. Sentinel messages carry no secret material.
func (s *Server) logError(r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorInvalidToken),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorCrypto),
		errors.Is(err, common.ErrorConflict):
		return
	default:
		s.logger.Error(r.Context(), err.Error(), "path", r.URL.Path)
	}
}
