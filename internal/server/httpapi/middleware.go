package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/passvault/passvault/internal/server/auth"
)

type ctxKey string

const ownerIDKey ctxKey = "ownerID"

// requireOwner is the authorization gate: it extracts the bearer token,
// validates it, and passes the verified owner id to the handler through the
// request context. It fails closed — a missing, malformed, expired or
// mismatched token all produce the identical unauthorized response.
func (s *Server) requireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeUnauthorized(w)
			return
		}

		ownerID, err := auth.GetOwnerIDFromToken(token, s.jwtSecret, s.tokenIssuer, s.tokenAudience)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		next(w, r.WithContext(ctx))
	}
}

// ownerIDFromContext returns the owner id placed there by requireOwner.
func ownerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	return id, ok && id != ""
}
