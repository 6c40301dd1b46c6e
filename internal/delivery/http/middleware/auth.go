package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "lumebackend/internal/delivery/http/helpers"
	"lumebackend/internal/domain"
)

type contextKey string

const personIDKey contextKey = "personID"

// SetPersonID returns a context with the person ID set. Used by auth middleware.
func SetPersonID(ctx context.Context, personID string) context.Context {
	return context.WithValue(ctx, personIDKey, personID)
}

// PersonIDFromContext returns the authenticated person ID from the context, if present.
func PersonIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(personIDKey).(string)
	return id, ok
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the person ID in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			personID, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("token rejected", "error", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetPersonID(r.Context(), personID))
			next(w, r)
		}
	}
}
