package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nexeed/teammatch/apperrors"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/session"
)

// Define a key type for context values to avoid collisions
type contextKey string

const (
	// AdminKey is the key used to store the authorized admin in the request context
	AdminKey contextKey = "admin"
)

// Authorizer resolves a session cookie value to an administrator.
type Authorizer interface {
	Authorize(ctx context.Context, cookieValue string) (models.AdminPrincipal, error)
}

// RequireAdmin rejects requests without a valid admin session before they
// reach next. Missing or invalid sessions get 401; a failing session store
// gets 500.
func RequireAdmin(gate Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, _ := session.Read(r)

			admin, err := gate.Authorize(r.Context(), value)
			if err != nil {
				if errors.Is(err, apperrors.ErrUnauthorized) {
					ErrorResponse(w, http.StatusUnauthorized, apperrors.As(err).Message)
					return
				}
				slog.Error("session check failed", "path", r.URL.Path, "error", err)
				ErrorResponse(w, http.StatusInternalServerError, "authentication check failed")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext returns the administrator stored by RequireAdmin.
func AdminFromContext(ctx context.Context) (models.AdminPrincipal, bool) {
	admin, ok := ctx.Value(AdminKey).(models.AdminPrincipal)
	return admin, ok
}
