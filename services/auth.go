package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexeed/teammatch/apperrors"
	"github.com/nexeed/teammatch/database"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/repository"
	"github.com/nexeed/teammatch/session"
)

// AccessGate authenticates administrators and authorizes their requests
// through server-side sessions referenced by a signed cookie.
type AccessGate struct {
	db    *sql.DB
	codec *session.Codec
	ttl   time.Duration
	now   func() time.Time
}

func NewAccessGate(db *sql.DB, codec *session.Codec, ttl time.Duration) *AccessGate {
	return &AccessGate{db: db, codec: codec, ttl: ttl, now: time.Now}
}

// Login verifies the credentials, stamps the last login and opens a session.
// It returns the principal, the cookie value and its expiry.
func (g *AccessGate) Login(ctx context.Context, creds models.Credentials) (models.AdminPrincipal, string, time.Time, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return models.AdminPrincipal{}, "", time.Time{}, apperrors.InvalidInput("username and password required")
	}

	admin, err := repository.GetAdminByUsername(ctx, g.db, username)
	if err != nil {
		return models.AdminPrincipal{}, "", time.Time{}, apperrors.Auth("failed to verify credentials", err)
	}
	if admin == nil || !repository.CheckPasswordHash(creds.Password, admin.PasswordHash) {
		return models.AdminPrincipal{}, "", time.Time{}, apperrors.Unauthorized("invalid credentials")
	}

	now := g.now().UTC()
	s := models.Session{ID: uuid.NewString(), AdminID: admin.ID, ExpiresAt: now.Add(g.ttl)}
	err = repository.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		if _, err := repository.DeleteExpiredSessions(ctx, tx, now); err != nil {
			return err
		}
		if err := repository.UpdateAdminLastLogin(ctx, tx, admin.ID, now); err != nil {
			return err
		}
		return repository.CreateSession(ctx, tx, s)
	})
	if err != nil {
		return models.AdminPrincipal{}, "", time.Time{}, apperrors.Auth("failed to create session", err)
	}

	value, err := g.codec.Encode(s.ID, s.ExpiresAt)
	if err != nil {
		return models.AdminPrincipal{}, "", time.Time{}, apperrors.Auth("failed to create session", err)
	}

	slog.Info("admin logged in", "admin_id", admin.ID)
	return models.AdminPrincipal{ID: admin.ID, Username: admin.Username}, value, s.ExpiresAt, nil
}

// Authorize resolves the cookie value to its administrator. Missing, forged
// or expired sessions are Unauthorized; a session whose administrator no
// longer exists is destroyed and also Unauthorized. Store failures are
// AuthError.
func (g *AccessGate) Authorize(ctx context.Context, cookieValue string) (models.AdminPrincipal, error) {
	if strings.TrimSpace(cookieValue) == "" {
		return models.AdminPrincipal{}, apperrors.Unauthorized("authentication required")
	}
	sessionID, err := g.codec.Decode(cookieValue)
	if err != nil {
		return models.AdminPrincipal{}, apperrors.Unauthorized("authentication required")
	}

	s, err := repository.GetSession(ctx, g.db, sessionID)
	if err != nil {
		return models.AdminPrincipal{}, apperrors.Auth("failed to load session", err)
	}
	if s == nil {
		return models.AdminPrincipal{}, apperrors.Unauthorized("authentication required")
	}
	if !g.now().Before(s.ExpiresAt) {
		if err := repository.DeleteSession(ctx, g.db, s.ID); err != nil {
			slog.Warn("failed to delete expired session", "error", err)
		}
		return models.AdminPrincipal{}, apperrors.Unauthorized("session expired")
	}

	admin, err := repository.GetAdminByID(ctx, g.db, s.AdminID)
	if err != nil {
		return models.AdminPrincipal{}, apperrors.Auth("failed to load admin", err)
	}
	if admin == nil {
		if err := repository.DeleteSession(ctx, g.db, s.ID); err != nil {
			return models.AdminPrincipal{}, apperrors.Auth("failed to destroy orphaned session", err)
		}
		slog.Warn("destroyed session of deleted admin", "admin_id", s.AdminID)
		return models.AdminPrincipal{}, apperrors.Unauthorized("authentication required")
	}

	return models.AdminPrincipal{ID: admin.ID, Username: admin.Username}, nil
}

// Logout destroys the session behind the cookie value. Unknown or invalid
// values are ignored.
func (g *AccessGate) Logout(ctx context.Context, cookieValue string) error {
	sessionID, err := g.codec.Decode(cookieValue)
	if err != nil {
		return nil
	}
	if err := repository.DeleteSession(ctx, g.db, sessionID); err != nil {
		return apperrors.Auth("failed to destroy session", err)
	}
	return nil
}

// EnsureAdmin creates the administrator when no account with that username
// exists. Existing accounts keep their password.
func (g *AccessGate) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := repository.GetAdminByUsername(ctx, g.db, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	u := models.AdminUser{ID: uuid.NewString(), Username: username}
	if err := repository.CreateAdminUser(ctx, g.db, &u, password); err != nil {
		if database.IsUniqueViolation(err) {
			return nil
		}
		return err
	}
	slog.Info("bootstrap admin created", "username", username)
	return nil
}

// IsUnauthorized reports whether err means "not logged in" rather than a
// broken auth backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, apperrors.ErrUnauthorized)
}
