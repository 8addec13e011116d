package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nexeed/teammatch/models"
)

// CreateSession stores a new login session.
func CreateSession(ctx context.Context, q DBTX, s models.Session) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO admin_sessions (id, admin_id, expires_at) VALUES ($1, $2, $3)`,
		s.ID, s.AdminID, s.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("error inserting session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by id, or nil when it does not exist.
// Expiry is left to the caller.
func GetSession(ctx context.Context, q DBTX, id string) (*models.Session, error) {
	var s models.Session
	var expiresAt int64
	err := q.QueryRowContext(ctx, `SELECT id, admin_id, expires_at FROM admin_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.AdminID, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting session: %w", err)
	}
	s.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &s, nil
}

// DeleteSession removes a session; deleting a missing session is not an error.
func DeleteSession(ctx context.Context, q DBTX, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions prunes sessions that expired before now and returns
// how many were removed.
func DeleteExpiredSessions(ctx context.Context, q DBTX, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("error deleting expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}
