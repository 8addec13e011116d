package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nexeed/teammatch/models"
	"golang.org/x/crypto/bcrypt"
)

// CreateAdminUser hashes password and inserts the administrator. The caller
// assigns u.ID.
func CreateAdminUser(ctx context.Context, q DBTX, u *models.AdminUser, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	u.PasswordHash = string(hashedPassword)
	u.CreatedAt = time.Now().UTC()
	_, err = q.ExecContext(ctx, `
		INSERT INTO admin_users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting admin user: %w", err)
	}
	return nil
}

const adminColumns = `id, username, password_hash, last_login, created_at`

func scanAdmin(row rowScanner) (*models.AdminUser, error) {
	var u models.AdminUser
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &lastLogin, &u.CreatedAt); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// GetAdminByUsername retrieves an administrator including the password hash.
func GetAdminByUsername(ctx context.Context, q DBTX, username string) (*models.AdminUser, error) {
	u, err := scanAdmin(q.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE username = $1`, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting admin by username: %w", err)
	}
	return u, nil
}

// GetAdminByID retrieves an administrator by id.
func GetAdminByID(ctx context.Context, q DBTX, id string) (*models.AdminUser, error) {
	u, err := scanAdmin(q.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting admin by ID: %w", err)
	}
	return u, nil
}

// UpdateAdminLastLogin stamps the administrator's last successful login.
func UpdateAdminLastLogin(ctx context.Context, q DBTX, id string, at time.Time) error {
	if _, err := q.ExecContext(ctx, `UPDATE admin_users SET last_login = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}

// DeleteAdminUser removes an administrator. Sessions are not touched; they
// are invalidated lazily on their next use.
func DeleteAdminUser(ctx context.Context, q DBTX, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM admin_users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("error deleting admin user: %w", err)
	}
	return nil
}

// CheckPasswordHash compares a plaintext password with a stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
