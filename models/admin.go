package models

import "time"

// AdminUser is an administrative account.
type AdminUser struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AdminPrincipal identifies the administrator behind an authorized request.
type AdminPrincipal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Credentials represents the data needed for login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is a server-side login session.
type Session struct {
	ID        string
	AdminID   string
	ExpiresAt time.Time
}
