// Package session signs login session ids into cookie values and manages the
// session cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the administrator session cookie name.
const CookieName = "teammatch.session"

// ErrInvalid is returned for cookie values that are malformed, tampered
// with, or expired.
var ErrInvalid = errors.New("invalid session cookie")

// Codec signs and verifies session ids with HS256.
type Codec struct {
	secret []byte
}

// NewCodec returns a Codec keyed with secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode produces the cookie value carrying sessionID until expiresAt.
func (c *Codec) Encode(sessionID string, expiresAt time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{
		ID:        sessionID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("error signing session: %w", err)
	}
	return signed, nil
}

// Decode verifies value and returns the session id it carries.
func (c *Codec) Decode(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if strings.TrimSpace(claims.ID) == "" {
		return "", ErrInvalid
	}
	return claims.ID, nil
}

// Read returns the trimmed session cookie value when present.
func Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Write sets the session cookie until expiresAt.
func Write(w http.ResponseWriter, value string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	})
}

// Clear expires the session cookie.
func Clear(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
		MaxAge:   -1,
	})
}

// Cross-site admin frontends need SameSite=None, which browsers only accept
// on secure cookies.
func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
