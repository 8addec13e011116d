package controllers

import (
	"net/http"

	"github.com/nexeed/teammatch/middleware"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/services"
	"github.com/nexeed/teammatch/session"
)

// LoginHandler verifies admin credentials and sets the session cookie.
func LoginHandler(gate *services.AccessGate, cookieSecure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if err := middleware.ParseJSONBody(w, r, &creds); err != nil {
			middleware.WriteError(w, r, err)
			return
		}

		admin, value, expiresAt, err := gate.Login(r.Context(), creds)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}

		session.Write(w, value, expiresAt, cookieSecure)
		middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{Success: true, Admin: admin})
	}
}

// LogoutHandler destroys the current session and clears the cookie.
func LogoutHandler(gate *services.AccessGate, cookieSecure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if value, ok := session.Read(r); ok {
			if err := gate.Logout(r.Context(), value); err != nil {
				middleware.WriteError(w, r, err)
				return
			}
		}
		session.Clear(w, cookieSecure)
		middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
	}
}

// AuthStatusHandler reports whether the caller holds a valid session.
func AuthStatusHandler(gate *services.AccessGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, _ := session.Read(r)
		admin, err := gate.Authorize(r.Context(), value)
		if err != nil {
			if services.IsUnauthorized(err) {
				middleware.JSONResponse(w, http.StatusOK, models.AuthStatusResponse{Authenticated: false})
				return
			}
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.AuthStatusResponse{Authenticated: true, Admin: &admin})
	}
}
