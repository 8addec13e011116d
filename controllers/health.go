package controllers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/nexeed/teammatch/middleware"
)

// HealthHandler reports liveness and whether the database answers.
func HealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
