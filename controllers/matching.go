package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nexeed/teammatch/middleware"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/services"
)

// RunMatchingHandler runs matching for the cohort in the path. The body is
// optional; omitted fields fall back to the cohort's settings.
func RunMatchingHandler(svc *services.MatchingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cohortID := mux.Vars(r)["id"]

		var req models.MatchRequest
		if err := middleware.ParseJSONBody(w, r, &req); err != nil {
			middleware.WriteFailure(w, r, err)
			return
		}

		teams, err := svc.RunMatching(r.Context(), cohortID, req.TeamSize, req.RequiredRoles)
		if err != nil {
			middleware.WriteFailure(w, r, err)
			return
		}

		middleware.JSONResponse(w, http.StatusOK, models.MatchResponse{OK: true, Teams: teams})
	}
}
