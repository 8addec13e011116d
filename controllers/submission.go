package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nexeed/teammatch/middleware"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/services"
)

// SubmitHandler accepts a survey submission for the cohort in the path.
func SubmitHandler(svc *services.SubmissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cohortID := mux.Vars(r)["id"]

		var req models.SubmitRequest
		if err := middleware.ParseJSONBody(w, r, &req); err != nil {
			middleware.WriteFailure(w, r, err)
			return
		}

		traits, err := svc.Submit(r.Context(), cohortID, req.Student, req.Answers)
		if err != nil {
			middleware.WriteFailure(w, r, err)
			return
		}

		middleware.JSONResponse(w, http.StatusOK, models.SubmitResponse{OK: true, Ocean: traits})
	}
}
