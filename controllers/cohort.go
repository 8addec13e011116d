package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nexeed/teammatch/middleware"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/services"
	"github.com/nexeed/teammatch/utils"
)

// GetCohortStatusHandler reports submission progress for a cohort.
func GetCohortStatusHandler(svc *services.CohortService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.Status(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, status)
	}
}

// GetCohortTeamsHandler lists a cohort's stored teams.
func GetCohortTeamsHandler(svc *services.CohortService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := svc.Teams(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.TeamsResponse{Teams: teams, Count: len(teams)})
	}
}

// GetCohortStudentsHandler lists a cohort's participants and their scores.
func GetCohortStudentsHandler(svc *services.CohortService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := svc.Students(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.StudentsResponse{Students: students, Count: len(students)})
	}
}

// ListCohortsHandler returns a paginated list of cohorts with dashboard stats.
func ListCohortsHandler(svc *services.CohortService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := utils.GetPaginationParams(r)

		resp, err := svc.List(r.Context(), page, limit)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, resp)
	}
}

// CreateCohortHandler opens a new cohort.
func CreateCohortHandler(svc *services.CohortService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateCohortRequest
		if err := middleware.ParseJSONBody(w, r, &req); err != nil {
			middleware.WriteError(w, r, err)
			return
		}

		cohort, err := svc.Create(r.Context(), req)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusCreated, models.CohortResponse{Success: true, Cohort: cohort})
	}
}

// DeleteCohortHandler removes a cohort and everything collected for it.
func DeleteCohortHandler(svc *services.CohortService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
	}
}

// CleanupCohortsHandler removes cohorts duplicating an older cohort's name.
func CleanupCohortsHandler(svc *services.CohortService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svc.CleanupDuplicates(r.Context())
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, resp)
	}
}

// ReopenCohortHandler moves a matched cohort back to collecting.
func ReopenCohortHandler(svc *services.CohortService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cohort, err := svc.Reopen(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.CohortResponse{Success: true, Cohort: cohort})
	}
}
