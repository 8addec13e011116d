package routes

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nexeed/teammatch/controllers"
	"github.com/nexeed/teammatch/metrics"
	"github.com/nexeed/teammatch/middleware"
	"github.com/nexeed/teammatch/services"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	DB           *sql.DB
	Gate         *services.AccessGate
	Submissions  *services.SubmissionService
	Matching     *services.MatchingService
	Cohorts      *services.CohortService
	Metrics      *metrics.Manager
	CookieSecure bool
}

// SetupRoutes configures the application routes.
func SetupRoutes(d Deps) *mux.Router {
	r := mux.NewRouter()
	logging := middleware.WithLogging(d.Metrics)
	r.Use(logging)

	// Use only wraps matched routes.
	r.NotFoundHandler = logging(http.HandlerFunc(middleware.NotFound))
	r.MethodNotAllowedHandler = logging(http.HandlerFunc(middleware.MethodNotAllowed))

	// --- Public Routes ---
	r.HandleFunc("/health", controllers.HealthHandler(d.DB)).Methods("GET")
	r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")
	r.HandleFunc("/auth/login", controllers.LoginHandler(d.Gate, d.CookieSecure)).Methods("POST")
	r.HandleFunc("/auth/status", controllers.AuthStatusHandler(d.Gate)).Methods("GET")
	r.HandleFunc("/api/cohorts/{id}/submit", controllers.SubmitHandler(d.Submissions)).Methods("POST")

	// --- Protected Routes (Admin Session Required) ---
	adminRouter := r.PathPrefix("").Subrouter()
	adminRouter.Use(middleware.RequireAdmin(d.Gate))

	adminRouter.HandleFunc("/auth/logout", controllers.LogoutHandler(d.Gate, d.CookieSecure)).Methods("POST")

	// Cohort operations
	adminRouter.HandleFunc("/api/cohorts/{id}/status", controllers.GetCohortStatusHandler(d.Cohorts)).Methods("GET")
	adminRouter.HandleFunc("/api/cohorts/{id}/match", controllers.RunMatchingHandler(d.Matching)).Methods("POST")
	adminRouter.HandleFunc("/api/cohorts/{id}/teams", controllers.GetCohortTeamsHandler(d.Cohorts)).Methods("GET")
	adminRouter.HandleFunc("/api/cohorts/{id}/students", controllers.GetCohortStudentsHandler(d.Cohorts)).Methods("GET")

	// Cohort management
	adminRouter.HandleFunc("/api/admin/cohorts", controllers.ListCohortsHandler(d.Cohorts)).Methods("GET")
	adminRouter.HandleFunc("/api/admin/cohorts", controllers.CreateCohortHandler(d.Cohorts)).Methods("POST")
	adminRouter.HandleFunc("/api/admin/cohorts/{id}", controllers.DeleteCohortHandler(d.Cohorts)).Methods("DELETE")
	adminRouter.HandleFunc("/api/admin/cohorts/{id}/reopen", controllers.ReopenCohortHandler(d.Cohorts)).Methods("POST")
	adminRouter.HandleFunc("/api/admin/cohorts/{id}/students", controllers.GetCohortStudentsHandler(d.Cohorts)).Methods("GET")
	adminRouter.HandleFunc("/api/admin/cleanup-cohorts", controllers.CleanupCohortsHandler(d.Cohorts)).Methods("POST")

	return r
}
