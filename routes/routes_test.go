package routes_test

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/nexeed/teammatch/clients"
	"github.com/nexeed/teammatch/metrics"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/routes"
	"github.com/nexeed/teammatch/services"
	"github.com/nexeed/teammatch/session"
	"github.com/nexeed/teammatch/testutil"
)

var scoreBody = map[string]float64{"O": 0.61, "C": 0.72, "E": 0.33, "A": 0.54, "N": 0.25}

var matchBody = map[string]any{
	"teams": []map[string]any{{
		"score":   0.8,
		"reasons": map[string]any{"balance": "ok"},
		"members": []map[string]any{
			{"student_id": "u1", "role_assigned": "BE"},
			{"student_id": "u2", "role_assigned": nil},
		},
	}},
}

type testServer struct {
	router *mux.Router
	db     *sql.DB
}

func newTestServer(t *testing.T, scoreStatus int, scoreResp any, matchStatus int, matchResp any) testServer {
	t.Helper()

	cfg := testutil.GetTestConfig()
	db := testutil.SetupTestDB(t)
	m := metrics.NewManager()

	scoring, _ := testutil.JSONServer(t, scoreStatus, scoreResp)
	matching, _ := testutil.JSONServer(t, matchStatus, matchResp)

	gate := services.NewAccessGate(db, session.NewCodec(cfg.SessionSecret), cfg.SessionTTL)
	testutil.CreateTestAdmin(t, db, "admin", "hunter22")

	r := routes.SetupRoutes(routes.Deps{
		DB:          db,
		Gate:        gate,
		Submissions: services.NewSubmissionService(db, clients.NewScoringClient(scoring.URL, "", cfg.ScoringTimeout, m), cfg.LikertScale, cfg.DBTxTimeout, m),
		Matching:    services.NewMatchingService(db, clients.NewMatchingClient(matching.URL, "", cfg.MatchingTimeout, m), cfg.DefaultTeamSize, cfg.DBTxTimeout, m),
		Cohorts:     services.NewCohortService(db, cfg.DefaultTeamSize, cfg.DBTxTimeout),
		Metrics:     m,
	})
	return testServer{router: r, db: db}
}

func (s testServer) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s testServer) login(t *testing.T) *http.Cookie {
	t.Helper()

	w := s.do(testutil.MakeRequest("POST", "/auth/login", models.Credentials{Username: "admin", Password: "hunter22"}, nil), nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("Expected %s cookie in login response", session.CookieName)
	return nil
}

func submitBody(id, email string) models.SubmitRequest {
	answers := make(map[string]int, 30)
	for i := 1; i <= 30; i++ {
		answers[fmt.Sprintf("Q%d", i)] = (i % 5) + 1
	}
	return models.SubmitRequest{
		Student: &models.Participant{ID: id, Email: email, Name: "Student " + id, RolePref: "BE"},
		Answers: answers,
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)

	w := s.do(testutil.MakeRequest("GET", "/health", nil, nil), nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var body map[string]string
	testutil.AssertJSON(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)
	cohort := testutil.CreateTestCohort(t, s.db, models.CohortCollecting)

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/cohorts/" + cohort.ID + "/status"},
		{"POST", "/api/cohorts/" + cohort.ID + "/match"},
		{"GET", "/api/cohorts/" + cohort.ID + "/teams"},
		{"GET", "/api/cohorts/" + cohort.ID + "/students"},
		{"GET", "/api/admin/cohorts"},
		{"POST", "/api/admin/cohorts"},
		{"DELETE", "/api/admin/cohorts/" + cohort.ID},
		{"POST", "/api/admin/cohorts/" + cohort.ID + "/reopen"},
		{"GET", "/api/admin/cohorts/" + cohort.ID + "/students"},
		{"POST", "/api/admin/cleanup-cohorts"},
		{"POST", "/auth/logout"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := s.do(testutil.MakeRequest(tt.method, tt.path, nil, nil), nil)
			testutil.AssertStatus(t, w, http.StatusUnauthorized)

			var body models.ErrorResponse
			testutil.AssertJSON(t, w, &body)
			if body.Error != "authentication required" {
				t.Errorf("Expected authentication required, got %q", body.Error)
			}
		})
	}

	if n := testutil.CountRows(t, s.db, "teams"); n != 0 {
		t.Errorf("Expected no teams, got %d", n)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)

	w := s.do(testutil.MakeRequest("POST", "/auth/login", models.Credentials{Username: "admin", Password: "wrong"}, nil), nil)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
	if len(w.Result().Cookies()) != 0 {
		t.Error("Expected no cookie on failed login")
	}

	w = s.do(testutil.MakeRequest("POST", "/auth/login", models.Credentials{}, nil), nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestAuthStatus(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)

	var status models.AuthStatusResponse
	w := s.do(testutil.MakeRequest("GET", "/auth/status", nil, nil), nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &status)
	if status.Authenticated || status.Admin != nil {
		t.Errorf("Expected unauthenticated, got %+v", status)
	}

	cookie := s.login(t)
	w = s.do(testutil.MakeRequest("GET", "/auth/status", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &status)
	if !status.Authenticated || status.Admin == nil || status.Admin.Username != "admin" {
		t.Errorf("Expected authenticated admin, got %+v", status)
	}
}

func TestCohortLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)
	cookie := s.login(t)

	// Create
	w := s.do(testutil.MakeRequest("POST", "/api/admin/cohorts", models.CreateCohortRequest{Name: "Capstone", Term: "2025F", TeamSize: 4}, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.CohortResponse
	testutil.AssertJSON(t, w, &created)
	cohortID := created.Cohort.ID
	if cohortID == "" || created.Cohort.Status != models.CohortCollecting {
		t.Fatalf("Expected collecting cohort with id, got %+v", created.Cohort)
	}

	// Submit (public)
	for _, p := range [][2]string{{"u1", "a@x.com"}, {"u2", "b@x.com"}} {
		w = s.do(testutil.MakeRequest("POST", "/api/cohorts/"+cohortID+"/submit", submitBody(p[0], p[1]), nil), nil)
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.SubmitResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.OK || resp.Ocean.O != 0.61 || resp.Ocean.N != 0.25 {
			t.Errorf("Expected ok with scored traits, got %+v", resp)
		}
	}

	// Status
	w = s.do(testutil.MakeRequest("GET", "/api/cohorts/"+cohortID+"/status", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	var status models.CohortStatus
	testutil.AssertJSON(t, w, &status)
	if status.Submitted != 2 || status.Status != models.CohortCollecting {
		t.Errorf("Expected 2 submitted collecting, got %+v", status)
	}

	// Match with an empty body falls back to the cohort settings
	w = s.do(httptest.NewRequest("POST", "/api/cohorts/"+cohortID+"/match", nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	var matched models.MatchResponse
	testutil.AssertJSON(t, w, &matched)
	if !matched.OK || len(matched.Teams) != 1 || len(matched.Teams[0].Members) != 2 {
		t.Fatalf("Expected one team of two, got %+v", matched)
	}
	if matched.Teams[0].Members[0].Name != "Student u1" {
		t.Errorf("Expected member name enriched from roster, got %q", matched.Teams[0].Members[0].Name)
	}

	// A second run is refused until the cohort is reopened
	w = s.do(httptest.NewRequest("POST", "/api/cohorts/"+cohortID+"/match", nil), cookie)
	testutil.AssertStatus(t, w, http.StatusConflict)
	var failure models.FailureResponse
	testutil.AssertJSON(t, w, &failure)
	if failure.OK || failure.Error != "cohort has already been matched" {
		t.Errorf("Expected conflict failure body, got %+v", failure)
	}

	// Teams
	w = s.do(testutil.MakeRequest("GET", "/api/cohorts/"+cohortID+"/teams", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	var teams models.TeamsResponse
	testutil.AssertJSON(t, w, &teams)
	if teams.Count != 1 || len(teams.Teams[0].Members) != 2 {
		t.Errorf("Expected one stored team of two, got %+v", teams)
	}

	// Students
	w = s.do(testutil.MakeRequest("GET", "/api/cohorts/"+cohortID+"/students", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	var students models.StudentsResponse
	testutil.AssertJSON(t, w, &students)
	if students.Count != 2 {
		t.Errorf("Expected 2 students, got %d", students.Count)
	}

	// List
	w = s.do(testutil.MakeRequest("GET", "/api/admin/cohorts?page=1&limit=10", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	var list models.CohortListResponse
	testutil.AssertJSON(t, w, &list)
	if len(list.Cohorts) != 1 || list.Cohorts[0].TeamCount != 1 || list.Stats.TotalStudents != 2 {
		t.Errorf("Expected one matched cohort in listing, got %+v", list)
	}

	// Reopen, then delete
	w = s.do(testutil.MakeRequest("POST", "/api/admin/cohorts/"+cohortID+"/reopen", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	var reopened models.CohortResponse
	testutil.AssertJSON(t, w, &reopened)
	if reopened.Cohort.Status != models.CohortCollecting {
		t.Errorf("Expected collecting after reopen, got %s", reopened.Cohort.Status)
	}

	w = s.do(testutil.MakeRequest("DELETE", "/api/admin/cohorts/"+cohortID, nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = s.do(testutil.MakeRequest("GET", "/api/cohorts/"+cohortID+"/status", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestCleanupCohortsOverHTTP(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)
	cookie := s.login(t)
	kept := testutil.CreateTestCohort(t, s.db, models.CohortCollecting)
	time.Sleep(2 * time.Millisecond)
	dup := testutil.CreateTestCohort(t, s.db, models.CohortCollecting)
	testutil.EnrollTestParticipant(t, s.db, dup.ID, "a@x.com", nil)

	w := s.do(testutil.MakeRequest("GET", "/api/admin/cohorts/"+dup.ID+"/students", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	var students models.StudentsResponse
	testutil.AssertJSON(t, w, &students)
	if students.Count != 1 {
		t.Errorf("Expected 1 student through the admin path, got %d", students.Count)
	}

	w = s.do(testutil.MakeRequest("POST", "/api/admin/cleanup-cohorts", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.CleanupResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Deleted != 1 || len(resp.DeletedIDs) != 1 || resp.DeletedIDs[0] != dup.ID {
		t.Errorf("Expected %s deleted, got %+v", dup.ID, resp)
	}

	w = s.do(testutil.MakeRequest("GET", "/api/cohorts/"+kept.ID+"/status", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)
	w = s.do(testutil.MakeRequest("GET", "/api/cohorts/"+dup.ID+"/status", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestSubmitErrors(t *testing.T) {
	s := newTestServer(t, http.StatusServiceUnavailable, map[string]string{"detail": "down"}, http.StatusOK, matchBody)
	cohort := testutil.CreateTestCohort(t, s.db, models.CohortCollecting)

	tests := []struct {
		name       string
		path       string
		body       io.Reader
		wantStatus int
		wantError  string
	}{
		{"empty body", "/api/cohorts/" + cohort.ID + "/submit", nil, http.StatusBadRequest, "student & answers required"},
		{"malformed body", "/api/cohorts/" + cohort.ID + "/submit", strings.NewReader("{"), http.StatusBadRequest, "invalid JSON body"},
		{"unknown cohort", "/api/cohorts/missing/submit", strings.NewReader(`{"student":{"email":"a@x.com"},"answers":{"Q1":3}}`), http.StatusNotFound, "cohort not found"},
		{"scoring down", "/api/cohorts/" + cohort.ID + "/submit", strings.NewReader(`{"student":{"email":"a@x.com"},"answers":{"Q1":3}}`), http.StatusBadGateway, `scoring service error: 503 - {"detail":"down"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(httptest.NewRequest("POST", tt.path, tt.body), nil)
			testutil.AssertStatus(t, w, tt.wantStatus)

			var body models.FailureResponse
			testutil.AssertJSON(t, w, &body)
			if body.OK || body.Error != tt.wantError {
				t.Errorf("Expected {ok:false error:%q}, got %+v", tt.wantError, body)
			}
		})
	}

	if n := testutil.CountRows(t, s.db, "students"); n != 0 {
		t.Errorf("Expected no participants after failed submissions, got %d", n)
	}
}

func TestMatchingFailureKeepsCohortCollecting(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	cookie := s.login(t)
	cohort := testutil.CreateTestCohort(t, s.db, models.CohortCollecting)
	testutil.EnrollTestParticipant(t, s.db, cohort.ID, "a@x.com", nil)

	w := s.do(testutil.MakeRequest("POST", "/api/cohorts/"+cohort.ID+"/match", models.MatchRequest{TeamSize: 3}, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusBadGateway)

	var body models.FailureResponse
	testutil.AssertJSON(t, w, &body)
	if !strings.Contains(body.Error, "500") {
		t.Errorf("Expected collaborator status in error, got %q", body.Error)
	}

	w = s.do(testutil.MakeRequest("GET", "/api/cohorts/"+cohort.ID+"/status", nil, nil), cookie)
	var status models.CohortStatus
	testutil.AssertJSON(t, w, &status)
	if status.Status != models.CohortCollecting {
		t.Errorf("Expected cohort still collecting, got %s", status.Status)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)
	cookie := s.login(t)

	w := s.do(testutil.MakeRequest("POST", "/auth/logout", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusOK)

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Expected logout to clear the session cookie")
	}
	if n := testutil.CountRows(t, s.db, "admin_sessions"); n != 0 {
		t.Errorf("Expected session row deleted, got %d", n)
	}

	w = s.do(testutil.MakeRequest("GET", "/api/admin/cohorts", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestDeletedAdminLosesAccess(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)
	cookie := s.login(t)

	if _, err := s.db.Exec("DELETE FROM admin_users"); err != nil {
		t.Fatalf("delete admin: %v", err)
	}

	w := s.do(testutil.MakeRequest("GET", "/api/admin/cohorts", nil, nil), cookie)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
	if n := testutil.CountRows(t, s.db, "admin_sessions"); n != 0 {
		t.Errorf("Expected orphaned session destroyed, got %d", n)
	}
}

func TestUnknownRouteIsCounted(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)

	w := s.do(testutil.MakeRequest("GET", "/api/nothing/here", nil, nil), nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
	var body models.ErrorResponse
	testutil.AssertJSON(t, w, &body)
	if body.Error != "not found" {
		t.Errorf("Expected not found, got %q", body.Error)
	}

	w = s.do(testutil.MakeRequest("GET", "/metrics", nil, nil), nil)
	want := `teammatch_http_requests_total{method="GET",route="unmatched",status_code="404"} 1`
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("Expected %q in metrics output", want)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, http.StatusOK, scoreBody, http.StatusOK, matchBody)
	cohort := testutil.CreateTestCohort(t, s.db, models.CohortCollecting)

	w := s.do(testutil.MakeRequest("POST", "/api/cohorts/"+cohort.ID+"/submit", submitBody("u1", "a@x.com"), nil), nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = s.do(testutil.MakeRequest("GET", "/metrics", nil, nil), nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	body := w.Body.String()
	for _, want := range []string{
		`teammatch_submissions_total{outcome="success"} 1`,
		`teammatch_http_requests_total{method="POST",route="/api/cohorts/{id}/submit",status_code="200"} 1`,
		`teammatch_collaborator_request_duration_seconds_count{outcome="success",service="scoring"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %q", want)
		}
	}
}
