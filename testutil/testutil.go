// Package testutil holds database fixtures and HTTP helpers shared by tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nexeed/teammatch/config"
	"github.com/nexeed/teammatch/database"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/repository"
)

// SetupTestDB opens a fresh SQLite database in the test's temp directory with
// the full schema applied. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "teammatch.db")
	db, err := database.Open(context.Background(), database.DriverSQLite, path, 1)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// GetTestConfig returns a standard test configuration.
func GetTestConfig() config.Config {
	return config.Config{
		Port:               8080,
		DatabaseType:       database.DriverSQLite,
		DBTxTimeout:        5 * time.Second,
		ScoringTimeout:     2 * time.Second,
		MatchingTimeout:    2 * time.Second,
		LikertScale:        5,
		DefaultTeamSize:    4,
		SessionSecret:      "test-session-secret",
		SessionTTL:         time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

// CreateTestCohort inserts a cohort with the given status and returns it.
func CreateTestCohort(t *testing.T, db *sql.DB, status string) models.Cohort {
	t.Helper()

	c := models.Cohort{
		ID:            uuid.NewString(),
		Name:          "Test Cohort",
		Term:          "2025F",
		TeamSize:      4,
		RequiredRoles: models.DefaultRequiredRoles(),
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}
	if err := repository.CreateCohort(context.Background(), db, &c); err != nil {
		t.Fatalf("Failed to create test cohort: %v", err)
	}
	return c
}

// EnrollTestParticipant creates a participant with the given email, enrolls
// it in the cohort and, when traits is non-nil, stores a score.
func EnrollTestParticipant(t *testing.T, db *sql.DB, cohortID, email string, traits *models.TraitScores) models.Participant {
	t.Helper()
	ctx := context.Background()

	p := models.Participant{
		ID:       uuid.NewString(),
		Email:    email,
		Name:     "Student " + email,
		Major:    "CS",
		RolePref: "BE",
	}
	if err := repository.UpsertParticipantByEmail(ctx, db, &p); err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}
	if err := repository.EnrollParticipant(ctx, db, cohortID, p.ID); err != nil {
		t.Fatalf("Failed to enroll test participant: %v", err)
	}
	if traits != nil {
		score := models.PersonalityScore{
			CohortID:      cohortID,
			ParticipantID: p.ID,
			Answers:       map[string]int{"q1": 3},
			Traits:        *traits,
		}
		if err := repository.UpsertPersonalityScore(ctx, db, score); err != nil {
			t.Fatalf("Failed to store test score: %v", err)
		}
	}
	return p
}

// CreateTestAdmin inserts an administrator with the given credentials.
func CreateTestAdmin(t *testing.T, db *sql.DB, username, password string) models.AdminUser {
	t.Helper()

	u := models.AdminUser{ID: uuid.NewString(), Username: username}
	if err := repository.CreateAdminUser(context.Background(), db, &u, password); err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}
	return u
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// JSONServer starts an httptest server answering every request with status
// and body encoded as JSON. The returned counter tracks requests served.
func JSONServer(t *testing.T, status int, body any) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
