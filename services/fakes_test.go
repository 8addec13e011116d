package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nexeed/teammatch/clients"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/repository"
)

type fakeScorer struct {
	traits models.TraitScores
	err    error
	calls  atomic.Int32
}

func (f *fakeScorer) Score(ctx context.Context, answers map[string]int, scale int) (models.TraitScores, error) {
	f.calls.Add(1)
	return f.traits, f.err
}

type fakeMatcher struct {
	mu       sync.Mutex
	resp     clients.MatchRunResponse
	err      error
	last     clients.MatchRunRequest
	calls    atomic.Int32
	beforeFn func()
}

func (f *fakeMatcher) Run(ctx context.Context, req clients.MatchRunRequest) (clients.MatchRunResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.beforeFn != nil {
		f.beforeFn()
	}
	return f.resp, f.err
}

func (f *fakeMatcher) lastRequest() clients.MatchRunRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// createCohortWithID inserts a collecting cohort with a fixed id.
func createCohortWithID(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	c := models.Cohort{
		ID:            id,
		Name:          "Capstone",
		Term:          "2025F",
		TeamSize:      4,
		RequiredRoles: models.DefaultRequiredRoles(),
		Status:        models.CohortCollecting,
		CreatedAt:     time.Now().UTC(),
	}
	if err := repository.CreateCohort(context.Background(), db, &c); err != nil {
		t.Fatalf("Failed to create cohort: %v", err)
	}
}

func thirtyAnswers() map[string]int {
	answers := make(map[string]int, 30)
	for i := 1; i <= 30; i++ {
		answers[fmt.Sprintf("Q%d", i)] = (i % 5) + 1
	}
	return answers
}

func strPtr(s string) *string { return &s }
