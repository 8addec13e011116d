package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nexeed/teammatch/apperrors"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/repository"
	"github.com/nexeed/teammatch/testutil"
)

func TestCohortService_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCohortService(db, 4, 5*time.Second)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CreateCohortRequest{Name: " Capstone ", Term: "2025F"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Capstone" || created.TeamSize != 4 || created.Status != models.CohortCollecting {
		t.Errorf("Unexpected cohort %+v", created)
	}
	if created.RequiredRoles["PM"] != 1 || len(created.RequiredRoles) != 4 {
		t.Errorf("Expected default roles, got %v", created.RequiredRoles)
	}
	testutil.EnrollTestParticipant(t, db, created.ID, "a@x.com", nil)

	if _, err := svc.Create(ctx, models.CreateCohortRequest{Name: "Second", Term: "2025F", TeamSize: 3,
		RequiredRoles: map[string]int{"FE": 3}}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	list, err := svc.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Cohorts) != 1 {
		t.Errorf("Expected one cohort on the page, got %d", len(list.Cohorts))
	}
	if list.Pagination.TotalItems != 2 || list.Pagination.TotalPages != 2 || list.Pagination.CurrentPage != 1 {
		t.Errorf("Unexpected pagination %+v", list.Pagination)
	}
	if list.Stats.TotalCohorts != 2 || list.Stats.ActiveCohorts != 2 || list.Stats.TotalStudents != 1 {
		t.Errorf("Unexpected stats %+v", list.Stats)
	}
}

func TestCohortService_CreateValidation(t *testing.T) {
	svc := NewCohortService(testutil.SetupTestDB(t), 4, 5*time.Second)

	for name, req := range map[string]models.CreateCohortRequest{
		"missing name":  {Term: "2025F"},
		"missing term":  {Name: "x"},
		"negative size": {Name: "x", Term: "y", TeamSize: -2},
		"negative role": {Name: "x", Term: "y", RequiredRoles: map[string]int{"PM": -1}},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), req); !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("Expected InvalidInput, got %v", err)
			}
		})
	}
}

func TestCohortService_Reopen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCohortService(db, 4, 5*time.Second)
	ctx := context.Background()
	collecting := testutil.CreateTestCohort(t, db, models.CohortCollecting)
	matched := testutil.CreateTestCohort(t, db, models.CohortMatched)

	reopened, err := svc.Reopen(ctx, matched.ID)
	if err != nil || reopened.Status != models.CohortCollecting {
		t.Errorf("Expected reopened cohort, got %+v, %v", reopened, err)
	}
	if _, err := svc.Reopen(ctx, collecting.ID); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("Expected Conflict for collecting cohort, got %v", err)
	}
	if _, err := svc.Reopen(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestCohortService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCohortService(db, 4, 5*time.Second)
	ctx := context.Background()
	c := testutil.CreateTestCohort(t, db, models.CohortCollecting)
	testutil.EnrollTestParticipant(t, db, c.ID, "a@x.com", &sampleTraits)

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := testutil.CountRows(t, db, "bigfive_responses"); n != 0 {
		t.Errorf("Expected scores removed, got %d", n)
	}
	if err := svc.Delete(ctx, c.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected NotFound on second delete, got %v", err)
	}
}

func TestCohortService_Reads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCohortService(db, 4, 5*time.Second)
	ctx := context.Background()
	c := testutil.CreateTestCohort(t, db, models.CohortCollecting)
	testutil.EnrollTestParticipant(t, db, c.ID, "a@x.com", &sampleTraits)
	testutil.EnrollTestParticipant(t, db, c.ID, "b@x.com", nil)

	status, err := svc.Status(ctx, c.ID)
	if err != nil || status.Submitted != 1 {
		t.Errorf("Expected one scored submission, got %+v, %v", status, err)
	}
	students, err := svc.Students(ctx, c.ID)
	if err != nil || len(students) != 2 {
		t.Errorf("Expected two students, got %d, %v", len(students), err)
	}
	teams, err := svc.Teams(ctx, c.ID)
	if err != nil || len(teams) != 0 {
		t.Errorf("Expected no teams, got %d, %v", len(teams), err)
	}

	for name, call := range map[string]func() error{
		"status":   func() error { _, err := svc.Status(ctx, "missing"); return err },
		"students": func() error { _, err := svc.Students(ctx, "missing"); return err },
		"teams":    func() error { _, err := svc.Teams(ctx, "missing"); return err },
	} {
		if err := call(); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("%s: expected NotFound, got %v", name, err)
		}
	}
}

func TestCohortService_CleanupDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCohortService(db, 4, 5*time.Second)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	create := func(id, name string, age time.Duration) {
		c := models.Cohort{ID: id, Name: name, Term: "2025F", TeamSize: 4, RequiredRoles: models.DefaultRequiredRoles(),
			Status: models.CohortCollecting, CreatedAt: base.Add(age)}
		if err := repository.CreateCohort(ctx, db, &c); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	create("first", "Capstone", 0)
	create("copy-1", "Capstone", time.Minute)
	create("copy-2", "Capstone", 2*time.Minute)
	create("other", "Studio", time.Minute)
	testutil.EnrollTestParticipant(t, db, "copy-1", "a@x.com", &sampleTraits)

	resp, err := svc.CleanupDuplicates(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if resp.Deleted != 2 || len(resp.DeletedIDs) != 2 || resp.DeletedIDs[0] != "copy-1" || resp.DeletedIDs[1] != "copy-2" {
		t.Errorf("Expected copy-1 and copy-2 deleted, got %+v", resp)
	}
	if n := testutil.CountRows(t, db, "cohorts"); n != 2 {
		t.Errorf("Expected 2 cohorts left, got %d", n)
	}
	if n := testutil.CountRows(t, db, "bigfive_responses"); n != 0 {
		t.Errorf("Expected duplicate's scores removed, got %d", n)
	}
	if n := testutil.CountRows(t, db, "cohort_enrollments"); n != 0 {
		t.Errorf("Expected duplicate's enrollments removed, got %d", n)
	}
	if n := testutil.CountRows(t, db, "students"); n != 1 {
		t.Errorf("Expected participants kept, got %d", n)
	}
	if _, err := svc.Status(ctx, "first"); err != nil {
		t.Errorf("Expected oldest cohort kept, got %v", err)
	}

	resp, err = svc.CleanupDuplicates(ctx)
	if err != nil || resp.Deleted != 0 || resp.Message != "No duplicate cohorts found" {
		t.Errorf("Expected nothing left to clean, got %+v, %v", resp, err)
	}
}
