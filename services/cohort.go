package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexeed/teammatch/apperrors"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/repository"
	"github.com/nexeed/teammatch/utils"
)

// CohortService administers cohorts and reads their progress and results.
type CohortService struct {
	db              *sql.DB
	defaultTeamSize int
	txTimeout       time.Duration
}

func NewCohortService(db *sql.DB, defaultTeamSize int, txTimeout time.Duration) *CohortService {
	return &CohortService{db: db, defaultTeamSize: defaultTeamSize, txTimeout: txTimeout}
}

// Create opens a new cohort in the collecting state.
func (s *CohortService) Create(ctx context.Context, req models.CreateCohortRequest) (models.Cohort, error) {
	name, term := strings.TrimSpace(req.Name), strings.TrimSpace(req.Term)
	if name == "" || term == "" {
		return models.Cohort{}, apperrors.InvalidInput("name and term required")
	}
	if req.TeamSize < 0 {
		return models.Cohort{}, apperrors.InvalidInput("team_size must be positive")
	}
	for role, n := range req.RequiredRoles {
		if n < 0 {
			return models.Cohort{}, apperrors.InvalidInput(fmt.Sprintf("required_roles[%s] must not be negative", role))
		}
	}

	c := models.Cohort{
		ID:            uuid.NewString(),
		Name:          name,
		Term:          term,
		TeamSize:      req.TeamSize,
		RequiredRoles: req.RequiredRoles,
		Status:        models.CohortCollecting,
		CreatedAt:     time.Now().UTC(),
	}
	if c.TeamSize == 0 {
		c.TeamSize = s.defaultTeamSize
	}
	if c.RequiredRoles == nil {
		c.RequiredRoles = models.DefaultRequiredRoles()
	}

	if err := repository.CreateCohort(ctx, s.db, &c); err != nil {
		return models.Cohort{}, apperrors.Persistence("failed to create cohort", err)
	}
	slog.Info("cohort created", "cohort_id", c.ID)
	return c, nil
}

// List returns a page of cohort summaries with the dashboard counters.
func (s *CohortService) List(ctx context.Context, page, limit int) (models.CohortListResponse, error) {
	offset := utils.CalculateOffset(page, limit)
	cohorts, total, err := repository.ListCohortSummaries(ctx, s.db, limit, offset)
	if err != nil {
		return models.CohortListResponse{}, apperrors.Persistence("failed to list cohorts", err)
	}
	stats, err := repository.GetCohortStats(ctx, s.db)
	if err != nil {
		return models.CohortListResponse{}, apperrors.Persistence("failed to load cohort stats", err)
	}
	return models.CohortListResponse{
		Cohorts:    cohorts,
		Stats:      stats,
		Pagination: models.NewPaginationMetadata(total, page, limit),
	}, nil
}

// Delete removes the cohort with its teams, scores and enrollments.
func (s *CohortService) Delete(ctx context.Context, id string) error {
	txCtx, cancel := txContext(ctx, s.txTimeout)
	defer cancel()

	var existed bool
	err := repository.WithTx(txCtx, s.db, func(tx *sql.Tx) error {
		var err error
		existed, err = repository.DeleteCohort(txCtx, tx, id)
		return err
	})
	if err != nil {
		return apperrors.Persistence("failed to delete cohort", err)
	}
	if !existed {
		return apperrors.NotFound("cohort not found")
	}
	slog.Info("cohort deleted", "cohort_id", id)
	return nil
}

// CleanupDuplicates deletes every cohort whose name is already used by an
// older cohort, along with its teams, scores and enrollments. All deletions
// commit together.
func (s *CohortService) CleanupDuplicates(ctx context.Context) (models.CleanupResponse, error) {
	txCtx, cancel := txContext(ctx, s.txTimeout)
	defer cancel()

	var ids []string
	err := repository.WithTx(txCtx, s.db, func(tx *sql.Tx) error {
		var err error
		ids, err = repository.ListDuplicateCohortIDs(txCtx, tx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := repository.DeleteCohort(txCtx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.CleanupResponse{}, apperrors.Persistence("cleanup failed", err)
	}

	if len(ids) == 0 {
		return models.CleanupResponse{Message: "No duplicate cohorts found", DeletedIDs: ids}, nil
	}
	slog.Info("duplicate cohorts deleted", "count", len(ids))
	return models.CleanupResponse{Message: "Duplicate cohorts cleaned up", Deleted: len(ids), DeletedIDs: ids}, nil
}

// Reopen moves a matched cohort back to collecting so it can be matched
// again. Existing teams stay until the next run replaces them.
func (s *CohortService) Reopen(ctx context.Context, id string) (models.Cohort, error) {
	ok, err := repository.TransitionCohortStatus(ctx, s.db, id, models.CohortMatched, models.CohortCollecting)
	if err != nil {
		return models.Cohort{}, apperrors.Persistence("failed to reopen cohort", err)
	}
	c, err := s.get(ctx, id)
	if err != nil {
		return models.Cohort{}, err
	}
	if !ok {
		return models.Cohort{}, apperrors.Conflict("cohort is not matched")
	}
	return *c, nil
}

// Status reports how many scored submissions the cohort has.
func (s *CohortService) Status(ctx context.Context, id string) (models.CohortStatus, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return models.CohortStatus{}, err
	}
	n, err := repository.CountScoresByCohort(ctx, s.db, id)
	if err != nil {
		return models.CohortStatus{}, apperrors.Persistence("failed to count submissions", err)
	}
	return models.CohortStatus{Submitted: n, Status: c.Status}, nil
}

// Students lists the cohort's participants with their raw trait scores.
func (s *CohortService) Students(ctx context.Context, id string) ([]models.EnrolledParticipant, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	students, err := repository.ListEnrolledParticipants(ctx, s.db, id)
	if err != nil {
		return nil, apperrors.Persistence("failed to list students", err)
	}
	return students, nil
}

// Teams lists the cohort's stored teams.
func (s *CohortService) Teams(ctx context.Context, id string) ([]models.PersistedTeam, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	teams, err := repository.ListTeamsByCohort(ctx, s.db, id)
	if err != nil {
		return nil, apperrors.Persistence("failed to list teams", err)
	}
	return teams, nil
}

func (s *CohortService) get(ctx context.Context, id string) (*models.Cohort, error) {
	c, err := repository.GetCohortByID(ctx, s.db, id)
	if err != nil {
		return nil, apperrors.Persistence("failed to load cohort", err)
	}
	if c == nil {
		return nil, apperrors.NotFound("cohort not found")
	}
	return c, nil
}
