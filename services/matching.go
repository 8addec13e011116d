package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nexeed/teammatch/apperrors"
	"github.com/nexeed/teammatch/clients"
	"github.com/nexeed/teammatch/metrics"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/repository"
)

// MatchingService runs the matching collaborator over a cohort and stores
// the resulting teams.
type MatchingService struct {
	db              *sql.DB
	matcher         Matcher
	defaultTeamSize int
	txTimeout       time.Duration
	metrics         *metrics.Manager
}

func NewMatchingService(db *sql.DB, matcher Matcher, defaultTeamSize int, txTimeout time.Duration, m *metrics.Manager) *MatchingService {
	return &MatchingService{db: db, matcher: matcher, defaultTeamSize: defaultTeamSize, txTimeout: txTimeout, metrics: m}
}

// RunMatching replaces the cohort's teams with a fresh partition and moves
// the cohort from collecting to matched. A zero teamSize or nil
// requiredRoles falls back to the cohort's settings, then to the service
// defaults. Only one run per collecting cohort can commit; others fail with
// a conflict and leave the stored teams untouched.
func (s *MatchingService) RunMatching(ctx context.Context, cohortID string, teamSize int, requiredRoles map[string]int) (teams []models.TeamAssignment, err error) {
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		s.metrics.RecordMatchingRun(outcome, len(teams))
	}()

	if teamSize < 0 {
		return nil, apperrors.InvalidInput("team_size must be positive")
	}
	for role, n := range requiredRoles {
		if n < 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("required_roles[%s] must not be negative", role))
		}
	}

	cohort, err := repository.GetCohortByID(ctx, s.db, cohortID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load cohort", err)
	}
	if cohort == nil {
		return nil, apperrors.NotFound("cohort not found")
	}
	if cohort.Status != models.CohortCollecting {
		return nil, apperrors.Conflict("cohort has already been matched")
	}
	teamSize, requiredRoles = s.resolveDefaults(cohort, teamSize, requiredRoles)

	roster, err := repository.SnapshotRoster(ctx, s.db, cohortID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load roster", err)
	}

	resp, err := s.matcher.Run(ctx, clients.MatchRunRequest{
		TeamSize:      teamSize,
		RequiredRoles: requiredRoles,
		Students:      roster,
	})
	if err != nil {
		slog.Warn("matching failed", "cohort_id", cohortID, "error", err)
		return nil, upstream("matching", err)
	}

	teams, err = enrichTeams(resp.Teams, roster)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := txContext(ctx, s.txTimeout)
	defer cancel()

	err = repository.WithTx(txCtx, s.db, func(tx *sql.Tx) error {
		ok, err := repository.TransitionCohortStatus(txCtx, tx, cohortID, models.CohortCollecting, models.CohortMatched)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Conflict("cohort has already been matched")
		}
		if err := repository.DeleteTeamsByCohort(txCtx, tx, cohortID); err != nil {
			return err
		}
		for i := range teams {
			if err := repository.CreateTeam(txCtx, tx, cohortID, i, &teams[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		teams = nil
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		slog.Error("failed to persist teams", "cohort_id", cohortID, "error", err)
		return nil, apperrors.Persistence("failed to save teams", err)
	}

	slog.Info("matching run stored", "cohort_id", cohortID, "teams", len(teams), "students", len(roster))
	return teams, nil
}

func (s *MatchingService) resolveDefaults(cohort *models.Cohort, teamSize int, requiredRoles map[string]int) (int, map[string]int) {
	if teamSize == 0 {
		teamSize = cohort.TeamSize
	}
	if teamSize <= 0 {
		teamSize = s.defaultTeamSize
	}
	if requiredRoles == nil {
		requiredRoles = cohort.RequiredRoles
	}
	if requiredRoles == nil {
		requiredRoles = models.DefaultRequiredRoles()
	}
	return teamSize, requiredRoles
}

// enrichTeams assigns ids to the proposed teams and resolves member names
// from the roster. Members outside the roster, or seated twice, make the
// whole answer invalid.
func enrichTeams(proposed []clients.MatchedTeam, roster []models.RosterEntry) ([]models.TeamAssignment, error) {
	names := make(map[string]string, len(roster))
	for _, r := range roster {
		names[r.StudentID] = r.Name
	}

	seated := map[string]bool{}
	teams := make([]models.TeamAssignment, 0, len(proposed))
	for _, pt := range proposed {
		team := models.TeamAssignment{
			ID:      uuid.NewString(),
			Score:   pt.Score,
			Reasons: pt.Reasons,
			Members: make([]models.TeamMember, 0, len(pt.Members)),
		}
		for _, m := range pt.Members {
			name, ok := names[m.StudentID]
			if !ok {
				return nil, apperrors.Upstream("matching service returned an unknown student", fmt.Errorf("student %q not in roster", m.StudentID))
			}
			if seated[m.StudentID] {
				return nil, apperrors.Upstream("matching service seated a student twice", fmt.Errorf("student %q repeated", m.StudentID))
			}
			seated[m.StudentID] = true
			if name == "" {
				name = m.StudentID
			}
			team.Members = append(team.Members, models.TeamMember{
				StudentID:    m.StudentID,
				Name:         name,
				RoleAssigned: m.RoleAssigned,
			})
		}
		teams = append(teams, team)
	}
	return teams, nil
}
