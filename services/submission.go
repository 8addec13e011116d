package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexeed/teammatch/apperrors"
	"github.com/nexeed/teammatch/database"
	"github.com/nexeed/teammatch/metrics"
	"github.com/nexeed/teammatch/models"
	"github.com/nexeed/teammatch/repository"
)

// SubmissionService accepts survey submissions.
type SubmissionService struct {
	db        *sql.DB
	scorer    Scorer
	scale     int
	txTimeout time.Duration
	metrics   *metrics.Manager
}

func NewSubmissionService(db *sql.DB, scorer Scorer, scale int, txTimeout time.Duration, m *metrics.Manager) *SubmissionService {
	return &SubmissionService{db: db, scorer: scorer, scale: scale, txTimeout: txTimeout, metrics: m}
}

// Submit scores the answers and then, in one transaction, upserts the
// participant by email, enrolls it in the cohort and stores the score.
// Nothing is written when scoring fails.
func (s *SubmissionService) Submit(ctx context.Context, cohortID string, participant *models.Participant, answers map[string]int) (traits models.TraitScores, err error) {
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		s.metrics.RecordSubmission(outcome)
	}()

	if participant == nil || len(answers) == 0 {
		return models.TraitScores{}, apperrors.InvalidInput("student & answers required")
	}
	p := *participant
	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" {
		return models.TraitScores{}, apperrors.InvalidInput("student email required")
	}
	for q, v := range answers {
		if v < 1 || v > s.scale {
			return models.TraitScores{}, apperrors.InvalidInput(fmt.Sprintf("answer %s must be between 1 and %d", q, s.scale))
		}
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}

	cohort, err := repository.GetCohortByID(ctx, s.db, cohortID)
	if err != nil {
		return models.TraitScores{}, apperrors.Persistence("failed to load cohort", err)
	}
	if cohort == nil {
		return models.TraitScores{}, apperrors.NotFound("cohort not found")
	}

	traits, err = s.scorer.Score(ctx, answers, s.scale)
	if err != nil {
		slog.Warn("scoring failed", "cohort_id", cohortID, "error", err)
		return models.TraitScores{}, upstream("scoring", err)
	}

	txCtx, cancel := txContext(ctx, s.txTimeout)
	defer cancel()

	err = repository.WithTx(txCtx, s.db, func(tx *sql.Tx) error {
		if err := repository.UpsertParticipantByEmail(txCtx, tx, &p); err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict("student id already belongs to another email")
			}
			return err
		}
		if err := repository.EnrollParticipant(txCtx, tx, cohortID, p.ID); err != nil {
			return err
		}
		return repository.UpsertPersonalityScore(txCtx, tx, models.PersonalityScore{
			CohortID:      cohortID,
			ParticipantID: p.ID,
			Answers:       answers,
			Traits:        traits,
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return models.TraitScores{}, err
		}
		slog.Error("failed to persist submission", "cohort_id", cohortID, "error", err)
		return models.TraitScores{}, apperrors.Persistence("failed to save submission", err)
	}

	slog.Info("submission stored", "cohort_id", cohortID, "student_id", p.ID)
	return traits, nil
}
