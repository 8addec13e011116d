package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nexeed/teammatch/models"
)

// UpsertPersonalityScore stores the traits and raw answers for the pair,
// overwriting any previous score.
func UpsertPersonalityScore(ctx context.Context, q DBTX, s models.PersonalityScore) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("error encoding answers: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO bigfive_responses (cohort_id, student_id, answers, o, c, e, a, n, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		ON CONFLICT (cohort_id, student_id) DO UPDATE SET
			answers = EXCLUDED.answers,
			o = EXCLUDED.o, c = EXCLUDED.c, e = EXCLUDED.e, a = EXCLUDED.a, n = EXCLUDED.n,
			scored_at = EXCLUDED.scored_at`,
		s.CohortID, s.ParticipantID, string(answers), s.Traits.O, s.Traits.C, s.Traits.E, s.Traits.A, s.Traits.N)
	if err != nil {
		return fmt.Errorf("error upserting personality score: %w", err)
	}
	return nil
}

// GetPersonalityScore retrieves the score for the pair, or nil when absent.
func GetPersonalityScore(ctx context.Context, q DBTX, cohortID, participantID string) (*models.PersonalityScore, error) {
	s := models.PersonalityScore{CohortID: cohortID, ParticipantID: participantID}
	var answers string
	err := q.QueryRowContext(ctx, `
		SELECT answers, o, c, e, a, n FROM bigfive_responses
		WHERE cohort_id = $1 AND student_id = $2`, cohortID, participantID,
	).Scan(&answers, &s.Traits.O, &s.Traits.C, &s.Traits.E, &s.Traits.A, &s.Traits.N)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting personality score: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
		return nil, fmt.Errorf("error decoding stored answers: %w", err)
	}
	return &s, nil
}

// CountScoresByCohort counts scored submissions for the cohort.
func CountScoresByCohort(ctx context.Context, q DBTX, cohortID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM bigfive_responses WHERE cohort_id = $1`, cohortID).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting scores: %w", err)
	}
	return n, nil
}
