package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nexeed/teammatch/models"
)

const cohortColumns = `c.id, c.name, c.term, c.team_size, c.required_roles, c.status, c.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCohort(row rowScanner, c *models.Cohort, extra ...any) error {
	var roles string
	dest := append([]any{&c.ID, &c.Name, &c.Term, &c.TeamSize, &roles, &c.Status, &c.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	// An empty map means no role constraints; only an absent value is nil.
	c.RequiredRoles = nil
	if roles != "" && roles != "null" {
		if err := json.Unmarshal([]byte(roles), &c.RequiredRoles); err != nil {
			return fmt.Errorf("error decoding required roles: %w", err)
		}
	}
	return nil
}

// CreateCohort inserts a new cohort. The caller assigns ID, Status and
// CreatedAt.
func CreateCohort(ctx context.Context, q DBTX, c *models.Cohort) error {
	roles, err := json.Marshal(c.RequiredRoles)
	if err != nil {
		return fmt.Errorf("error encoding required roles: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO cohorts (id, name, term, team_size, required_roles, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Term, c.TeamSize, string(roles), c.Status, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting cohort: %w", err)
	}
	return nil
}

// GetCohortByID retrieves a single cohort, or nil when it does not exist.
func GetCohortByID(ctx context.Context, q DBTX, id string) (*models.Cohort, error) {
	var c models.Cohort
	err := scanCohort(q.QueryRowContext(ctx, `SELECT `+cohortColumns+` FROM cohorts c WHERE c.id = $1`, id), &c)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting cohort by ID: %w", err)
	}
	return &c, nil
}

// ListCohortSummaries retrieves a page of cohorts, newest first, with their
// enrollment and team counts, plus the total number of cohorts.
func ListCohortSummaries(ctx context.Context, q DBTX, limit, offset int) ([]models.CohortSummary, int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+cohortColumns+`,
		       (SELECT COUNT(*) FROM cohort_enrollments ce WHERE ce.cohort_id = c.id),
		       (SELECT COUNT(*) FROM teams t WHERE t.cohort_id = c.id)
		FROM cohorts c
		ORDER BY c.created_at DESC, c.id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying cohorts page: %w", err)
	}
	defer rows.Close()

	cohorts := []models.CohortSummary{}
	for rows.Next() {
		var s models.CohortSummary
		if err := scanCohort(rows, &s.Cohort, &s.StudentCount, &s.TeamCount); err != nil {
			return nil, 0, fmt.Errorf("error scanning cohort row: %w", err)
		}
		cohorts = append(cohorts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error after iterating through cohort rows: %w", err)
	}

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cohorts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error querying total cohort count: %w", err)
	}

	return cohorts, total, nil
}

// GetCohortStats computes the dashboard counters.
func GetCohortStats(ctx context.Context, q DBTX) (models.CohortStats, error) {
	var s models.CohortStats
	err := q.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM students),
		       (SELECT COUNT(*) FROM cohorts),
		       (SELECT COUNT(*) FROM cohorts WHERE status = $1)`, models.CohortCollecting,
	).Scan(&s.TotalStudents, &s.TotalCohorts, &s.ActiveCohorts)
	if err != nil {
		return models.CohortStats{}, fmt.Errorf("error querying cohort stats: %w", err)
	}
	return s, nil
}

// TransitionCohortStatus moves the cohort from one status to another only if
// it is currently in from. It reports whether the row changed.
func TransitionCohortStatus(ctx context.Context, q DBTX, id, from, to string) (bool, error) {
	res, err := q.ExecContext(ctx, `UPDATE cohorts SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("error updating cohort status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n == 1, nil
}

// ListDuplicateCohortIDs returns every cohort that shares its name with an
// older cohort. The oldest cohort of each name is never listed.
func ListDuplicateCohortIDs(ctx context.Context, q DBTX) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id
		FROM cohorts c
		WHERE EXISTS (
			SELECT 1 FROM cohorts o
			WHERE o.name = c.name
			  AND (o.created_at < c.created_at OR (o.created_at = c.created_at AND o.id < c.id))
		)
		ORDER BY c.created_at, c.id`)
	if err != nil {
		return nil, fmt.Errorf("error querying duplicate cohorts: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning duplicate cohort id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating through duplicate cohorts: %w", err)
	}
	return ids, nil
}

// DeleteCohort removes the cohort with its teams, scores and enrollments.
// Participants are kept. It reports whether the cohort existed. Run it in a
// transaction.
func DeleteCohort(ctx context.Context, q DBTX, id string) (bool, error) {
	if err := DeleteTeamsByCohort(ctx, q, id); err != nil {
		return false, err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM bigfive_responses WHERE cohort_id = $1`, id); err != nil {
		return false, fmt.Errorf("error deleting cohort scores: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM cohort_enrollments WHERE cohort_id = $1`, id); err != nil {
		return false, fmt.Errorf("error deleting cohort enrollments: %w", err)
	}
	res, err := q.ExecContext(ctx, `DELETE FROM cohorts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting cohort: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n == 1, nil
}
