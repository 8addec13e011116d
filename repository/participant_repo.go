package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexeed/teammatch/models"
)

// UpsertParticipantByEmail inserts p or, when a participant with the same
// email exists, overwrites every mutable field of that row. The row keeps its
// original id; p.ID is set to the id actually stored so callers reference the
// reconciled identity.
func UpsertParticipantByEmail(ctx context.Context, q DBTX, p *models.Participant) error {
	query := `
		INSERT INTO students (id, email, name, major, skills, mbti, role_pref, availability, consent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			major = EXCLUDED.major,
			skills = EXCLUDED.skills,
			mbti = EXCLUDED.mbti,
			role_pref = EXCLUDED.role_pref,
			availability = EXCLUDED.availability
		RETURNING id`
	var id string
	err := q.QueryRowContext(ctx, query,
		p.ID, p.Email, p.Name, p.Major, p.Skills, p.MBTI, p.RolePref, p.Availability,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("error upserting participant: %w", err)
	}
	p.ID = id
	return nil
}

// GetParticipantByEmail retrieves a participant by email, or nil when absent.
func GetParticipantByEmail(ctx context.Context, q DBTX, email string) (*models.Participant, error) {
	var p models.Participant
	err := q.QueryRowContext(ctx, `
		SELECT id, email, name, major, skills, mbti, role_pref, availability, created_at
		FROM students WHERE email = $1`, email,
	).Scan(&p.ID, &p.Email, &p.Name, &p.Major, &p.Skills, &p.MBTI, &p.RolePref, &p.Availability, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting participant by email: %w", err)
	}
	return &p, nil
}

// EnrollParticipant records the (cohort, participant) pair; enrolling twice is
// a no-op.
func EnrollParticipant(ctx context.Context, q DBTX, cohortID, participantID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cohort_enrollments (cohort_id, student_id) VALUES ($1, $2)
		ON CONFLICT (cohort_id, student_id) DO NOTHING`, cohortID, participantID)
	if err != nil {
		return fmt.Errorf("error enrolling participant: %w", err)
	}
	return nil
}

// SnapshotRoster returns every participant enrolled in the cohort with their
// latest traits, substituting models.NeutralTrait where no score exists.
func SnapshotRoster(ctx context.Context, q DBTX, cohortID string) ([]models.RosterEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT s.id, s.name, s.major, s.skills, s.mbti, s.role_pref, s.availability,
		       COALESCE(b.o, $2), COALESCE(b.c, $2), COALESCE(b.e, $2),
		       COALESCE(b.a, $2), COALESCE(b.n, $2)
		FROM cohort_enrollments e
		JOIN students s ON s.id = e.student_id
		LEFT JOIN bigfive_responses b ON b.student_id = s.id AND b.cohort_id = e.cohort_id
		WHERE e.cohort_id = $1
		ORDER BY e.created_at, s.id`, cohortID, models.NeutralTrait)
	if err != nil {
		return nil, fmt.Errorf("error querying cohort roster: %w", err)
	}
	defer rows.Close()

	roster := []models.RosterEntry{}
	for rows.Next() {
		var r models.RosterEntry
		if err := rows.Scan(&r.StudentID, &r.Name, &r.Major, &r.Skills, &r.MBTI, &r.RolePref, &r.Availability,
			&r.O, &r.C, &r.E, &r.A, &r.N); err != nil {
			return nil, fmt.Errorf("error scanning roster row: %w", err)
		}
		roster = append(roster, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating roster rows: %w", err)
	}
	return roster, nil
}

// ListEnrolledParticipants returns the cohort's participants with their raw,
// possibly missing, trait scores, newest first.
func ListEnrolledParticipants(ctx context.Context, q DBTX, cohortID string) ([]models.EnrolledParticipant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT s.id, s.email, s.name, s.major, s.skills, s.mbti, s.role_pref, s.availability, s.created_at,
		       b.o, b.c, b.e, b.a, b.n, b.scored_at
		FROM cohort_enrollments e
		JOIN students s ON s.id = e.student_id
		LEFT JOIN bigfive_responses b ON b.student_id = s.id AND b.cohort_id = e.cohort_id
		WHERE e.cohort_id = $1
		ORDER BY s.created_at DESC, s.id`, cohortID)
	if err != nil {
		return nil, fmt.Errorf("error querying enrolled participants: %w", err)
	}
	defer rows.Close()

	participants := []models.EnrolledParticipant{}
	for rows.Next() {
		var ep models.EnrolledParticipant
		var o, c, e, a, n sql.NullFloat64
		var scoredAt sql.NullTime
		if err := rows.Scan(&ep.ID, &ep.Email, &ep.Name, &ep.Major, &ep.Skills, &ep.MBTI, &ep.RolePref,
			&ep.Availability, &ep.CreatedAt, &o, &c, &e, &a, &n, &scoredAt); err != nil {
			return nil, fmt.Errorf("error scanning enrolled participant row: %w", err)
		}
		ep.O, ep.C, ep.E, ep.A, ep.N = nullFloat(o), nullFloat(c), nullFloat(e), nullFloat(a), nullFloat(n)
		if scoredAt.Valid {
			t := scoredAt.Time
			ep.ScoredAt = &t
		}
		participants = append(participants, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating enrolled participant rows: %w", err)
	}
	return participants, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
