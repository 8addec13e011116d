package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexeed/teammatch/models"
)

// DeleteTeamsByCohort removes every team of the cohort and its members.
func DeleteTeamsByCohort(ctx context.Context, q DBTX, cohortID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM team_members
		WHERE team_id IN (SELECT id FROM teams WHERE cohort_id = $1)`, cohortID)
	if err != nil {
		return fmt.Errorf("error deleting team members: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM teams WHERE cohort_id = $1`, cohortID); err != nil {
		return fmt.Errorf("error deleting teams: %w", err)
	}
	return nil
}

// CreateTeam inserts a team and its members. position orders teams within
// the cohort.
func CreateTeam(ctx context.Context, q DBTX, cohortID string, position int, t *models.TeamAssignment) error {
	meta := "null"
	if len(t.Reasons) > 0 {
		meta = string(t.Reasons)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO teams (id, cohort_id, score, meta, position) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, cohortID, t.Score, meta, position)
	if err != nil {
		return fmt.Errorf("error inserting team: %w", err)
	}
	for _, m := range t.Members {
		var role sql.NullString
		if m.RoleAssigned != nil {
			role = sql.NullString{String: *m.RoleAssigned, Valid: true}
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO team_members (team_id, student_id, role_assigned) VALUES ($1, $2, $3)`,
			t.ID, m.StudentID, role)
		if err != nil {
			return fmt.Errorf("error inserting team member: %w", err)
		}
	}
	return nil
}

// ListTeamsByCohort retrieves the cohort's teams in creation order, each with
// its members.
func ListTeamsByCohort(ctx context.Context, q DBTX, cohortID string) ([]models.PersistedTeam, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.score, t.meta,
		       s.id, s.name, s.email, s.role_pref, tm.role_assigned
		FROM teams t
		LEFT JOIN team_members tm ON tm.team_id = t.id
		LEFT JOIN students s ON s.id = tm.student_id
		WHERE t.cohort_id = $1
		ORDER BY t.position, t.id, s.name, s.id`, cohortID)
	if err != nil {
		return nil, fmt.Errorf("error querying teams: %w", err)
	}
	defer rows.Close()

	teams := []models.PersistedTeam{}
	index := map[string]int{}
	for rows.Next() {
		var (
			teamID, meta                           string
			score                                  float64
			studentID, name, email, rolePref, role sql.NullString
		)
		if err := rows.Scan(&teamID, &score, &meta, &studentID, &name, &email, &rolePref, &role); err != nil {
			return nil, fmt.Errorf("error scanning team row: %w", err)
		}

		i, ok := index[teamID]
		if !ok {
			teams = append(teams, models.PersistedTeam{
				ID:      teamID,
				Score:   score,
				Meta:    []byte(meta),
				Members: []models.PersistedTeamMember{},
			})
			i = len(teams) - 1
			index[teamID] = i
		}

		// Teams without members come back with NULL student columns.
		if !studentID.Valid {
			continue
		}
		member := models.PersistedTeamMember{
			StudentID: studentID.String,
			Name:      name.String,
			Email:     email.String,
			RolePref:  rolePref.String,
		}
		if role.Valid {
			r := role.String
			member.RoleAssigned = &r
		}
		teams[i].Members = append(teams[i].Members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating team rows: %w", err)
	}
	return teams, nil
}
