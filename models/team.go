package models

import "encoding/json"

// TeamMember is one participant's seat in a team.
type TeamMember struct {
	StudentID    string  `json:"student_id"`
	Name         string  `json:"name"`
	RoleAssigned *string `json:"role_assigned"`
}

// TeamAssignment is one team produced by a matching run. Reasons is the
// collaborator's opaque rationale, stored verbatim.
type TeamAssignment struct {
	ID      string          `json:"id,omitempty"`
	Score   float64         `json:"score"`
	Reasons json.RawMessage `json:"reasons"`
	Members []TeamMember    `json:"members"`
}

// PersistedTeamMember is a team member as read back with contact details.
type PersistedTeamMember struct {
	StudentID    string  `json:"student_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	RolePref     string  `json:"role_pref"`
	RoleAssigned *string `json:"role_assigned"`
}

// PersistedTeam is a stored team with its members.
type PersistedTeam struct {
	ID      string                `json:"id"`
	Score   float64               `json:"score"`
	Meta    json.RawMessage       `json:"meta"`
	Members []PersistedTeamMember `json:"members"`
}
