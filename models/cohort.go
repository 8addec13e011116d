package models

import "time"

// Cohort lifecycle states.
const (
	CohortCollecting = "collecting"
	CohortMatched    = "matched"
)

// DefaultRequiredRoles is used when neither the request nor the cohort
// specifies a role distribution.
func DefaultRequiredRoles() map[string]int {
	return map[string]int{"PM": 1, "FE": 1, "BE": 1, "Design": 1}
}

// Cohort is a named group of participants surveyed and matched together.
type Cohort struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Term          string         `json:"term"`
	TeamSize      int            `json:"team_size"`
	RequiredRoles map[string]int `json:"required_roles"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CohortSummary is a cohort with its enrollment and team counts.
type CohortSummary struct {
	Cohort
	StudentCount int `json:"student_count"`
	TeamCount    int `json:"team_count"`
}

// CohortStats are the global counters shown on the admin dashboard.
type CohortStats struct {
	TotalStudents int `json:"totalStudents"`
	TotalCohorts  int `json:"totalCohorts"`
	ActiveCohorts int `json:"activeCohorts"`
}

// CohortStatus reports collection progress for one cohort.
type CohortStatus struct {
	Submitted int    `json:"submitted"`
	Status    string `json:"status"`
}
