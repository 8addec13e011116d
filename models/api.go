package models

// Request types

type SubmitRequest struct {
	Student *Participant   `json:"student"`
	Answers map[string]int `json:"answers"`
}

type MatchRequest struct {
	TeamSize      int            `json:"team_size,omitempty"`
	RequiredRoles map[string]int `json:"required_roles,omitempty"`
}

type CreateCohortRequest struct {
	Name          string         `json:"name"`
	Term          string         `json:"term"`
	TeamSize      int            `json:"team_size"`
	RequiredRoles map[string]int `json:"required_roles"`
}

// Response types

type SubmitResponse struct {
	OK    bool        `json:"ok"`
	Ocean TraitScores `json:"ocean"`
}

type MatchResponse struct {
	OK    bool             `json:"ok"`
	Teams []TeamAssignment `json:"teams"`
}

// FailureResponse is the body written when an orchestrated request fails.
type FailureResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type TeamsResponse struct {
	Teams []PersistedTeam `json:"teams"`
	Count int             `json:"count"`
}

type StudentsResponse struct {
	Students []EnrolledParticipant `json:"students"`
	Count    int                   `json:"count"`
}

type CohortListResponse struct {
	Cohorts    []CohortSummary    `json:"cohorts"`
	Stats      CohortStats        `json:"stats"`
	Pagination PaginationMetadata `json:"pagination"`
}

type CohortResponse struct {
	Success bool   `json:"success"`
	Cohort  Cohort `json:"cohort"`
}

type LoginResponse struct {
	Success bool           `json:"success"`
	Admin   AdminPrincipal `json:"admin"`
}

type AuthStatusResponse struct {
	Authenticated bool            `json:"authenticated"`
	Admin         *AdminPrincipal `json:"admin,omitempty"`
}

// CleanupResponse reports the cohorts removed as duplicates.
type CleanupResponse struct {
	Message    string   `json:"message"`
	Deleted    int      `json:"deleted"`
	DeletedIDs []string `json:"deletedIds"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
