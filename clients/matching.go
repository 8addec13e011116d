package clients

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nexeed/teammatch/metrics"
	"github.com/nexeed/teammatch/models"
)

// MatchRunRequest is the roster snapshot sent to the matching service.
type MatchRunRequest struct {
	TeamSize      int                  `json:"team_size"`
	RequiredRoles map[string]int       `json:"required_roles"`
	Students      []models.RosterEntry `json:"students"`
}

// MatchedMember is one seat in a proposed team.
type MatchedMember struct {
	StudentID    string  `json:"student_id"`
	RoleAssigned *string `json:"role_assigned"`
}

// MatchedTeam is a team proposed by the matching service.
type MatchedTeam struct {
	Score   float64         `json:"score"`
	Reasons json.RawMessage `json:"reasons"`
	Members []MatchedMember `json:"members"`
}

// MatchRunResponse is the matching service's answer.
type MatchRunResponse struct {
	Teams []MatchedTeam `json:"teams"`
}

// MatchingClient partitions a roster into teams.
type MatchingClient struct {
	base
}

// NewMatchingClient returns a client for the matching service at baseURL.
func NewMatchingClient(baseURL, apiKey string, timeout time.Duration, m *metrics.Manager) *MatchingClient {
	return &MatchingClient{base: newBase("matching", baseURL, apiKey, timeout, m)}
}

// Run posts the roster and returns the proposed teams. A 200 body without a
// teams array is treated as malformed.
func (c *MatchingClient) Run(ctx context.Context, req MatchRunRequest) (MatchRunResponse, error) {
	var raw struct {
		Teams *[]MatchedTeam `json:"teams"`
	}
	if err := c.postJSON(ctx, "/match/run", req, &raw); err != nil {
		return MatchRunResponse{}, err
	}
	if raw.Teams == nil {
		return MatchRunResponse{}, &UpstreamError{Service: c.service, Err: errMissingTeams}
	}
	return MatchRunResponse{Teams: *raw.Teams}, nil
}
