package clients

import (
	"context"
	"time"

	"github.com/nexeed/teammatch/metrics"
	"github.com/nexeed/teammatch/models"
)

type scoreRequest struct {
	Answers map[string]int `json:"answers"`
	Scale   int            `json:"scale"`
}

// scoreResponse uses pointers so a body missing a trait is rejected.
type scoreResponse struct {
	O *float64 `json:"O"`
	C *float64 `json:"C"`
	E *float64 `json:"E"`
	A *float64 `json:"A"`
	N *float64 `json:"N"`
}

// ScoringClient turns questionnaire answers into Big Five trait scores.
type ScoringClient struct {
	base
}

// NewScoringClient returns a client for the scoring service at baseURL.
func NewScoringClient(baseURL, apiKey string, timeout time.Duration, m *metrics.Manager) *ScoringClient {
	return &ScoringClient{base: newBase("scoring", baseURL, apiKey, timeout, m)}
}

// Score posts the answers and returns the traits exactly as the service
// reports them.
func (c *ScoringClient) Score(ctx context.Context, answers map[string]int, scale int) (models.TraitScores, error) {
	var out scoreResponse
	if err := c.postJSON(ctx, "/score/bigfive", scoreRequest{Answers: answers, Scale: scale}, &out); err != nil {
		return models.TraitScores{}, err
	}
	if out.O == nil || out.C == nil || out.E == nil || out.A == nil || out.N == nil {
		return models.TraitScores{}, &UpstreamError{Service: c.service, Err: errMissingTrait}
	}
	return models.TraitScores{O: *out.O, C: *out.C, E: *out.E, A: *out.A, N: *out.N}, nil
}
