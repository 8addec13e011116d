// Package services holds the orchestrators behind the HTTP handlers:
// submissions, matching runs, cohort administration and the access gate.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/nexeed/teammatch/apperrors"
	"github.com/nexeed/teammatch/clients"
	"github.com/nexeed/teammatch/models"
)

// Scorer turns questionnaire answers into trait scores.
type Scorer interface {
	Score(ctx context.Context, answers map[string]int, scale int) (models.TraitScores, error)
}

// Matcher partitions a roster into teams.
type Matcher interface {
	Run(ctx context.Context, req clients.MatchRunRequest) (clients.MatchRunResponse, error)
}

// txContext bounds a write transaction by timeout and detaches it from the
// caller's cancellation so a disconnect cannot abort it halfway.
func txContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// upstream converts a collaborator failure into the domain error. Status and
// body of a non-200 answer stay in the message; transport details do not.
func upstream(service string, err error) error {
	var ue *clients.UpstreamError
	if errors.As(err, &ue) && ue.StatusCode != 0 {
		return apperrors.Upstream(ue.Error(), err)
	}
	return apperrors.Upstream(service+" service unavailable", err)
}
