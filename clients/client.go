// Package clients calls the scoring and matching collaborators over HTTP.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nexeed/teammatch/metrics"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4096

// UpstreamError describes a failed collaborator call. StatusCode is zero when
// no response was received.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s service error: %d - %s", e.Service, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s service error: %v", e.Service, e.Err)
	default:
		return e.Service + " service error"
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// base holds what both collaborator clients share.
type base struct {
	service    string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Manager
}

func newBase(service, baseURL, apiKey string, timeout time.Duration, m *metrics.Manager) base {
	return base{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

// postJSON sends in to path and decodes a 200 response into out. Any other status
// is an UpstreamError.
func (b base) postJSON(ctx context.Context, path string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		b.metrics.ObserveCollaborator(b.service, outcome, time.Since(start))
	}()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", b.service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &UpstreamError{Service: b.service, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("X-API-Key", b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Service: b.service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{
			Service:    b.service,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Service: b.service, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

var (
	errMissingTeams = errors.New("malformed response: missing teams")
	errMissingTrait = errors.New("malformed response: missing trait")
)
