// Package middleware provides HTTP middleware and JSON response helpers.
package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/nexeed/teammatch/apperrors"
	"github.com/nexeed/teammatch/metrics"
	"github.com/nexeed/teammatch/models"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// UnmatchedRoute labels requests that matched no route.
const UnmatchedRoute = "unmatched"

// WithLogging logs every request and records it in m, labelled with the
// matched route template rather than the raw path.
func WithLogging(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := UnmatchedRoute
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			duration := time.Since(start)
			m.RecordHTTPRequest(route, r.Method, rec.status, duration)
			slog.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"remote", r.RemoteAddr,
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed answers requests whose path matches but method does not.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
}

func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{Error: message})
}

// WriteError maps err to its HTTP status and writes {error}. Only the
// domain message reaches the client; the cause is logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := logError(r, err)
	ErrorResponse(w, e.Code.HTTPStatus(), e.Message)
}

// WriteFailure is WriteError for orchestrated endpoints, which answer
// {ok:false, error}.
func WriteFailure(w http.ResponseWriter, r *http.Request, err error) {
	e := logError(r, err)
	JSONResponse(w, e.Code.HTTPStatus(), models.FailureResponse{OK: false, Error: e.Message})
}

func logError(r *http.Request, err error) *apperrors.Error {
	e := apperrors.As(err)
	if e.Code.HTTPStatus() >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", e.Code, "error", err)
	} else {
		slog.Info("request rejected", "method", r.Method, "path", r.URL.Path, "code", e.Code, "reason", e.Message)
	}
	return e
}

// ParseJSONBody decodes a JSON request body of at most maxBodyBytes into v.
// An empty body leaves v untouched.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.InvalidInput("request body too large")
		}
		return apperrors.InvalidInput("invalid JSON body")
	}
	return nil
}
