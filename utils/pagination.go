package utils

import (
	"net/http"
	"strconv"
)

// Pagination defaults for list endpoints.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// GetPaginationParams parses page and limit query parameters from a request.
// Returns page (default 1) and limit (default DefaultPageLimit, max MaxPageLimit).
func GetPaginationParams(r *http.Request) (page, limit int) {
	pageStr := r.URL.Query().Get("page")
	limitStr := r.URL.Query().Get("limit")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// CalculateOffset converts a 1-based page into a row offset.
func CalculateOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
