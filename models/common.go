package models

// PaginationMetadata holds information about the pagination state.
type PaginationMetadata struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// NewPaginationMetadata computes page counts for totalItems split by limit.
func NewPaginationMetadata(totalItems, page, limit int) PaginationMetadata {
	totalPages := 0
	if totalItems > 0 && limit > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}
	return PaginationMetadata{
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: page,
		Limit:       limit,
	}
}

// ErrorResponse is the body written for failed non-orchestrator requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
