package request

import (
	"net/url"

	"field-booking/pkg/utils"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PaginatedRequest is a page window over a listing. PageFromQuery fills it
// already clamped, so Limit and Offset only fall back for zero values.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// PageFromQuery reads page and per_page, replacing missing or non-positive
// values with the defaults and capping per_page at MaxPerPage
func PageFromQuery(query url.Values) PaginatedRequest {
	return PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: min(utils.ParseInt(query.Get("per_page"), DefaultPerPage), MaxPerPage),
	}
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return DefaultPerPage
	}
	return min(p.PerPage, MaxPerPage)
}

func (p PaginatedRequest) Offset() int {
	return (max(p.Page, 1) - 1) * p.Limit()
}
