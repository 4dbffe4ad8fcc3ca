package helpers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"eventbooking/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps page*page_size far from int overflow. Any page this high is past the end
	// and is served as the last page.
	MaxPage = math.MaxInt32
)

// ParsePagination reads page and page_size from the request query string.
// Missing, non-numeric or non-positive values fall back to defaults. page_size is capped
// at MaxPageSize and page at MaxPage.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	return domain.PaginationParams{
		Page:     queryInt(q.Get("page"), DefaultPage, MaxPage),
		PageSize: queryInt(q.Get("page_size"), DefaultPageSize, MaxPageSize),
	}
}

func queryInt(s string, def, limit int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Too many digits for an int is still a large page.
		if errors.Is(err, strconv.ErrRange) && s[0] != '-' {
			return limit
		}
		return def
	}
	if v < 1 {
		return def
	}
	return min(v, limit)
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta for the page that was actually served.
func NewPaginationMeta(p domain.PaginationParams, total int) PaginationMeta {
	p = p.Clamp(total)
	return PaginationMeta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: p.TotalPages(total),
	}
}
