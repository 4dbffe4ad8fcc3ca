package domain

import "math"

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based). It saturates at
// math.MaxInt instead of overflowing, so a huge page reads past the last row.
func (p PaginationParams) Offset() int {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns ceiling(total / PageSize), or 0 when PageSize is not positive.
func (p PaginationParams) TotalPages(total int) int {
	if p.PageSize <= 0 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}

// Clamp returns p with Page moved into [1, TotalPages(total)] so that an
// out-of-range page yields the last page instead of an empty one.
func (p PaginationParams) Clamp(total int) PaginationParams {
	last := p.TotalPages(total)
	if last < 1 {
		last = 1
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > last {
		p.Page = last
	}
	return p
}
