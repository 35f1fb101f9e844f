package shared

import "math"

// maxPerPage caps listing sizes so a single request cannot drag the whole
// table across the wire.
const maxPerPage = 100

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata, clamping per-page to [1, 100]
// and page to at least 1.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset for the current page, for LIMIT/OFFSET
// queries.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
