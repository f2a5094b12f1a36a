package query

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when the page is absent or not a positive integer.
	DefaultPage = 1

	// DefaultLimit is used when the limit is absent or not a positive integer.
	DefaultLimit = 10
)

// Pagination is a resolved offset/limit window.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// NewPagination applies defaults to non-positive values and derives the
// offset as (page-1)*limit. A page whose offset would overflow int is treated
// as absent.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if page-1 > math.MaxInt/limit {
		page = DefaultPage
	}
	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// ParsePagination parses raw query-string values. Anything that is not a
// positive base-10 integer counts as absent.
func ParsePagination(page, limit string) Pagination {
	return NewPagination(parsePositive(page), parsePositive(limit))
}

// parsePositive returns 0 for missing or unparsable input.
func parsePositive(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0
	}
	return n
}
