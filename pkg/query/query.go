// Package query models the inbound collection query: pagination, the opaque
// filter expression and the null-exclusion flag.
package query

import (
	"net/url"

	"github.com/hashicorp/go-hclog"
)

// Query parameter names on the inbound API.
const (
	ParamPage        = "page"
	ParamLimit       = "limit"
	ParamFilter      = "filter"
	ParamExcludeNull = "excludeNull"
)

// Query is a provider-independent collection query.
type Query struct {
	Pagination Pagination

	// Filter is an opaque JSON value forwarded to the backend verbatim. Nil
	// means no filter.
	Filter any

	// ExcludeNull selects the sparse field-selection mode.
	ExcludeNull bool
}

// ParseQuery builds a Query from inbound URL values. A malformed filter is
// logged and dropped; it never fails the request.
func ParseQuery(values url.Values, logger hclog.Logger) Query {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	filter, err := ParseFilter(values)
	if err != nil {
		logger.Warn("ignoring malformed filter", "error", err)
		filter = nil
	}

	return Query{
		Pagination:  ParsePagination(values.Get(ParamPage), values.Get(ParamLimit)),
		Filter:      filter,
		ExcludeNull: values.Get(ParamExcludeNull) == "true",
	}
}
