package directus

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp-forge/cms-gateway/pkg/provider"
	"github.com/hashicorp-forge/cms-gateway/pkg/query"
)

// Field-selection specs.
const (
	// FieldsDeep requests every field three relations deep.
	FieldsDeep = "*.*.*"

	// FieldsSparse requests top-level fields only, leaving unset relations
	// unexpanded.
	FieldsSparse = "*"

	// MetaAll asks Directus for total_count and filter_count.
	MetaAll = "*"
)

// BackendRequest is a fully resolved outbound call. It is built per request
// and never cached.
type BackendRequest struct {
	URL    *url.URL
	Header http.Header
}

// LogURL returns the URL with percent-encoding undone, for logging. The bearer
// token travels only in the Authorization header, never in the URL; userinfo
// is dropped in case an endpoint was configured with it.
func (r *BackendRequest) LogURL() string {
	u := *r.URL
	u.User = nil
	s := u.String()
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}

// BuildRequest translates q into a Directus items call against cfg.
func BuildRequest(collection string, cfg provider.Config, q query.Query) (*BackendRequest, error) {
	u, err := url.Parse(fmt.Sprintf("%s/items/%s", cfg.Endpoint, url.PathEscape(collection)))
	if err != nil {
		return nil, fmt.Errorf("failed to build URL for provider %s: %w", cfg.ID, err)
	}

	p := query.NewPagination(q.Pagination.Page, q.Pagination.Limit)

	params := url.Values{}
	params.Set("fields", fieldSpec(q.ExcludeNull))
	params.Set("meta", MetaAll)
	params.Set("limit", strconv.Itoa(p.Limit))
	params.Set("offset", strconv.Itoa(p.Offset))

	if q.Filter != nil {
		encoded, err := query.EncodeFilter(q.Filter)
		if err != nil {
			return nil, err
		}
		params.Set("filter", encoded)
	}

	u.RawQuery = params.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.Token)
	header.Set("Accept", "application/json")

	return &BackendRequest{URL: u, Header: header}, nil
}

func fieldSpec(excludeNull bool) string {
	if excludeNull {
		return FieldsSparse
	}
	return FieldsDeep
}
