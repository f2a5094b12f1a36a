package directus

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/cms-gateway/pkg/envelope"
	"github.com/hashicorp-forge/cms-gateway/pkg/query"
)

func TestNormalize_FilterCount(t *testing.T) {
	body := []byte(`{"data":[{"id":6},{"id":7},{"id":8},{"id":9},{"id":10}],"meta":{"total_count":40,"filter_count":12}}`)

	resp, err := Normalize(body, query.NewPagination(2, 5))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 5)
	assert.JSONEq(t, `{"total_count":40,"filter_count":12}`, string(resp.Meta))
	assert.Equal(t, &envelope.Pagination{
		Page:        2,
		Limit:       5,
		TotalItems:  12,
		TotalPages:  3,
		HasNextPage: true,
		HasPrevPage: true,
	}, resp.Pagination)
}

func TestNormalize_FallbackToRecordCount(t *testing.T) {
	// Without filter_count only the page size is known; total_count is not
	// used because it ignores the active filter.
	body := []byte(`{"data":[{"id":1},{"id":2},{"id":3}],"meta":{"total_count":500}}`)

	resp, err := Normalize(body, query.NewPagination(1, 10))
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Pagination.TotalItems)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.False(t, resp.Pagination.HasNextPage)
	assert.False(t, resp.Pagination.HasPrevPage)
}

func TestNormalize_NoMeta(t *testing.T) {
	resp, err := Normalize([]byte(`{"data":[{"id":1},{"id":2},{"id":3}]}`), query.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Pagination.TotalItems)
	assert.Nil(t, resp.Meta)
}

func TestNormalize_FilterCountAsString(t *testing.T) {
	resp, err := Normalize([]byte(`{"data":[],"meta":{"filter_count":"31"}}`), query.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 31, resp.Pagination.TotalItems)
	assert.Equal(t, 4, resp.Pagination.TotalPages)
}

func TestNormalize_EmptyData(t *testing.T) {
	resp, err := Normalize([]byte(`{"data":[],"meta":{"filter_count":0}}`), query.NewPagination(1, 10))
	require.NoError(t, err)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.Equal(t, 0, resp.Pagination.TotalPages)
	assert.False(t, resp.Pagination.HasNextPage)
	assert.False(t, resp.Pagination.HasPrevPage)
}

func TestNormalize_InvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Not JSON", `<html>`},
		{"Data is an object", `{"data":{"id":1}}`},
		{"Data is a string", `{"data":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.body), query.NewPagination(1, 10))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid backend response")
		})
	}
}

func TestComputePagination_TotalPages(t *testing.T) {
	for limit := 1; limit <= 12; limit++ {
		for total := 0; total <= 50; total++ {
			t.Run(fmt.Sprintf("total=%d limit=%d", total, limit), func(t *testing.T) {
				got := ComputePagination(total, query.NewPagination(1, limit))

				want := total / limit
				if total%limit != 0 {
					want++
				}
				assert.Equal(t, want, got.TotalPages)
				if total == 0 {
					assert.Equal(t, 0, got.TotalPages)
				}
			})
		}
	}
}

func TestComputePagination_Flags(t *testing.T) {
	for total := 0; total <= 30; total++ {
		for page := 1; page <= 8; page++ {
			p := query.NewPagination(page, 4)
			got := ComputePagination(total, p)

			assert.Equal(t, page, got.Page, "effective page round-trips")
			assert.Equal(t, got.Page < got.TotalPages, got.HasNextPage)
			if got.TotalPages <= 1 {
				assert.False(t, got.HasNextPage)
				assert.False(t, got.HasPrevPage)
			} else {
				assert.Equal(t, got.Page > 1, got.HasPrevPage)
			}
		}
	}
}

func TestComputePagination_ZeroLimit(t *testing.T) {
	got := ComputePagination(7, query.Pagination{Page: 3, Limit: 0, Offset: 0})
	assert.Equal(t, 1, got.TotalPages)
	assert.Equal(t, 1, got.Page)
	assert.False(t, got.HasNextPage)
	assert.False(t, got.HasPrevPage)

	got = ComputePagination(0, query.Pagination{})
	assert.Equal(t, 0, got.TotalPages)
}

func TestComputePagination_UsesOffsetNotCallerPage(t *testing.T) {
	// Caller claims page 9 but the window actually sent starts at offset 10.
	got := ComputePagination(30, query.Pagination{Page: 9, Limit: 10, Offset: 10})
	assert.Equal(t, 2, got.Page)
	assert.True(t, got.HasNextPage)
	assert.True(t, got.HasPrevPage)
}

func TestComputePagination_LargeValues(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int
		p          query.Pagination
		wantPage   int
		wantPages  int
	}{
		{
			name:       "page past overflow falls back to first page",
			totalItems: 12,
			p:          query.ParsePagination("4611686018427387905", "2"),
			wantPage:   1,
			wantPages:  6,
		},
		{
			name:       "maximal limit",
			totalItems: 12,
			p:          query.NewPagination(1, math.MaxInt),
			wantPage:   1,
			wantPages:  1,
		},
		{
			name:       "maximal total and limit",
			totalItems: math.MaxInt,
			p:          query.NewPagination(1, math.MaxInt),
			wantPage:   1,
			wantPages:  1,
		},
		{
			name:       "largest representable offset",
			totalItems: math.MaxInt,
			p:          query.NewPagination(4611686018427387904, 2),
			wantPage:   4611686018427387904,
			wantPages:  4611686018427387904,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePagination(tt.totalItems, tt.p)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPages, got.TotalPages)
			assert.GreaterOrEqual(t, got.Page, 1)
			assert.Equal(t, got.Page < got.TotalPages, got.HasNextPage)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Invalid user credentials.",
		ErrorMessage([]byte(`{"errors":[{"message":"Invalid user credentials.","extensions":{"code":"INVALID_CREDENTIALS"}}]}`)))
	assert.Equal(t, "second",
		ErrorMessage([]byte(`{"errors":[{"message":""},{"message":"second"}]}`)))
	assert.Equal(t, "", ErrorMessage([]byte(`{"errors":[]}`)))
	assert.Equal(t, "", ErrorMessage([]byte(`Bad Gateway`)))
}

func TestBackendError(t *testing.T) {
	err := NewBackendError(403, []byte(`{"errors":[{"message":"You don't have permission to access this."}]}`))
	assert.Equal(t, "You don't have permission to access this.", err.Error())

	err = NewBackendError(502, []byte(`<html>Bad Gateway</html>`))
	assert.Equal(t, "backend returned status 502", err.Error())
}
