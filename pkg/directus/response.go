package directus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp-forge/cms-gateway/pkg/envelope"
	"github.com/hashicorp-forge/cms-gateway/pkg/query"
)

// itemsResponse is the body of GET /items/{collection}.
type itemsResponse struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta"`
}

type itemsMeta struct {
	FilterCount json.RawMessage `json:"filter_count"`
}

// Normalize maps a successful Directus body into the uniform envelope.
func Normalize(body []byte, p query.Pagination) (envelope.Response, error) {
	var raw itemsResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return envelope.Response{}, fmt.Errorf("invalid backend response: %w", err)
	}

	records, err := decodeRecords(raw.Data)
	if err != nil {
		return envelope.Response{}, err
	}

	totalItems, ok := filterCount(raw.Meta)
	if !ok {
		// Degraded mode: only the current page is known.
		totalItems = len(records)
	}

	pagination := ComputePagination(totalItems, p)
	return envelope.Response{
		Success:    true,
		Data:       records,
		Meta:       raw.Meta,
		Pagination: &pagination,
	}, nil
}

// ComputePagination derives the pagination block from the item total and the
// offset/limit window actually sent to the backend.
func ComputePagination(totalItems int, p query.Pagination) envelope.Pagination {
	if totalItems < 0 {
		totalItems = 0
	}

	var totalPages, page int
	if p.Limit <= 0 {
		if totalItems > 0 {
			totalPages = 1
		}
		page = 1
	} else {
		totalPages = totalItems / p.Limit
		if totalItems%p.Limit != 0 {
			totalPages++
		}
		page = 1
		if p.Offset > 0 {
			page = p.Offset/p.Limit + 1
		}
	}

	return envelope.Pagination{
		Page:        page,
		Limit:       p.Limit,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && totalPages > 1,
	}
}

func decodeRecords(data json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []json.RawMessage{}, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("invalid backend response: data is not a list")
	}

	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("invalid backend response: %w", err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

// filterCount reads meta.filter_count, accepting a JSON number or a numeric
// string.
func filterCount(meta json.RawMessage) (int, bool) {
	if len(meta) == 0 {
		return 0, false
	}

	var m itemsMeta
	if err := json.Unmarshal(meta, &m); err != nil {
		return 0, false
	}
	return parseCount(m.FilterCount)
}

func parseCount(raw json.RawMessage) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

type errorsResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ErrorMessage returns the first errors[].message of a Directus error body,
// or "" when the body carries none.
func ErrorMessage(body []byte) string {
	var resp errorsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	for _, e := range resp.Errors {
		if e.Message != "" {
			return e.Message
		}
	}
	return ""
}

// BackendError is a non-2xx backend reply.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// NewBackendError builds a BackendError, preferring the backend's own message.
func NewBackendError(statusCode int, body []byte) *BackendError {
	return &BackendError{
		StatusCode: statusCode,
		Message:    ErrorMessage(body),
	}
}
