// Package envelope defines the uniform response returned to every caller,
// whichever provider served the request and whatever the outcome.
package envelope

import (
	"encoding/json"
)

// Pagination is the computed pagination block of a successful response.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Response is the uniform envelope. On success Data, Meta and Pagination are
// set; on failure only Error is.
type Response struct {
	Success    bool
	Data       []json.RawMessage
	Meta       json.RawMessage
	Pagination *Pagination
	Error      string
}

// Fail returns a failure envelope carrying msg.
func Fail(msg string) Response {
	return Response{Error: msg}
}

type successJSON struct {
	Success    bool              `json:"success"`
	Data       []json.RawMessage `json:"data"`
	Meta       json.RawMessage   `json:"meta,omitempty"`
	Pagination *Pagination       `json:"pagination"`
}

type failureJSON struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON emits exactly one of the two envelope shapes.
func (r Response) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(failureJSON{Success: false, Error: r.Error})
	}

	data := r.Data
	if data == nil {
		data = []json.RawMessage{}
	}
	return json.Marshal(successJSON{
		Success:    true,
		Data:       data,
		Meta:       r.Meta,
		Pagination: r.Pagination,
	})
}

// UnmarshalJSON accepts either envelope shape.
func (r *Response) UnmarshalJSON(b []byte) error {
	var raw struct {
		Success    bool              `json:"success"`
		Data       []json.RawMessage `json:"data"`
		Meta       json.RawMessage   `json:"meta"`
		Pagination *Pagination       `json:"pagination"`
		Error      string            `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*r = Response{
		Success:    raw.Success,
		Data:       raw.Data,
		Meta:       raw.Meta,
		Pagination: raw.Pagination,
		Error:      raw.Error,
	}
	return nil
}
