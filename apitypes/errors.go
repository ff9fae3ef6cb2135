// Package apitypes holds the wire types shared by the Focus server and its
// clients.
package apitypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// Is matches any ApiError with the same status, so callers can test
// errors.Is(err, apitypes.ApiError{Status: 401}).
func (e ApiError) Is(target error) bool {
	var t ApiError
	switch v := target.(type) {
	case ApiError:
		t = v
	case *ApiError:
		if v == nil {
			return false
		}
		t = *v
	default:
		return false
	}
	return t.Status == e.Status
}

func ErrBadRequest(detail string) ApiError {
	return ApiError{Status: 400, Title: "Bad Request", Detail: detail}
}
func ErrUnauthorized(detail string) ApiError {
	return ApiError{Status: 401, Title: "Unauthorized", Detail: detail}
}
func ErrNotFound(detail string) ApiError {
	return ApiError{Status: 404, Title: "Not Found", Detail: detail}
}
func ErrTimeout(detail string) ApiError {
	return ApiError{Status: 504, Title: "Gateway Timeout", Detail: detail}
}
func ErrInternal(detail string) ApiError {
	return ApiError{Status: 500, Title: "Internal Server Error", Detail: detail}
}

// WrapError normalizes any error into ApiError.
func WrapError(err error) ApiError {
	var ae ApiError
	if errors.As(err, &ae) {
		return ae
	}
	var pae *ApiError
	if errors.As(err, &pae) && pae != nil {
		return *pae
	}
	return ErrInternal(err.Error())
}

// ParseProblem decodes a response line that carries an ApiError.
// Plain text replies report false.
func ParseProblem(line string) (ApiError, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return ApiError{}, false
	}
	var p ApiError
	if err := json.Unmarshal([]byte(line), &p); err != nil {
		return ApiError{}, false
	}
	if p.Status == 0 && p.Title == "" {
		return ApiError{}, false
	}
	return p, true
}
