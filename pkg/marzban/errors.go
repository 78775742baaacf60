package marzban

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinels matched by the typed panel errors through errors.Is.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrNotAuthenticated is returned when an authenticated request is made
	// before Login succeeded or after the stored token expired.
	ErrNotAuthenticated = errors.New("client is not authenticated, call Login first")
)

// UnauthorizedError is returned on 401: the token is missing, invalid or expired
type UnauthorizedError struct{}

// Error returns the error message
func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("marzban API error (status %d): invalid or expired token", http.StatusUnauthorized)
}

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// ForbiddenError is returned on 403
type ForbiddenError struct{}

// Error returns the error message
func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("marzban API error (status %d): permission denied", http.StatusForbidden)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// NotFoundError is returned on 404 and carries the server detail
type NotFoundError struct {
	Detail string
}

// Error returns the error message
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("marzban API error (status %d): %s", http.StatusNotFound, e.Detail)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError is returned on 409, usually for a duplicate resource
type ConflictError struct {
	Detail string
}

// Error returns the error message
func (e *ConflictError) Error() string {
	return fmt.Sprintf("marzban API error (status %d): %s", http.StatusConflict, e.Detail)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError is returned on 422. Fields maps a request field to the
// message the panel reported for it.
type ValidationError struct {
	Fields map[string]string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("marzban API error (status %d): %s", http.StatusUnprocessableEntity, e.Message())
}

// Message joins the field messages as "field: message" pairs separated by ";"
func (e *ValidationError) Message() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(parts, ";")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnexpectedStatusError is returned for any non-2xx status outside the mapped set
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
}

// Error returns the error message
func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("marzban API error (status %d): %s", e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// CheckStatus maps a response status and body to the panel error taxonomy.
// It never performs I/O and returns nil for every 2xx status.
func CheckStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &UnauthorizedError{}
	case status == http.StatusForbidden:
		return &ForbiddenError{}
	case status == http.StatusNotFound:
		return &NotFoundError{Detail: textDetail(body)}
	case status == http.StatusConflict:
		return &ConflictError{Detail: textDetail(body)}
	case status == http.StatusUnprocessableEntity:
		return &ValidationError{Fields: fieldDetail(body)}
	default:
		return &UnexpectedStatusError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func textDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	return string(eb.Detail)
}

// validationItem is the FastAPI request-validation shape
type validationItem struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

func fieldDetail(body []byte) map[string]string {
	fields := make(map[string]string)

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		if text := strings.TrimSpace(string(body)); text != "" {
			fields["detail"] = text
		}
		return fields
	}

	var byField map[string]string
	if err := json.Unmarshal(eb.Detail, &byField); err == nil {
		return byField
	}

	var items []validationItem
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		for _, item := range items {
			loc := make([]string, 0, len(item.Loc))
			for _, part := range item.Loc {
				loc = append(loc, fmt.Sprint(part))
			}
			fields[strings.Join(loc, ".")] = item.Msg
		}
		return fields
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		fields["detail"] = s
		return fields
	}

	fields["detail"] = string(eb.Detail)
	return fields
}
