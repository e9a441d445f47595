package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrNoWidget         = errors.New("page has no comment widget")
)

// StatusError is a non-2xx response that has no more specific error.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, body)
}

// ValidationError is a 400 response carrying per-field messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// Message returns the messages without field names, suitable for showing
// next to a form.
func (e *ValidationError) Message() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k]...)
	}
	return strings.Join(msgs, " ")
}

// errorFromResponse maps a non-2xx response to an error value.
func errorFromResponse(code int, body []byte) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrNotAuthenticated
	case http.StatusForbidden:
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &detail) == nil && strings.Contains(strings.ToLower(detail.Detail), "credentials") {
			return ErrNotAuthenticated
		}
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		if fields := decodeFieldErrors(body); len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}
	}
	return &StatusError{Code: code, Body: string(body)}
}

// decodeFieldErrors reads {"field": ["msg", ...]} or {"field": "msg"}.
func decodeFieldErrors(body []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	fields := make(map[string][]string, len(raw))
	for k, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			fields[k] = list
			continue
		}
		var one string
		if err := json.Unmarshal(v, &one); err == nil {
			fields[k] = []string{one}
		}
	}
	return fields
}
