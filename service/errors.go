package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"movie-booking-cli/booking"
	"movie-booking-cli/model"
)

const errorSnippetN = 160

// ErrNotFound is matched by errors.Is for any 404 response.
var ErrNotFound = errors.New("not found")

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	// Detail is the message the service put in the body, if any.
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	msg := e.Detail
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		return fmt.Sprintf("api error %s (%s)", e.Status, e.Endpoint)
	}
	return fmt.Sprintf("api error %s (%s): %s", e.Status, e.Endpoint, msg)
}

func (e *APIError) Unwrap() error {
	if e != nil && e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err is a 404 API error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether the service rejected a booking because seats
// were taken in the meantime.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// UserMessage turns err into a line suitable for the status bar. fallback is
// used when the error carries nothing a user can act on.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var validationErr *booking.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Reason
	}
	if errors.Is(err, booking.ErrDraftExpired) {
		return "Your seat selection expired. Pick your seats again."
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fallback + " (timed out)"
	}

	var shapeErr *model.ShapeError
	if errors.As(err, &shapeErr) {
		return fallback + " (unexpected response from the server)"
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.StatusCode == http.StatusNotFound {
			return "Not found."
		}
	}
	return fallback
}

// parseDetail extracts a readable message from an error body. The service
// answers with {"detail": "..."} or with field errors such as
// {"seats": ["..."], "non_field_errors": ["..."]}.
func parseDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var detail struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		for _, s := range []string{detail.Detail, detail.Message, detail.Error} {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}

	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		return strings.Join(list, "; ")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			msg := fieldMessage(fields[k])
			if msg == "" {
				continue
			}
			if k == "non_field_errors" {
				parts = append(parts, msg)
				continue
			}
			parts = append(parts, k+": "+msg)
		}
		return strings.Join(parts, "; ")
	}

	return compactSnippet(string(body))
}

func fieldMessage(raw json.RawMessage) string {
	var msgs []string
	if err := json.Unmarshal(raw, &msgs); err == nil {
		return strings.Join(msgs, " ")
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg
	}
	return ""
}

func compactSnippet(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > errorSnippetN {
		text = text[:errorSnippetN]
	}
	return text
}
