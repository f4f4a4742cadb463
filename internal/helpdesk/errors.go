package helpdesk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized       = errors.New("helpdesk: unauthorized")
	ErrNotFound           = errors.New("helpdesk: not found")
	ErrMissingCredentials = errors.New("helpdesk: missing api token")
	ErrInvalidPageSize    = errors.New("helpdesk: page size must be at least 1")
	ErrInvalidMessageType = errors.New("helpdesk: invalid message type")
	ErrMissingLastMessage = errors.New("helpdesk: dialog has no last message")
	errEmptyBaseURL       = errors.New("helpdesk: base url is required")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("helpdesk %s %s: %s", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("helpdesk %s %s: %s - %s", e.Method, e.Path, e.Status, e.Body)
}

// Unwrap maps well-known statuses onto sentinel errors so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
