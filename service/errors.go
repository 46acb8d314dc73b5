package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Every error returned by Client matches exactly one of them
// through errors.Is, except context cancellation.
var (
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrValidation   = errors.New("validation error")
	ErrAuthRequired = errors.New("authentication required")
)

// APIError is returned when the BuskPort API responds with a non-2xx status.
type APIError struct {
	Method     string
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "buskport api error"
	}
	if e.Body == "" {
		return fmt.Sprintf("buskport api error: %s %s: %s", e.Method, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("buskport api error: %s %s: %s: %s", e.Method, e.Endpoint, e.Status, e.Body)
}

// Kind classifies the status. Reads report every failure as a server error;
// writes distinguish auth (401/403), rejected input (other 4xx) and server
// failures (5xx).
func (e *APIError) Kind() error {
	if e.Method == http.MethodGet {
		return ErrServer
	}
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrAuthRequired
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return ErrValidation
	default:
		return ErrServer
	}
}

func (e *APIError) Is(target error) bool {
	return target == e.Kind()
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsAuthRequired reports whether the action needs a logged-in session.
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}

// UserMessage turns an error into the sentence shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrAuthRequired):
		return "Login required. Please log in and try again."
	case errors.Is(err, ErrNetwork):
		return "Could not reach the BuskPort server. Check your connection."
	case errors.Is(err, ErrServer):
		return "The BuskPort server failed to handle the request. Please try again later."
	case errors.Is(err, ErrValidation):
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if body := strings.TrimSpace(apiErr.Body); body != "" && len(body) <= 200 {
				return "Request rejected: " + body
			}
			return "Request rejected: " + apiErr.Status
		}
		return err.Error()
	default:
		return err.Error()
	}
}
