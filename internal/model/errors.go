package model

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is returned by API clients when a backend call fails.
// It carries the HTTP status so callers can tell backend failures from
// transport failures (Status is 0 for the latter).
type RequestError struct {
	Status  int
	Message string
	URL     string
}

// Error implements error.
func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request to %s failed: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("request to %s failed with status %d (%s): %s",
		e.URL, e.Status, http.StatusText(e.Status), e.Message)
}

// AsRequestError extracts a RequestError from err.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
