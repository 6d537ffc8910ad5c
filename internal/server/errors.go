package server

import "errors"

var (
	// ErrMissingQuery is returned when a request lacks the q parameter.
	ErrMissingQuery = errors.New("query parameter 'q' is required")

	// ErrAuthNotConfigured is returned by the authentication proxy when
	// no korpusApi is configured.
	ErrAuthNotConfigured = errors.New("corpus API authentication is not configured")

	// ErrInvalidCredentials is returned when the corpus API rejected the token.
	ErrInvalidCredentials = errors.New("Invalid credentials") //nolint:staticcheck // relayed verbatim to clients

	// ErrUnknownMessage is sent to WebSocket clients for unsupported messages.
	ErrUnknownMessage = errors.New("unknown message type")
)
