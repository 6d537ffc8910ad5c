package dashboard

import "errors"

var (
	// ErrTooManyWords is returned when a query exceeds maxQueryWords.
	ErrTooManyWords = errors.New("too many query words")

	// ErrUnknownTile is returned for a tile name the dashboard does not have.
	ErrUnknownTile = errors.New("unknown tile")

	// ErrNotUIAction is returned by Dispatch for actions clients may not send.
	ErrNotUIAction = errors.New("not a UI action")

	// ErrClosed is returned when the dashboard has been closed.
	ErrClosed = errors.New("dashboard closed")
)
