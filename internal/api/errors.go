package api

import "errors"

var (
	// ErrUnsupportedAPIType is returned by the factory for an apiType not
	// implemented for the requested data kind.
	ErrUnsupportedAPIType = errors.New("unsupported API type")

	// ErrEmptyResponse is returned when a backend answers without the
	// expected data block.
	ErrEmptyResponse = errors.New("backend returned no data")
)
