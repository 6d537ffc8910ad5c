package bus

import "errors"

var (
	// ErrClosed is returned when waiting on a closed bus or subscription.
	ErrClosed = errors.New("bus closed")

	// ErrWaitTimeout is returned by WaitFor when no matching action arrived in time.
	ErrWaitTimeout = errors.New("timeout waiting for action")
)
