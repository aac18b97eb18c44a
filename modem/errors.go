package modem

import "errors"

var (
	// ErrInProgress indicates that another operation of the same kind holds the slot.
	ErrInProgress = errors.New("modem: operation in progress")

	// ErrWrongState indicates that the operation is not meaningful in the current state.
	ErrWrongState = errors.New("modem: wrong state")

	// ErrCancelled indicates that the operation was cancelled before it completed.
	ErrCancelled = errors.New("modem: operation cancelled")

	// ErrFailed indicates that the modem entered the FAILED state while an operation was running.
	ErrFailed = errors.New("modem: modem failed")
)
