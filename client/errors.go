package client

import "errors"

var (
	// ErrUnexpectedRadioState indicates that the function did not switch the radio as requested.
	ErrUnexpectedRadioState = errors.New("client: unexpected radio state")

	// ErrNotRegistered indicates that a register request completed without a registration.
	ErrNotRegistered = errors.New("client: not registered")

	// ErrNotDetached indicates that the packet service is still attached after a detach request.
	ErrNotDetached = errors.New("client: packet service not detached")

	// ErrNotActivated indicates that a connect request did not activate the context.
	ErrNotActivated = errors.New("client: context not activated")

	// ErrNotDeactivated indicates that a disconnect request left the context active.
	ErrNotDeactivated = errors.New("client: context not deactivated")
)
