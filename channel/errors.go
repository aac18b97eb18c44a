package channel

import "errors"

var (
	// ErrChannelTimeout indicates that no complete response arrived within the configured timeout.
	ErrChannelTimeout = errors.New("channel: transaction timeout")

	// ErrChannelClosed indicates that the channel was closed, or its transport
	// failed, before the transaction completed.
	ErrChannelClosed = errors.New("channel: closed")

	// ErrChannelBusy indicates a transaction was started while another one was in flight.
	ErrChannelBusy = errors.New("channel: another transaction is in flight")

	// ErrInvalidRequest indicates request packets that do not form a message.
	ErrInvalidRequest = errors.New("channel: invalid request")

	// ErrInvalidConfig indicates an option value outside its allowed range.
	ErrInvalidConfig = errors.New("channel: invalid config")
)
