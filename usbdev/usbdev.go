// Package usbdev defines the USB boundary that go-mbim depends on.
//
// The package does not enumerate or open USB devices. A host integration
// supplies a Transport for the control and notification pipes of the MBIM
// communication interface, and a FunctionControl for the class-specific
// requests (CDC NCM/MBIM) issued during bring-up.
package usbdev

import (
	"context"
	"errors"
)

// ErrTransportClosed is returned by a Transport after Close.
var ErrTransportClosed = errors.New("usbdev: transport closed")

// ErrInvalidNtbParameters indicates a malformed NTB parameter structure.
var ErrInvalidNtbParameters = errors.New("usbdev: invalid NTB parameters")

// Transport moves encoded MBIM control messages between host and function.
//
// SendControl writes one packet with SEND_ENCAPSULATED_COMMAND.
// ReceiveNotification blocks until the next complete response packet has been
// read with GET_ENCAPSULATED_RESPONSE after a RESPONSE_AVAILABLE notification.
// Both return ErrTransportClosed once Close has been called.
type Transport interface {
	SendControl(ctx context.Context, packet []byte) error
	ReceiveNotification(ctx context.Context) ([]byte, error)
	Close() error
}

// FunctionControl issues the class-specific control requests of the
// communication interface and the standard SET_INTERFACE request.
type FunctionControl interface {
	// ResetFunction issues RESET_FUNCTION.
	ResetFunction(ctx context.Context) error
	// GetNtbParameters issues GET_NTB_PARAMETERS and returns the raw structure.
	GetNtbParameters(ctx context.Context) ([]byte, error)
	// SetNtbFormat issues SET_NTB_FORMAT.
	SetNtbFormat(ctx context.Context, format NtbFormat) error
	// SetNtbInputSize issues SET_NTB_INPUT_SIZE.
	SetNtbInputSize(ctx context.Context, size uint32) error
	// SetMaxDatagramSize issues SET_MAX_DATAGRAM_SIZE.
	SetMaxDatagramSize(ctx context.Context, size uint16) error
	// SetInterface selects an alternate setting of an interface.
	SetInterface(ctx context.Context, iface uint8, altSetting uint8) error
}
