// Package trace records MBIM control traffic as a stream of CBOR events.
//
// A channel configured with a Recorder reports every packet it sends and
// receives. FileRecorder appends events to a file; Reader iterates them back,
// optionally filtered.
package trace

import (
	"time"

	"github.com/arloliu/go-mbim/mbim"
)

// Direction tells whether a packet travelled to or from the function.
type Direction uint8

const (
	// DirectionIn is a packet received from the function.
	DirectionIn Direction = 0
	// DirectionOut is a packet sent to the function.
	DirectionOut Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Event is one traced control packet. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the packet was sent or received.
	Timestamp time.Time `cbor:"1,keyasint"`

	// ChannelID identifies the channel (UUID) that carried the packet.
	ChannelID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`

	TransactionID uint32           `cbor:"4,keyasint"`
	MessageType   mbim.MessageType `cbor:"5,keyasint"`

	// Raw is the packet as it appeared on the control pipe.
	Raw []byte `cbor:"6,keyasint,omitempty"`

	// Error is set when the packet could not be sent or processed.
	Error string `cbor:"7,keyasint,omitempty"`
}

// Recorder receives trace events. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(event Event)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) Record(Event) {}
