package sequence

import (
	"sync"

	"github.com/arloliu/go-mbim/usbdev"
)

// Overrides replaces values the open sequence would otherwise derive from the
// descriptors and the NTB parameters.
type Overrides struct {
	// MaxControlTransfer replaces wMaxControlMessage in the open request when non-zero.
	MaxControlTransfer uint32

	// NtbFormat selects the NTB format. When nil, the 32-bit format is
	// selected if the function supports it.
	NtbFormat *usbdev.NtbFormat
}

// Negotiated holds the transfer parameters cached by a successful open sequence.
type Negotiated struct {
	MaxControlTransfer     uint32
	NtbFormat              usbdev.NtbFormat
	MaxInDataTransferSize  uint32
	MaxOutDataTransferSize uint32
	OutDataAlignment       uint16
	OutDataDivisor         uint16
	OutDataRemainder       uint16
	MaxOutDatagrams        uint16
}

// DeviceContext is the per-device state shared by the sequences of one
// function: the descriptor fields discovered during enumeration, optional
// overrides, and the parameters negotiated by the last open sequence.
//
// It is safe for concurrent use.
type DeviceContext struct {
	descriptors usbdev.Descriptors
	overrides   Overrides

	mu         sync.RWMutex
	negotiated Negotiated
	opened     bool
}

// NewDeviceContext creates a device context.
func NewDeviceContext(desc usbdev.Descriptors, overrides Overrides) *DeviceContext {
	return &DeviceContext{descriptors: desc, overrides: overrides}
}

// Descriptors returns the descriptor fields of the function.
func (d *DeviceContext) Descriptors() usbdev.Descriptors { return d.descriptors }

// Overrides returns the configured overrides.
func (d *DeviceContext) Overrides() Overrides { return d.overrides }

// Negotiated returns the parameters cached by the last successful open
// sequence. ok is false when the function has not been opened.
func (d *DeviceContext) Negotiated() (n Negotiated, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.negotiated, d.opened
}

// MaxControlTransfer returns the negotiated max control transfer, or the
// value the open request would use when the function has not been opened.
func (d *DeviceContext) MaxControlTransfer() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.opened {
		return d.negotiated.MaxControlTransfer
	}

	return d.requestedMaxControlTransfer()
}

func (d *DeviceContext) requestedMaxControlTransfer() uint32 {
	if d.overrides.MaxControlTransfer != 0 {
		return d.overrides.MaxControlTransfer
	}

	return uint32(d.descriptors.MaxControlMessage)
}

func (d *DeviceContext) setNegotiated(n Negotiated) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.negotiated = n
	d.opened = true
}

func (d *DeviceContext) clearNegotiated() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.negotiated = Negotiated{}
	d.opened = false
}
