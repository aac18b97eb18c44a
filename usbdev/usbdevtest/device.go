// Package usbdevtest provides an in-memory MBIM function for tests.
//
// Device implements usbdev.Transport: packets written with SendControl are
// reassembled, decoded and passed to a Handler, whose responses are fragmented
// and queued for ReceiveNotification. MockFunctionControl is a testify mock of
// usbdev.FunctionControl.
package usbdevtest

import (
	"context"
	"slices"
	"sync"

	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/usbdev"
)

// Handler answers one decoded request. Returning no message leaves the request unanswered.
type Handler func(req *mbim.Message) []*mbim.Message

// Device is an in-memory MBIM function.
type Device struct {
	handler            Handler
	maxControlTransfer uint32

	notifications chan []byte
	closed        chan struct{}
	closeOnce     sync.Once

	mu        sync.Mutex
	fragments [][]byte
	sent      [][]byte
	requests  []*mbim.Message
	sendErr   error
}

var _ usbdev.Transport = (*Device)(nil)

// NewDevice creates a device that answers requests with handler.
// A nil handler answers with DefaultHandler.
func NewDevice(handler Handler) *Device {
	if handler == nil {
		handler = DefaultHandler
	}

	return &Device{
		handler:            handler,
		maxControlTransfer: 4096,
		notifications:      make(chan []byte, 128),
		closed:             make(chan struct{}),
	}
}

// SetMaxControlTransfer sets the fragment size used for responses.
func (d *Device) SetMaxControlTransfer(size uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.maxControlTransfer = size
}

// SetSendError makes subsequent SendControl calls fail with err.
func (d *Device) SetSendError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sendErr = err
}

// SendControl records packet and, once a request is complete, queues the
// handler's responses.
func (d *Device) SendControl(ctx context.Context, packet []byte) error {
	if d.isClosed() {
		return usbdev.ErrTransportClosed
	}

	d.mu.Lock()
	if d.sendErr != nil {
		err := d.sendErr
		d.mu.Unlock()

		return err
	}

	d.sent = append(d.sent, slices.Clone(packet))
	d.fragments = append(d.fragments, slices.Clone(packet))

	_, frag, err := mbim.PeekFragment(packet)
	if err != nil || frag.Current+1 < frag.Total {
		d.mu.Unlock()
		return nil
	}

	fragments := d.fragments
	d.fragments = nil
	maxCtrl := d.maxControlTransfer
	d.mu.Unlock()

	data, err := mbim.Assemble(fragments)
	if err != nil {
		return nil
	}

	req, err := mbim.Decode(data)
	if err != nil {
		return nil
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	for _, resp := range d.handler(req) {
		packets, err := mbim.Fragment(resp, maxCtrl)
		if err != nil {
			return err
		}

		for _, p := range packets {
			if err := d.Inject(ctx, p); err != nil {
				return err
			}
		}
	}

	return nil
}

// Inject queues a raw packet for ReceiveNotification.
func (d *Device) Inject(ctx context.Context, packet []byte) error {
	select {
	case <-d.closed:
		return usbdev.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	case d.notifications <- packet:
		return nil
	}
}

// ReceiveNotification returns the next queued packet.
func (d *Device) ReceiveNotification(ctx context.Context) ([]byte, error) {
	if d.isClosed() {
		return nil, usbdev.ErrTransportClosed
	}

	select {
	case <-d.closed:
		return nil, usbdev.ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case packet := <-d.notifications:
		return packet, nil
	}
}

// Close closes the device. It is safe to call more than once.
func (d *Device) Close() error {
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

// Sent returns the packets written so far.
func (d *Device) Sent() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([][]byte(nil), d.sent...)
}

// Requests returns the decoded requests received so far.
func (d *Device) Requests() []*mbim.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*mbim.Message(nil), d.requests...)
}

func (d *Device) isClosed() bool {
	select {
	case <-d.closed:
		return true
	default:
		return false
	}
}

// DefaultHandler answers open and close with success, and every command with
// a successful command-done carrying an empty information buffer.
func DefaultHandler(req *mbim.Message) []*mbim.Message {
	switch req.Type { //nolint:exhaustive
	case mbim.OpenMsgType:
		return []*mbim.Message{mbim.NewOpenDone(req.TransactionID, mbim.StatusSuccess)}
	case mbim.CloseMsgType:
		return []*mbim.Message{mbim.NewCloseDone(req.TransactionID, mbim.StatusSuccess)}
	case mbim.CommandMsgType:
		return []*mbim.Message{mbim.NewCommandDone(req.TransactionID, req.Identifiers(), mbim.StatusSuccess, nil)}
	default:
		return nil
	}
}

// NoResponse never answers.
func NoResponse(*mbim.Message) []*mbim.Message {
	return nil
}
