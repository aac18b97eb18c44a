package channel

import (
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/arloliu/go-mbim/logger"
	"github.com/arloliu/go-mbim/mbim"
)

// assembler collects the fragments of messages received from the function.
//
// Fragments of one message are keyed by message type and transaction id and
// must arrive in order. A partially received message is discarded when its
// first fragment is older than the fragment timeout.
type assembler struct {
	clock   clock.Clock
	timeout time.Duration
	logger  logger.Logger

	mu           sync.Mutex
	openMessages map[uint64]*openMessage
}

// openMessage tracks a message whose fragments are being received.
type openMessage struct {
	fragments [][]byte
	total     uint32
	next      uint32
	started   time.Time
}

func newAssembler(cfg *Config) *assembler {
	return &assembler{
		clock:        cfg.clock,
		timeout:      cfg.timeout,
		logger:       cfg.logger,
		openMessages: make(map[uint64]*openMessage),
	}
}

// add processes one received packet. It returns the fragments of a message
// once the last fragment has arrived, and nil while more are expected.
func (a *assembler) add(packet []byte) ([][]byte, error) {
	hdr, frag, err := mbim.PeekFragment(packet)
	if err != nil {
		return nil, err
	}

	if uint64(len(packet)) != uint64(hdr.Length) {
		return nil, fmt.Errorf("%w: packet length mismatch, declared: %d, actual: %d",
			mbim.ErrMalformedMessage, hdr.Length, len(packet))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.expire()

	key := compositeKey(hdr.Type, hdr.TransactionID)
	om, exists := a.openMessages[key]

	if !exists {
		if frag.Total == 0 || frag.Current != 0 {
			return nil, fmt.Errorf("%w: %s tid %d starts with fragment %d of %d",
				mbim.ErrFragmentOutOfSequence, hdr.Type, hdr.TransactionID, frag.Current, frag.Total)
		}

		if frag.Total == 1 {
			return [][]byte{packet}, nil
		}

		a.openMessages[key] = &openMessage{
			fragments: [][]byte{packet},
			total:     frag.Total,
			next:      1,
			started:   a.clock.Now(),
		}

		return nil, nil
	}

	if frag.Current != om.next || frag.Total != om.total {
		delete(a.openMessages, key)

		if a.logger.Level() == logger.DebugLevel {
			a.logger.Debug("assembler: fragment out of sequence, aborting message",
				"tid", hdr.TransactionID, "expected", om.next, "got", frag.Current)
		}

		return nil, fmt.Errorf("%w: %s tid %d expected fragment %d of %d, got %d of %d",
			mbim.ErrFragmentOutOfSequence, hdr.Type, hdr.TransactionID, om.next, om.total, frag.Current, frag.Total)
	}

	om.fragments = append(om.fragments, packet)
	om.next++

	if om.next < om.total {
		return nil, nil
	}

	delete(a.openMessages, key)

	return om.fragments, nil
}

// expire drops messages whose fragments stopped arriving. Caller must hold a.mu.
func (a *assembler) expire() {
	now := a.clock.Now()
	for key, om := range a.openMessages {
		if now.Sub(om.started) > a.timeout {
			a.logger.Warn("assembler: fragment timeout, aborting message",
				"tid", uint32(key), "received", len(om.fragments), "total", om.total)
			delete(a.openMessages, key)
		}
	}
}

// pending returns the number of partially received messages.
func (a *assembler) pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.openMessages)
}

func (a *assembler) close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.openMessages)
}

// compositeKey creates a map key from message type and transaction id.
//
// Layout (64-bit):
//
//	[63:32] = MessageType
//	[31:0]  = TransactionId
func compositeKey(msgType mbim.MessageType, tid uint32) uint64 {
	return uint64(msgType)<<32 | uint64(tid)
}
