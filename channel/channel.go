package channel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-mbim/logger"
	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/trace"
	"github.com/arloliu/go-mbim/usbdev"
)

// IndicationHandler receives decoded indicate-status messages.
//
// Handlers run on the channel's indication goroutine, one message at a time.
type IndicationHandler func(msg *mbim.Message)

// pendingTransaction is a request waiting for its response.
type pendingTransaction struct {
	id       uint32
	msgType  mbim.MessageType
	expected mbim.Identifiers
	hasIDs   bool
	reply    chan [][]byte
}

// Channel is an MBIM transaction channel on top of a usbdev.Transport.
//
// It owns a receiver goroutine that reads the notification pipe, reassembles
// fragmented responses and routes them to the waiting transaction by
// transaction id. Indications are delivered to the registered handlers.
//
// A channel carries one transaction at a time; a second concurrent
// BidirectionalTransaction fails with ErrChannelBusy.
type Channel struct {
	id        uuid.UUID
	cfg       *Config
	logger    logger.Logger
	clock     clock.Clock
	recorder  trace.Recorder
	transport usbdev.Transport

	opState atomicOpState
	busy    atomic.Bool
	tidGen  atomic.Uint32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pending   *xsync.MapOf[uint32, *pendingTransaction]
	assembler *assembler

	handlersMu  sync.RWMutex
	handlers    []IndicationHandler
	indications chan *mbim.Message

	metrics Metrics
}

// New creates a channel over transport and starts its receiver.
func New(transport usbdev.Transport, cfg *Config) (*Channel, error) {
	if transport == nil {
		return nil, errors.New("channel: transport is nil")
	}

	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}

	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	c := &Channel{
		id:          id,
		cfg:         cfg,
		logger:      cfg.logger.With("channel", id.String()),
		clock:       cfg.clock,
		recorder:    cfg.recorder,
		transport:   transport,
		ctx:         ctx,
		cancel:      cancel,
		pending:     xsync.NewMapOf[uint32, *pendingTransaction](),
		assembler:   newAssembler(cfg),
		indications: make(chan *mbim.Message, cfg.indicationQueueSize),
	}

	c.wg.Add(2)
	go c.receiveLoop()
	go c.indicationLoop()

	return c, nil
}

// ID returns the unique id of the channel, used in logs and traces.
func (c *Channel) ID() uuid.UUID { return c.id }

// Config returns the channel configuration.
func (c *Channel) Config() *Config { return c.cfg }

// Logger returns the channel logger.
func (c *Channel) Logger() logger.Logger { return c.logger }

// Metrics returns the channel metrics.
func (c *Channel) Metrics() *Metrics { return &c.metrics }

// IsClosed reports whether the channel has been closed.
func (c *Channel) IsClosed() bool { return !c.opState.IsOpened() }

// NextTransactionID returns the next transaction id of the channel.
// Ids increase monotonically from 1 and skip 0 on wrap-around.
func (c *Channel) NextTransactionID() uint32 {
	id := c.tidGen.Add(1)
	if id == 0 {
		id = c.tidGen.Add(1)
	}

	return id
}

// AddIndicationHandler registers a handler for indicate-status messages.
func (c *Channel) AddIndicationHandler(handler IndicationHandler) {
	if handler == nil {
		return
	}

	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.handlers = append(c.handlers, handler)
}

// BidirectionalTransaction sends the packets of one request in order and
// waits for the complete response carrying the transaction id of the first
// packet. It returns the raw response fragments, still encoded.
//
// It fails with ErrChannelTimeout when no complete response arrives within
// the configured timeout, with ErrChannelClosed when the channel is closed or
// its transport fails, with ErrChannelBusy when another transaction is in
// flight, and with ctx.Err() when ctx is done first.
func (c *Channel) BidirectionalTransaction(ctx context.Context, packets [][]byte) ([][]byte, error) {
	if len(packets) == 0 {
		return nil, fmt.Errorf("%w: no packets", ErrInvalidRequest)
	}

	if c.IsClosed() {
		return nil, ErrChannelClosed
	}

	hdr, err := mbim.PeekHeader(packets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrChannelBusy
	}
	defer c.busy.Store(false)

	pt := c.addPendingTransaction(hdr, packets[0])
	defer c.removePendingTransaction(pt.id)

	for _, packet := range packets {
		if err := c.send(ctx, packet); err != nil {
			c.metrics.incTransactionErrCount()
			return nil, err
		}
	}

	timer := c.clock.NewTimer(c.cfg.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.metrics.incTransactionErrCount()
		return nil, ctx.Err()

	case <-c.ctx.Done():
		c.metrics.incTransactionErrCount()
		return nil, ErrChannelClosed

	case <-timer.C():
		c.metrics.incTransactionTimeoutCount()
		c.logger.Warn("channel: transaction timeout",
			"method", "BidirectionalTransaction",
			"tid", hdr.TransactionID,
			"type", hdr.Type.String(),
			"timeout", c.cfg.timeout)

		return nil, fmt.Errorf("%w: tid %d after %v", ErrChannelTimeout, hdr.TransactionID, c.cfg.timeout)

	case fragments := <-pt.reply:
		c.metrics.incTransactionCount()
		return fragments, nil
	}
}

// Transact assigns the next transaction id to msg, sends it fragmented to
// the configured max control transfer size, and decodes the response.
//
// The response is only decoded; callers check its type, identifiers and
// status, e.g. with mbim.CheckResponse.
func (c *Channel) Transact(ctx context.Context, msg *mbim.Message) (*mbim.Message, error) {
	msg.TransactionID = c.NextTransactionID()

	packets, err := mbim.Fragment(msg, c.cfg.maxControlTransfer)
	if err != nil {
		return nil, err
	}

	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("channel: transact", mbim.MsgInfo(msg, "method", "Transact", "fragments", len(packets))...)
	}

	fragments, err := c.BidirectionalTransaction(ctx, packets)
	if err != nil {
		return nil, err
	}

	data, err := mbim.Assemble(fragments)
	if err != nil {
		return nil, err
	}

	resp, err := mbim.Decode(data)
	if err != nil {
		return nil, err
	}

	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("channel: response", mbim.MsgInfo(resp, "method", "Transact")...)
	}

	return resp, nil
}

// Close closes the channel and its transport. Waiting transactions fail
// with ErrChannelClosed. It is safe to call more than once.
func (c *Channel) Close() error {
	err := c.shutdown()
	c.wg.Wait()

	return err
}

// shutdown moves the channel to the closed state. Only the first caller
// releases the resources.
func (c *Channel) shutdown() error {
	if !c.opState.ToClosing() {
		return nil
	}

	c.cancel()

	var err error
	if closeErr := c.transport.Close(); closeErr != nil {
		err = fmt.Errorf("channel: close transport: %w", closeErr)
	}

	c.pending.Clear()
	c.assembler.close()
	c.opState.ToClosed()

	c.logger.Debug("channel: closed", "method", "shutdown")

	return err
}

func (c *Channel) send(ctx context.Context, packet []byte) error {
	err := c.transport.SendControl(ctx, packet)
	c.record(trace.DirectionOut, packet, err)

	if err != nil {
		c.logger.Error("channel: failed to send packet", "method", "send", "error", err)

		if errors.Is(err, usbdev.ErrTransportClosed) {
			return fmt.Errorf("%w: %w", ErrChannelClosed, err)
		}

		return fmt.Errorf("channel: send control: %w", err)
	}

	c.metrics.incPacketSendCount()

	return nil
}

// receiveLoop reads the notification pipe until the channel closes. A
// transport failure closes the channel.
func (c *Channel) receiveLoop() {
	defer c.wg.Done()

	for {
		packet, err := c.transport.ReceiveNotification(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Error("channel: failed to receive notification, closing channel",
					"method", "receiveLoop", "error", err)
				_ = c.shutdown()
			}

			return
		}

		c.metrics.incPacketRecvCount()
		c.record(trace.DirectionIn, packet, nil)
		c.handlePacket(packet)
	}
}

func (c *Channel) handlePacket(packet []byte) {
	fragments, err := c.assembler.add(packet)
	if err != nil {
		c.metrics.incFragmentErrCount()
		c.logger.Warn("channel: discard received packet", "method", "handlePacket", "error", err)

		return
	}

	if fragments == nil {
		return
	}

	hdr, _ := mbim.PeekHeader(fragments[0])
	if hdr.Type == mbim.IndicateStatusMsgType {
		c.queueIndication(fragments)
		return
	}

	c.replyToSender(hdr, fragments)
}

// replyToSender delivers a response to the transaction waiting for its id.
func (c *Channel) replyToSender(hdr mbim.Header, fragments [][]byte) {
	pt, ok := c.pending.LoadAndDelete(hdr.TransactionID)
	if !ok {
		c.metrics.incStaleResponseCount()
		c.logger.Warn("channel: stale response, no pending transaction",
			"method", "replyToSender",
			"tid", hdr.TransactionID,
			"type", hdr.Type.String())

		return
	}

	if hdr.Type == mbim.CommandDoneMsgType && pt.hasIDs {
		if id, err := mbim.PeekIdentifiers(fragments[0]); err == nil && id != pt.expected {
			c.logger.Warn("channel: response identifiers differ from request",
				"method", "replyToSender",
				"tid", hdr.TransactionID,
				"expected", pt.expected.String(),
				"actual", id.String())
		}
	}

	// reply is buffered and receives at most one value
	pt.reply <- fragments
}

func (c *Channel) queueIndication(fragments [][]byte) {
	c.metrics.incIndicationCount()

	data, err := mbim.Assemble(fragments)
	if err != nil {
		c.logger.Warn("channel: discard indication", "method", "queueIndication", "error", err)
		return
	}

	msg, err := mbim.Decode(data)
	if err != nil {
		c.logger.Warn("channel: discard indication", "method", "queueIndication", "error", err)
		return
	}

	select {
	case c.indications <- msg:
	default:
		c.metrics.incIndicationDropCount()
		c.logger.Warn("channel: indication queue full, dropping indication",
			mbim.MsgInfo(msg, "method", "queueIndication")...)
	}
}

func (c *Channel) indicationLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return

		case msg := <-c.indications:
			c.handlersMu.RLock()
			handlers := c.handlers
			c.handlersMu.RUnlock()

			for _, handler := range handlers {
				handler(msg)
			}
		}
	}
}

func (c *Channel) addPendingTransaction(hdr mbim.Header, first []byte) *pendingTransaction {
	pt := &pendingTransaction{
		id:      hdr.TransactionID,
		msgType: hdr.Type,
		reply:   make(chan [][]byte, 1),
	}

	if hdr.Type.IsFragmentable() {
		if id, err := mbim.PeekIdentifiers(first); err == nil {
			pt.expected = id
			pt.hasIDs = true
		}
	}

	c.pending.Store(pt.id, pt)

	return pt
}

func (c *Channel) removePendingTransaction(id uint32) {
	c.pending.Delete(id)
}

func (c *Channel) record(dir trace.Direction, packet []byte, err error) {
	hdr, _ := mbim.PeekHeader(packet)

	event := trace.Event{
		Timestamp:     c.clock.Now(),
		ChannelID:     c.id.String(),
		Direction:     dir,
		TransactionID: hdr.TransactionID,
		MessageType:   hdr.Type,
		Raw:           slices.Clone(packet),
	}
	if err != nil {
		event.Error = err.Error()
	}

	c.recorder.Record(event)

	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("channel: packet",
			"direction", dir.String(),
			"tid", hdr.TransactionID,
			"type", hdr.Type.String(),
			"len", len(packet))
	}
}
