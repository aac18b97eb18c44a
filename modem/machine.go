package modem

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-mbim/logger"
)

// machine is the plumbing shared by all operations: the slot kind, the
// cancel token and the result.
type machine struct {
	kind    OpKind
	modem   *Modem
	backend Backend
	logger  logger.Logger

	started    atomic.Bool
	cancelCh   chan struct{}
	cancelOnce sync.Once
	result     *Result
}

func (mc *machine) init(kind OpKind, m *Modem, backend Backend) {
	mc.kind = kind
	mc.modem = m
	mc.backend = backend
	mc.logger = m.logger
	mc.cancelCh = make(chan struct{})
	mc.result = newResult()
}

// Kind returns the slot the operation occupies.
func (mc *machine) Kind() OpKind { return mc.kind }

// Cancel requests cancellation of the operation. It returns immediately.
func (mc *machine) Cancel() {
	mc.cancelOnce.Do(func() {
		mc.logger.Debug("modem: cancel requested", "op", mc.kind.String())
		close(mc.cancelCh)
	})
}

// Result returns the result of the operation.
func (mc *machine) Result() *Result { return mc.result }

func (mc *machine) isCancelled() bool {
	select {
	case <-mc.cancelCh:
		return true
	default:
		return false
	}
}

// opContext returns a context that is also cancelled by Cancel.
func (mc *machine) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(ctx)

	go func() {
		select {
		case <-mc.cancelCh:
			cancel()
		case <-opCtx.Done():
		}
	}()

	return opCtx, cancel
}

// finish releases op's slot and resolves the result with err.
func (mc *machine) finish(op Operation, err error) {
	mc.modem.release(op)

	if !mc.result.resolve(err) {
		mc.logger.Warn("modem: operation already resolved", "op", mc.kind.String())
		return
	}

	if err != nil {
		mc.logger.Warn("modem: operation failed", "op", mc.kind.String(), "error", err)
	} else {
		mc.logger.Info("modem: operation completed", "op", mc.kind.String())
	}
}

// transition is a single-request operation that moves the modem from a
// state, through an intermediate state, to a target state.
type transition struct {
	from State
	via  State
	to   State
	// reached reports whether the operation has nothing to do in a state.
	reached func(State) bool
	// call performs the request while the modem is in the intermediate state.
	call func(ctx context.Context) error
}

// startTransition claims op's slot and runs t in the background. On failure
// or cancellation the modem returns to t.from.
func (mc *machine) startTransition(ctx context.Context, op Operation, t transition) (*Result, error) {
	if !mc.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: %s already started", ErrInProgress, mc.kind)
	}

	m := mc.modem
	m.mu.Lock()

	if cur := m.slots[mc.kind]; cur != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrInProgress, mc.kind)
	}

	state := m.state
	if t.reached(state) {
		m.mu.Unlock()
		mc.logger.Debug("modem: nothing to do", "op", mc.kind.String(), "state", state.String())
		mc.result.resolve(nil)

		return mc.result, nil
	}

	if state != t.from {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot %s in %s", ErrWrongState, mc.kind, state)
	}

	m.slots[mc.kind] = op
	m.changeStateLocked(t.via, mc.kind.String()+" started")
	m.mu.Unlock()

	go func() {
		opCtx, cancel := mc.opContext(ctx)
		defer cancel()

		err := t.call(opCtx)

		next := t.to
		reason := mc.kind.String() + " completed"
		if err != nil {
			next = t.from
			reason = mc.kind.String() + " failed"

			if mc.isCancelled() {
				err = ErrCancelled
				reason = mc.kind.String() + " cancelled"
			}
		}

		m.release(op)
		m.CompareAndChangeState(t.via, next, reason)
		mc.finish(op, err)
	}()

	return mc.result, nil
}

// EnableMachine powers the radio on: DISABLED → ENABLING → ENABLED.
type EnableMachine struct {
	machine
}

// NewEnableMachine creates an enable operation for m.
func NewEnableMachine(m *Modem, backend Backend) *EnableMachine {
	e := &EnableMachine{}
	e.init(OpEnable, m, backend)

	return e
}

// Start starts the operation. A modem that is already enabled resolves the
// result immediately. ctx bounds the whole operation.
func (e *EnableMachine) Start(ctx context.Context) (*Result, error) {
	return e.startTransition(ctx, e, transition{
		from:    StateDisabled,
		via:     StateEnabling,
		to:      StateEnabled,
		reached: func(s State) bool { return s >= StateEnabled },
		call: func(ctx context.Context) error {
			return e.backend.RadioPower(ctx, true)
		},
	})
}

// RegisterMachine registers with the network: ENABLED → SEARCHING → REGISTERED.
// A cancelled or failed registration returns the modem to ENABLED.
type RegisterMachine struct {
	machine
}

// NewRegisterMachine creates a register operation for m.
func NewRegisterMachine(m *Modem, backend Backend) *RegisterMachine {
	r := &RegisterMachine{}
	r.init(OpRegister, m, backend)

	return r
}

// Start starts the operation. A modem that is already registered resolves
// the result immediately. ctx bounds the whole operation.
func (r *RegisterMachine) Start(ctx context.Context) (*Result, error) {
	return r.startTransition(ctx, r, transition{
		from:    StateEnabled,
		via:     StateSearching,
		to:      StateRegistered,
		reached: func(s State) bool { return s >= StateRegistered },
		call:    r.backend.Register,
	})
}

// ConnectMachine activates a bearer: REGISTERED → CONNECTING → CONNECTED.
// A cancelled or failed connect returns the modem to REGISTERED.
type ConnectMachine struct {
	machine
	props ConnectProperties
}

// NewConnectMachine creates a connect operation for m.
func NewConnectMachine(m *Modem, backend Backend, props ConnectProperties) *ConnectMachine {
	c := &ConnectMachine{props: props}
	c.init(OpConnect, m, backend)

	return c
}

// Start starts the operation. A modem that is already connected resolves
// the result immediately. ctx bounds the whole operation.
func (c *ConnectMachine) Start(ctx context.Context) (*Result, error) {
	return c.startTransition(ctx, c, transition{
		from:    StateRegistered,
		via:     StateConnecting,
		to:      StateConnected,
		reached: func(s State) bool { return s == StateConnected },
		call: func(ctx context.Context) error {
			return c.backend.Connect(ctx, c.props)
		},
	})
}
