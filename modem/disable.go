package modem

import (
	"context"
	"fmt"
)

// dispatchFunc handles one state. It returns done when the machine should
// stop observing state changes.
type dispatchFunc func(ctx context.Context) (done bool, err error)

// DisableMachine drives the modem down to DISABLED from any usable state,
// cancelling in-flight connect, register and enable operations on its way.
type DisableMachine struct {
	machine
	dispatch map[State]dispatchFunc
}

// NewDisableMachine creates a disable operation for m.
func NewDisableMachine(m *Modem, backend Backend) *DisableMachine {
	d := &DisableMachine{}
	d.init(OpDisable, m, backend)

	d.dispatch = map[State]dispatchFunc{
		StateConnected:     d.handleConnected,
		StateConnecting:    d.handleConnecting,
		StateDisconnecting: d.handleDisconnecting,
		StateRegistered:    d.handleRegistered,
		StateSearching:     d.handleSearching,
		StateEnabled:       d.handleEnabled,
		StateDisabling:     d.handleDisabling,
	}

	return d
}

// Start runs the start guard and, unless the modem is already disabled,
// starts the dispatch loop in the background. ctx bounds the whole operation.
//
// ErrInProgress and ErrWrongState are returned synchronously; every later
// outcome is reported through the returned Result.
func (d *DisableMachine) Start(ctx context.Context) (*Result, error) {
	if !d.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: %s already started", ErrInProgress, d.kind)
	}

	sub, err := d.shouldStart()
	if err != nil {
		return nil, err
	}

	if sub == nil {
		return d.result, nil
	}

	go d.run(ctx, sub)

	return d.result, nil
}

// shouldStart is the start guard. It returns a subscription when the machine
// has claimed its slot, and nil when the modem is already disabled.
func (d *DisableMachine) shouldStart() (*Subscription, error) {
	m := d.modem
	m.mu.Lock()
	defer m.mu.Unlock()

	if op := m.slots[OpDisable]; op != nil && op != Operation(d) {
		return nil, fmt.Errorf("%w: %s", ErrInProgress, OpDisable)
	}

	switch m.state { //nolint:exhaustive
	case StateDisabled:
		d.logger.Debug("modem: already disabled")
		d.result.resolve(nil)

		return nil, nil

	case StateFailed, StateUnknown, StateInitializing, StateLocked:
		return nil, fmt.Errorf("%w: cannot disable in %s", ErrWrongState, m.state)
	}

	for _, kind := range []OpKind{OpConnect, OpRegister, OpEnable} {
		if op := m.slots[kind]; op != nil {
			d.logger.Info("modem: cancelling operation before disable", "op", kind.String())
			op.Cancel()
		}
	}

	// Cancelled operations wind down asynchronously; the dispatch loop
	// re-reads the state on every change.
	m.slots[OpDisable] = d

	return m.subscribeLocked(), nil
}

// run dispatches once now and once per observed state change.
func (d *DisableMachine) run(ctx context.Context, sub *Subscription) {
	defer sub.Close()

	opCtx, cancel := d.opContext(ctx)
	defer cancel()

	for {
		done, err := d.step(opCtx)
		if done || err != nil {
			d.finish(d, d.cancelledErr(err))
			return
		}

		change, err := sub.Next(opCtx, d.cancelCh)
		if err != nil {
			d.finish(d, d.cancelledErr(err))
			return
		}

		d.logger.Debug("modem: disable observed state change",
			"old_state", change.Old.String(), "new_state", change.New.String())
	}
}

// cancelledErr reports a failure caused by Cancel as ErrCancelled.
func (d *DisableMachine) cancelledErr(err error) error {
	if err != nil && d.isCancelled() {
		return ErrCancelled
	}

	return err
}

// step dispatches on the current state.
func (d *DisableMachine) step(ctx context.Context) (bool, error) {
	state := d.modem.State()

	if handler, ok := d.dispatch[state]; ok {
		return handler(ctx)
	}

	switch state { //nolint:exhaustive
	case StateDisabled:
		return true, nil
	case StateFailed:
		return true, ErrFailed
	default:
		// e.g. ENABLING while a cancelled enable winds down
		return false, nil
	}
}

func (d *DisableMachine) handleConnected(ctx context.Context) (bool, error) {
	if !d.modem.CompareAndChangeState(StateConnected, StateDisconnecting, "disable") {
		return false, nil
	}

	if err := d.backend.Disconnect(ctx); err != nil {
		d.modem.CompareAndChangeState(StateDisconnecting, StateConnected, "disconnect failed")
		return true, fmt.Errorf("modem: disconnect: %w", err)
	}

	d.modem.CompareAndChangeState(StateDisconnecting, StateRegistered, "disconnected")

	return false, nil
}

func (d *DisableMachine) handleConnecting(context.Context) (bool, error) {
	if op := d.modem.Operation(OpConnect); op != nil {
		op.Cancel()
	}

	return false, nil
}

func (d *DisableMachine) handleDisconnecting(context.Context) (bool, error) {
	return false, nil
}

func (d *DisableMachine) handleRegistered(ctx context.Context) (bool, error) {
	if err := d.backend.Unregister(ctx); err != nil {
		return true, fmt.Errorf("modem: unregister: %w", err)
	}

	d.modem.CompareAndChangeState(StateRegistered, StateDisabling, "unregistered")

	return false, nil
}

func (d *DisableMachine) handleSearching(context.Context) (bool, error) {
	if op := d.modem.Operation(OpRegister); op != nil {
		op.Cancel()
	}

	return false, nil
}

func (d *DisableMachine) handleEnabled(context.Context) (bool, error) {
	d.modem.CompareAndChangeState(StateEnabled, StateDisabling, "disable")
	return false, nil
}

func (d *DisableMachine) handleDisabling(ctx context.Context) (bool, error) {
	if err := d.backend.RadioPower(ctx, false); err != nil {
		d.modem.CompareAndChangeState(StateDisabling, StateEnabled, "radio off failed")
		return true, fmt.Errorf("modem: radio off: %w", err)
	}

	d.modem.CompareAndChangeState(StateDisabling, StateDisabled, "disabled")

	return true, nil
}
