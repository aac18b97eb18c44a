package modem

import (
	"context"
	"sync"

	"github.com/arloliu/go-mbim/internal/queue"
	"github.com/arloliu/go-mbim/logger"
)

// Operation is an in-flight operation that occupies a modem slot.
type Operation interface {
	// Kind returns the slot the operation occupies.
	Kind() OpKind
	// Cancel requests cancellation. It does not wait for the operation to
	// stop; the operation releases its own slot when it observes the request.
	Cancel()
}

// Modem is the logical state record of one modem: its state and its
// operation slots. It is shared by pointer between all machines of the modem
// and is safe for concurrent use.
type Modem struct {
	logger logger.Logger

	mu    sync.Mutex
	cond  *sync.Cond
	state State
	slots map[OpKind]Operation

	subs   map[uint64]*Subscription
	nextID uint64
}

// New creates a modem in the initial state.
func New(initial State, l logger.Logger) *Modem {
	if l == nil {
		l = logger.GetLogger()
	}

	m := &Modem{
		logger: l,
		state:  initial,
		slots:  make(map[OpKind]Operation),
		subs:   make(map[uint64]*Subscription),
	}
	m.cond = sync.NewCond(&m.mu)

	return m
}

// State returns the current state.
func (m *Modem) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// ChangeState moves the modem to state and notifies subscribers.
// Changing to the current state is a no-op.
func (m *Modem) ChangeState(state State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.changeStateLocked(state, reason)
}

func (m *Modem) changeStateLocked(state State, reason string) {
	old := m.state
	if old == state {
		return
	}

	m.state = state
	m.logger.Info("modem: state changed", "old_state", old.String(), "new_state", state.String(), "reason", reason)

	change := StateChange{Old: old, New: state, Reason: reason}
	for _, sub := range m.subs {
		sub.push(change)
	}

	m.cond.Broadcast()
}

// CompareAndChangeState changes the state to next only if it is still expected
// and reports whether it did.
func (m *Modem) CompareAndChangeState(expected, next State, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != expected {
		return false
	}

	m.changeStateLocked(next, reason)

	return true
}

// WaitState waits until the modem reaches state or ctx is done.
func (m *Modem) WaitState(ctx context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.cond.Broadcast()
	})
	defer stop()

	for m.state != state {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.cond.Wait()
	}

	return nil
}

// Operation returns the operation holding the slot of kind, or nil.
func (m *Modem) Operation(kind OpKind) Operation {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.slots[kind]
}

// release clears the slot of op's kind if op still holds it.
func (m *Modem) release(op Operation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots[op.Kind()] == op {
		delete(m.slots, op.Kind())
	}
}

// Subscribe returns a subscription receiving every later state change.
func (m *Modem) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.subscribeLocked()
}

func (m *Modem) subscribeLocked() *Subscription {
	m.nextID++
	sub := &Subscription{
		id:     m.nextID,
		modem:  m,
		events: queue.New[StateChange](),
		signal: make(chan struct{}, 1),
	}
	m.subs[sub.id] = sub

	return sub
}

// Subscription receives the state changes of a modem in order.
// Changes are queued without bound until read.
type Subscription struct {
	id     uint64
	modem  *Modem
	events *queue.LockFreeQueue[StateChange]
	signal chan struct{}
}

func (s *Subscription) push(change StateChange) {
	s.events.Enqueue(change)

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Poll returns the next queued change without blocking.
func (s *Subscription) Poll() (StateChange, bool) {
	return s.events.Dequeue()
}

// Next waits for the next state change. It returns ctx.Err() when ctx is
// done, and ErrCancelled when cancel is closed first.
func (s *Subscription) Next(ctx context.Context, cancel <-chan struct{}) (StateChange, error) {
	for {
		if change, ok := s.Poll(); ok {
			return change, nil
		}

		select {
		case <-ctx.Done():
			return StateChange{}, ctx.Err()
		case <-cancel:
			return StateChange{}, ErrCancelled
		case <-s.signal:
		}
	}
}

// Pending returns the number of queued changes.
func (s *Subscription) Pending() int {
	return s.events.Length()
}

// Close stops the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.modem.mu.Lock()
	defer s.modem.mu.Unlock()

	delete(s.modem.subs, s.id)
}
