package channel

import "sync/atomic"

// OpState is the operational state of a channel.
type OpState uint32

const (
	OpenedState OpState = iota
	ClosingState
	ClosedState
)

func (s OpState) String() string {
	switch s {
	case OpenedState:
		return "Opened"
	case ClosingState:
		return "Closing"
	case ClosedState:
		return "Closed"
	default:
		return "Unknown"
	}
}

// atomicOpState holds an OpState with compare-and-swap transitions.
// The zero value is OpenedState.
type atomicOpState struct {
	state atomic.Uint32
}

func (st *atomicOpState) Get() OpState {
	return OpState(st.state.Load())
}

func (st *atomicOpState) IsOpened() bool {
	return st.Get() == OpenedState
}

// ToClosing moves an opened channel to closing. Only one caller wins.
func (st *atomicOpState) ToClosing() bool {
	return st.state.CompareAndSwap(uint32(OpenedState), uint32(ClosingState))
}

func (st *atomicOpState) ToClosed() bool {
	if st.Get() == ClosedState {
		return true
	}

	return st.state.CompareAndSwap(uint32(ClosingState), uint32(ClosedState))
}
