package modem

import "strconv"

// State is the logical modem state, numbered as in ModemManager.
type State int32

const (
	StateFailed        State = -1
	StateUnknown       State = 0
	StateInitializing  State = 1
	StateLocked        State = 2
	StateDisabled      State = 3
	StateDisabling     State = 4
	StateEnabling      State = 5
	StateEnabled       State = 6
	StateSearching     State = 7
	StateRegistered    State = 8
	StateDisconnecting State = 9
	StateConnecting    State = 10
	StateConnected     State = 11
)

func (s State) String() string {
	switch s {
	case StateFailed:
		return "FAILED"
	case StateUnknown:
		return "UNKNOWN"
	case StateInitializing:
		return "INITIALIZING"
	case StateLocked:
		return "LOCKED"
	case StateDisabled:
		return "DISABLED"
	case StateDisabling:
		return "DISABLING"
	case StateEnabling:
		return "ENABLING"
	case StateEnabled:
		return "ENABLED"
	case StateSearching:
		return "SEARCHING"
	case StateRegistered:
		return "REGISTERED"
	case StateDisconnecting:
		return "DISCONNECTING"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// IsUsable reports whether the modem is past initialization and unlocked.
// Enable and disable are only meaningful in usable states.
func (s State) IsUsable() bool {
	return s >= StateDisabled
}

// ParseState returns the state with the given name.
func ParseState(name string) (State, bool) {
	for s := StateFailed; s <= StateConnected; s++ {
		if s.String() == name {
			return s, true
		}
	}

	return StateUnknown, false
}

// OpKind identifies an operation slot of a modem.
type OpKind int

const (
	OpConnect OpKind = iota
	OpDisable
	OpEnable
	OpRegister
)

func (k OpKind) String() string {
	switch k {
	case OpConnect:
		return "connect"
	case OpDisable:
		return "disable"
	case OpEnable:
		return "enable"
	case OpRegister:
		return "register"
	default:
		return "unknown"
	}
}

// StateChange describes one state transition.
type StateChange struct {
	Old    State
	New    State
	Reason string
}
