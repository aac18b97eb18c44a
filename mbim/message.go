package mbim

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
)

const (
	// HeaderSize is the size of the MBIM message header in bytes.
	HeaderSize = 12
	// FragmentHeaderSize is the size of the fragment header that follows the
	// message header on command, command-done and indicate-status messages.
	FragmentHeaderSize = 8
	// UUIDSize is the size of a device service id on the wire.
	UUIDSize = 16

	// MinMaxControlTransfer is the smallest MaxControlTransfer a function may report.
	MinMaxControlTransfer = 64

	openMsgSize        = HeaderSize + 4
	closeMsgSize       = HeaderSize
	doneMsgSize        = HeaderSize + 4
	errorMsgSize       = HeaderSize + 4
	fragmentPrefixSize = HeaderSize + FragmentHeaderSize
	// command: fragment prefix, service id, cid, command type, info buffer length
	commandFixedSize = fragmentPrefixSize + UUIDSize + 4 + 4 + 4
	// command done: fragment prefix, service id, cid, status, info buffer length
	commandDoneFixedSize = fragmentPrefixSize + UUIDSize + 4 + 4 + 4
	// indicate status: fragment prefix, service id, cid, info buffer length
	indicateFixedSize = fragmentPrefixSize + UUIDSize + 4 + 4
)

// Header is the generic MBIM message header shared by all message types.
type Header struct {
	Type          MessageType
	Length        uint32
	TransactionID uint32
}

// FragmentHeader describes the position of a fragment within a fragmented message.
type FragmentHeader struct {
	Total   uint32
	Current uint32
}

// Message is one MBIM control message (request or response).
//
// Only the fields meaningful for Type are serialized:
//   - open: MaxControlTransfer
//   - open.done, close.done: Status
//   - command: ServiceID, CID, CommandType, InformationBuffer
//   - command.done: ServiceID, CID, Status, InformationBuffer
//   - indicate.status: ServiceID, CID, InformationBuffer
//   - host.error, function.error: ErrorStatus
//
// Length is computed by MarshalBinary and filled in by Decode.
type Message struct {
	Header
	Fragment FragmentHeader

	ServiceID          uuid.UUID
	CID                uint32
	CommandType        CommandType
	Status             Status
	ErrorStatus        ErrorStatus
	MaxControlTransfer uint32
	InformationBuffer  []byte
}

// NewOpen creates an MBIM_OPEN_MSG.
func NewOpen(tid uint32, maxControlTransfer uint32) *Message {
	return &Message{
		Header:             Header{Type: OpenMsgType, TransactionID: tid},
		MaxControlTransfer: maxControlTransfer,
	}
}

// NewClose creates an MBIM_CLOSE_MSG.
func NewClose(tid uint32) *Message {
	return &Message{Header: Header{Type: CloseMsgType, TransactionID: tid}}
}

// NewOpenDone creates an MBIM_OPEN_DONE response.
func NewOpenDone(tid uint32, status Status) *Message {
	return &Message{Header: Header{Type: OpenDoneMsgType, TransactionID: tid}, Status: status}
}

// NewCloseDone creates an MBIM_CLOSE_DONE response.
func NewCloseDone(tid uint32, status Status) *Message {
	return &Message{Header: Header{Type: CloseDoneMsgType, TransactionID: tid}, Status: status}
}

// NewHostError creates an MBIM_HOST_ERROR_MSG.
func NewHostError(tid uint32, code ErrorStatus) *Message {
	return &Message{Header: Header{Type: HostErrorMsgType, TransactionID: tid}, ErrorStatus: code}
}

// NewFunctionError creates an MBIM_FUNCTION_ERROR_MSG.
func NewFunctionError(tid uint32, code ErrorStatus) *Message {
	return &Message{Header: Header{Type: FunctionErrorMsgType, TransactionID: tid}, ErrorStatus: code}
}

// NewCommand creates an MBIM_COMMAND_MSG from a typed command.
// The identifiers and the command type are taken from cmd.
func NewCommand(tid uint32, cmd Command) (*Message, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: command is nil", ErrEncoding)
	}

	buf, err := cmd.MarshalInformationBuffer()
	if err != nil {
		return nil, err
	}

	id := cmd.Identifiers()

	return NewRawCommand(tid, id, cmd.CommandType(), buf), nil
}

// NewRawCommand creates an MBIM_COMMAND_MSG with an already encoded information buffer.
func NewRawCommand(tid uint32, id Identifiers, ct CommandType, infoBuf []byte) *Message {
	return &Message{
		Header:            Header{Type: CommandMsgType, TransactionID: tid},
		ServiceID:         id.ServiceID,
		CID:               id.CID,
		CommandType:       ct,
		InformationBuffer: infoBuf,
	}
}

// NewCommandDone creates an MBIM_COMMAND_DONE response.
func NewCommandDone(tid uint32, id Identifiers, status Status, infoBuf []byte) *Message {
	return &Message{
		Header:            Header{Type: CommandDoneMsgType, TransactionID: tid},
		ServiceID:         id.ServiceID,
		CID:               id.CID,
		Status:            status,
		InformationBuffer: infoBuf,
	}
}

// NewIndicateStatus creates an MBIM_INDICATE_STATUS_MSG.
func NewIndicateStatus(id Identifiers, infoBuf []byte) *Message {
	return &Message{
		Header:            Header{Type: IndicateStatusMsgType},
		ServiceID:         id.ServiceID,
		CID:               id.CID,
		InformationBuffer: infoBuf,
	}
}

// Identifiers returns the (device service id, command id) pair of the message.
func (m *Message) Identifiers() Identifiers {
	return Identifiers{ServiceID: m.ServiceID, CID: m.CID}
}

// Size returns the serialized size of the message in bytes.
func (m *Message) Size() (int, error) {
	switch m.Type {
	case OpenMsgType:
		return openMsgSize, nil
	case CloseMsgType:
		return closeMsgSize, nil
	case OpenDoneMsgType, CloseDoneMsgType:
		return doneMsgSize, nil
	case HostErrorMsgType, FunctionErrorMsgType:
		return errorMsgSize, nil
	case CommandMsgType:
		return commandFixedSize + len(m.InformationBuffer), nil
	case CommandDoneMsgType:
		return commandDoneFixedSize + len(m.InformationBuffer), nil
	case IndicateStatusMsgType:
		return indicateFixedSize + len(m.InformationBuffer), nil
	default:
		return 0, fmt.Errorf("%w: undefined message type 0x%08x", ErrEncoding, uint32(m.Type))
	}
}

// Encode serializes msg into its wire representation.
func Encode(msg *Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: message is nil", ErrEncoding)
	}

	return msg.MarshalBinary()
}

// MarshalBinary serializes the message and updates Length to the serialized size.
// A zero fragment header is written, and set, as fragment 0 of 1.
//
// It implements encoding.BinaryMarshaler.
func (m *Message) MarshalBinary() ([]byte, error) {
	size, err := m.Size()
	if err != nil {
		return nil, err
	}

	if uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: message size %d exceeds 32 bits", ErrEncoding, size)
	}

	if m.Type.IsFragmentable() {
		if m.ServiceID == uuid.Nil {
			return nil, fmt.Errorf("%w: %s message without device service id", ErrEncoding, m.Type)
		}

		if m.Type == CommandMsgType && m.CommandType != CommandTypeQuery && m.CommandType != CommandTypeSet {
			return nil, fmt.Errorf("%w: invalid command type %d", ErrEncoding, uint32(m.CommandType))
		}
	}

	m.Length = uint32(size) //nolint:gosec // checked above

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:], uint32(m.Type))
	binary.LittleEndian.PutUint32(buf[4:], m.Length)
	binary.LittleEndian.PutUint32(buf[8:], m.TransactionID)

	switch m.Type {
	case OpenMsgType:
		binary.LittleEndian.PutUint32(buf[12:], m.MaxControlTransfer)

	case CloseMsgType:

	case OpenDoneMsgType, CloseDoneMsgType:
		binary.LittleEndian.PutUint32(buf[12:], uint32(m.Status))

	case HostErrorMsgType, FunctionErrorMsgType:
		binary.LittleEndian.PutUint32(buf[12:], uint32(m.ErrorStatus))

	default:
		if m.Fragment.Total == 0 {
			m.Fragment = FragmentHeader{Total: 1}
		}
		binary.LittleEndian.PutUint32(buf[12:], m.Fragment.Total)
		binary.LittleEndian.PutUint32(buf[16:], m.Fragment.Current)
		copy(buf[20:36], m.ServiceID[:])
		binary.LittleEndian.PutUint32(buf[36:], m.CID)

		pos := 40
		switch m.Type { //nolint:exhaustive
		case CommandMsgType:
			binary.LittleEndian.PutUint32(buf[pos:], uint32(m.CommandType))
			pos += 4
		case CommandDoneMsgType:
			binary.LittleEndian.PutUint32(buf[pos:], uint32(m.Status))
			pos += 4
		}

		binary.LittleEndian.PutUint32(buf[pos:], uint32(len(m.InformationBuffer))) //nolint:gosec // bounded by size
		copy(buf[pos+4:], m.InformationBuffer)
	}

	return buf, nil
}

// UnmarshalBinary decodes a complete message into m.
//
// It implements encoding.BinaryUnmarshaler.
func (m *Message) UnmarshalBinary(data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		return err
	}

	*m = *msg

	return nil
}

// MsgInfo returns structured message information for logging.
func MsgInfo(msg *Message, keyValues ...any) []any {
	info := []any{
		"tid", msg.TransactionID,
		"type", msg.Type.String(),
		"len", msg.Length,
	}

	if msg.Type.IsFragmentable() {
		info = append(info, "cmd", msg.Identifiers().String())
	}

	switch msg.Type { //nolint:exhaustive
	case CommandMsgType:
		info = append(info, "cmd_type", msg.CommandType.String())
	case CommandDoneMsgType, OpenDoneMsgType, CloseDoneMsgType:
		info = append(info, "status", msg.Status.String())
	case HostErrorMsgType, FunctionErrorMsgType:
		info = append(info, "error_status", msg.ErrorStatus.String())
	}

	result := make([]any, 0, len(keyValues)+len(info))
	result = append(result, keyValues...)
	result = append(result, info...)

	return result
}
