package mbim

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Command is a typed request that knows its default identifiers and command type.
type Command interface {
	Identifiers() Identifiers
	CommandType() CommandType
	MarshalInformationBuffer() ([]byte, error)
}

// Payload is a typed information buffer of a command-done or indicate-status message.
type Payload interface {
	Identifiers() Identifiers
	UnmarshalInformationBuffer(buf []byte) error
}

// PeekHeader decodes only the generic header of data.
func PeekHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d header bytes, have %d", ErrTruncatedMessage, HeaderSize, len(data))
	}

	return Header{
		Type:          MessageType(binary.LittleEndian.Uint32(data[0:])),
		Length:        binary.LittleEndian.Uint32(data[4:]),
		TransactionID: binary.LittleEndian.Uint32(data[8:]),
	}, nil
}

// PeekFragment decodes the generic header and the fragment header of data.
func PeekFragment(data []byte) (Header, FragmentHeader, error) {
	hdr, err := PeekHeader(data)
	if err != nil {
		return hdr, FragmentHeader{}, err
	}

	if !hdr.Type.IsFragmentable() {
		return hdr, FragmentHeader{Total: 1}, nil
	}

	if len(data) < fragmentPrefixSize {
		return hdr, FragmentHeader{}, fmt.Errorf("%w: need %d bytes for fragment header, have %d",
			ErrTruncatedMessage, fragmentPrefixSize, len(data))
	}

	return hdr, FragmentHeader{
		Total:   binary.LittleEndian.Uint32(data[12:]),
		Current: binary.LittleEndian.Uint32(data[16:]),
	}, nil
}

// PeekIdentifiers returns the identifiers carried by a command, command-done
// or indicate-status message, or by the first fragment of one.
func PeekIdentifiers(data []byte) (Identifiers, error) {
	hdr, err := PeekHeader(data)
	if err != nil {
		return Identifiers{}, err
	}

	if !hdr.Type.IsFragmentable() {
		return Identifiers{}, fmt.Errorf("%w: %s message has no identifiers", ErrMalformedMessage, hdr.Type)
	}

	if len(data) < fragmentPrefixSize+UUIDSize+4 {
		return Identifiers{}, fmt.Errorf("%w: need %d bytes for identifiers, have %d",
			ErrTruncatedMessage, fragmentPrefixSize+UUIDSize+4, len(data))
	}

	return Identifiers{
		ServiceID: uuid.UUID(data[20:36]),
		CID:       binary.LittleEndian.Uint32(data[36:]),
	}, nil
}

// Decode decodes one complete, unfragmented message.
//
// It returns ErrTruncatedMessage when data is shorter than the declared
// MessageLength and ErrMalformedMessage for any other structural violation.
// The information buffer is not interpreted; see DecodeResponse and DecodePayload.
func Decode(data []byte) (*Message, error) {
	hdr, err := PeekHeader(data)
	if err != nil {
		return nil, err
	}

	if hdr.Length < HeaderSize {
		return nil, fmt.Errorf("%w: message length %d is smaller than header", ErrMalformedMessage, hdr.Length)
	}

	if uint64(len(data)) < uint64(hdr.Length) {
		return nil, fmt.Errorf("%w: declared %d bytes, have %d", ErrTruncatedMessage, hdr.Length, len(data))
	}

	if uint64(len(data)) != uint64(hdr.Length) {
		return nil, fmt.Errorf("%w: length mismatch, declared: %d, actual: %d", ErrMalformedMessage, hdr.Length, len(data))
	}

	msg := &Message{Header: hdr}

	fixed := func(size int) error {
		if len(data) != size {
			return fmt.Errorf("%w: %s message must be %d bytes, got %d", ErrMalformedMessage, hdr.Type, size, len(data))
		}
		return nil
	}

	switch hdr.Type {
	case OpenMsgType:
		if err := fixed(openMsgSize); err != nil {
			return nil, err
		}
		msg.MaxControlTransfer = binary.LittleEndian.Uint32(data[12:])

	case CloseMsgType:
		if err := fixed(closeMsgSize); err != nil {
			return nil, err
		}

	case OpenDoneMsgType, CloseDoneMsgType:
		if err := fixed(doneMsgSize); err != nil {
			return nil, err
		}
		msg.Status = Status(binary.LittleEndian.Uint32(data[12:]))

	case HostErrorMsgType, FunctionErrorMsgType:
		if err := fixed(errorMsgSize); err != nil {
			return nil, err
		}
		msg.ErrorStatus = ErrorStatus(binary.LittleEndian.Uint32(data[12:]))

	case CommandMsgType, CommandDoneMsgType, IndicateStatusMsgType:
		if err := decodeCommandBody(msg, data); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: undefined message type 0x%08x", ErrMalformedMessage, uint32(hdr.Type))
	}

	return msg, nil
}

func decodeCommandBody(msg *Message, data []byte) error {
	fixedSize := commandFixedSize
	switch msg.Type { //nolint:exhaustive
	case CommandDoneMsgType:
		fixedSize = commandDoneFixedSize
	case IndicateStatusMsgType:
		fixedSize = indicateFixedSize
	}

	if len(data) < fixedSize {
		return fmt.Errorf("%w: %s message needs %d bytes, have %d", ErrTruncatedMessage, msg.Type, fixedSize, len(data))
	}

	msg.Fragment = FragmentHeader{
		Total:   binary.LittleEndian.Uint32(data[12:]),
		Current: binary.LittleEndian.Uint32(data[16:]),
	}
	if msg.Fragment.Total != 1 || msg.Fragment.Current != 0 {
		return fmt.Errorf("%w: fragment %d of %d, assemble fragments before decoding",
			ErrMalformedMessage, msg.Fragment.Current, msg.Fragment.Total)
	}

	msg.ServiceID = uuid.UUID(data[20:36])
	msg.CID = binary.LittleEndian.Uint32(data[36:])

	pos := 40
	switch msg.Type { //nolint:exhaustive
	case CommandMsgType:
		msg.CommandType = CommandType(binary.LittleEndian.Uint32(data[pos:]))
		pos += 4
	case CommandDoneMsgType:
		msg.Status = Status(binary.LittleEndian.Uint32(data[pos:]))
		pos += 4
	}

	bufLen := binary.LittleEndian.Uint32(data[pos:])
	pos += 4

	if uint64(bufLen) != uint64(len(data)-pos) {
		return fmt.Errorf("%w: information buffer length %d does not match remaining %d bytes",
			ErrMalformedMessage, bufLen, len(data)-pos)
	}

	if bufLen > 0 {
		msg.InformationBuffer = make([]byte, bufLen)
		copy(msg.InformationBuffer, data[pos:])
	}

	return nil
}

// DecodeResponse decodes a command-done message and unmarshals its information
// buffer into expected.
//
// The message's identifiers must equal expected.Identifiers(), otherwise an
// *UnexpectedMessageError is returned. A FUNCTION_ERROR message yields
// ErrFunctionError. The information buffer is only unmarshaled when the status
// is StatusSuccess; callers inspect msg.Status for other outcomes.
func DecodeResponse(data []byte, expected Payload) (*Message, error) {
	msg, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if err := CheckResponse(msg, expected); err != nil {
		return msg, err
	}

	if msg.Status != StatusSuccess || expected == nil {
		return msg, nil
	}

	if err := expected.UnmarshalInformationBuffer(msg.InformationBuffer); err != nil {
		return msg, err
	}

	return msg, nil
}

// CheckResponse verifies that msg is a command-done message for the identifiers of expected.
func CheckResponse(msg *Message, expected Payload) error {
	if msg.Type == FunctionErrorMsgType {
		return fmt.Errorf("%w: %s (tid %d)", ErrFunctionError, msg.ErrorStatus, msg.TransactionID)
	}

	if msg.Type != CommandDoneMsgType {
		return &UnexpectedMessageError{ExpectedType: CommandDoneMsgType, ActualType: msg.Type}
	}

	if expected == nil {
		return nil
	}

	if want := expected.Identifiers(); want != msg.Identifiers() {
		return &UnexpectedMessageError{
			ExpectedType: CommandDoneMsgType,
			ActualType:   msg.Type,
			Expected:     want,
			Actual:       msg.Identifiers(),
		}
	}

	return nil
}

var (
	registryMu sync.RWMutex
	registry   = map[Identifiers]func() Payload{}
)

// RegisterPayload registers the payload factory used by DecodePayload for id.
// A later registration for the same identifiers replaces the earlier one.
func RegisterPayload(id Identifiers, factory func() Payload) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[id] = factory
}

// DecodePayload decodes the information buffer of a command-done or
// indicate-status message with the payload registered for its identifiers.
func DecodePayload(msg *Message) (Payload, error) {
	if msg.Type != CommandDoneMsgType && msg.Type != IndicateStatusMsgType {
		return nil, &UnexpectedMessageError{ExpectedType: CommandDoneMsgType, ActualType: msg.Type}
	}

	registryMu.RLock()
	factory, ok := registry[msg.Identifiers()]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPayload, msg.Identifiers())
	}

	payload := factory()
	if err := payload.UnmarshalInformationBuffer(msg.InformationBuffer); err != nil {
		return nil, err
	}

	return payload, nil
}
