package mbim

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func encodeForTest(t *testing.T, msg *Message) []byte {
	t.Helper()

	data, err := Encode(msg)
	require.NoError(t, err)

	return data
}

func TestDecode_Errors(t *testing.T) {
	radioDone := NewCommandDone(1, Identifiers{ServiceID: BasicConnectService, CID: CIDRadioState}, StatusSuccess, []byte{1, 0, 0, 0, 1, 0, 0, 0})

	tests := []struct {
		description string
		input       func(t *testing.T) []byte
		expectedErr error
	}{
		{
			description: "empty buffer",
			input:       func(*testing.T) []byte { return nil },
			expectedErr: ErrTruncatedMessage,
		},
		{
			description: "shorter than header",
			input:       func(*testing.T) []byte { return []byte{1, 0, 0, 0, 16, 0} },
			expectedErr: ErrTruncatedMessage,
		},
		{
			description: "shorter than declared length",
			input: func(t *testing.T) []byte {
				data := encodeForTest(t, radioDone)
				return data[:len(data)-1]
			},
			expectedErr: ErrTruncatedMessage,
		},
		{
			description: "longer than declared length",
			input: func(t *testing.T) []byte {
				return append(encodeForTest(t, NewOpen(1, 4096)), 0)
			},
			expectedErr: ErrMalformedMessage,
		},
		{
			description: "declared length smaller than header",
			input:       func(*testing.T) []byte { return []byte{2, 0, 0, 0, 8, 0, 0, 0, 1, 0, 0, 0} },
			expectedErr: ErrMalformedMessage,
		},
		{
			description: "close with extra field",
			input: func(*testing.T) []byte {
				return []byte{2, 0, 0, 0, 16, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}
			},
			expectedErr: ErrMalformedMessage,
		},
		{
			description: "undefined message type",
			input: func(*testing.T) []byte {
				return []byte{0x55, 0, 0, 0, 12, 0, 0, 0, 1, 0, 0, 0}
			},
			expectedErr: ErrMalformedMessage,
		},
		{
			description: "command done shorter than fixed fields",
			input: func(*testing.T) []byte {
				data := make([]byte, 40)
				binary.LittleEndian.PutUint32(data[0:], uint32(CommandDoneMsgType))
				binary.LittleEndian.PutUint32(data[4:], 40)
				return data
			},
			expectedErr: ErrTruncatedMessage,
		},
		{
			description: "information buffer length mismatch",
			input: func(t *testing.T) []byte {
				data := encodeForTest(t, radioDone)
				binary.LittleEndian.PutUint32(data[44:], 4)
				return data
			},
			expectedErr: ErrMalformedMessage,
		},
		{
			description: "unassembled fragment",
			input: func(t *testing.T) []byte {
				data := encodeForTest(t, radioDone)
				binary.LittleEndian.PutUint32(data[12:], 2)
				return data
			},
			expectedErr: ErrMalformedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			msg, err := Decode(tt.input(t))
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, msg)
		})
	}
}

func TestDecodeResponse_Success(t *testing.T) {
	require := require.New(t)

	payload := &RadioStateInfo{HwRadioState: RadioOn, SwRadioState: RadioOff}
	buf, err := payload.MarshalInformationBuffer()
	require.NoError(err)

	data := encodeForTest(t, NewCommandDone(11, payload.Identifiers(), StatusSuccess, buf))

	info := &RadioStateInfo{}
	msg, err := DecodeResponse(data, info)
	require.NoError(err)
	require.Equal(uint32(11), msg.TransactionID)
	require.Equal(StatusSuccess, msg.Status)
	require.Equal(payload, info)
}

func TestDecodeResponse_IdentifierMismatch(t *testing.T) {
	expected := &RadioStateInfo{}

	tests := []struct {
		description string
		actual      Identifiers
	}{
		{"same service, different cid", Identifiers{ServiceID: BasicConnectService, CID: CIDRegisterState}},
		{"different service, same cid", Identifiers{ServiceID: SMSService, CID: CIDRadioState}},
		{"different service and cid", Identifiers{ServiceID: STKService, CID: 1}},
		{"unknown service", Identifiers{ServiceID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), CID: CIDRadioState}},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			data := encodeForTest(t, NewCommandDone(1, tt.actual, StatusSuccess, []byte{1, 0, 0, 0, 1, 0, 0, 0}))

			_, err := DecodeResponse(data, expected)
			require.ErrorIs(err, ErrUnexpectedMessage)

			var unexpected *UnexpectedMessageError
			require.ErrorAs(err, &unexpected)
			require.Equal(expected.Identifiers(), unexpected.Expected)
			require.Equal(tt.actual, unexpected.Actual)

			// the payload is left untouched
			require.Equal(&RadioStateInfo{}, expected)
		})
	}
}

func TestDecodeResponse_UnexpectedType(t *testing.T) {
	require := require.New(t)

	_, err := DecodeResponse(encodeForTest(t, NewOpenDone(1, StatusSuccess)), &RadioStateInfo{})
	require.ErrorIs(err, ErrUnexpectedMessage)
	require.Contains(err.Error(), "expected type command.done, got open.done")

	msg, err := DecodeResponse(encodeForTest(t, NewFunctionError(2, ErrorUnknown)), &RadioStateInfo{})
	require.ErrorIs(err, ErrFunctionError)
	require.False(errors.Is(err, ErrUnexpectedMessage))
	require.Equal(ErrorUnknown, msg.ErrorStatus)
}

func TestDecodeResponse_FailureStatus(t *testing.T) {
	require := require.New(t)

	id := Identifiers{ServiceID: BasicConnectService, CID: CIDRegisterState}
	data := encodeForTest(t, NewCommandDone(5, id, StatusNotRegistered, nil))

	info := &RegistrationStateInfo{}
	msg, err := DecodeResponse(data, info)
	require.NoError(err)
	require.Equal(StatusNotRegistered, msg.Status)
	require.ErrorAs(msg.Status.Err(), new(*StatusError))
	require.Equal(&RegistrationStateInfo{}, info)
}

func TestDecodePayload(t *testing.T) {
	require := require.New(t)

	payload := &ConnectInfo{
		SessionID:       1,
		ActivationState: ActivationStateActivated,
		IPType:          IPTypeIPv4,
		ContextType:     ContextTypeInternet,
	}
	buf, err := payload.MarshalInformationBuffer()
	require.NoError(err)

	decoded, err := DecodePayload(NewIndicateStatus(payload.Identifiers(), buf))
	require.NoError(err)
	require.Equal(payload, decoded)

	_, err = DecodePayload(NewIndicateStatus(Identifiers{ServiceID: SMSService, CID: 99}, nil))
	require.ErrorIs(err, ErrUnknownPayload)

	_, err = DecodePayload(NewOpenDone(1, StatusSuccess))
	require.ErrorIs(err, ErrUnexpectedMessage)
}

func TestPeekFragment(t *testing.T) {
	require := require.New(t)

	hdr, frag, err := PeekFragment(encodeForTest(t, NewOpen(3, 64)))
	require.NoError(err)
	require.Equal(Header{Type: OpenMsgType, Length: 16, TransactionID: 3}, hdr)
	require.Equal(FragmentHeader{Total: 1}, frag)

	_, _, err = PeekFragment([]byte{3, 0, 0, 0, 20, 0, 0, 0, 1, 0, 0, 0, 1, 0})
	require.ErrorIs(err, ErrTruncatedMessage)
}
