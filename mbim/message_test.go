package mbim

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMessage_Open(t *testing.T) {
	require := require.New(t)

	msg := NewOpen(1, 4096)
	data, err := Encode(msg)
	require.NoError(err)
	require.Equal([]byte{
		0x01, 0x00, 0x00, 0x00, // open
		0x10, 0x00, 0x00, 0x00, // length 16
		0x01, 0x00, 0x00, 0x00, // tid 1
		0x00, 0x10, 0x00, 0x00, // max control transfer 4096
	}, data)
	require.Equal(uint32(16), msg.Length)
}

func TestMessage_Close(t *testing.T) {
	require := require.New(t)

	data, err := Encode(NewClose(0x01020304))
	require.NoError(err)
	require.Equal([]byte{
		0x02, 0x00, 0x00, 0x00,
		0x0c, 0x00, 0x00, 0x00,
		0x04, 0x03, 0x02, 0x01,
	}, data)
}

func TestMessage_CommandLayout(t *testing.T) {
	require := require.New(t)

	msg, err := NewCommand(7, &RadioStateSet{State: RadioOn})
	require.NoError(err)

	data, err := msg.MarshalBinary()
	require.NoError(err)
	require.Len(data, 52)

	expected := []byte{
		0x03, 0x00, 0x00, 0x00, // command
		0x34, 0x00, 0x00, 0x00, // length 52
		0x07, 0x00, 0x00, 0x00, // tid 7
		0x01, 0x00, 0x00, 0x00, // total fragments
		0x00, 0x00, 0x00, 0x00, // current fragment
		// basic connect, network byte order
		0xa2, 0x89, 0xcc, 0x33, 0xbc, 0xbb, 0x8b, 0x4f, 0xb6, 0xb0, 0x13, 0x3e, 0xc2, 0xaa, 0xc6, 0xdf,
		0x03, 0x00, 0x00, 0x00, // cid radio state
		0x01, 0x00, 0x00, 0x00, // set
		0x04, 0x00, 0x00, 0x00, // information buffer length
		0x01, 0x00, 0x00, 0x00, // radio on
	}
	require.Equal(expected, data)
}

func TestMessage_RoundTrip(t *testing.T) {
	connectSet, err := NewCommand(9, &ConnectSet{
		SessionID:         0,
		ActivationCommand: ActivationCommandActivate,
		AccessString:      "internet",
		UserName:          "user",
		Password:          "secret",
		AuthProtocol:      AuthProtocolCHAP,
		IPType:            IPTypeIPv4v6,
		ContextType:       ContextTypeInternet,
	})
	require.NoError(t, err)

	tests := []struct {
		description string
		msg         *Message
	}{
		{"open", NewOpen(1, 512)},
		{"close", NewClose(2)},
		{"open done", NewOpenDone(3, StatusSuccess)},
		{"close done failure", NewCloseDone(4, StatusFailure)},
		{"host error", NewHostError(5, ErrorCancel)},
		{"function error", NewFunctionError(6, ErrorNotOpened)},
		{"command query without buffer", NewRawCommand(7, Identifiers{ServiceID: BasicConnectService, CID: CIDDeviceCaps}, CommandTypeQuery, nil)},
		{"command set with strings", connectSet},
		{"command done", NewCommandDone(10, Identifiers{ServiceID: SMSService, CID: 2}, StatusBusy, []byte{1, 2, 3, 4})},
		{"indicate status", NewIndicateStatus(Identifiers{ServiceID: BasicConnectService, CID: CIDSignalState}, []byte{5, 6, 7, 8, 9, 0, 0, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			data, err := Encode(tt.msg)
			require.NoError(err)
			require.Equal(int(tt.msg.Length), len(data))

			decoded, err := Decode(data)
			require.NoError(err)
			if diff := cmp.Diff(tt.msg, decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			var msg Message
			require.NoError(msg.UnmarshalBinary(data))
			require.Equal(decoded, &msg)
		})
	}
}

func TestMessage_EncodingError(t *testing.T) {
	tests := []struct {
		description string
		msg         *Message
	}{
		{"nil message", nil},
		{"undefined type", &Message{Header: Header{Type: 0x55}}},
		{"command without service id", NewRawCommand(1, Identifiers{CID: 1}, CommandTypeQuery, nil)},
		{"command with invalid command type", NewRawCommand(1, Identifiers{ServiceID: BasicConnectService, CID: 1}, 2, nil)},
		{"indicate status without service id", NewIndicateStatus(Identifiers{ServiceID: uuid.Nil, CID: 1}, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := Encode(tt.msg)
			require.ErrorIs(t, err, ErrEncoding)
		})
	}

	_, err := NewCommand(1, nil)
	require.ErrorIs(t, err, ErrEncoding)

	_, err = NewCommand(1, &ConnectSet{AccessString: "apn"})
	require.ErrorIs(t, err, ErrEncoding)
}

func TestMessage_MsgInfo(t *testing.T) {
	require := require.New(t)

	msg := NewCommandDone(3, Identifiers{ServiceID: BasicConnectService, CID: CIDRadioState}, StatusSuccess, nil)
	_, err := msg.MarshalBinary()
	require.NoError(err)

	info := MsgInfo(msg, "method", "test")
	require.Equal([]any{
		"method", "test",
		"tid", uint32(3),
		"type", "command.done",
		"len", uint32(48),
		"cmd", "basic-connect/3",
		"status", "SUCCESS",
	}, info)
}

func TestMessageType_String(t *testing.T) {
	require := require.New(t)

	require.Equal("open", OpenMsgType.String())
	require.Equal("indicate.status", IndicateStatusMsgType.String())
	require.Equal("undefined(0x00000055)", MessageType(0x55).String())
	require.True(CommandDoneMsgType.IsResponse())
	require.False(CommandMsgType.IsResponse())
	require.True(CommandMsgType.IsFragmentable())
	require.False(OpenMsgType.IsFragmentable())
	require.False(MessageType(0x80000005).IsValid())
}

func TestStatus_Err(t *testing.T) {
	require := require.New(t)

	require.NoError(StatusSuccess.Err())

	err := StatusNotRegistered.Err()
	var statusErr *StatusError
	require.ErrorAs(err, &statusErr)
	require.Equal(StatusNotRegistered, statusErr.Status)
	require.Equal("mbim: status NOT_REGISTERED", err.Error())
	require.Equal("0x000000ff", Status(0xff).String())
}
