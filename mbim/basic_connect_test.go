package mbim

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type infoPayload interface {
	Payload
	MarshalInformationBuffer() ([]byte, error)
}

func TestBasicConnect_ResponseRoundTrip(t *testing.T) {
	tests := []struct {
		description string
		payload     infoPayload
		empty       func() infoPayload
	}{
		{
			description: "device caps",
			payload: &DeviceCapsInfo{
				DeviceType:    1,
				CellularClass: 1,
				SimClass:      2,
				DataClass:     DataClassUMTS | DataClassLTE,
				ControlCaps:   0x3,
				MaxSessions:   8,
				DeviceID:      "359072060000000",
				FirmwareInfo:  "FW 1.2.3",
				HardwareInfo:  "HW rev b",
			},
			empty: func() infoPayload { return &DeviceCapsInfo{} },
		},
		{
			description: "radio state",
			payload:     &RadioStateInfo{HwRadioState: RadioOn, SwRadioState: RadioOn},
			empty:       func() infoPayload { return &RadioStateInfo{} },
		},
		{
			description: "registration state",
			payload: &RegistrationStateInfo{
				RegisterState:        RegisterStateRoaming,
				RegisterMode:         1,
				AvailableDataClasses: DataClassLTE,
				CurrentCellularClass: 1,
				ProviderID:           "310260",
				ProviderName:         "Carrier",
				RoamingText:          "roaming",
				RegistrationFlag:     2,
			},
			empty: func() infoPayload { return &RegistrationStateInfo{} },
		},
		{
			description: "connect",
			payload: &ConnectInfo{
				SessionID:       3,
				ActivationState: ActivationStateDeactivated,
				VoiceCallState:  1,
				IPType:          IPTypeIPv6,
				ContextType:     ContextTypeInternet,
				NwError:         33,
			},
			empty: func() infoPayload { return &ConnectInfo{} },
		},
		{
			description: "packet service",
			payload: &PacketServiceInfo{
				PacketServiceState:        PacketServiceStateAttached,
				HighestAvailableDataClass: DataClassLTE,
				UplinkSpeed:               50_000_000,
				DownlinkSpeed:             1 << 33,
			},
			empty: func() infoPayload { return &PacketServiceInfo{} },
		},
		{
			description: "subscriber ready",
			payload: &SubscriberReadyInfo{
				ReadyState:       SubscriberInitialized,
				SubscriberID:     "310260000000000",
				SimICCID:         "8901260000000000000",
				TelephoneNumbers: []string{"+15550100", "+15550101"},
			},
			empty: func() infoPayload { return &SubscriberReadyInfo{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			buf, err := tt.payload.MarshalInformationBuffer()
			require.NoError(err)
			require.Zero(len(buf) % 4)

			data, err := Encode(NewCommandDone(1, tt.payload.Identifiers(), StatusSuccess, buf))
			require.NoError(err)

			got := tt.empty()
			_, err = DecodeResponse(data, got)
			require.NoError(err)
			if diff := cmp.Diff(tt.payload, got); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}

			// the registry resolves the same payload type
			msg, err := Decode(data)
			require.NoError(err)
			decoded, err := DecodePayload(msg)
			require.NoError(err)
			require.IsType(tt.payload, decoded)
		})
	}
}

func TestBasicConnect_Commands(t *testing.T) {
	tests := []struct {
		description  string
		cmd          Command
		expectedCID  uint32
		expectedType CommandType
		expectedLen  int
	}{
		{"device caps query", DeviceCapsQuery{}, CIDDeviceCaps, CommandTypeQuery, 0},
		{"radio state query", RadioStateQuery{}, CIDRadioState, CommandTypeQuery, 0},
		{"radio state set", &RadioStateSet{State: RadioOff}, CIDRadioState, CommandTypeSet, 4},
		{"register state query", RegisterStateQuery{}, CIDRegisterState, CommandTypeQuery, 0},
		{"register state set", &RegisterStateSet{Action: RegisterActionAutomatic}, CIDRegisterState, CommandTypeSet, 16},
		{"packet service query", PacketServiceQuery{}, CIDPacketService, CommandTypeQuery, 0},
		{"packet service set", &PacketServiceSet{Action: PacketServiceDetach}, CIDPacketService, CommandTypeSet, 4},
		{"connect query", &ConnectQuery{SessionID: 1}, CIDConnect, CommandTypeQuery, 36},
		{
			"connect set",
			&ConnectSet{ActivationCommand: ActivationCommandDeactivate, ContextType: ContextTypeInternet},
			CIDConnect, CommandTypeSet, 60,
		},
		{"subscriber ready query", SubscriberReadyStatusQuery{}, CIDSubscriberReadyStatus, CommandTypeQuery, 0},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			msg, err := NewCommand(1, tt.cmd)
			require.NoError(err)
			require.Equal(BasicConnectService, msg.ServiceID)
			require.Equal(tt.expectedCID, msg.CID)
			require.Equal(tt.expectedType, msg.CommandType)
			require.Len(msg.InformationBuffer, tt.expectedLen)
		})
	}
}

func TestSubscriberReadyInfo_TooManyNumbers(t *testing.T) {
	buf, err := NewInfoBufferBuilder().
		Uint32(uint32(SubscriberInitialized)).
		String("").
		String("").
		Uint32(0).
		Uint32(1000).
		Build()
	require.NoError(t, err)

	err = (&SubscriberReadyInfo{}).UnmarshalInformationBuffer(buf)
	require.ErrorIs(t, err, ErrInvalidInformationBuffer)
}

func TestRegisterState_IsRegistered(t *testing.T) {
	require := require.New(t)

	require.True(RegisterStateHome.IsRegistered())
	require.True(RegisterStateRoaming.IsRegistered())
	require.False(RegisterStateSearching.IsRegistered())
	require.False(RegisterStateDenied.IsRegistered())
}
