package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbim/channel"
	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/modem"
)

func TestClient_RadioPower(t *testing.T) {
	tests := []struct {
		description string
		on          bool
		setup       func(f *fakeFunction)
		expectedErr error
	}{
		{description: "off", on: false},
		{description: "on", on: true, setup: func(f *fakeFunction) { f.swRadio = mbim.RadioOff }},
		{
			description: "software state unchanged",
			on:          false,
			setup:       func(f *fakeFunction) { f.ignore[mbim.CIDRadioState] = true },
			expectedErr: ErrUnexpectedRadioState,
		},
		{
			description: "hardware switch off",
			on:          true,
			setup:       func(f *fakeFunction) { f.hwRadio = mbim.RadioOff },
			expectedErr: ErrUnexpectedRadioState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			c, fn, _, _ := newTestClient(t)
			if tt.setup != nil {
				fn.setState(tt.setup)
			}

			err := c.RadioPower(context.Background(), tt.on)
			if tt.expectedErr != nil {
				require.ErrorIs(err, tt.expectedErr)
				return
			}

			require.NoError(err)

			info, err := c.RadioState(context.Background())
			require.NoError(err)
			require.Equal(tt.on, info.SwRadioState == mbim.RadioOn)
		})
	}
}

func TestClient_FailureStatus(t *testing.T) {
	require := require.New(t)

	c, fn, _, _ := newTestClient(t)
	fn.setState(func(f *fakeFunction) { f.status[mbim.CIDRadioState] = mbim.StatusRadioPowerOff })

	err := c.RadioPower(context.Background(), true)
	require.ErrorContains(err, "RadioPower")

	var statusErr *mbim.StatusError
	require.ErrorAs(err, &statusErr)
	require.Equal(mbim.StatusRadioPowerOff, statusErr.Status)
}

func TestClient_Register(t *testing.T) {
	require := require.New(t)

	c, fn, _, dev := newTestClient(t)
	fn.setState(func(f *fakeFunction) { f.registered = false })

	require.NoError(c.Register(context.Background()))

	reqs := dev.Requests()
	require.Len(reqs, 1)
	require.Equal(mbim.CIDRegisterState, reqs[0].CID)
	require.Equal(mbim.CommandTypeSet, reqs[0].CommandType)

	info, err := c.RegisterState(context.Background())
	require.NoError(err)
	require.Equal(mbim.RegisterStateHome, info.RegisterState)
	require.Equal("310260", info.ProviderID)
}

func TestClient_Register_NotRegistered(t *testing.T) {
	c, fn, _, _ := newTestClient(t)
	fn.setState(func(f *fakeFunction) {
		f.registered = false
		f.ignore[mbim.CIDRegisterState] = true
	})

	err := c.Register(context.Background())
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestClient_Unregister(t *testing.T) {
	require := require.New(t)

	c, _, _, _ := newTestClient(t)
	require.NoError(c.Unregister(context.Background()))

	info, err := c.PacketService(context.Background())
	require.NoError(err)
	require.Equal(mbim.PacketServiceStateDetached, info.PacketServiceState)
}

func TestClient_Unregister_StillAttached(t *testing.T) {
	c, fn, _, _ := newTestClient(t)
	fn.setState(func(f *fakeFunction) { f.ignore[mbim.CIDPacketService] = true })

	require.ErrorIs(t, c.Unregister(context.Background()), ErrNotDetached)
}

func TestClient_Connect(t *testing.T) {
	tests := []struct {
		description  string
		opts         []Option
		props        modem.ConnectProperties
		expectedAuth mbim.AuthProtocol
		expectedIP   mbim.IPType
		expectedSID  uint32
	}{
		{
			description:  "no credentials",
			props:        modem.ConnectProperties{APN: "internet"},
			expectedAuth: mbim.AuthProtocolNone,
			expectedIP:   mbim.IPTypeIPv4v6,
		},
		{
			description:  "credentials use CHAP by default",
			props:        modem.ConnectProperties{APN: "corp", User: "alice", Password: "secret"},
			expectedAuth: mbim.AuthProtocolCHAP,
			expectedIP:   mbim.IPTypeIPv4v6,
		},
		{
			description:  "options",
			opts:         []Option{WithAuthProtocol(mbim.AuthProtocolPAP), WithIPType(mbim.IPTypeIPv6), WithSessionID(2)},
			props:        modem.ConnectProperties{APN: "corp", User: "alice"},
			expectedAuth: mbim.AuthProtocolPAP,
			expectedIP:   mbim.IPTypeIPv6,
			expectedSID:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			c, fn, _, _ := newTestClient(t, tt.opts...)
			fn.setState(func(f *fakeFunction) { f.active = false })

			require.NoError(c.Connect(context.Background(), tt.props))

			got := fn.lastConnect()
			require.Equal(mbim.ActivationCommandActivate, got.Command)
			require.Equal(tt.props.APN, got.AccessString)
			require.Equal(tt.props.User, got.UserName)
			require.Equal(tt.props.Password, got.Password)
			require.Equal(tt.expectedAuth, got.AuthProtocol)
			require.Equal(tt.expectedIP, got.IPType)
			require.Equal(tt.expectedSID, got.SessionID)

			info, err := c.ConnectState(context.Background())
			require.NoError(err)
			require.Equal(tt.expectedSID, info.SessionID)
			require.Equal(mbim.ActivationStateActivated, info.ActivationState)
		})
	}
}

func TestClient_Connect_NotActivated(t *testing.T) {
	c, fn, _, _ := newTestClient(t)
	fn.setState(func(f *fakeFunction) {
		f.active = false
		f.ignore[mbim.CIDConnect] = true
	})

	err := c.Connect(context.Background(), modem.ConnectProperties{APN: "internet"})
	require.ErrorIs(t, err, ErrNotActivated)
}

func TestClient_Disconnect(t *testing.T) {
	require := require.New(t)

	c, fn, _, _ := newTestClient(t)
	require.NoError(c.Disconnect(context.Background()))

	got := fn.lastConnect()
	require.Equal(mbim.ActivationCommandDeactivate, got.Command)
	require.Empty(got.AccessString)

	fn.setState(func(f *fakeFunction) {
		f.active = true
		f.ignore[mbim.CIDConnect] = true
	})
	require.ErrorIs(c.Disconnect(context.Background()), ErrNotDeactivated)
}

func TestClient_Queries(t *testing.T) {
	require := require.New(t)

	c, _, _, _ := newTestClient(t)

	caps, err := c.DeviceCaps(context.Background())
	require.NoError(err)
	require.Equal(uint32(8), caps.MaxSessions)
	require.Equal("359072060000000", caps.DeviceID)

	ready, err := c.SubscriberReady(context.Background())
	require.NoError(err)
	require.Equal(mbim.SubscriberInitialized, ready.ReadyState)

	radio, err := c.RadioState(context.Background())
	require.NoError(err)
	require.Equal(mbim.RadioOn, radio.HwRadioState)
}

func TestClient_FunctionError(t *testing.T) {
	ch, _ := newTestChannel(t, func(req *mbim.Message) []*mbim.Message {
		return []*mbim.Message{mbim.NewFunctionError(req.TransactionID, mbim.ErrorNotOpened)}
	})

	_, err := New(ch).DeviceCaps(context.Background())
	require.ErrorIs(t, err, mbim.ErrFunctionError)
}

func TestClient_UnexpectedResponse(t *testing.T) {
	ch, _ := newTestChannel(t, func(req *mbim.Message) []*mbim.Message {
		id := mbim.Identifiers{ServiceID: mbim.BasicConnectService, CID: mbim.CIDSignalState}
		return []*mbim.Message{mbim.NewCommandDone(req.TransactionID, id, mbim.StatusSuccess, nil)}
	})

	_, err := New(ch).RadioState(context.Background())
	require.ErrorIs(t, err, mbim.ErrUnexpectedMessage)
}

func TestClient_ClosedChannel(t *testing.T) {
	c, _, ch, _ := newTestClient(t)
	require.NoError(t, ch.Close())

	err := c.Register(context.Background())
	require.ErrorIs(t, err, channel.ErrChannelClosed)
}

func TestClient_DisableMachine(t *testing.T) {
	require := require.New(t)

	c, fn, _, dev := newTestClient(t)
	m := modem.New(modem.StateConnected, nil)

	res, err := modem.NewDisableMachine(m, c).Start(context.Background())
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(res.Wait(ctx))

	require.Equal(modem.StateDisabled, m.State())
	require.Equal([]uint32{mbim.CIDConnect, mbim.CIDPacketService, mbim.CIDRadioState}, requestCIDs(dev))

	fn.setState(func(f *fakeFunction) {
		require.False(f.active)
		require.False(f.attached)
		require.Equal(mbim.RadioOff, f.swRadio)
	})
}

func TestClient_DisableMachine_DisconnectFails(t *testing.T) {
	require := require.New(t)

	c, fn, _, _ := newTestClient(t)
	fn.setState(func(f *fakeFunction) { f.status[mbim.CIDConnect] = mbim.StatusFailure })
	m := modem.New(modem.StateConnected, nil)

	res, err := modem.NewDisableMachine(m, c).Start(context.Background())
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = res.Wait(ctx)

	var statusErr *mbim.StatusError
	require.ErrorAs(err, &statusErr)
	require.False(errors.Is(err, context.DeadlineExceeded))
	require.Equal(modem.StateConnected, m.State())
}
