package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbim/channel"
	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/usbdev"
	"github.com/arloliu/go-mbim/usbdev/usbdevtest"
)

var errInjected = errors.New("injected failure")

func testNtbParameters(formats uint16, inMaxSize uint32) *usbdev.NtbParameters {
	return &usbdev.NtbParameters{
		Length:                 usbdev.NtbParametersSize,
		NtbFormatsSupported:    formats,
		NtbInMaxSize:           inMaxSize,
		NdpInDivisor:           4,
		NdpInAlignment:         4,
		NtbOutMaxSize:          16384,
		NdpOutDivisor:          4,
		NdpOutPayloadRemainder: 0,
		NdpOutAlignment:        4,
		NtbOutMaxDatagrams:     16,
	}
}

func testDescriptors(networkCaps uint8, fn usbdev.FunctionType) usbdev.Descriptors {
	return usbdev.Descriptors{
		CommInterfaceNumber: 0,
		DataInterfaceNumber: 1,
		InterruptEndpoint:   0x81,
		BulkInEndpoint:      0x82,
		BulkOutEndpoint:     0x02,
		NetworkCapabilities: networkCaps,
		MaxControlMessage:   4096,
		MaxSegmentSize:      1514,
		Function:            fn,
	}
}

// newMockFunction returns a function control mock whose method failAt fails.
func newMockFunction(t *testing.T, params *usbdev.NtbParameters, failAt string) *usbdevtest.MockFunctionControl {
	t.Helper()

	data, err := params.MarshalBinary()
	require.NoError(t, err)

	result := func(method string) error {
		if method == failAt {
			return errInjected
		}

		return nil
	}

	fc := usbdevtest.NewMockFunctionControl()
	fc.On("ResetFunction", mock.Anything).Return(result("ResetFunction"))
	if failAt == "GetNtbParameters" {
		fc.On("GetNtbParameters", mock.Anything).Return(nil, errInjected)
	} else {
		fc.On("GetNtbParameters", mock.Anything).Return(data, nil)
	}
	fc.On("SetNtbFormat", mock.Anything, mock.Anything).Return(result("SetNtbFormat"))
	fc.On("SetNtbInputSize", mock.Anything, mock.Anything).Return(result("SetNtbInputSize"))
	fc.On("SetMaxDatagramSize", mock.Anything, mock.Anything).Return(result("SetMaxDatagramSize"))
	fc.On("SetInterface", mock.Anything, mock.Anything, mock.Anything).Return(result("SetInterface"))

	return fc
}

func newTestChannel(t *testing.T, handler usbdevtest.Handler) (*channel.Channel, *usbdevtest.Device) {
	t.Helper()

	dev := usbdevtest.NewDevice(handler)

	cfg, err := channel.NewConfig()
	require.NoError(t, err)

	ch, err := channel.New(dev, cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = ch.Close() })

	return ch, dev
}

// stubTransactor answers every request with respond, without a transport.
type stubTransactor struct {
	tid     uint32
	respond func(req *mbim.Message) *mbim.Message
	err     error
}

func (s *stubTransactor) NextTransactionID() uint32 {
	s.tid++
	return s.tid
}

func (s *stubTransactor) BidirectionalTransaction(_ context.Context, packets [][]byte) ([][]byte, error) {
	if s.err != nil {
		return nil, s.err
	}

	req, err := mbim.Decode(packets[0])
	if err != nil {
		return nil, err
	}

	data, err := mbim.Encode(s.respond(req))
	if err != nil {
		return nil, err
	}

	return [][]byte{data}, nil
}
