package channel

import (
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/usbdev/usbdevtest"
)

var testIdentifiers = mbim.Identifiers{ServiceID: mbim.BasicConnectService, CID: mbim.CIDRadioState}

func newFakeClock() *fakeclock.FakeClock {
	return fakeclock.NewFakeClock(time.Unix(0, 0))
}

func newTestChannel(t *testing.T, dev *usbdevtest.Device, opts ...ConfigOption) *Channel {
	t.Helper()

	cfg, err := NewConfig(opts...)
	require.NoError(t, err)

	ch, err := New(dev, cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = ch.Close() })

	return ch
}

func encodeForTest(t *testing.T, msg *mbim.Message) []byte {
	t.Helper()

	data, err := mbim.Encode(msg)
	require.NoError(t, err)

	return data
}

func fragmentForTest(t *testing.T, msg *mbim.Message, maxCtrl uint32) [][]byte {
	t.Helper()

	packets, err := mbim.Fragment(msg, maxCtrl)
	require.NoError(t, err)

	return packets
}

func testBuffer(size int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i)
	}

	return buf
}
