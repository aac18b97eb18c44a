package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbim/usbdev"
)

func TestDeviceContext(t *testing.T) {
	require := require.New(t)

	desc := testDescriptors(usbdev.NetworkCapMaxDatagramSize, usbdev.FunctionNCMMBIM)
	devCtx := NewDeviceContext(desc, Overrides{})

	require.Equal(desc, devCtx.Descriptors())
	require.Equal(uint32(4096), devCtx.MaxControlTransfer())

	_, ok := devCtx.Negotiated()
	require.False(ok)

	devCtx.setNegotiated(Negotiated{MaxControlTransfer: 1024, MaxInDataTransferSize: 8192})
	n, ok := devCtx.Negotiated()
	require.True(ok)
	require.Equal(uint32(8192), n.MaxInDataTransferSize)
	require.Equal(uint32(1024), devCtx.MaxControlTransfer())

	devCtx.clearNegotiated()
	_, ok = devCtx.Negotiated()
	require.False(ok)
	require.Equal(uint32(4096), devCtx.MaxControlTransfer())
}

func TestSequenceError(t *testing.T) {
	require := require.New(t)

	err := &SequenceError{Ref: RefSetNtbInputSize, Step: StepSetNtbInputSize, Err: errInjected}
	require.Equal("sequence: SetNtbInputSize failed [ncm1.0:6.2.7]: injected failure", err.Error())
	require.ErrorIs(err, errInjected)
}
