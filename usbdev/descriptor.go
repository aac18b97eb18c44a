package usbdev

import (
	"encoding/binary"
	"fmt"
)

// NtbFormat is the NTB format selected with SET_NTB_FORMAT.
type NtbFormat uint16

const (
	NtbFormat16 NtbFormat = 0
	NtbFormat32 NtbFormat = 1
)

func (f NtbFormat) String() string {
	if f == NtbFormat32 {
		return "NTB-32"
	}

	return "NTB-16"
}

// Bits of bmNtbFormatsSupported.
const (
	NtbFormats16Supported uint16 = 1 << 0
	NtbFormats32Supported uint16 = 1 << 1
)

// Bits of bmNetworkCapabilities in the NCM and MBIM functional descriptors.
const (
	NetworkCapSetEthernetPacketFilter uint8 = 1 << 0
	NetworkCapNetAddress              uint8 = 1 << 1
	NetworkCapEncapsulatedCommand     uint8 = 1 << 2
	NetworkCapMaxDatagramSize         uint8 = 1 << 3
	NetworkCapCRCMode                 uint8 = 1 << 4
	NetworkCapNtbInputSize8Byte       uint8 = 1 << 5
)

// FunctionType tells whether the data interface implements MBIM only or NCM and MBIM.
type FunctionType int

const (
	// FunctionMBIMOnly is a function whose data interface has MBIM as alternate setting 1.
	FunctionMBIMOnly FunctionType = iota
	// FunctionNCMMBIM is a function whose data interface has NCM at alternate
	// setting 1 and MBIM at alternate setting 2.
	FunctionNCMMBIM
)

func (t FunctionType) String() string {
	if t == FunctionNCMMBIM {
		return "ncm-mbim"
	}

	return "mbim-only"
}

// DataAltSetting returns the alternate setting of the data interface that
// enables MBIM data transfers.
func (t FunctionType) DataAltSetting() uint8 {
	if t == FunctionNCMMBIM {
		return 2
	}

	return 1
}

// Descriptors holds the descriptor fields discovered during enumeration that
// the bring-up sequence needs.
type Descriptors struct {
	// CommInterfaceNumber is bInterfaceNumber of the communication interface.
	CommInterfaceNumber uint8
	// DataInterfaceNumber is bInterfaceNumber of the data interface.
	DataInterfaceNumber uint8
	// InterruptEndpoint is bEndpointAddress of the notification endpoint.
	InterruptEndpoint uint8
	// BulkInEndpoint and BulkOutEndpoint are bEndpointAddress of the data endpoints.
	BulkInEndpoint  uint8
	BulkOutEndpoint uint8

	// NetworkCapabilities is bmNetworkCapabilities of the functional descriptor.
	NetworkCapabilities uint8
	// MaxControlMessage is wMaxControlMessage of the MBIM functional descriptor.
	MaxControlMessage uint16
	// MaxSegmentSize is wMaxSegmentSize of the MBIM functional descriptor.
	MaxSegmentSize uint16

	Function FunctionType
}

// SupportsMaxDatagramSize reports whether SET_MAX_DATAGRAM_SIZE may be issued.
func (d *Descriptors) SupportsMaxDatagramSize() bool {
	return d.NetworkCapabilities&NetworkCapMaxDatagramSize != 0
}

// NtbParametersSize is the size of the NTB parameter structure.
const NtbParametersSize = 28

// NtbParameters is the structure returned by GET_NTB_PARAMETERS.
type NtbParameters struct {
	Length                 uint16
	NtbFormatsSupported    uint16
	NtbInMaxSize           uint32
	NdpInDivisor           uint16
	NdpInPayloadRemainder  uint16
	NdpInAlignment         uint16
	NtbOutMaxSize          uint32
	NdpOutDivisor          uint16
	NdpOutPayloadRemainder uint16
	NdpOutAlignment        uint16
	NtbOutMaxDatagrams     uint16
}

// Supports32 reports whether the function supports 32-bit NTBs.
func (p *NtbParameters) Supports32() bool {
	return p.NtbFormatsSupported&NtbFormats32Supported != 0
}

// ParseNtbParameters decodes the little-endian NTB parameter structure.
func ParseNtbParameters(data []byte) (*NtbParameters, error) {
	if len(data) < NtbParametersSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrInvalidNtbParameters, NtbParametersSize, len(data))
	}

	p := &NtbParameters{
		Length:                 binary.LittleEndian.Uint16(data[0:]),
		NtbFormatsSupported:    binary.LittleEndian.Uint16(data[2:]),
		NtbInMaxSize:           binary.LittleEndian.Uint32(data[4:]),
		NdpInDivisor:           binary.LittleEndian.Uint16(data[8:]),
		NdpInPayloadRemainder:  binary.LittleEndian.Uint16(data[10:]),
		NdpInAlignment:         binary.LittleEndian.Uint16(data[12:]),
		NtbOutMaxSize:          binary.LittleEndian.Uint32(data[16:]),
		NdpOutDivisor:          binary.LittleEndian.Uint16(data[20:]),
		NdpOutPayloadRemainder: binary.LittleEndian.Uint16(data[22:]),
		NdpOutAlignment:        binary.LittleEndian.Uint16(data[24:]),
		NtbOutMaxDatagrams:     binary.LittleEndian.Uint16(data[26:]),
	}

	if p.Length != NtbParametersSize {
		return nil, fmt.Errorf("%w: wLength %d", ErrInvalidNtbParameters, p.Length)
	}

	if p.NtbFormatsSupported&NtbFormats16Supported == 0 {
		return nil, fmt.Errorf("%w: 16-bit NTB format not supported", ErrInvalidNtbParameters)
	}

	return p, nil
}

// MarshalBinary encodes the NTB parameter structure.
func (p *NtbParameters) MarshalBinary() ([]byte, error) {
	data := make([]byte, NtbParametersSize)
	binary.LittleEndian.PutUint16(data[0:], NtbParametersSize)
	binary.LittleEndian.PutUint16(data[2:], p.NtbFormatsSupported)
	binary.LittleEndian.PutUint32(data[4:], p.NtbInMaxSize)
	binary.LittleEndian.PutUint16(data[8:], p.NdpInDivisor)
	binary.LittleEndian.PutUint16(data[10:], p.NdpInPayloadRemainder)
	binary.LittleEndian.PutUint16(data[12:], p.NdpInAlignment)
	binary.LittleEndian.PutUint32(data[16:], p.NtbOutMaxSize)
	binary.LittleEndian.PutUint16(data[20:], p.NdpOutDivisor)
	binary.LittleEndian.PutUint16(data[22:], p.NdpOutPayloadRemainder)
	binary.LittleEndian.PutUint16(data[24:], p.NdpOutAlignment)
	binary.LittleEndian.PutUint16(data[26:], p.NtbOutMaxDatagrams)

	return data, nil
}
