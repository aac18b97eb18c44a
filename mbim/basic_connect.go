package mbim

import (
	"fmt"

	"github.com/google/uuid"
)

// Basic Connect command ids.
const (
	CIDDeviceCaps            uint32 = 1
	CIDSubscriberReadyStatus uint32 = 2
	CIDRadioState            uint32 = 3
	CIDPin                   uint32 = 4
	CIDPinList               uint32 = 5
	CIDHomeProvider          uint32 = 6
	CIDPreferredProviders    uint32 = 7
	CIDVisibleProviders      uint32 = 8
	CIDRegisterState         uint32 = 9
	CIDPacketService         uint32 = 10
	CIDSignalState           uint32 = 11
	CIDConnect               uint32 = 12
	CIDProvisionedContexts   uint32 = 13
	CIDServiceActivation     uint32 = 14
	CIDIPConfiguration       uint32 = 15
	CIDDeviceServices        uint32 = 16
)

// ContextTypeInternet is the context type of a general internet connection.
var ContextTypeInternet = uuid.MustParse("7e5e2a7e-4e6f-7272-736b-656e7e5e2a7e")

func basicConnect(cid uint32) Identifiers {
	return Identifiers{ServiceID: BasicConnectService, CID: cid}
}

func init() {
	RegisterPayload(basicConnect(CIDDeviceCaps), func() Payload { return &DeviceCapsInfo{} })
	RegisterPayload(basicConnect(CIDSubscriberReadyStatus), func() Payload { return &SubscriberReadyInfo{} })
	RegisterPayload(basicConnect(CIDRadioState), func() Payload { return &RadioStateInfo{} })
	RegisterPayload(basicConnect(CIDRegisterState), func() Payload { return &RegistrationStateInfo{} })
	RegisterPayload(basicConnect(CIDPacketService), func() Payload { return &PacketServiceInfo{} })
	RegisterPayload(basicConnect(CIDConnect), func() Payload { return &ConnectInfo{} })
}

// RadioState is the hardware or software radio switch state.
type RadioState uint32

const (
	RadioOff RadioState = 0
	RadioOn  RadioState = 1
)

func (s RadioState) String() string {
	if s == RadioOn {
		return "on"
	}

	return "off"
}

// RegisterAction selects automatic or manual network selection.
type RegisterAction uint32

const (
	RegisterActionAutomatic RegisterAction = 0
	RegisterActionManual    RegisterAction = 1
)

// RegisterState is the network registration state reported by the function.
type RegisterState uint32

const (
	RegisterStateUnknown      RegisterState = 0
	RegisterStateDeregistered RegisterState = 1
	RegisterStateSearching    RegisterState = 2
	RegisterStateHome         RegisterState = 3
	RegisterStateRoaming      RegisterState = 4
	RegisterStatePartner      RegisterState = 5
	RegisterStateDenied       RegisterState = 6
)

// IsRegistered reports whether the function is attached to a network.
func (s RegisterState) IsRegistered() bool {
	return s == RegisterStateHome || s == RegisterStateRoaming || s == RegisterStatePartner
}

// ActivationCommand activates or deactivates a context.
type ActivationCommand uint32

const (
	ActivationCommandDeactivate ActivationCommand = 0
	ActivationCommandActivate   ActivationCommand = 1
)

// ActivationState is the state of a context.
type ActivationState uint32

const (
	ActivationStateUnknown      ActivationState = 0
	ActivationStateActivated    ActivationState = 1
	ActivationStateActivating   ActivationState = 2
	ActivationStateDeactivated  ActivationState = 3
	ActivationStateDeactivating ActivationState = 4
)

// IPType is the IP version requested for or assigned to a context.
type IPType uint32

const (
	IPTypeDefault     IPType = 0
	IPTypeIPv4        IPType = 1
	IPTypeIPv6        IPType = 2
	IPTypeIPv4v6      IPType = 3
	IPTypeIPv4AndIPv6 IPType = 4
)

// AuthProtocol is the authentication protocol of a context.
type AuthProtocol uint32

const (
	AuthProtocolNone     AuthProtocol = 0
	AuthProtocolPAP      AuthProtocol = 1
	AuthProtocolCHAP     AuthProtocol = 2
	AuthProtocolMSCHAPv2 AuthProtocol = 3
)

// SubscriberReadyState is the readiness of the subscriber identity module.
type SubscriberReadyState uint32

const (
	SubscriberNotInitialized SubscriberReadyState = 0
	SubscriberInitialized    SubscriberReadyState = 1
	SubscriberSimNotInserted SubscriberReadyState = 2
	SubscriberBadSim         SubscriberReadyState = 3
	SubscriberFailure        SubscriberReadyState = 4
	SubscriberNotActivated   SubscriberReadyState = 5
	SubscriberDeviceLocked   SubscriberReadyState = 6
)

// DataClass bits.
const (
	DataClassGPRS    uint32 = 0x0001
	DataClassEDGE    uint32 = 0x0002
	DataClassUMTS    uint32 = 0x0004
	DataClassHSDPA   uint32 = 0x0008
	DataClassHSUPA   uint32 = 0x0010
	DataClassLTE     uint32 = 0x0020
	DataClass1xRTT   uint32 = 0x10000
	DataClass1xEVDO  uint32 = 0x20000
	DataClassCustom  uint32 = 0x80000000
	DataClassDefault uint32 = 0
)

// query is embedded by commands whose query carries no information buffer.
type query struct{}

func (query) CommandType() CommandType { return CommandTypeQuery }

func (query) MarshalInformationBuffer() ([]byte, error) { return nil, nil }

type set struct{}

func (set) CommandType() CommandType { return CommandTypeSet }

// DeviceCapsQuery queries MBIM_CID_DEVICE_CAPS.
type DeviceCapsQuery struct{ query }

func (DeviceCapsQuery) Identifiers() Identifiers { return basicConnect(CIDDeviceCaps) }

// DeviceCapsInfo is the MBIM_DEVICE_CAPS_INFO response.
type DeviceCapsInfo struct {
	DeviceType      uint32
	CellularClass   uint32
	VoiceClass      uint32
	SimClass        uint32
	DataClass       uint32
	SmsCaps         uint32
	ControlCaps     uint32
	MaxSessions     uint32
	CustomDataClass string
	DeviceID        string
	FirmwareInfo    string
	HardwareInfo    string
}

func (*DeviceCapsInfo) Identifiers() Identifiers { return basicConnect(CIDDeviceCaps) }

func (p *DeviceCapsInfo) MarshalInformationBuffer() ([]byte, error) {
	return NewInfoBufferBuilder().
		Uint32(p.DeviceType).
		Uint32(p.CellularClass).
		Uint32(p.VoiceClass).
		Uint32(p.SimClass).
		Uint32(p.DataClass).
		Uint32(p.SmsCaps).
		Uint32(p.ControlCaps).
		Uint32(p.MaxSessions).
		String(p.CustomDataClass).
		String(p.DeviceID).
		String(p.FirmwareInfo).
		String(p.HardwareInfo).
		Build()
}

func (p *DeviceCapsInfo) UnmarshalInformationBuffer(buf []byte) error {
	r := NewInfoBufferReader(buf)
	p.DeviceType = r.Uint32()
	p.CellularClass = r.Uint32()
	p.VoiceClass = r.Uint32()
	p.SimClass = r.Uint32()
	p.DataClass = r.Uint32()
	p.SmsCaps = r.Uint32()
	p.ControlCaps = r.Uint32()
	p.MaxSessions = r.Uint32()
	p.CustomDataClass = r.String()
	p.DeviceID = r.String()
	p.FirmwareInfo = r.String()
	p.HardwareInfo = r.String()

	return r.Err()
}

// RadioStateQuery queries MBIM_CID_RADIO_STATE.
type RadioStateQuery struct{ query }

func (RadioStateQuery) Identifiers() Identifiers { return basicConnect(CIDRadioState) }

// RadioStateSet switches the software radio state.
type RadioStateSet struct {
	set
	State RadioState
}

func (*RadioStateSet) Identifiers() Identifiers { return basicConnect(CIDRadioState) }

func (p *RadioStateSet) MarshalInformationBuffer() ([]byte, error) {
	return NewInfoBufferBuilder().Uint32(uint32(p.State)).Build()
}

// RadioStateInfo is the MBIM_RADIO_STATE_INFO response.
type RadioStateInfo struct {
	HwRadioState RadioState
	SwRadioState RadioState
}

func (*RadioStateInfo) Identifiers() Identifiers { return basicConnect(CIDRadioState) }

func (p *RadioStateInfo) MarshalInformationBuffer() ([]byte, error) {
	return NewInfoBufferBuilder().
		Uint32(uint32(p.HwRadioState)).
		Uint32(uint32(p.SwRadioState)).
		Build()
}

func (p *RadioStateInfo) UnmarshalInformationBuffer(buf []byte) error {
	r := NewInfoBufferReader(buf)
	p.HwRadioState = RadioState(r.Uint32())
	p.SwRadioState = RadioState(r.Uint32())

	return r.Err()
}

// RegisterStateQuery queries MBIM_CID_REGISTER_STATE.
type RegisterStateQuery struct{ query }

func (RegisterStateQuery) Identifiers() Identifiers { return basicConnect(CIDRegisterState) }

// RegisterStateSet requests network registration.
// An empty ProviderID with automatic action lets the function pick the network.
type RegisterStateSet struct {
	set
	ProviderID string
	Action     RegisterAction
	DataClass  uint32
}

func (*RegisterStateSet) Identifiers() Identifiers { return basicConnect(CIDRegisterState) }

func (p *RegisterStateSet) MarshalInformationBuffer() ([]byte, error) {
	return NewInfoBufferBuilder().
		String(p.ProviderID).
		Uint32(uint32(p.Action)).
		Uint32(p.DataClass).
		Build()
}

// RegistrationStateInfo is the MBIM_REGISTRATION_STATE_INFO response.
type RegistrationStateInfo struct {
	NwError              uint32
	RegisterState        RegisterState
	RegisterMode         uint32
	AvailableDataClasses uint32
	CurrentCellularClass uint32
	ProviderID           string
	ProviderName         string
	RoamingText          string
	RegistrationFlag     uint32
}

func (*RegistrationStateInfo) Identifiers() Identifiers { return basicConnect(CIDRegisterState) }

func (p *RegistrationStateInfo) MarshalInformationBuffer() ([]byte, error) {
	return NewInfoBufferBuilder().
		Uint32(p.NwError).
		Uint32(uint32(p.RegisterState)).
		Uint32(p.RegisterMode).
		Uint32(p.AvailableDataClasses).
		Uint32(p.CurrentCellularClass).
		String(p.ProviderID).
		String(p.ProviderName).
		String(p.RoamingText).
		Uint32(p.RegistrationFlag).
		Build()
}

func (p *RegistrationStateInfo) UnmarshalInformationBuffer(buf []byte) error {
	r := NewInfoBufferReader(buf)
	p.NwError = r.Uint32()
	p.RegisterState = RegisterState(r.Uint32())
	p.RegisterMode = r.Uint32()
	p.AvailableDataClasses = r.Uint32()
	p.CurrentCellularClass = r.Uint32()
	p.ProviderID = r.String()
	p.ProviderName = r.String()
	p.RoamingText = r.String()
	p.RegistrationFlag = r.Uint32()

	return r.Err()
}

// PacketServiceAction is the action of a packet service set request.
type PacketServiceAction uint32

const (
	PacketServiceAttach PacketServiceAction = 0
	PacketServiceDetach PacketServiceAction = 1
)

// PacketServiceState is the packet service attach state.
type PacketServiceState uint32

const (
	PacketServiceStateUnknown   PacketServiceState = 0
	PacketServiceStateAttaching PacketServiceState = 1
	PacketServiceStateAttached  PacketServiceState = 2
	PacketServiceStateDetaching PacketServiceState = 3
	PacketServiceStateDetached  PacketServiceState = 4
)

// PacketServiceQuery queries MBIM_CID_PACKET_SERVICE.
type PacketServiceQuery struct{ query }

func (PacketServiceQuery) Identifiers() Identifiers { return basicConnect(CIDPacketService) }

// PacketServiceSet attaches to or detaches from the packet service.
type PacketServiceSet struct {
	set
	Action PacketServiceAction
}

func (*PacketServiceSet) Identifiers() Identifiers { return basicConnect(CIDPacketService) }

func (p *PacketServiceSet) MarshalInformationBuffer() ([]byte, error) {
	return NewInfoBufferBuilder().Uint32(uint32(p.Action)).Build()
}

// PacketServiceInfo is the MBIM_PACKET_SERVICE_INFO response.
type PacketServiceInfo struct {
	NwError                   uint32
	PacketServiceState        PacketServiceState
	HighestAvailableDataClass uint32
	UplinkSpeed               uint64
	DownlinkSpeed             uint64
}

func (*PacketServiceInfo) Identifiers() Identifiers { return basicConnect(CIDPacketService) }

func (p *PacketServiceInfo) MarshalInformationBuffer() ([]byte, error) {
	return NewInfoBufferBuilder().
		Uint32(p.NwError).
		Uint32(uint32(p.PacketServiceState)).
		Uint32(p.HighestAvailableDataClass).
		Uint64(p.UplinkSpeed).
		Uint64(p.DownlinkSpeed).
		Build()
}

func (p *PacketServiceInfo) UnmarshalInformationBuffer(buf []byte) error {
	r := NewInfoBufferReader(buf)
	p.NwError = r.Uint32()
	p.PacketServiceState = PacketServiceState(r.Uint32())
	p.HighestAvailableDataClass = r.Uint32()
	p.UplinkSpeed = r.Uint64()
	p.DownlinkSpeed = r.Uint64()

	return r.Err()
}

// ConnectQuery queries the activation state of one session.
type ConnectQuery struct {
	query
	SessionID uint32
}

func (*ConnectQuery) Identifiers() Identifiers { return basicConnect(CIDConnect) }

func (p *ConnectQuery) MarshalInformationBuffer() ([]byte, error) {
	info := ConnectInfo{SessionID: p.SessionID}
	return info.MarshalInformationBuffer()
}

// ConnectSet activates or deactivates a context.
type ConnectSet struct {
	set
	SessionID         uint32
	ActivationCommand ActivationCommand
	AccessString      string
	UserName          string
	Password          string
	Compression       uint32
	AuthProtocol      AuthProtocol
	IPType            IPType
	ContextType       uuid.UUID
}

func (*ConnectSet) Identifiers() Identifiers { return basicConnect(CIDConnect) }

func (p *ConnectSet) MarshalInformationBuffer() ([]byte, error) {
	if p.ContextType == uuid.Nil {
		return nil, fmt.Errorf("%w: connect set without context type", ErrEncoding)
	}

	return NewInfoBufferBuilder().
		Uint32(p.SessionID).
		Uint32(uint32(p.ActivationCommand)).
		String(p.AccessString).
		String(p.UserName).
		String(p.Password).
		Uint32(p.Compression).
		Uint32(uint32(p.AuthProtocol)).
		Uint32(uint32(p.IPType)).
		UUID(p.ContextType).
		Build()
}

// ConnectInfo is the MBIM_CONNECT_INFO response.
type ConnectInfo struct {
	SessionID       uint32
	ActivationState ActivationState
	VoiceCallState  uint32
	IPType          IPType
	ContextType     uuid.UUID
	NwError         uint32
}

func (*ConnectInfo) Identifiers() Identifiers { return basicConnect(CIDConnect) }

func (p *ConnectInfo) MarshalInformationBuffer() ([]byte, error) {
	return NewInfoBufferBuilder().
		Uint32(p.SessionID).
		Uint32(uint32(p.ActivationState)).
		Uint32(p.VoiceCallState).
		Uint32(uint32(p.IPType)).
		UUID(p.ContextType).
		Uint32(p.NwError).
		Build()
}

func (p *ConnectInfo) UnmarshalInformationBuffer(buf []byte) error {
	r := NewInfoBufferReader(buf)
	p.SessionID = r.Uint32()
	p.ActivationState = ActivationState(r.Uint32())
	p.VoiceCallState = r.Uint32()
	p.IPType = IPType(r.Uint32())
	p.ContextType = r.UUID()
	p.NwError = r.Uint32()

	return r.Err()
}

// SubscriberReadyStatusQuery queries MBIM_CID_SUBSCRIBER_READY_STATUS.
type SubscriberReadyStatusQuery struct{ query }

func (SubscriberReadyStatusQuery) Identifiers() Identifiers {
	return basicConnect(CIDSubscriberReadyStatus)
}

// SubscriberReadyInfo is the MBIM_SUBSCRIBER_READY_INFO response.
type SubscriberReadyInfo struct {
	ReadyState       SubscriberReadyState
	SubscriberID     string
	SimICCID         string
	ReadyInfo        uint32
	TelephoneNumbers []string
}

func (*SubscriberReadyInfo) Identifiers() Identifiers { return basicConnect(CIDSubscriberReadyStatus) }

func (p *SubscriberReadyInfo) MarshalInformationBuffer() ([]byte, error) {
	b := NewInfoBufferBuilder().
		Uint32(uint32(p.ReadyState)).
		String(p.SubscriberID).
		String(p.SimICCID).
		Uint32(p.ReadyInfo).
		Int(len(p.TelephoneNumbers))
	for _, number := range p.TelephoneNumbers {
		b.String(number)
	}

	return b.Build()
}

func (p *SubscriberReadyInfo) UnmarshalInformationBuffer(buf []byte) error {
	r := NewInfoBufferReader(buf)
	p.ReadyState = SubscriberReadyState(r.Uint32())
	p.SubscriberID = r.String()
	p.SimICCID = r.String()
	p.ReadyInfo = r.Uint32()

	count := r.Uint32()
	// each element needs an 8-byte offset/size pair
	if uint64(count)*8 > uint64(r.Remaining()) {
		return fmt.Errorf("%w: %d telephone numbers do not fit in %d bytes",
			ErrInvalidInformationBuffer, count, r.Remaining())
	}

	p.TelephoneNumbers = nil
	for range count {
		p.TelephoneNumbers = append(p.TelephoneNumbers, r.String())
	}

	return r.Err()
}
