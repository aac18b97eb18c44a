package mbim

import (
	"fmt"

	"github.com/google/uuid"
)

// MessageType is the MBIM MessageType header field.
type MessageType uint32

// MBIM message types. Function-to-host messages have the most significant bit set.
const (
	OpenMsgType           MessageType = 0x00000001
	CloseMsgType          MessageType = 0x00000002
	CommandMsgType        MessageType = 0x00000003
	HostErrorMsgType      MessageType = 0x00000004
	OpenDoneMsgType       MessageType = 0x80000001
	CloseDoneMsgType      MessageType = 0x80000002
	CommandDoneMsgType    MessageType = 0x80000003
	FunctionErrorMsgType  MessageType = 0x80000004
	IndicateStatusMsgType MessageType = 0x80000007
)

var msgTypeNames = map[MessageType]string{
	OpenMsgType:           "open",
	CloseMsgType:          "close",
	CommandMsgType:        "command",
	HostErrorMsgType:      "host.error",
	OpenDoneMsgType:       "open.done",
	CloseDoneMsgType:      "close.done",
	CommandDoneMsgType:    "command.done",
	FunctionErrorMsgType:  "function.error",
	IndicateStatusMsgType: "indicate.status",
}

func (t MessageType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("undefined(0x%08x)", uint32(t))
}

// IsValid reports whether t is a message type defined by MBIM 1.0.
func (t MessageType) IsValid() bool {
	_, ok := msgTypeNames[t]
	return ok
}

// IsResponse reports whether the message travels from the function to the host.
func (t MessageType) IsResponse() bool {
	return t&0x80000000 != 0
}

// IsFragmentable reports whether messages of this type carry a fragment header.
func (t MessageType) IsFragmentable() bool {
	return t == CommandMsgType || t == CommandDoneMsgType || t == IndicateStatusMsgType
}

// CommandType selects between a query and a set of a command.
type CommandType uint32

const (
	CommandTypeQuery CommandType = 0
	CommandTypeSet   CommandType = 1
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTypeQuery:
		return "query"
	case CommandTypeSet:
		return "set"
	default:
		return fmt.Sprintf("undefined(%d)", uint32(ct))
	}
}

// Status is the MBIM status code carried by -done messages.
type Status uint32

// Status codes of MBIM 1.0 table 9-3.
const (
	StatusSuccess                Status = 0
	StatusBusy                   Status = 1
	StatusFailure                Status = 2
	StatusSimNotInserted         Status = 3
	StatusBadSim                 Status = 4
	StatusPinRequired            Status = 5
	StatusPinDisabled            Status = 6
	StatusNotRegistered          Status = 7
	StatusProvidersNotFound      Status = 8
	StatusNoDeviceSupport        Status = 9
	StatusProviderNotVisible     Status = 10
	StatusDataClassNotAvailable  Status = 11
	StatusPacketServiceDetached  Status = 12
	StatusMaxActivatedContexts   Status = 13
	StatusNotInitialized         Status = 14
	StatusVoiceCallInProgress    Status = 15
	StatusContextNotActivated    Status = 16
	StatusServiceNotActivated    Status = 17
	StatusInvalidAccessString    Status = 18
	StatusInvalidUserNamePwd     Status = 19
	StatusRadioPowerOff          Status = 20
	StatusInvalidParameters      Status = 21
	StatusReadFailure            Status = 22
	StatusWriteFailure           Status = 23
	StatusNoPhonebook            Status = 25
	StatusParameterTooLong       Status = 26
	StatusStkBusy                Status = 27
	StatusOperationNotAllowed    Status = 28
	StatusMemoryFailure          Status = 29
	StatusInvalidMemoryIndex     Status = 30
	StatusMemoryFull             Status = 31
	StatusFilterNotSupported     Status = 32
	StatusDssInstanceLimit       Status = 33
	StatusInvalidDeviceServiceOp Status = 34
	StatusAuthIncorrectAutn      Status = 35
	StatusAuthSyncFailure        Status = 36
	StatusAuthAmfNotSet          Status = 37
)

var statusNames = map[Status]string{
	StatusSuccess:                "SUCCESS",
	StatusBusy:                   "BUSY",
	StatusFailure:                "FAILURE",
	StatusSimNotInserted:         "SIM_NOT_INSERTED",
	StatusBadSim:                 "BAD_SIM",
	StatusPinRequired:            "PIN_REQUIRED",
	StatusPinDisabled:            "PIN_DISABLED",
	StatusNotRegistered:          "NOT_REGISTERED",
	StatusProvidersNotFound:      "PROVIDERS_NOT_FOUND",
	StatusNoDeviceSupport:        "NO_DEVICE_SUPPORT",
	StatusProviderNotVisible:     "PROVIDER_NOT_VISIBLE",
	StatusDataClassNotAvailable:  "DATA_CLASS_NOT_AVAILABLE",
	StatusPacketServiceDetached:  "PACKET_SERVICE_DETACHED",
	StatusMaxActivatedContexts:   "MAX_ACTIVATED_CONTEXTS",
	StatusNotInitialized:         "NOT_INITIALIZED",
	StatusVoiceCallInProgress:    "VOICE_CALL_IN_PROGRESS",
	StatusContextNotActivated:    "CONTEXT_NOT_ACTIVATED",
	StatusServiceNotActivated:    "SERVICE_NOT_ACTIVATED",
	StatusInvalidAccessString:    "INVALID_ACCESS_STRING",
	StatusInvalidUserNamePwd:     "INVALID_USER_NAME_PWD",
	StatusRadioPowerOff:          "RADIO_POWER_OFF",
	StatusInvalidParameters:      "INVALID_PARAMETERS",
	StatusReadFailure:            "READ_FAILURE",
	StatusWriteFailure:           "WRITE_FAILURE",
	StatusNoPhonebook:            "NO_PHONEBOOK",
	StatusParameterTooLong:       "PARAMETER_TOO_LONG",
	StatusStkBusy:                "STK_BUSY",
	StatusOperationNotAllowed:    "OPERATION_NOT_ALLOWED",
	StatusMemoryFailure:          "MEMORY_FAILURE",
	StatusInvalidMemoryIndex:     "INVALID_MEMORY_INDEX",
	StatusMemoryFull:             "MEMORY_FULL",
	StatusFilterNotSupported:     "FILTER_NOT_SUPPORTED",
	StatusDssInstanceLimit:       "DSS_INSTANCE_LIMIT",
	StatusInvalidDeviceServiceOp: "INVALID_DEVICE_SERVICE_OPERATION",
	StatusAuthIncorrectAutn:      "AUTH_INCORRECT_AUTN",
	StatusAuthSyncFailure:        "AUTH_SYNC_FAILURE",
	StatusAuthAmfNotSet:          "AUTH_AMF_NOT_SET",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("0x%08x", uint32(s))
}

// Err returns nil for StatusSuccess and a *StatusError otherwise.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}

	return &StatusError{Status: s}
}

// ErrorStatus is the error code carried by HOST_ERROR and FUNCTION_ERROR messages.
type ErrorStatus uint32

const (
	ErrorTimeoutFragment       ErrorStatus = 1
	ErrorFragmentOutOfSequence ErrorStatus = 2
	ErrorLengthMismatch        ErrorStatus = 3
	ErrorDuplicatedTID         ErrorStatus = 4
	ErrorNotOpened             ErrorStatus = 5
	ErrorUnknown               ErrorStatus = 6
	ErrorCancel                ErrorStatus = 7
	ErrorMaxTransfer           ErrorStatus = 8
)

func (e ErrorStatus) String() string {
	switch e {
	case ErrorTimeoutFragment:
		return "TIMEOUT_FRAGMENT"
	case ErrorFragmentOutOfSequence:
		return "FRAGMENT_OUT_OF_SEQUENCE"
	case ErrorLengthMismatch:
		return "LENGTH_MISMATCH"
	case ErrorDuplicatedTID:
		return "DUPLICATED_TID"
	case ErrorNotOpened:
		return "NOT_OPENED"
	case ErrorUnknown:
		return "UNKNOWN"
	case ErrorCancel:
		return "CANCEL"
	case ErrorMaxTransfer:
		return "MAX_TRANSFER"
	default:
		return fmt.Sprintf("0x%08x", uint32(e))
	}
}

// Device service ids of the services defined by MBIM 1.0.
var (
	BasicConnectService = uuid.MustParse("a289cc33-bcbb-8b4f-b6b0-133ec2aac6df")
	SMSService          = uuid.MustParse("533fbeeb-14fe-4467-9f90-33a223e56c3f")
	USSDService         = uuid.MustParse("e550a0c8-5e82-479e-82f7-10abf4c3351f")
	PhonebookService    = uuid.MustParse("4bf38476-1e6a-41db-b1d8-bed289c25bdb")
	STKService          = uuid.MustParse("d8f20131-fcb5-4e17-8602-d6ed3816164c")
	AuthService         = uuid.MustParse("1d2b5ff7-0aa1-48b2-aa52-50f15767174e")
	DSSService          = uuid.MustParse("c08a26dd-7718-4382-8482-6e0d583c4d0e")
)

var serviceNames = map[uuid.UUID]string{
	BasicConnectService: "basic-connect",
	SMSService:          "sms",
	USSDService:         "ussd",
	PhonebookService:    "phonebook",
	STKService:          "stk",
	AuthService:         "auth",
	DSSService:          "dss",
}

// ServiceName returns a short name for a well-known device service id, or its string form.
func ServiceName(id uuid.UUID) string {
	if name, ok := serviceNames[id]; ok {
		return name
	}

	return id.String()
}

// Identifiers is the (device service id, command id) pair that selects a command.
type Identifiers struct {
	ServiceID uuid.UUID
	CID       uint32
}

func (id Identifiers) String() string {
	return fmt.Sprintf("%s/%d", ServiceName(id.ServiceID), id.CID)
}
