// Package profile loads YAML device profiles.
//
// A profile describes one MBIM function: the descriptor fields found during
// enumeration, the overrides applied by the open sequence, the channel
// settings and the bearer used by connect.
//
//	name: em7455
//	descriptors:
//	  data_interface: 1
//	  network_capabilities: 0x08
//	  max_control_message: 4096
//	  max_segment_size: 1514
//	  function: ncm-mbim
//	overrides:
//	  max_control_transfer: 8192
//	  ntb_format: ntb-16
//	channel:
//	  timeout: 5s
//	connect:
//	  apn: internet
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-mbim/channel"
	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/modem"
	"github.com/arloliu/go-mbim/sequence"
	"github.com/arloliu/go-mbim/usbdev"
)

// Profile is a device profile.
type Profile struct {
	Name        string                  `yaml:"name"`
	Descriptors Descriptors             `yaml:"descriptors"`
	Overrides   Overrides               `yaml:"overrides"`
	Channel     Channel                 `yaml:"channel"`
	Connect     modem.ConnectProperties `yaml:"connect"`
}

// Descriptors are the descriptor fields of the function.
type Descriptors struct {
	CommInterface       uint8  `yaml:"comm_interface"`
	DataInterface       uint8  `yaml:"data_interface"`
	InterruptEndpoint   uint8  `yaml:"interrupt_endpoint"`
	BulkInEndpoint      uint8  `yaml:"bulk_in_endpoint"`
	BulkOutEndpoint     uint8  `yaml:"bulk_out_endpoint"`
	NetworkCapabilities uint8  `yaml:"network_capabilities"`
	MaxControlMessage   uint16 `yaml:"max_control_message"`
	MaxSegmentSize      uint16 `yaml:"max_segment_size"`
	// Function is "mbim-only" (default) or "ncm-mbim".
	Function string `yaml:"function"`
}

// Overrides replace negotiated values in the open sequence.
type Overrides struct {
	MaxControlTransfer uint32 `yaml:"max_control_transfer"`
	// NtbFormat is "ntb-16" or "ntb-32"; empty selects the best supported format.
	NtbFormat string `yaml:"ntb_format"`
}

// Channel holds the transaction channel settings. Zero values keep the channel defaults.
type Channel struct {
	Timeout             time.Duration `yaml:"timeout"`
	MaxControlTransfer  uint32        `yaml:"max_control_transfer"`
	IndicationQueueSize int           `yaml:"indication_queue_size"`
}

// LoadError describes a profile that could not be read, parsed or validated.
type LoadError struct {
	// File is the path of the profile, empty for Parse.
	File string
	// Field is the offending key path, e.g. "descriptors.function".
	Field string
	// Message describes the error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := "profile: "
	if e.File != "" {
		msg += e.File + ": "
	}

	if e.Field != "" {
		msg += e.Field + ": "
	}

	msg += e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Load reads and validates the profile at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	p, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}

		return nil, err
	}

	return p, nil
}

// Parse decodes and validates a profile. Unknown keys are rejected.
func Parse(data []byte) (*Profile, error) {
	var p Profile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Validate checks the value ranges of the profile.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return &LoadError{Field: "name", Message: "name is required"}
	}

	if _, err := parseFunction(p.Descriptors.Function); err != nil {
		return &LoadError{Field: "descriptors.function", Message: err.Error()}
	}

	if p.Descriptors.MaxControlMessage != 0 && uint32(p.Descriptors.MaxControlMessage) < mbim.MinMaxControlTransfer {
		return &LoadError{
			Field:   "descriptors.max_control_message",
			Message: fmt.Sprintf("%d is smaller than %d", p.Descriptors.MaxControlMessage, mbim.MinMaxControlTransfer),
		}
	}

	if p.Overrides.MaxControlTransfer != 0 && p.Overrides.MaxControlTransfer < mbim.MinMaxControlTransfer {
		return &LoadError{
			Field:   "overrides.max_control_transfer",
			Message: fmt.Sprintf("%d is smaller than %d", p.Overrides.MaxControlTransfer, mbim.MinMaxControlTransfer),
		}
	}

	if _, err := parseNtbFormat(p.Overrides.NtbFormat); err != nil {
		return &LoadError{Field: "overrides.ntb_format", Message: err.Error()}
	}

	if _, err := channel.NewConfig(p.ChannelOptions()...); err != nil {
		return &LoadError{Field: "channel", Message: "invalid channel settings", Cause: err}
	}

	return nil
}

// DeviceContext builds the device context used by the open sequence.
func (p *Profile) DeviceContext() (*sequence.DeviceContext, error) {
	fn, err := parseFunction(p.Descriptors.Function)
	if err != nil {
		return nil, &LoadError{Field: "descriptors.function", Message: err.Error()}
	}

	format, err := parseNtbFormat(p.Overrides.NtbFormat)
	if err != nil {
		return nil, &LoadError{Field: "overrides.ntb_format", Message: err.Error()}
	}

	desc := usbdev.Descriptors{
		CommInterfaceNumber: p.Descriptors.CommInterface,
		DataInterfaceNumber: p.Descriptors.DataInterface,
		InterruptEndpoint:   p.Descriptors.InterruptEndpoint,
		BulkInEndpoint:      p.Descriptors.BulkInEndpoint,
		BulkOutEndpoint:     p.Descriptors.BulkOutEndpoint,
		NetworkCapabilities: p.Descriptors.NetworkCapabilities,
		MaxControlMessage:   p.Descriptors.MaxControlMessage,
		MaxSegmentSize:      p.Descriptors.MaxSegmentSize,
		Function:            fn,
	}

	overrides := sequence.Overrides{
		MaxControlTransfer: p.Overrides.MaxControlTransfer,
		NtbFormat:          format,
	}

	return sequence.NewDeviceContext(desc, overrides), nil
}

// ChannelOptions returns the channel options for the non-zero channel settings.
func (p *Profile) ChannelOptions() []channel.ConfigOption {
	var opts []channel.ConfigOption
	if p.Channel.Timeout != 0 {
		opts = append(opts, channel.WithTimeout(p.Channel.Timeout))
	}

	if p.Channel.MaxControlTransfer != 0 {
		opts = append(opts, channel.WithMaxControlTransfer(p.Channel.MaxControlTransfer))
	}

	if p.Channel.IndicationQueueSize != 0 {
		opts = append(opts, channel.WithIndicationQueueSize(p.Channel.IndicationQueueSize))
	}

	return opts
}

// Marshal encodes the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}

	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func parseFunction(s string) (usbdev.FunctionType, error) {
	switch s {
	case "", usbdev.FunctionMBIMOnly.String():
		return usbdev.FunctionMBIMOnly, nil
	case usbdev.FunctionNCMMBIM.String():
		return usbdev.FunctionNCMMBIM, nil
	default:
		return 0, fmt.Errorf("unknown function %s", strconv.Quote(s))
	}
}

func parseNtbFormat(s string) (*usbdev.NtbFormat, error) {
	var format usbdev.NtbFormat

	switch s {
	case "":
		return nil, nil //nolint:nilnil
	case "ntb-16":
		format = usbdev.NtbFormat16
	case "ntb-32":
		format = usbdev.NtbFormat32
	default:
		return nil, fmt.Errorf("unknown NTB format %s", strconv.Quote(s))
	}

	return &format, nil
}
