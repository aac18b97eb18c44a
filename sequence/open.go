package sequence

import (
	"context"
	"fmt"

	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/usbdev"
)

// Transactor carries MBIM control transactions. *channel.Channel implements it.
type Transactor interface {
	NextTransactionID() uint32
	BidirectionalTransaction(ctx context.Context, packets [][]byte) ([][]byte, error)
}

// Step names of the open sequence.
const (
	StepResetFunction      = "ResetFunction"
	StepGetNtbParameters   = "GetNtbParameters"
	StepSetNtbFormat       = "SetNtbFormat"
	StepSetNtbInputSize    = "SetNtbInputSize"
	StepSetMaxDatagramSize = "SetMaxDatagramSize"
	StepSetInterface       = "SetInterface"
	StepOpen               = "Open"
	StepClose              = "Close"
)

// OpenSequence brings an MBIM function up to an open MBIM session.
type OpenSequence struct {
	dev  *DeviceContext
	fc   usbdev.FunctionControl
	tr   Transactor
	opts options
}

// NewOpenSequence creates an open sequence for the function described by dev.
func NewOpenSequence(dev *DeviceContext, fc usbdev.FunctionControl, tr Transactor, opts ...Option) *OpenSequence {
	return &OpenSequence{
		dev:  dev,
		fc:   fc,
		tr:   tr,
		opts: newOptions(opts),
	}
}

// openRun carries the values one run passes from step to step.
type openRun struct {
	params *usbdev.NtbParameters
	format usbdev.NtbFormat
	open   *mbim.Message
	resp   *mbim.Message
}

// Run executes the open sequence and returns the open request and its
// open-done response.
//
// The steps are, in order: reset the function, read the NTB parameters,
// select the NTB format (only when the function supports 32-bit NTBs), set the
// NTB input size, set the max datagram size (only when bmNetworkCapabilities
// bit 3 is set), select the MBIM alternate setting of the data interface, and
// open the MBIM session. On success the negotiated parameters are cached on
// the device context.
func (s *OpenSequence) Run(ctx context.Context) (*mbim.Message, *mbim.Message, error) {
	run := &openRun{format: usbdev.NtbFormat16}

	if err := runSteps(ctx, "open", s.opts, s.steps(run)); err != nil {
		return nil, nil, err
	}

	s.dev.setNegotiated(Negotiated{
		MaxControlTransfer:     run.open.MaxControlTransfer,
		NtbFormat:              run.format,
		MaxInDataTransferSize:  run.params.NtbInMaxSize,
		MaxOutDataTransferSize: run.params.NtbOutMaxSize,
		OutDataAlignment:       run.params.NdpOutAlignment,
		OutDataDivisor:         run.params.NdpOutDivisor,
		OutDataRemainder:       run.params.NdpOutPayloadRemainder,
		MaxOutDatagrams:        run.params.NtbOutMaxDatagrams,
	})

	s.opts.logger.Info("sequence: function opened",
		"tid", run.open.TransactionID,
		"max_control_transfer", run.open.MaxControlTransfer,
		"ntb_format", run.format.String(),
		"ntb_in_max_size", run.params.NtbInMaxSize)

	return run.open, run.resp, nil
}

func (s *OpenSequence) steps(run *openRun) []Step {
	desc := s.dev.Descriptors()

	return []Step{
		{
			Name: StepResetFunction,
			Ref:  RefResetFunction,
			Run:  s.fc.ResetFunction,
		},
		{
			Name: StepGetNtbParameters,
			Ref:  RefGetNtbParameters,
			Run: func(ctx context.Context) error {
				data, err := s.fc.GetNtbParameters(ctx)
				if err != nil {
					return err
				}

				run.params, err = usbdev.ParseNtbParameters(data)

				return err
			},
		},
		{
			Name: StepSetNtbFormat,
			Ref:  RefSetNtbFormat,
			Run: func(ctx context.Context) error {
				format, err := s.selectNtbFormat(run.params)
				if err != nil {
					return err
				}

				if !run.params.Supports32() {
					return errStepSkipped
				}

				if err := s.fc.SetNtbFormat(ctx, format); err != nil {
					return err
				}
				run.format = format

				return nil
			},
		},
		{
			Name: StepSetNtbInputSize,
			Ref:  RefSetNtbInputSize,
			Run: func(ctx context.Context) error {
				return s.fc.SetNtbInputSize(ctx, run.params.NtbInMaxSize)
			},
		},
		{
			Name: StepSetMaxDatagramSize,
			Ref:  RefSetMaxDatagramSize,
			Run: func(ctx context.Context) error {
				if !desc.SupportsMaxDatagramSize() {
					return errStepSkipped
				}

				return s.fc.SetMaxDatagramSize(ctx, desc.MaxSegmentSize)
			},
		},
		{
			Name: StepSetInterface,
			Ref:  RefSetInterface,
			Run: func(ctx context.Context) error {
				return s.fc.SetInterface(ctx, desc.DataInterfaceNumber, desc.Function.DataAltSetting())
			},
		},
		{
			Name: StepOpen,
			Ref:  RefOpen,
			Run: func(ctx context.Context) error {
				req := mbim.NewOpen(s.tr.NextTransactionID(), s.dev.requestedMaxControlTransfer())

				resp, err := transact(ctx, s.tr, req)
				if err != nil {
					return err
				}

				if err := checkDone(resp, req, mbim.OpenDoneMsgType, StepOpen, RefOpen, RefOpenTransaction, RefOpenStatus); err != nil {
					return err
				}

				run.open, run.resp = req, resp

				return nil
			},
		},
	}
}

// selectNtbFormat returns the NTB format to request from a function with params.
func (s *OpenSequence) selectNtbFormat(params *usbdev.NtbParameters) (usbdev.NtbFormat, error) {
	override := s.dev.Overrides().NtbFormat
	if override == nil {
		if params.Supports32() {
			return usbdev.NtbFormat32, nil
		}

		return usbdev.NtbFormat16, nil
	}

	if *override == usbdev.NtbFormat32 && !params.Supports32() {
		return 0, fmt.Errorf("%w: %s requested, bmNtbFormatsSupported 0x%04x",
			ErrUnsupportedNtbFormat, override, params.NtbFormatsSupported)
	}

	return *override, nil
}

// CloseSequence closes the MBIM session of a function.
type CloseSequence struct {
	dev  *DeviceContext
	tr   Transactor
	opts options
}

// NewCloseSequence creates a close sequence for the function described by dev.
func NewCloseSequence(dev *DeviceContext, tr Transactor, opts ...Option) *CloseSequence {
	return &CloseSequence{dev: dev, tr: tr, opts: newOptions(opts)}
}

// Run sends a close request and returns it with its close-done response.
// On success the negotiated parameters are cleared from the device context.
func (s *CloseSequence) Run(ctx context.Context) (*mbim.Message, *mbim.Message, error) {
	var req, resp *mbim.Message

	steps := []Step{{
		Name: StepClose,
		Ref:  RefClose,
		Run: func(ctx context.Context) error {
			msg := mbim.NewClose(s.tr.NextTransactionID())

			done, err := transact(ctx, s.tr, msg)
			if err != nil {
				return err
			}

			if err := checkDone(done, msg, mbim.CloseDoneMsgType, StepClose, RefClose, RefCloseTransaction, RefCloseStatus); err != nil {
				return err
			}

			req, resp = msg, done

			return nil
		},
	}}

	if err := runSteps(ctx, "close", s.opts, steps); err != nil {
		return nil, nil, err
	}

	s.dev.clearNegotiated()
	s.opts.logger.Info("sequence: function closed", "tid", req.TransactionID)

	return req, resp, nil
}

// transact sends req as a single packet and decodes the response.
func transact(ctx context.Context, tr Transactor, req *mbim.Message) (*mbim.Message, error) {
	data, err := mbim.Encode(req)
	if err != nil {
		return nil, err
	}

	fragments, err := tr.BidirectionalTransaction(ctx, [][]byte{data})
	if err != nil {
		return nil, err
	}

	raw, err := mbim.Assemble(fragments)
	if err != nil {
		return nil, err
	}

	return mbim.Decode(raw)
}

// checkDone verifies an open-done or close-done response to req.
func checkDone(resp, req *mbim.Message, want mbim.MessageType, step, refType, refTID, refStatus string) error {
	switch {
	case resp.Type == mbim.FunctionErrorMsgType:
		return &SequenceError{
			Ref:  refType,
			Step: step,
			Err:  fmt.Errorf("%w: %s (tid %d)", mbim.ErrFunctionError, resp.ErrorStatus, resp.TransactionID),
		}

	case resp.Type != want:
		return &SequenceError{
			Ref:  refType,
			Step: step,
			Err:  &mbim.UnexpectedMessageError{ExpectedType: want, ActualType: resp.Type},
		}

	case resp.TransactionID != req.TransactionID:
		return &SequenceError{
			Ref:  refTID,
			Step: step,
			Err:  fmt.Errorf("%w: sent %d, received %d", ErrTransactionIDMismatch, req.TransactionID, resp.TransactionID),
		}

	case resp.Status != mbim.StatusSuccess:
		return &SequenceError{Ref: refStatus, Step: step, Err: resp.Status.Err()}
	}

	return nil
}
