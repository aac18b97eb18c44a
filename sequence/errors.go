package sequence

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedNtbFormat indicates a requested NTB format the function does not advertise.
	ErrUnsupportedNtbFormat = errors.New("sequence: unsupported NTB format")

	// ErrTransactionIDMismatch indicates a response whose transaction id differs from the request's.
	ErrTransactionIDMismatch = errors.New("sequence: transaction id mismatch")
)

// SequenceError reports the step that aborted a sequence.
//
// Ref is the reference clause of the requirement the step failed, e.g.
// "mbim1.0:9.4.1#2", so failures can be mapped back to the standard.
type SequenceError struct {
	Ref  string
	Step string
	Err  error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence: %s failed [%s]: %v", e.Step, e.Ref, e.Err)
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}
