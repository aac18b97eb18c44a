package mbim

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding indicates that a message or information buffer could not be
	// serialized, e.g. a required field is missing or a value does not fit its wire width.
	ErrEncoding = errors.New("mbim: encoding error")

	// ErrTruncatedMessage indicates that a buffer is shorter than the length its header declares.
	ErrTruncatedMessage = errors.New("mbim: truncated message")

	// ErrMalformedMessage indicates a structurally invalid message, e.g. an unknown
	// message type or a length field that contradicts the message type.
	ErrMalformedMessage = errors.New("mbim: malformed message")

	// ErrUnexpectedMessage indicates that a response does not carry the identifiers
	// or the message type that the request expected.
	ErrUnexpectedMessage = errors.New("mbim: unexpected message")

	// ErrInvalidInformationBuffer indicates an offset/size pair that lies outside
	// the information buffer or overlaps another referenced region.
	ErrInvalidInformationBuffer = errors.New("mbim: invalid information buffer")

	// ErrFragmentOutOfSequence indicates fragments that cannot be assembled into one message.
	ErrFragmentOutOfSequence = errors.New("mbim: fragment out of sequence")

	// ErrUnknownPayload indicates that no payload is registered for a pair of identifiers.
	ErrUnknownPayload = errors.New("mbim: unknown payload")

	// ErrFunctionError indicates that the function answered with a FUNCTION_ERROR message.
	ErrFunctionError = errors.New("mbim: function error")
)

// UnexpectedMessageError describes a response that does not match the request.
//
// errors.Is(err, ErrUnexpectedMessage) reports true for it.
type UnexpectedMessageError struct {
	ExpectedType MessageType
	ActualType   MessageType
	Expected     Identifiers
	Actual       Identifiers
}

func (e *UnexpectedMessageError) Error() string {
	if e.ExpectedType != e.ActualType {
		return fmt.Sprintf("mbim: unexpected message: expected type %s, got %s", e.ExpectedType, e.ActualType)
	}

	return fmt.Sprintf("mbim: unexpected message: expected %s, got %s", e.Expected, e.Actual)
}

func (e *UnexpectedMessageError) Is(target error) bool {
	return target == ErrUnexpectedMessage
}

// StatusError is returned by Status.Err for any status other than StatusSuccess.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "mbim: status " + e.Status.String()
}
