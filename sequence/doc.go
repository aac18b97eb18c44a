// Package sequence runs the fixed bring-up and tear-down sequences of an MBIM
// function.
//
// OpenSequence resets the function, negotiates the NTB parameters, selects the
// MBIM data alternate setting and opens the MBIM session. Steps run strictly in
// order and never retry; the first failure aborts the sequence with a
// *SequenceError naming the reference clause of the failed step. On success the
// negotiated parameters are cached on the DeviceContext.
package sequence
