// Package mbim implements the message framing layer of the Mobile Broadband
// Interface Model (MBIM) control protocol.
//
// Every MBIM control message starts with the same 12-byte header
// (MessageType, MessageLength, TransactionId). Command, command-done and
// indicate-status messages add a fragment header, a 16-byte device service
// id, a command id and an information buffer whose layout is command specific.
// All scalar fields are little-endian 32-bit integers; device service ids are
// written in network byte order.
//
// Encoding:
//
//	msg, err := mbim.NewCommand(tid, &mbim.RadioStateSet{State: mbim.RadioOn})
//	data, err := mbim.Encode(msg)
//
// Decoding is done in two phases. Decode parses the generic header and the
// fixed fields of the message type, then DecodeResponse (or DecodePayload)
// dispatches the information buffer to the payload registered for the
// message's (device service id, command id) pair:
//
//	info := &mbim.RadioStateInfo{}
//	msg, err := mbim.DecodeResponse(data, info)
//	if errors.Is(err, mbim.ErrUnexpectedMessage) {
//		// the device answered a different command
//	}
//
// Messages larger than the negotiated maximum control transfer size are split
// with Fragment and rejoined with Assemble.
package mbim
