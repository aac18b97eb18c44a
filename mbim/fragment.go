package mbim

import (
	"encoding/binary"
	"fmt"
)

// Fragment encodes msg and splits it into fragments of at most maxControlTransfer bytes.
//
// Every fragment repeats the message header and carries its own fragment
// header; MessageLength of each fragment is the fragment's own size. Messages
// without a fragment header, and messages that fit into one transfer, yield a
// single fragment.
func Fragment(msg *Message, maxControlTransfer uint32) ([][]byte, error) {
	data, err := Encode(msg)
	if err != nil {
		return nil, err
	}

	if !msg.Type.IsFragmentable() || uint64(len(data)) <= uint64(maxControlTransfer) {
		return [][]byte{data}, nil
	}

	if maxControlTransfer <= fragmentPrefixSize {
		return nil, fmt.Errorf("%w: max control transfer %d cannot carry a fragment", ErrEncoding, maxControlTransfer)
	}

	body := data[fragmentPrefixSize:]
	chunk := int(maxControlTransfer) - fragmentPrefixSize
	total := (len(body) + chunk - 1) / chunk

	fragments := make([][]byte, 0, total)
	for i := range total {
		end := min((i+1)*chunk, len(body))
		part := body[i*chunk : end]

		frag := make([]byte, fragmentPrefixSize+len(part))
		binary.LittleEndian.PutUint32(frag[0:], uint32(msg.Type))
		binary.LittleEndian.PutUint32(frag[4:], uint32(len(frag))) //nolint:gosec // bounded by maxControlTransfer
		binary.LittleEndian.PutUint32(frag[8:], msg.TransactionID)
		binary.LittleEndian.PutUint32(frag[12:], uint32(total)) //nolint:gosec // bounded by message size
		binary.LittleEndian.PutUint32(frag[16:], uint32(i))     //nolint:gosec // bounded by total
		copy(frag[fragmentPrefixSize:], part)

		fragments = append(fragments, frag)
	}

	return fragments, nil
}

// Assemble joins the fragments of one message into a single encoded message
// that Decode accepts.
//
// All fragments must share message type and transaction id, declare the same
// total, and arrive in order. Violations yield ErrFragmentOutOfSequence.
func Assemble(fragments [][]byte) ([]byte, error) {
	if len(fragments) == 0 {
		return nil, fmt.Errorf("%w: no fragments", ErrTruncatedMessage)
	}

	first, firstFrag, err := peekFragmentLength(fragments[0])
	if err != nil {
		return nil, err
	}

	if !first.Type.IsFragmentable() {
		if len(fragments) != 1 {
			return nil, fmt.Errorf("%w: %s message cannot have %d fragments",
				ErrFragmentOutOfSequence, first.Type, len(fragments))
		}

		return fragments[0], nil
	}

	if firstFrag.Total == 0 || uint64(firstFrag.Total) != uint64(len(fragments)) {
		return nil, fmt.Errorf("%w: expected %d fragments, have %d",
			ErrFragmentOutOfSequence, firstFrag.Total, len(fragments))
	}

	if len(fragments) == 1 {
		return fragments[0], nil
	}

	size := fragmentPrefixSize
	for i, data := range fragments {
		hdr, frag, err := peekFragmentLength(data)
		if err != nil {
			return nil, err
		}

		if hdr.Type != first.Type || hdr.TransactionID != first.TransactionID {
			return nil, fmt.Errorf("%w: fragment %d belongs to %s tid %d, expected %s tid %d",
				ErrFragmentOutOfSequence, i, hdr.Type, hdr.TransactionID, first.Type, first.TransactionID)
		}

		if frag.Total != firstFrag.Total || uint64(frag.Current) != uint64(i) {
			return nil, fmt.Errorf("%w: got fragment %d/%d at position %d",
				ErrFragmentOutOfSequence, frag.Current, frag.Total, i)
		}

		size += int(hdr.Length) - fragmentPrefixSize
	}

	buf := make([]byte, fragmentPrefixSize, size)
	copy(buf, fragments[0][:fragmentPrefixSize])
	for _, data := range fragments {
		buf = append(buf, data[fragmentPrefixSize:]...)
	}

	binary.LittleEndian.PutUint32(buf[4:], uint32(len(buf))) //nolint:gosec // sum of 32-bit lengths
	binary.LittleEndian.PutUint32(buf[12:], 1)
	binary.LittleEndian.PutUint32(buf[16:], 0)

	return buf, nil
}

// peekFragmentLength reads the headers of one fragment and checks that its
// declared length matches the supplied bytes.
func peekFragmentLength(data []byte) (Header, FragmentHeader, error) {
	hdr, frag, err := PeekFragment(data)
	if err != nil {
		return hdr, frag, err
	}

	if uint64(len(data)) < uint64(hdr.Length) {
		return hdr, frag, fmt.Errorf("%w: fragment declares %d bytes, have %d", ErrTruncatedMessage, hdr.Length, len(data))
	}

	if uint64(len(data)) != uint64(hdr.Length) {
		return hdr, frag, fmt.Errorf("%w: fragment length mismatch, declared: %d, actual: %d",
			ErrMalformedMessage, hdr.Length, len(data))
	}

	return hdr, frag, nil
}
