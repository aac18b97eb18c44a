package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/arloliu/go-mbim/mbim"
)

// describeMessage writes a multi-line description of msg. When withPayload is
// set, registered information buffers are decoded as well.
func describeMessage(w io.Writer, msg *mbim.Message, withPayload bool) {
	fmt.Fprintf(w, "type:   %s\n", msg.Type)
	fmt.Fprintf(w, "length: %d\n", msg.Length)
	fmt.Fprintf(w, "tid:    %d\n", msg.TransactionID)

	switch msg.Type { //nolint:exhaustive
	case mbim.OpenMsgType:
		fmt.Fprintf(w, "max control transfer: %d\n", msg.MaxControlTransfer)
	case mbim.OpenDoneMsgType, mbim.CloseDoneMsgType:
		fmt.Fprintf(w, "status: %s\n", msg.Status)
	case mbim.HostErrorMsgType, mbim.FunctionErrorMsgType:
		fmt.Fprintf(w, "error:  %s\n", msg.ErrorStatus)
	}

	if !msg.Type.IsFragmentable() {
		return
	}

	fmt.Fprintf(w, "cmd:    %s\n", msg.Identifiers())

	switch msg.Type { //nolint:exhaustive
	case mbim.CommandMsgType:
		fmt.Fprintf(w, "command type: %s\n", msg.CommandType)
	case mbim.CommandDoneMsgType:
		fmt.Fprintf(w, "status: %s\n", msg.Status)
	}

	fmt.Fprintf(w, "information buffer: %d bytes\n", len(msg.InformationBuffer))
	if len(msg.InformationBuffer) > 0 {
		fmt.Fprint(w, indent(hex.Dump(msg.InformationBuffer), "  "))
	}

	if !withPayload || msg.Type == mbim.CommandMsgType || msg.Status != mbim.StatusSuccess {
		return
	}

	payload, err := mbim.DecodePayload(msg)
	if err != nil {
		fmt.Fprintf(w, "payload: %v\n", err)
		return
	}

	fmt.Fprintf(w, "payload: %+v\n", payload)
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}

	return b.String()
}
