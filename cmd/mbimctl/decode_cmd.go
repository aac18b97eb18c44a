package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/arloliu/go-mbim/mbim"
)

// decodeCmd implements subcommands.Command to decode hex-encoded messages.
type decodeCmd struct {
	out     io.Writer
	payload bool
}

var _ = subcommands.Command(&decodeCmd{})

func newDecodeCmd(out io.Writer) *decodeCmd {
	return &decodeCmd{out: out}
}

func (*decodeCmd) Name() string     { return "decode" }
func (*decodeCmd) Synopsis() string { return "decode an MBIM message" }
func (*decodeCmd) Usage() string {
	return `Usage: decode [flag]... <hex>...

Decode one MBIM message. A fragmented message is given as one hex string per
fragment, in order. Whitespace and colons inside a hex string are ignored.

`
}

func (d *decodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&d.payload, "payload", true, "decode the information buffer of known commands")
}

func (d *decodeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, d.Usage())
		return subcommands.ExitUsageError
	}

	fragments := make([][]byte, 0, f.NArg())
	for _, arg := range f.Args() {
		packet, err := parseHex(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode: %v\n", err)
			return subcommands.ExitFailure
		}
		fragments = append(fragments, packet)
	}

	data, err := mbim.Assemble(fragments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode: %v\n", err)
		return subcommands.ExitFailure
	}

	msg, err := mbim.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode: %v\n", err)
		return subcommands.ExitFailure
	}

	describeMessage(d.out, msg, d.payload)

	return subcommands.ExitSuccess
}

func parseHex(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', ':':
			return -1
		default:
			return r
		}
	}, s)
	s = strings.TrimPrefix(s, "0x")

	return hex.DecodeString(s)
}
