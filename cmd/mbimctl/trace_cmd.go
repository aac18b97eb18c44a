package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/trace"
)

// traceCmd implements subcommands.Command to dump a recorded trace.
type traceCmd struct {
	out       io.Writer
	direction string
	tid       int64
	channelID string
	decode    bool
}

var _ = subcommands.Command(&traceCmd{})

func newTraceCmd(out io.Writer) *traceCmd {
	return &traceCmd{out: out, tid: -1}
}

func (*traceCmd) Name() string     { return "trace" }
func (*traceCmd) Synopsis() string { return "dump a CBOR trace file" }
func (*traceCmd) Usage() string {
	return `Usage: trace [flag]... <file>

Print the events of a trace written by a channel recorder, one per line.

`
}

func (t *traceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.direction, "dir", "", "only print events of this direction (in or out)")
	f.Int64Var(&t.tid, "tid", -1, "only print events of this transaction id")
	f.StringVar(&t.channelID, "channel", "", "only print events of this channel id")
	f.BoolVar(&t.decode, "decode", false, "decode and describe every packet")
}

func (t *traceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, t.Usage())
		return subcommands.ExitUsageError
	}

	filter, err := t.filter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace: %v\n", err)
		return subcommands.ExitUsageError
	}

	r, err := trace.NewFilteredReader(f.Arg(0), filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace: %v\n", err)
		return subcommands.ExitFailure
	}
	defer r.Close()

	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "trace: %v\n", err)
			return subcommands.ExitFailure
		}

		t.printEvent(event)
	}
}

func (t *traceCmd) filter() (trace.Filter, error) {
	filter := trace.Filter{ChannelID: t.channelID}

	switch t.direction {
	case "":
	case "in":
		dir := trace.DirectionIn
		filter.Direction = &dir
	case "out":
		dir := trace.DirectionOut
		filter.Direction = &dir
	default:
		return filter, fmt.Errorf("unknown direction %q", t.direction)
	}

	if t.tid >= 0 {
		tid := uint32(t.tid)
		filter.TransactionID = &tid
	}

	return filter, nil
}

func (t *traceCmd) printEvent(event trace.Event) {
	fmt.Fprintf(t.out, "%s %-3s tid=%d %s len=%d",
		event.Timestamp.UTC().Format(time.RFC3339Nano), event.Direction, event.TransactionID,
		event.MessageType, len(event.Raw))
	if event.Error != "" {
		fmt.Fprintf(t.out, " error=%q", event.Error)
	}
	fmt.Fprintln(t.out)

	if !t.decode || len(event.Raw) == 0 {
		return
	}

	// fragments of a larger message are not decoded on their own
	msg, err := mbim.Decode(event.Raw)
	if err != nil {
		fmt.Fprintf(t.out, "  %v\n", err)
		return
	}

	describeMessage(&prefixWriter{w: t.out, prefix: "  "}, msg, true)
}

// prefixWriter indents every line written through it.
type prefixWriter struct {
	w      io.Writer
	prefix string
	mid    bool
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	for i, c := range b {
		if !p.mid {
			if _, err := io.WriteString(p.w, p.prefix); err != nil {
				return i, err
			}
			p.mid = true
		}

		if _, err := p.w.Write([]byte{c}); err != nil {
			return i, err
		}

		if c == '\n' {
			p.mid = false
		}
	}

	return len(b), nil
}
