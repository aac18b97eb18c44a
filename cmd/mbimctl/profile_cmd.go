package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/arloliu/go-mbim/channel"
	"github.com/arloliu/go-mbim/profile"
)

// profileCmd implements subcommands.Command to validate a device profile.
type profileCmd struct {
	out    io.Writer
	asYAML bool
}

var _ = subcommands.Command(&profileCmd{})

func newProfileCmd(out io.Writer) *profileCmd {
	return &profileCmd{out: out}
}

func (*profileCmd) Name() string     { return "profile" }
func (*profileCmd) Synopsis() string { return "validate a device profile" }
func (*profileCmd) Usage() string {
	return `Usage: profile [flag]... <file>

Validate a YAML device profile and print the device context and channel
settings derived from it.

`
}

func (p *profileCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.asYAML, "yaml", false, "print the normalized profile as YAML")
}

func (p *profileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, p.Usage())
		return subcommands.ExitUsageError
	}

	prof, err := profile.Load(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	if p.asYAML {
		data, err := prof.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "profile: %v\n", err)
			return subcommands.ExitFailure
		}
		_, _ = p.out.Write(data)

		return subcommands.ExitSuccess
	}

	dc, err := prof.DeviceContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	cfg, err := channel.NewConfig(prof.ChannelOptions()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", err)
		return subcommands.ExitFailure
	}

	desc := dc.Descriptors()
	overrides := dc.Overrides()

	fmt.Fprintf(p.out, "profile: %s\n", prof.Name)
	fmt.Fprintf(p.out, "function: %s (data interface %d, alt setting %d)\n",
		desc.Function, desc.DataInterfaceNumber, desc.Function.DataAltSetting())
	fmt.Fprintf(p.out, "max datagram size: %t\n", desc.SupportsMaxDatagramSize())
	fmt.Fprintf(p.out, "open max control transfer: %d\n", dc.MaxControlTransfer())
	if overrides.NtbFormat != nil {
		fmt.Fprintf(p.out, "ntb format: %s\n", *overrides.NtbFormat)
	} else {
		fmt.Fprintln(p.out, "ntb format: auto")
	}
	fmt.Fprintf(p.out, "channel timeout: %v\n", cfg.Timeout())
	fmt.Fprintf(p.out, "channel max control transfer: %d\n", cfg.MaxControlTransfer())
	fmt.Fprintf(p.out, "indication queue size: %d\n", cfg.IndicationQueueSize())
	if prof.Connect.APN != "" {
		fmt.Fprintf(p.out, "apn: %s\n", prof.Connect.APN)
	}

	return subcommands.ExitSuccess
}
