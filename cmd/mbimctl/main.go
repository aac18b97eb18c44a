// Command mbimctl inspects MBIM control traffic and device profiles.
//
// Usage:
//
//	mbimctl decode [-payload] <hex>...
//	mbimctl trace [-dir in|out] [-tid n] [-channel id] [-decode] <file>
//	mbimctl profile [-yaml] <file>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/arloliu/go-mbim/logger"
)

// Version is the version of this command. It is set at link time.
var Version = "<unknown>"

// doMain implements the main body of the program. It's a separate function so
// that its deferred functions run before os.Exit.
func doMain() int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newDecodeCmd(os.Stdout), "")
	subcommands.Register(newTraceCmd(os.Stdout), "")
	subcommands.Register(newProfileCmd(os.Stdout), "")

	version := flag.Bool("version", false, "print version and exit")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error or fatal")
	flag.Parse()

	if *version {
		fmt.Printf("mbimctl version %s\n", Version)
		return 0
	}

	logger.SetLevel(logger.ParseLevel(*logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return int(subcommands.Execute(ctx))
}

func main() {
	os.Exit(doMain())
}
