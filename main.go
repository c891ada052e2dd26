package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/pebblekit/pebble2/packet/system"

	"github.com/pebblekit/pebble2/connection"
	"github.com/pebblekit/pebble2/hexdump"
	"github.com/pebblekit/pebble2/transport"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("pebble2", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "pebble2 — talk to a Pebble watch over QEMU\n\nUsage:\n  pebble2 [flags] <qemu-addr>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	showVersion := fs.Bool("version", false, "show version and exit")
	dump := fs.Bool("dump", false, "hexdump every raw inbound frame to stderr")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("pebble2 %s\n", version)
		return
	}

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	if err := monitor(fs.Arg(0), *dump); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func monitor(addr string, dump bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := dialQEMU(addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer t.Close()

	conn := connection.New(t)
	if err := conn.Connect(ctx); err != nil {
		return err
	}

	info, err := conn.FetchWatchInfo(ctx, 5*time.Second)
	if err != nil {
		return fmt.Errorf("fetch watch info: %w", err)
	}
	fmt.Printf("connected: running=%v version=%q\n", info.Running, info.Version)

	if dump {
		raw := conn.RawInboundQueue(64)
		go func() {
			defer raw.Close()
			raw.Iter(func(ev any) bool {
				fmt.Fprintln(os.Stderr, hexdump.Bytes(ev.([]byte)))
				return true
			})
		}()
	}

	return conn.RunSync(ctx)
}
