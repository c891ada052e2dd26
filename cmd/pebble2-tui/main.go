// Command pebble2-tui is the console front-end for pebble2d: it dials the
// daemon's gRPC Watch service and renders incoming events, mirroring the
// teacher's standalone TUI binary that dials sql-tapd.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pebblekit/pebble2/tui"
)

func main() {
	fs := flag.NewFlagSet("pebble2-tui", flag.ExitOnError)
	target := fs.String("target", "localhost:7755", "pebble2d gRPC address")
	endpointsFlag := fs.String("endpoints", "0x0010,0x0b1db", "comma-separated endpoint ids to watch, hex (0x..) or decimal")
	_ = fs.Parse(os.Args[1:])

	endpoints, err := parseEndpoints(*endpointsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pebble2-tui: %v\n", err)
		os.Exit(1)
	}

	m := tui.New(*target, endpoints)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pebble2-tui: %v\n", err)
		os.Exit(1)
	}
}

func parseEndpoints(s string) ([]uint32, error) {
	var out []uint32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimPrefix(part, "0x"), hexOrDec(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", part, err)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

func hexOrDec(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}
	return 10
}
