package main

import (
	"fmt"
	"net"

	"github.com/pebblekit/pebble2/transport"
)

func dialQEMU(addr string) (transport.Transport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial qemu: %w", err)
	}
	return transport.NewQEMU(conn), nil
}
