// Command pebble2d is the long-running daemon: it holds one watch
// connection open and exposes its event bus over gRPC for remote TUIs and
// tooling, the same shape as the teacher's sql-tapd proxy daemon.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pebblekit/pebble2/connection"
	"github.com/pebblekit/pebble2/event"
	_ "github.com/pebblekit/pebble2/packet/system"
	"github.com/pebblekit/pebble2/rpc"
	"github.com/pebblekit/pebble2/transport"
)

// flattenPacket turns a decoded packet into a structpb.Struct by round
// tripping it through JSON: packet types are plain structs of primitive
// fields, so this covers every kind without a per-packet case.
func flattenPacket(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func main() {
	fs := flag.NewFlagSet("pebble2d", flag.ExitOnError)
	qemuAddr := fs.String("qemu", os.Getenv("PEBBLE2_QEMU_ADDR"), "QEMU transport address, host:port")
	listenAddr := fs.String("listen", ":7755", "gRPC listen address")
	_ = fs.Parse(os.Args[1:])

	if *qemuAddr == "" {
		log.Fatal("pebble2d: -qemu or PEBBLE2_QEMU_ADDR is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := net.Dial("tcp", *qemuAddr)
	if err != nil {
		log.Fatalf("pebble2d: dial qemu: %v", err)
	}
	t := transport.NewQEMU(conn)

	c := connection.New(t)
	if err := c.Connect(ctx); err != nil {
		log.Fatalf("pebble2d: connect: %v", err)
	}
	go func() {
		if err := c.RunSync(ctx); err != nil {
			log.Printf("pebble2d: connection pump stopped: %v", err)
		}
	}()

	lis, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("pebble2d: listen: %v", err)
	}

	src := rpc.NewConnAdapter(
		func(endpoint uint32) *event.Queue { return c.GetEndpointQueue(uint16(endpoint), 32) },
		flattenPacket,
	)
	watchSvc := rpc.NewServer(src)
	server := grpc.NewServer()
	server.RegisterService(&rpc.ServiceDesc, watchSvc)
	log.Printf("pebble2d: listening on %s", *listenAddr)
	go func() {
		<-ctx.Done()
		server.GracefulStop()
	}()
	if err := server.Serve(lis); err != nil {
		log.Printf("pebble2d: serve: %v", err)
	}
}
