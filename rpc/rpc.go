// Package rpc exposes a Connection's event bus to remote clients over a
// streaming gRPC service. Event payloads are decoded packets of widely
// varying shape, so they're shipped as a structpb.Struct rather than a
// hand-generated message per packet kind — there is no protoc-generated
// code in this repository; the service is wired up directly against
// grpc.ServiceDesc.
package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/pebblekit/pebble2/event"
)

// WatchEvent is one event-bus broadcast relayed to a streaming client.
type WatchEvent struct {
	Endpoint  uint32                 `json:"endpoint"`
	At        *timestamppb.Timestamp `json:"at"`
	Fields    *structpb.Struct       `json:"fields"`
}

// Source is anything that can hand back a queue of raw decoded events for
// a given endpoint; *connection.Connection satisfies this via
// GetEndpointQueue plus a caller-provided field-flattening func.
type Source interface {
	Subscribe(endpoint uint32) (ch <-chan *WatchEvent, cancel func())
}

// Server implements the Watch streaming RPC: one long-lived server stream
// per client, relaying WatchEvent values until the client disconnects or
// the context is cancelled.
type Server struct {
	src Source
}

func NewServer(src Source) *Server { return &Server{src: src} }

// StreamSink is the minimal send-side surface a generated gRPC stream
// would normally provide; kept as an interface here since no .proto/.pb.go
// is generated for this service.
type StreamSink interface {
	Send(*WatchEvent) error
	Context() context.Context
}

// Watch streams every event for endpoint to stream until the client
// disconnects.
func (s *Server) Watch(endpoint uint32, stream StreamSink) error {
	ch, cancel := s.src.Subscribe(endpoint)
	defer cancel()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(ev); err != nil {
				return fmt.Errorf("rpc: send: %w", err)
			}
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

// ServiceDesc is the hand-authored grpc.ServiceDesc for Watch — there is
// no protoc-generated stub, so the method table is built directly the way
// grpc.ServiceDesc expects.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "pebble2.rpc.WatchService",
	HandlerType: (*watchServiceServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
}

type watchServiceServer interface {
	Watch(endpoint uint32, stream StreamSink) error
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	var req struct{ Endpoint uint32 }
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	return srv.(watchServiceServer).Watch(req.Endpoint, grpcStreamSink{stream})
}

type grpcStreamSink struct {
	grpc.ServerStream
}

func (s grpcStreamSink) Send(ev *WatchEvent) error { return s.SendMsg(ev) }

// WatchClient is a hand-authored client stub for the Watch streaming RPC —
// there is no protoc-generated client any more than there is a generated
// server, so it's built directly against grpc.ClientConn.NewStream the way
// ServiceDesc is built directly against grpc.ServiceDesc above.
type WatchClient struct {
	cc *grpc.ClientConn
}

func NewWatchClient(cc *grpc.ClientConn) *WatchClient { return &WatchClient{cc: cc} }

// WatchStream is the receive-side handle returned by Watch: callers loop
// on Recv until it returns an error (io.EOF on a clean server-side close).
type WatchStream struct {
	cs grpc.ClientStream
}

func (s *WatchStream) Recv() (*WatchEvent, error) {
	ev := new(WatchEvent)
	if err := s.cs.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Watch opens a streaming call for endpoint and returns a handle to receive
// WatchEvent values from it.
func (c *WatchClient) Watch(ctx context.Context, endpoint uint32) (*WatchStream, error) {
	cs, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/pebble2.rpc.WatchService/Watch", grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, fmt.Errorf("rpc: open watch stream: %w", err)
	}
	if err := cs.SendMsg(&struct{ Endpoint uint32 }{Endpoint: endpoint}); err != nil {
		return nil, fmt.Errorf("rpc: send watch request: %w", err)
	}
	if err := cs.CloseSend(); err != nil {
		return nil, fmt.Errorf("rpc: close watch request: %w", err)
	}
	return &WatchStream{cs: cs}, nil
}

// connAdapter adapts a *connection.Connection (plus a flattening func for
// packet.Descriptor -> structpb.Struct) into Source. It lives here, not in
// package connection, to keep connection free of an rpc/protobuf
// dependency.
type connAdapter struct {
	queueFn func(endpoint uint32) *event.Queue
	flatten func(any) (*structpb.Struct, error)
}

func NewConnAdapter(queueFn func(endpoint uint32) *event.Queue, flatten func(any) (*structpb.Struct, error)) Source {
	return &connAdapter{queueFn: queueFn, flatten: flatten}
}

func (a *connAdapter) Subscribe(endpoint uint32) (<-chan *WatchEvent, func()) {
	q := a.queueFn(endpoint)
	out := make(chan *WatchEvent, 16)
	go func() {
		defer close(out)
		q.Iter(func(ev any) bool {
			fields, err := a.flatten(ev)
			if err != nil {
				return true
			}
			out <- &WatchEvent{
				Endpoint: endpoint,
				At:       timestamppb.Now(),
				Fields:   fields,
			}
			return true
		})
	}()
	return out, q.Close
}
