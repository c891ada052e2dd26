// Package connection implements the core pump/dispatch loop shared by
// every transport: one read-and-dispatch round trip per PumpReader call,
// a reassembly buffer for watch-origin bytes, raw inbound/outbound taps,
// and the PhoneAppVersion handshake auto-responder that lets callers treat
// connect-and-wait-for-ready as a single step.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/event"
	"github.com/pebblekit/pebble2/packet"
	"github.com/pebblekit/pebble2/packet/system"
	"github.com/pebblekit/pebble2/transport"
)

// WatchInfo is the lazily-fetched, then cached, firmware identity of the
// connected watch. FetchWatchInfo fills Running and Version only; Model is
// left empty.
type WatchInfo struct {
	Running   bool
	Version   string
	Model     string
}

// eventKey distinguishes what a Bus subscription is keyed on: a specific
// endpoint's decoded packets, or the raw-byte taps.
type eventKey struct {
	kind     string
	endpoint uint16
}

const (
	kindEndpoint   = "endpoint"
	kindRawIn      = "raw_in"
	kindRawOut     = "raw_out"
	kindRawEndpoint = "raw_endpoint"
)

// Connection is the per-link core: it owns the transport, the endpoint
// registry it decodes against, and the event bus callers subscribe
// through.
type Connection struct {
	t        transport.Transport
	registry *packet.Registry
	bus      *event.Bus
	def      codec.Endianness

	mu        sync.Mutex
	watchInfo *WatchInfo

	// reassembly holds bytes from the transport that haven't yet formed a
	// complete frame; PumpReader appends to it and tries to peel frames
	// off the front after every read.
	reassembly []byte
}

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithRegistry overrides the packet registry consulted for dispatch;
// defaults to packet.Global.
func WithRegistry(r *packet.Registry) Option {
	return func(c *Connection) { c.registry = r }
}

// WithEndianness sets the default endianness used for packets that don't
// declare their own.
func WithEndianness(e codec.Endianness) Option {
	return func(c *Connection) { c.def = e }
}

func New(t transport.Transport, opts ...Option) *Connection {
	c := &Connection{
		t:        t,
		registry: packet.Global,
		bus:      event.NewBus(),
		def:      codec.BigEndian,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the underlying transport.
func (c *Connection) Connect(ctx context.Context) error {
	if err := c.t.Connect(ctx); err != nil {
		return fmt.Errorf("connection: connect: %w", err)
	}
	return nil
}

// PumpReader performs one blocking read from the transport, tries to peel
// any complete frames off the resulting reassembly buffer, and dispatches
// each to its registered packet kind. It returns the number of complete
// frames dispatched this call (zero is normal if the read only completed a
// partial frame).
func (c *Connection) PumpReader(ctx context.Context) (int, error) {
	raw, origin, err := c.t.ReadPacket(ctx)
	if err != nil {
		return 0, fmt.Errorf("connection: read: %w", err)
	}
	c.bus.Broadcast(eventKey{kind: kindRawIn}, raw)

	if origin != transport.OriginWatch {
		c.bus.Broadcast(eventKey{kind: kindRawIn, endpoint: uint16(origin)}, raw)
		return 0, nil
	}

	c.mu.Lock()
	c.reassembly = append(c.reassembly, raw...)
	buf := c.reassembly
	c.mu.Unlock()

	dispatched := 0
	for {
		endpoint, payload, consumed, err := packet.ParseMessage(buf)
		if errors.Is(err, codec.ErrIncompleteMessage) {
			break
		}
		if err != nil {
			// Malformed frame: resync by skipping one byte and retrying,
			// rather than failing the whole stream.
			if len(buf) == 0 {
				break
			}
			buf = buf[1:]
			continue
		}
		buf = buf[consumed:]
		zeroLength := len(payload) == 0

		if c.maybeHandleHandshake(ctx, endpoint, payload) {
			dispatched++
			if zeroLength {
				break
			}
			continue
		}

		// Every frame's raw payload is broadcast by endpoint regardless of
		// registration, so a caller expecting an unregistered response
		// variant sharing a request's endpoint id (voice's result, e.g.)
		// can decode it itself instead of going through the registry.
		c.bus.Broadcast(eventKey{kind: kindRawEndpoint, endpoint: endpoint}, payload)

		msg, known, decodeErr := c.registry.Decode(endpoint, payload, c.def)
		if !known {
			// Unregistered endpoint: not a failure, just nothing to
			// dispatch to.
			if zeroLength {
				break
			}
			continue
		}
		if decodeErr != nil {
			c.bus.Broadcast(eventKey{kind: "decode_error"}, decodeErr)
			if zeroLength {
				break
			}
			continue
		}
		c.bus.Broadcast(eventKey{kind: kindEndpoint, endpoint: endpoint}, msg)
		dispatched++

		// A frame with a declared length of zero is dispatched once and
		// then terminates the decode loop for this read, rather than
		// looping back to try to peel another frame from whatever
		// trailing bytes remain in the buffer.
		if zeroLength {
			break
		}
	}

	c.mu.Lock()
	c.reassembly = append([]byte(nil), buf...)
	c.mu.Unlock()

	return dispatched, nil
}

// RunSync drives PumpReader in the calling goroutine until ctx is
// cancelled or the transport errors.
func (c *Connection) RunSync(ctx context.Context) error {
	for {
		if _, err := c.PumpReader(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// RunAsync starts RunSync in a background goroutine and kicks off an
// asynchronous watch-info fetch; errors from the pump loop are delivered
// on the returned channel.
func (c *Connection) RunAsync(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.RunSync(ctx)
	}()
	go func() {
		_, _ = c.FetchWatchInfo(ctx, 5*time.Second)
	}()
	return errCh
}

// SendPacket serialises msg with its framing prefix and writes it to the
// transport.
func (c *Connection) SendPacket(ctx context.Context, msg packet.Descriptor) error {
	wire, err := packet.SerialisePacket(msg, c.def)
	if err != nil {
		return fmt.Errorf("connection: serialise: %w", err)
	}
	return c.SendRaw(ctx, wire)
}

// SendRaw writes an already-framed payload straight to the transport,
// bypassing the codec entirely.
func (c *Connection) SendRaw(ctx context.Context, wire []byte) error {
	c.bus.Broadcast(eventKey{kind: kindRawOut}, wire)
	if err := c.t.SendPacket(ctx, wire); err != nil {
		return fmt.Errorf("connection: send: %w", err)
	}
	return nil
}

// RegisterEndpoint subscribes fn to every decoded packet dispatched for
// endpoint, returning an unsubscribe func.
func (c *Connection) RegisterEndpoint(endpoint uint16, fn func(packet.Descriptor)) func() {
	return c.bus.Subscribe(eventKey{kind: kindEndpoint, endpoint: endpoint}, func(ev any) {
		fn(ev.(packet.Descriptor))
	})
}

// ReadFromEndpoint blocks for the next packet dispatched for endpoint.
func (c *Connection) ReadFromEndpoint(ctx context.Context, endpoint uint16, timeout time.Duration) (packet.Descriptor, error) {
	ev, err := c.bus.WaitForEvent(ctx, eventKey{kind: kindEndpoint, endpoint: endpoint}, timeout)
	if err != nil {
		return nil, err
	}
	return ev.(packet.Descriptor), nil
}

// GetEndpointQueue returns a bounded queue of every packet dispatched for
// endpoint.
func (c *Connection) GetEndpointQueue(endpoint uint16, capacity int) *event.Queue {
	return c.bus.QueueEvents(eventKey{kind: kindEndpoint, endpoint: endpoint}, capacity)
}

// RawEndpointQueue returns a bounded queue of raw (undecoded) payload bytes
// for every frame seen on endpoint, regardless of whether a type is
// registered for it. This exists for response shapes that share a request's
// endpoint id but are deliberately left unregistered (Meta.Register ==
// false) because the registry holds exactly one decode factory per
// endpoint: the caller decodes the raw bytes itself with packet.Parse
// against whichever type it expects.
func (c *Connection) RawEndpointQueue(endpoint uint16, capacity int) *event.Queue {
	return c.bus.QueueEvents(eventKey{kind: kindRawEndpoint, endpoint: endpoint}, capacity)
}

// Bus exposes the underlying event bus for callers (services) that need
// raw access beyond the endpoint-keyed helpers above.
func (c *Connection) Bus() *event.Bus { return c.bus }

// RawInboundQueue returns a bounded queue of every raw byte slice read from
// the transport, before framing or decoding — the tap a hexdump-style
// inspector subscribes to.
func (c *Connection) RawInboundQueue(capacity int) *event.Queue {
	return c.bus.QueueEvents(eventKey{kind: kindRawIn}, capacity)
}

// RawOutboundQueue returns a bounded queue of every framed byte slice
// handed to the transport for writing.
func (c *Connection) RawOutboundQueue(capacity int) *event.Queue {
	return c.bus.QueueEvents(eventKey{kind: kindRawOut}, capacity)
}

// maybeHandleHandshake auto-responds to an inbound PhoneAppVersion request
// on a transport that declares MustInitialize: the watch won't send anything
// else useful until it sees a PhoneAppVersion reply. Returns true if it
// handled the frame itself (callers should not also try the registry).
func (c *Connection) maybeHandleHandshake(ctx context.Context, endpoint uint16, payload []byte) bool {
	if !c.t.MustInitialize() || endpoint != system.EndpointPhoneVersion {
		return false
	}
	req := &system.PhoneAppVersion{}
	if _, err := packet.Parse(req, payload, c.def); err != nil {
		return false
	}
	c.bus.Broadcast(eventKey{kind: kindEndpoint, endpoint: system.EndpointPhoneVersion}, req)
	_ = c.SendPacket(ctx, system.DefaultPhoneAppVersion())
	return true
}

// FetchWatchInfo sends a WatchVersion request and caches the first
// response (or returns the cached value from a previous call).
func (c *Connection) FetchWatchInfo(ctx context.Context, timeout time.Duration) (*WatchInfo, error) {
	if info := c.WatchInfo(); info != nil {
		return info, nil
	}
	queue := c.GetEndpointQueue(system.EndpointWatchVersion, 1)
	defer queue.Close()

	if err := c.SendPacket(ctx, &system.WatchVersionRequest{}); err != nil {
		return nil, err
	}
	ev, err := queue.Get(timeout)
	if err != nil {
		return nil, fmt.Errorf("connection: fetch watch info: %w", err)
	}
	resp := ev.(*system.WatchVersionResponse)
	info := &WatchInfo{
		Running: resp.Running != 0,
		Version: resp.Version,
	}
	c.setWatchInfo(info)
	return info, nil
}

func (c *Connection) WatchInfo() *WatchInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watchInfo
}

func (c *Connection) setWatchInfo(info *WatchInfo) {
	c.mu.Lock()
	c.watchInfo = info
	c.mu.Unlock()
}
