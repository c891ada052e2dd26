package connection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/connection"
	"github.com/pebblekit/pebble2/packet"
	"github.com/pebblekit/pebble2/transport"
)

const (
	testEndpointPing uint16 = 0x7001
	testEndpointEcho uint16 = 0x7002
)

// pingMsg has no fields at all — used to build a zero-length test frame.
type pingMsg struct{}

func (pingMsg) Fields() []codec.Field { return nil }
func (pingMsg) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: testEndpointPing, Register: true}
}

// echoMsg carries a single byte — enough to tell frames apart in tests.
type echoMsg struct {
	Value uint8
}

func (m *echoMsg) Fields() []codec.Field { return []codec.Field{codec.Uint8(&m.Value)} }
func (m *echoMsg) Meta() packet.Meta {
	return packet.Meta{Endianness: codec.BigEndian, HasEndpoint: true, Endpoint: testEndpointEcho, Register: true}
}

func newTestRegistry() *packet.Registry {
	r := packet.NewRegistry()
	r.Register(testEndpointPing, func() packet.Descriptor { return &pingMsg{} })
	r.Register(testEndpointEcho, func() packet.Descriptor { return &echoMsg{} })
	return r
}

func frame(t *testing.T, msg packet.Descriptor) []byte {
	t.Helper()
	wire, err := packet.SerialisePacket(msg, codec.BigEndian)
	require.NoError(t, err)
	return wire
}

// fakeTransport hands back one chunk of raw bytes per ReadPacket call from
// a pre-loaded queue, always tagged OriginWatch. Reading past the end of
// the queue blocks until the test exits (it's never called that many
// times in these tests).
type fakeTransport struct {
	chunks [][]byte
	i      int
}

func (f *fakeTransport) Connect(context.Context) error { return nil }
func (f *fakeTransport) Connected() bool                { return true }
func (f *fakeTransport) MustInitialize() bool           { return false }
func (f *fakeTransport) Close() error                   { return nil }
func (f *fakeTransport) SendPacket(context.Context, []byte) error { return nil }

func (f *fakeTransport) ReadPacket(ctx context.Context) ([]byte, transport.Origin, error) {
	if f.i >= len(f.chunks) {
		<-ctx.Done()
		return nil, transport.OriginWatch, ctx.Err()
	}
	c := f.chunks[f.i]
	f.i++
	return c, transport.OriginWatch, nil
}

func TestPumpReaderDecodesConcatenatedFramesFedByteByByte(t *testing.T) {
	wire := append(frame(t, &echoMsg{Value: 1}), frame(t, &echoMsg{Value: 2})...)

	chunks := make([][]byte, len(wire))
	for i, b := range wire {
		chunks[i] = []byte{b}
	}
	ft := &fakeTransport{chunks: chunks}
	c := connection.New(ft, connection.WithRegistry(newTestRegistry()))

	var seen []uint8
	c.RegisterEndpoint(testEndpointEcho, func(d packet.Descriptor) {
		seen = append(seen, d.(*echoMsg).Value)
	})

	ctx := context.Background()
	total := 0
	for i := 0; i < len(wire); i++ {
		n, err := c.PumpReader(ctx)
		require.NoError(t, err)
		total += n
		if n > 0 {
			assert.LessOrEqual(t, total, 2)
		}
	}

	assert.Equal(t, 2, total)
	assert.Equal(t, []uint8{1, 2}, seen)
}

func TestPumpReaderPartialDeliveryPreservesBuffer(t *testing.T) {
	wire := frame(t, &echoMsg{Value: 7})
	split := len(wire) - 1 // deliver everything except the last byte first

	ft := &fakeTransport{chunks: [][]byte{wire[:split], wire[split:]}}
	c := connection.New(ft, connection.WithRegistry(newTestRegistry()))

	var seen []uint8
	c.RegisterEndpoint(testEndpointEcho, func(d packet.Descriptor) {
		seen = append(seen, d.(*echoMsg).Value)
	})

	ctx := context.Background()

	n, err := c.PumpReader(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "a short, incomplete frame must not be decoded yet")
	assert.Empty(t, seen)

	n, err = c.PumpReader(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint8{7}, seen)
}

func TestPumpReaderZeroLengthFrameEmitsOnceAndStopsTheLoop(t *testing.T) {
	wire := append(frame(t, pingMsg{}), frame(t, &echoMsg{Value: 9})...)

	ft := &fakeTransport{chunks: [][]byte{wire, nil}}
	c := connection.New(ft, connection.WithRegistry(newTestRegistry()))

	var pings int
	var seen []uint8
	c.RegisterEndpoint(testEndpointPing, func(packet.Descriptor) { pings++ })
	c.RegisterEndpoint(testEndpointEcho, func(d packet.Descriptor) {
		seen = append(seen, d.(*echoMsg).Value)
	})

	ctx := context.Background()

	n, err := c.PumpReader(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the zero-length frame is dispatched once and the loop stops there")
	assert.Equal(t, 1, pings)
	assert.Empty(t, seen, "the trailing frame must still be sitting in the reassembly buffer")

	n, err = c.PumpReader(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint8{9}, seen)
}
