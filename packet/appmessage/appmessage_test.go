package appmessage_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
	"github.com/pebblekit/pebble2/packet/appmessage"
)

func TestPushRoundTrip(t *testing.T) {
	u := uuid.New()
	msg := appmessage.NewPush(7, appmessage.Push{
		UUID: u,
		Dictionary: []appmessage.Tuple{
			{Key: 1, Type: uint8(appmessage.TupleCString), Data: []byte("hello")},
			{Key: 2, Type: uint8(appmessage.TupleUint), Data: []byte{0x2a}},
		},
	})

	wire, err := packet.Serialise(msg, codec.LittleEndian)
	require.NoError(t, err)

	got := &appmessage.AppMessage{}
	_, err = packet.Parse(got, wire, codec.LittleEndian)
	require.NoError(t, err)

	require.True(t, got.IsPush())
	require.False(t, got.IsACK())
	require.Equal(t, uint8(7), got.TransactionID)
	require.Equal(t, u, got.PushVal.UUID)
	require.Len(t, got.PushVal.Dictionary, 2)
	require.Equal(t, []byte("hello"), got.PushVal.Dictionary[0].Data)
	require.Equal(t, []byte{0x2a}, got.PushVal.Dictionary[1].Data)
}

func TestACKRoundTrip(t *testing.T) {
	msg := appmessage.NewACK(3)
	wire, err := packet.Serialise(msg, codec.LittleEndian)
	require.NoError(t, err)

	got := &appmessage.AppMessage{}
	_, err = packet.Parse(got, wire, codec.LittleEndian)
	require.NoError(t, err)

	require.True(t, got.IsACK())
	require.False(t, got.IsPush())
	require.Equal(t, uint8(3), got.TransactionID)
}

func TestNACKRoundTrip(t *testing.T) {
	msg := appmessage.NewNACK(9)
	wire, err := packet.Serialise(msg, codec.LittleEndian)
	require.NoError(t, err)

	got := &appmessage.AppMessage{}
	_, err = packet.Parse(got, wire, codec.LittleEndian)
	require.NoError(t, err)

	require.True(t, got.IsNACK())
	require.Equal(t, uint8(9), got.TransactionID)
}

func TestRegisteredInGlobalRegistry(t *testing.T) {
	f, ok := packet.Global.Lookup(appmessage.EndpointAppMessage)
	require.True(t, ok)
	require.IsType(t, &appmessage.AppMessage{}, f())
}
