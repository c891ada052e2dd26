package system_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pebblekit/pebble2/codec"
	"github.com/pebblekit/pebble2/packet"
	"github.com/pebblekit/pebble2/packet/system"
)

func TestTimeSetUTCSerialisesTheWorkedExample(t *testing.T) {
	msg := system.NewTimeSetUTC(0x5F000000, -480, "Etc/GMT+8")
	wire, err := packet.SerialisePacket(msg, codec.BigEndian)
	require.NoError(t, err)

	want := []byte{
		0x00, 0x10, 0x00, 0x0b, // length=16, endpoint=0x0b
		0x03,             // SetUTC tag
		0x5F, 0x00, 0x00, 0x00, // unix_time
		0xFE, 0x20, // utc_offset = -480
		0x09, // pascal-string length
	}
	want = append(want, []byte("Etc/GMT+8")...)
	assert.Equal(t, want, wire)
}

func TestPhoneAppVersionDecodesUnrecognizedKindAsUnparsedAndStops(t *testing.T) {
	wire := []byte{0x00, 0x02, 0x00, 0x11, 0x01, 0x00}

	endpoint, payload, consumed, err := packet.ParseMessage(wire)
	require.NoError(t, err)
	assert.Equal(t, system.EndpointPhoneVersion, endpoint)
	assert.Equal(t, len(wire), consumed)

	got := &system.PhoneAppVersion{}
	n, err := packet.Parse(got, payload, codec.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, uint8(0x01), got.Kind)
	assert.Equal(t, []byte{0x00}, got.Unparsed)
}

func TestPhoneAppVersionDecodesTheEmptyRequestVariant(t *testing.T) {
	got := &system.PhoneAppVersion{}
	n, err := packet.Parse(got, []byte{0x00}, codec.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint8(0x00), got.Kind)
	assert.Empty(t, got.Unparsed)
}

func TestDefaultPhoneAppVersionEncodesResponseVariant(t *testing.T) {
	msg := system.DefaultPhoneAppVersion()
	wire, err := packet.SerialisePacket(msg, codec.BigEndian)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x11), wireEndpoint(wire))
	// kind byte, then the 24-byte AppVersionResponse body (3 u32s, 4 u8s,
	// 1 u64).
	assert.Equal(t, byte(0x01), wire[4])
	assert.Len(t, wire, 4+1+24)
}

func wireEndpoint(wire []byte) uint16 {
	return uint16(wire[2])<<8 | uint16(wire[3])
}
