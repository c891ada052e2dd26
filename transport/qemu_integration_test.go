package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pebblekit/pebble2/transport"
)

// startEchoFixture launches a disposable socat TCP echo container, the
// same way the teacher's proxy_test.go launches a disposable MySQL
// container: a real external process, not a mock, stands in for the thing
// being talked to — here, the emulator's end of the QEMU control socket,
// which simply bounces back every byte it's sent.
func startEchoFixture(t *testing.T) string {
	t.Helper()
	ctx := t.Context()

	req := testcontainers.ContainerRequest{
		Image:        "alpine/socat:1.7.4.4",
		ExposedPorts: []string{"9999/tcp"},
		Cmd:          []string{"TCP-LISTEN:9999,fork,reuseaddr", "EXEC:/bin/cat"},
		WaitingFor:   wait.ForListeningPort("9999/tcp").WithStartupTimeout(60 * time.Second),
	}
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate echo fixture: %v", err)
		}
	})

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "9999/tcp")
	require.NoError(t, err)
	return net.JoinHostPort(host, port.Port())
}

// TestQEMURoundTripsThroughEchoServer exercises QEMU's framing end to end
// against a real socket: SendPacket writes a framed payload, the echo
// fixture bounces it back unmodified, and ReadPacket must reconstruct the
// same payload and classify it as watch-origin.
func TestQEMURoundTripsThroughEchoServer(t *testing.T) {
	addr := startEchoFixture(t)

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	q := transport.NewQEMU(conn)
	require.NoError(t, q.Connect(t.Context()))

	payload := []byte{0x00, 0x0b, 0x03, 0x5f, 0x00, 0x00, 0x00}
	require.NoError(t, q.SendPacket(t.Context(), payload))

	got, origin, err := q.ReadPacket(t.Context())
	require.NoError(t, err)
	require.Equal(t, transport.OriginWatch, origin)
	require.Equal(t, payload, got)
}
