package control

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/internal/logging"
)

func startTestServer(t *testing.T) net.Addr {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := NewServer("127.0.0.1:0", 5, newTestDispatcher(t), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for srv.LocalAddr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return srv.LocalAddr()
}

func roundTrip(t *testing.T, conn *net.UDPConn, addr net.Addr, request string) string {
	t.Helper()
	_, err := conn.WriteTo([]byte(request), addr)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, maxDatagram)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestServer_EndToEnd(t *testing.T) {
	addr := startTestServer(t)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "ERROR: No threads", roundTrip(t, conn, addr, "LST"))
	assert.Equal(t, "NEW_USER", roundTrip(t, conn, addr, "LOGIN alice"))
	assert.Equal(t, "Registration successful", roundTrip(t, conn, addr, "REGISTER alice pw"))
	assert.Equal(t, "Thread demo created", roundTrip(t, conn, addr, "CRT alice demo"))
	assert.Equal(t, "Message posted", roundTrip(t, conn, addr, "MSG alice demo hello"))
	assert.Equal(t, "1 alice: hello\n", roundTrip(t, conn, addr, "RDT demo"))
	assert.Equal(t, "ERROR: Unknown command", roundTrip(t, conn, addr, "GARBAGE"))
}

func TestServer_SecondPeerIsAnotherIdentity(t *testing.T) {
	addr := startTestServer(t)

	first, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer first.Close()
	second, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer second.Close()

	require.Equal(t, "Registration successful", roundTrip(t, first, addr, "REGISTER alice pw"))

	// The same user from a different socket conflicts; the second socket
	// has no identity of its own yet.
	resp := roundTrip(t, second, addr, "AUTH alice pw")
	assert.Equal(t, "ERROR: User alice already active", resp)
	assert.Equal(t, "ERROR: Login required", roundTrip(t, second, addr, "CRT alice other"))
}
