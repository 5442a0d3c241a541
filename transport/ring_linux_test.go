//go:build linux

package transport

import (
	"net"
	"testing"

	"github.com/lukaarma/wannabeCurl/errors"
)

func testRingBackend(t *testing.T, backend Backend) {
	t.Helper()

	request := "ping\r\n"
	received := make(chan string, 1)
	addr, cleanup := setupTcpTestServer(t, func(conn net.Conn) {
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		received <- string(buf[:n])
		conn.Write([]byte("HTTP/1.1 204 No Content\r\n\r\n"))
	})
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Backend = backend
	conn := newTestConn(t, cfg)

	err := conn.Connect(addr, false)
	if errors.IsTransport(err, errors.TransportErrorSocketConnectFailure) &&
		errors.IsTransport(errors.Unwrap(err), errors.TransportErrorIoUringInit) {
		t.Skipf("io_uring unavailable: %v", err)
	}
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if err := conn.Send([]byte(request)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := <-received; got != request {
		t.Errorf("Expected server to receive %q, got %q", request, got)
	}

	headers, err := conn.ReceiveUntil(HeadersEnd)
	if err != nil {
		t.Fatalf("ReceiveUntil failed: %v", err)
	}
	if string(headers) != "HTTP/1.1 204 No Content\r\n\r\n" {
		t.Errorf("Unexpected header block %q", headers)
	}
}

func TestConn_URingBackend(t *testing.T) {
	testRingBackend(t, BackendURing)
}
