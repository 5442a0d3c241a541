//go:build linux

package transport

import (
	"net"
	"testing"

	"golang.org/x/sys/unix"
)

func TestOpenSocket_ConnectAndLocalAddr(t *testing.T) {
	addr, cleanup := setupTcpTestServer(t, func(conn net.Conn) {})
	defer cleanup()

	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		t.Fatalf("ResolveTCPAddr failed: %v", err)
	}

	fd, sa, err := openSocket(tcpAddr, false)
	if err != nil {
		t.Fatalf("openSocket failed: %v", err)
	}
	defer unix.Close(fd)

	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok || in4.Port != tcpAddr.Port {
		t.Fatalf("Expected IPv4 sockaddr for port %d, got %#v", tcpAddr.Port, sa)
	}

	if err := unix.Connect(fd, sa); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	local, ok := localAddr(fd).(*net.TCPAddr)
	if !ok || !local.IP.Equal(net.IPv4(127, 0, 0, 1)) || local.Port == 0 {
		t.Errorf("Unexpected local address %v", localAddr(fd))
	}
}

func TestOpenSocket_NoDelay(t *testing.T) {
	fd, _, err := openSocket(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 80}, true)
	if err != nil {
		t.Fatalf("openSocket failed: %v", err)
	}
	defer unix.Close(fd)

	v, err := unix.GetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY)
	if err != nil || v == 0 {
		t.Errorf("Expected TCP_NODELAY set, got %d (%v)", v, err)
	}
}
