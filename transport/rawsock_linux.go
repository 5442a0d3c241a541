//go:build linux

package transport

import (
	"fmt"
	"net"
	"time"

	sockaddrnet "github.com/libp2p/go-sockaddr/net"
	"golang.org/x/sys/unix"

	"github.com/lukaarma/wannabeCurl/errors"
)

// ringEntries is the submission queue depth of every ring.
const ringEntries = 32

// openSocket creates a TCP socket of the family matching addr and returns
// it with the address in the form the connect call expects.
func openSocket(addr *net.TCPAddr, nonblock bool) (int, unix.Sockaddr, error) {
	sa := sockaddrnet.TCPAddrToSockaddr(addr)
	if sa == nil {
		return -1, nil, errors.NewInvalidArgumentError(fmt.Sprintf("unsupported address %s", addr))
	}

	family := unix.AF_INET6
	if addr.IP.To4() != nil {
		family = unix.AF_INET
	}

	// Create socket
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	if nonblock {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fd)
			return -1, nil, errors.NewTransportError(
				errors.TransportErrorSocketCreateFailure,
				"failed to set non-blocking mode",
				err,
			)
		}
	}

	// Set TCP_NODELAY
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return -1, nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set TCP_NODELAY",
			err,
		)
	}

	return fd, sa, nil
}

// localAddr reports the bound address of fd, or nil when unknown.
func localAddr(fd int) net.Addr {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil
	}
	if addr := sockaddrnet.SockaddrToTCPAddr(sa); addr != nil {
		return addr
	}
	return nil
}

// noDeadlines supplies the net.Conn deadline methods for ring-backed
// connections. Exchanges have no timeouts, so they accept and ignore
// every deadline.
type noDeadlines struct{}

func (noDeadlines) SetDeadline(time.Time) error      { return nil }
func (noDeadlines) SetReadDeadline(time.Time) error  { return nil }
func (noDeadlines) SetWriteDeadline(time.Time) error { return nil }
