//go:build linux && iouring

package transport

import (
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/iceber/iouring-go"
	"golang.org/x/sys/unix"

	"github.com/lukaarma/wannabeCurl/errors"
)

// IOURingDialer connects, sends and receives through io_uring requests
// submitted with iouring-go. Each connection owns its ring.
//
// iouring-go links against syscall internals, so the backend is only built
// with the iouring tag and -ldflags=-checklinkname=0.
type IOURingDialer struct{}

func newIOURingDialer() (Dialer, error) {
	return IOURingDialer{}, nil
}

// Dial establishes a TCP connection using io_uring
func (IOURingDialer) Dial(addr *net.TCPAddr) (net.Conn, error) {
	// Create io_uring instance with queue depth of 32
	iour, err := iouring.New(ringEntries)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	fd, sa, err := openSocket(addr, true)
	if err != nil {
		iour.Close()
		return nil, err
	}

	prepReq, err := iouring.Connect(fd, toSyscallSockaddr(sa))
	if err != nil {
		unix.Close(fd)
		iour.Close()
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to prepare connect request",
			err,
		)
	}

	// Submit connect operation via io_uring
	ch := make(chan iouring.Result, 1)
	if _, err := iour.SubmitRequest(prepReq, ch); err != nil {
		unix.Close(fd)
		iour.Close()
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit connect request",
			err,
		)
	}

	// Wait for connect to complete; connect carries no return value
	result := <-ch
	if err := result.Err(); err != nil {
		unix.Close(fd)
		iour.Close()
		return nil, classifyDialError(addr.String(), err)
	}

	return &iouringConn{
		iour:   iour,
		fd:     fd,
		local:  localAddr(fd),
		remote: addr,
	}, nil
}

// toSyscallSockaddr converts the x/sys address iouring-go cannot take.
func toSyscallSockaddr(sa unix.Sockaddr) syscall.Sockaddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &syscall.SockaddrInet4{Port: a.Port, Addr: a.Addr}
	case *unix.SockaddrInet6:
		return &syscall.SockaddrInet6{Port: a.Port, ZoneId: a.ZoneId, Addr: a.Addr}
	default:
		return nil
	}
}

// iouringConn is a net.Conn over a connected socket driven by iouring-go.
type iouringConn struct {
	noDeadlines

	iour   *iouring.IOURing
	fd     int
	closed bool
	local  net.Addr
	remote net.Addr
}

// Write sends data over the connection using io_uring
func (c *iouringConn) Write(buf []byte) (int, error) {
	if c.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		prepReq := iouring.Send(c.fd, buf[totalWritten:], 0)
		if _, err := c.iour.SubmitRequest(prepReq, ch); err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorIoUringSubmit,
				"failed to submit write request",
				err,
			)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			if err == syscall.EPIPE || err == syscall.ECONNRESET {
				return totalWritten, errors.NewTransportError(
					errors.TransportErrorConnectionClosed,
					"connection closed during write",
					err,
				)
			}
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write failed",
				err,
			)
		}

		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// Read receives data from the connection using io_uring. A closed peer is
// reported as io.EOF so buffered and TLS readers see a normal end of stream.
func (c *iouringConn) Read(buf []byte) (int, error) {
	if c.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}
	if len(buf) == 0 {
		return 0, nil
	}

	ch := make(chan iouring.Result, 1)
	prepReq := iouring.Recv(c.fd, buf, 0)
	if _, err := c.iour.SubmitRequest(prepReq, ch); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

// Close closes the socket and the ring
func (c *iouringConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := unix.Close(c.fd)
	c.fd = -1
	c.iour.Close()

	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			fmt.Sprintf("failed to close socket to %s", c.remote),
			err,
		)
	}

	return nil
}

func (c *iouringConn) LocalAddr() net.Addr  { return c.local }
func (c *iouringConn) RemoteAddr() net.Addr { return c.remote }
