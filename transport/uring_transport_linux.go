//go:build linux

package transport

import (
	"io"
	"net"
	"os"

	"github.com/godzie44/go-uring/uring"
	"golang.org/x/sys/unix"

	"github.com/lukaarma/wannabeCurl/errors"
)

// URingDialer connects with a blocking connect and moves data through
// read/write operations queued on a godzie44/go-uring ring.
type URingDialer struct{}

func newURingDialer() (Dialer, error) {
	return URingDialer{}, nil
}

// Dial establishes a TCP connection
func (URingDialer) Dial(addr *net.TCPAddr) (net.Conn, error) {
	// Create io_uring instance with queue depth of 32
	ring, err := uring.New(ringEntries)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	fd, sa, err := openSocket(addr, false)
	if err != nil {
		ring.Close()
		return nil, err
	}

	// Use blocking connect for now
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		ring.Close()
		return nil, classifyDialError(addr.String(), err)
	}

	return &uringConn{
		ring:   ring,
		file:   os.NewFile(uintptr(fd), "socket"),
		fd:     uintptr(fd),
		local:  localAddr(fd),
		remote: addr,
	}, nil
}

// uringConn is a net.Conn over a connected socket driven by go-uring.
type uringConn struct {
	noDeadlines

	ring   *uring.Ring
	file   *os.File
	fd     uintptr
	local  net.Addr
	remote net.Addr
}

// complete queues op, submits it and waits for its completion.
func (c *uringConn) complete(op uring.Operation, what string) (int, error) {
	if err := c.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue "+what+" request",
			err,
		)
	}

	// Submit and wait
	if _, err := c.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit "+what+" request",
			err,
		)
	}

	cqe, err := c.ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to wait for "+what+" completion",
			err,
		)
	}

	if err := cqe.Error(); err != nil {
		c.ring.SeenCQE(cqe)
		return 0, err
	}

	n := int(cqe.Res)
	c.ring.SeenCQE(cqe)
	return n, nil
}

// Write sends data over the connection using io_uring
func (c *uringConn) Write(buf []byte) (int, error) {
	if c.file == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := c.complete(uring.Write(c.fd, buf[totalWritten:], 0), "write")
		if err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write operation failed",
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

// Read receives data from the connection using io_uring
func (c *uringConn) Read(buf []byte) (int, error) {
	if c.file == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}
	if len(buf) == 0 {
		return 0, nil
	}

	n, err := c.complete(uring.Read(c.fd, buf, 0), "read")
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read operation failed",
			err,
		)
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

// Close closes the socket and the ring
func (c *uringConn) Close() error {
	if c.file == nil {
		return nil
	}

	err := c.file.Close()
	c.file = nil
	c.ring.Close()

	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"failed to close socket",
			err,
		)
	}

	return nil
}

func (c *uringConn) LocalAddr() net.Addr  { return c.local }
func (c *uringConn) RemoteAddr() net.Addr { return c.remote }
