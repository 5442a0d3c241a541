package transport

import (
	stderrors "errors"
	"fmt"
	"net"
	"syscall"

	"github.com/lukaarma/wannabeCurl/errors"
)

// Dialer opens the plain byte stream a Conn runs over. Implementations
// hold no connection state of their own.
type Dialer interface {
	Dial(addr *net.TCPAddr) (net.Conn, error)
}

// NewDialer returns the Dialer for backend. The empty backend selects
// BackendNet.
func NewDialer(backend Backend) (Dialer, error) {
	switch backend {
	case "", BackendNet:
		return TcpDialer{}, nil
	case BackendIOURing:
		return newIOURingDialer()
	case BackendURing:
		return newURingDialer()
	default:
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("unknown transport backend %q", backend))
	}
}

// TcpDialer connects through the standard network poller.
type TcpDialer struct{}

// Dial establishes a TCP connection to addr
func (TcpDialer) Dial(addr *net.TCPAddr) (net.Conn, error) {
	conn, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		return nil, classifyDialError(addr.String(), err)
	}

	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if err := conn.SetNoDelay(true); err != nil {
		conn.Close()
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set TCP_NODELAY",
			err,
		)
	}

	return conn, nil
}

func classifyDialError(addr string, err error) error {
	switch {
	case stderrors.Is(err, syscall.ECONNREFUSED):
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("connection to %s refused", addr),
			err,
		)
	case stderrors.Is(err, syscall.EMFILE), stderrors.Is(err, syscall.ENFILE):
		return errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"could not create socket",
			err,
		)
	default:
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s", addr),
			err,
		)
	}
}
