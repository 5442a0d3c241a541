package transport

import (
	"crypto/tls"

	"github.com/lukaarma/wannabeCurl/buffer"
	"github.com/lukaarma/wannabeCurl/internal/obs"
)

var (
	// CRLF terminates a single protocol line.
	CRLF = []byte("\r\n")
	// HeadersEnd terminates a header block.
	HeadersEnd = []byte("\r\n\r\n")
)

// Transport defines the operations the HTTP layer needs from a connection.
// A Transport carries exactly one exchange: it is connected once and closed
// once.
type Transport interface {
	// Connect resolves host and connects to it, negotiating TLS when secure
	// is set. host may carry an explicit ":port".
	Connect(host string, secure bool) error

	// Send writes the whole of buf or fails.
	Send(buf []byte) error

	// ReceiveExact blocks until exactly n bytes have been read.
	ReceiveExact(n int) ([]byte, error)

	// ReceiveUntil reads until the received bytes end with delim. The
	// returned slice includes delim.
	ReceiveUntil(delim []byte) ([]byte, error)

	// Close releases the connection.
	Close() error
}

// Backend names the implementation used for the plain socket.
type Backend string

const (
	BackendNet     Backend = "net"
	BackendIOURing Backend = "iouring"
	BackendURing   Backend = "uring"
)

const (
	HttpPort  = "80"
	HttpsPort = "443"
)

// Config carries the process-scoped settings of a connection.
type Config struct {
	// Backend selects the plain socket implementation.
	Backend Backend

	// Network restricts DNS resolution: "ip4", "ip6" or "ip".
	Network string

	// UnixSocket, when set, is dialed instead of resolving the host.
	UnixSocket string

	// TLS is cloned for secure connections. MinVersion is raised to TLS 1.2
	// and ServerName defaults to the host.
	TLS *tls.Config

	// MaxLineBytes bounds ReceiveUntil. Zero means unbounded.
	MaxLineBytes int

	// GrowIncrement is the step used when line buffers grow.
	GrowIncrement int

	// MaxPayloadBytes bounds serialized requests and decoded chunked
	// bodies. Zero means buffer.MaxSize.
	MaxPayloadBytes int

	Logger obs.Logger
}

// DefaultConfig returns the settings used when none are given: the net
// backend, IPv4 only, no line limit.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendNet,
		Network:       "ip4",
		GrowIncrement: buffer.DefaultIncrement,
		Logger:        obs.NopLogger{},
	}
}
