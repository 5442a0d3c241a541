package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"

	"github.com/lukaarma/wannabeCurl/buffer"
	"github.com/lukaarma/wannabeCurl/errors"
	"github.com/lukaarma/wannabeCurl/internal/obs"
)

// Conn implements Transport over a plain socket, optionally wrapped in a
// TLS session. Once connected, all I/O goes through exactly one of them.
type Conn struct {
	cfg    Config
	dialer Dialer
	log    obs.Logger

	raw    net.Conn
	tls    *tls.Conn
	br     *bufio.Reader
	closed bool
}

// NewConn creates an unconnected Conn for the configured backend.
func NewConn(cfg Config) (*Conn, error) {
	if cfg.Network == "" {
		cfg.Network = "ip4"
	}
	if cfg.GrowIncrement <= 0 {
		cfg.GrowIncrement = buffer.DefaultIncrement
	}
	if cfg.Logger == nil {
		cfg.Logger = obs.NopLogger{}
	}

	d, err := NewDialer(cfg.Backend)
	if err != nil {
		return nil, err
	}

	return &Conn{cfg: cfg, dialer: d, log: cfg.Logger}, nil
}

// Connect establishes the connection to host. Every resolved address is
// tried once in order; the first successful dial wins.
func (c *Conn) Connect(host string, secure bool) error {
	if c.raw != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}

	hostname, port, err := splitHostPort(host, secure)
	if err != nil {
		return err
	}

	var raw net.Conn
	if c.cfg.UnixSocket != "" {
		c.log.Logf(obs.Info, "Connecting to unix socket '%s'...", c.cfg.UnixSocket)
		raw, err = DialUnix(c.cfg.UnixSocket)
	} else {
		raw, err = c.dialHost(hostname, port)
	}
	if err != nil {
		return err
	}

	if !secure {
		c.raw = raw
		c.br = bufio.NewReader(raw)
		return nil
	}

	tlsConn, err := c.handshake(raw, hostname)
	if err != nil {
		raw.Close()
		return err
	}

	c.raw = raw
	c.tls = tlsConn
	c.br = bufio.NewReader(tlsConn)
	return nil
}

func (c *Conn) dialHost(hostname string, port int) (net.Conn, error) {
	c.log.Logf(obs.Info, "Resolving '%s'...", hostname)

	ips, err := net.DefaultResolver.LookupIP(context.Background(), c.cfg.Network, hostname)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			fmt.Sprintf("could not resolve '%s'", hostname),
			err,
		)
	}

	var lastErr error
	for _, ip := range ips {
		c.log.Logf(obs.Verbose, "Resolved '%s' to '%s'", hostname, ip)

		conn, err := c.dialer.Dial(&net.TCPAddr{IP: ip, Port: port})
		if err == nil {
			c.log.Logf(obs.Info, "Socket created and connected to '%s'!", hostname)
			return conn, nil
		}

		c.log.Logf(obs.Warn, "Could not connect to '%s', trying next address...", ip)
		c.log.Logf(obs.Debug, "dial %s: %v", ip, err)
		lastErr = err
	}

	return nil, errors.NewTransportError(
		errors.TransportErrorSocketConnectFailure,
		fmt.Sprintf("could not create and connect socket to '%s'", hostname),
		lastErr,
	)
}

func (c *Conn) handshake(raw net.Conn, hostname string) (*tls.Conn, error) {
	var conf *tls.Config
	if c.cfg.TLS != nil {
		conf = c.cfg.TLS.Clone()
	} else {
		conf = &tls.Config{}
	}
	if conf.MinVersion < tls.VersionTLS12 {
		conf.MinVersion = tls.VersionTLS12
	}
	if conf.ServerName == "" {
		conf.ServerName = hostname
	}

	tlsConn := tls.Client(raw, conf)
	if err := tlsConn.Handshake(); err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorTlsFailure,
			"could not connect secure socket",
			err,
		)
	}

	state := tlsConn.ConnectionState()
	c.log.Logf(obs.Verbose, "TLS session established (%s)", tls.VersionName(state.Version))
	return tlsConn, nil
}

// Send writes buf through the active channel.
func (c *Conn) Send(buf []byte) error {
	w, err := c.active()
	if err != nil {
		return err
	}

	c.log.Logf(obs.Debug, "Sending %d bytes", len(buf))

	n, err := w.Write(buf)
	if err != nil {
		if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
			return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed during write", err)
		}
		return errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "could not send message", err)
	}
	if n != len(buf) {
		return errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			fmt.Sprintf("short write: %d of %d bytes", n, len(buf)),
			nil,
		)
	}

	return nil
}

// ReceiveExact reads exactly n bytes.
func (c *Conn) ReceiveExact(n int) ([]byte, error) {
	if c.br == nil || c.closed {
		return nil, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "not connected", nil)
	}
	if n <= 0 {
		return []byte{}, nil
	}
	if n > buffer.MaxSize {
		return nil, errors.NewMemoryError(fmt.Sprintf("cannot allocate buffer to receive %d bytes", n))
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(c.br, buf)
	if err != nil {
		return nil, readError(err, fmt.Sprintf("read %d of %d bytes", read, n))
	}

	c.log.Logf(obs.Debug, "Read %d/%d bytes", read, n)
	return buf, nil
}

// ReceiveUntil reads one byte at a time until the bytes read so far end
// with delim. It stops at the earliest match.
func (c *Conn) ReceiveUntil(delim []byte) ([]byte, error) {
	if c.br == nil || c.closed {
		return nil, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "not connected", nil)
	}
	if len(delim) == 0 {
		return nil, errors.NewInvalidArgumentError("empty delimiter")
	}

	line := buffer.Acquire(c.cfg.GrowIncrement)
	defer line.Release()

	for {
		b, err := c.br.ReadByte()
		if err != nil {
			return nil, readError(err, fmt.Sprintf("after %d bytes", line.Len()))
		}
		if err := line.WriteByte(b); err != nil {
			return nil, err
		}

		if c.cfg.MaxLineBytes > 0 && line.Len() > c.cfg.MaxLineBytes {
			return nil, errors.NewProtocolError(
				errors.ProtocolErrorMessageTooLarge,
				fmt.Sprintf("no %q within %d bytes", delim, c.cfg.MaxLineBytes),
			)
		}

		if line.Len() >= len(delim) && line.HasSuffix(delim) {
			return line.Detach(), nil
		}
	}
}

// Close shuts down the TLS session if there is one, otherwise the socket.
func (c *Conn) Close() error {
	if c.raw == nil || c.closed {
		return nil
	}
	c.closed = true

	var err error
	if c.tls != nil {
		err = c.tls.Close()
	} else {
		err = c.raw.Close()
	}
	if err != nil {
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "failed to close socket", err)
	}

	return nil
}

// Secure reports whether I/O is routed through a TLS session.
func (c *Conn) Secure() bool {
	return c.tls != nil
}

func (c *Conn) active() (io.Writer, error) {
	if c.raw == nil || c.closed {
		return nil, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "not connected", nil)
	}
	if c.tls != nil {
		return c.tls, nil
	}
	return c.raw, nil
}

func readError(err error, detail string) error {
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, syscall.ECONNRESET) {
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer, "+detail, err)
	}
	var he *errors.HttpError
	if stderrors.As(err, &he) {
		return he
	}
	return errors.NewTransportError(errors.TransportErrorSocketReadFailure, "error while reading from socket, "+detail, err)
}

func splitHostPort(host string, secure bool) (string, int, error) {
	port := HttpPort
	if secure {
		port = HttpsPort
	}

	hostname := host
	if h, p, err := net.SplitHostPort(host); err == nil {
		hostname, port = h, p
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		hostname = host[1 : len(host)-1]
	}
	if hostname == "" {
		return "", 0, errors.NewInvalidArgumentError("empty host")
	}

	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return "", 0, errors.NewInvalidArgumentError(fmt.Sprintf("invalid port %q", port))
	}

	return hostname, n, nil
}
