package protocol

import (
	"bytes"

	"github.com/lukaarma/wannabeCurl/errors"
)

// memTransport replays a canned response and records what was sent.
type memTransport struct {
	in     []byte
	sent   []byte
	host   string
	secure bool
	closed bool
}

func newMemTransport(response string) *memTransport {
	return &memTransport{in: []byte(response)}
}

func (m *memTransport) Connect(host string, secure bool) error {
	m.host = host
	m.secure = secure
	return nil
}

func (m *memTransport) Send(buf []byte) error {
	m.sent = append(m.sent, buf...)
	return nil
}

func (m *memTransport) ReceiveExact(n int) ([]byte, error) {
	if n > len(m.in) {
		m.in = nil
		return nil, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", nil)
	}
	out := append([]byte(nil), m.in[:n]...)
	m.in = m.in[n:]
	return out, nil
}

func (m *memTransport) ReceiveUntil(delim []byte) ([]byte, error) {
	i := bytes.Index(m.in, delim)
	if i < 0 {
		m.in = nil
		return nil, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", nil)
	}
	return m.ReceiveExact(i + len(delim))
}

func (m *memTransport) Close() error {
	m.closed = true
	return nil
}
