package client

import (
	"github.com/lukaarma/wannabeCurl/errors"
	"github.com/lukaarma/wannabeCurl/internal/obs"
	"github.com/lukaarma/wannabeCurl/protocol"
	"github.com/lukaarma/wannabeCurl/transport"
)

// HttpClient runs single-shot exchanges: every call connects, sends one
// request, reads one response and closes.
type HttpClient struct {
	protocol *protocol.Http1Protocol
	log      obs.Logger
}

// NewHttpClient creates a new HTTP client with the given protocol
func NewHttpClient(proto *protocol.Http1Protocol, log obs.Logger) *HttpClient {
	if log == nil {
		log = obs.NopLogger{}
	}
	return &HttpClient{
		protocol: proto,
		log:      log,
	}
}

// New builds the transport described by cfg and a client over it.
func New(cfg transport.Config) (*HttpClient, error) {
	conn, err := transport.NewConn(cfg)
	if err != nil {
		return nil, err
	}

	proto := protocol.NewHttp1Protocol(conn, cfg.Logger)
	proto.SetGrowIncrement(cfg.GrowIncrement)
	proto.SetMaxPayload(cfg.MaxPayloadBytes)

	return NewHttpClient(proto, cfg.Logger), nil
}

// Do connects to req.Host, performs req and closes the connection. The
// connection is closed whatever the outcome.
func (c *HttpClient) Do(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	if req == nil {
		return nil, errors.NewInvalidArgumentError("nil request")
	}

	scheme := "http"
	if req.Secure {
		scheme = "https"
	}
	c.log.Logf(obs.Info, "Connecting to %s://%s...", scheme, req.Host)

	if err := c.protocol.Connect(req); err != nil {
		return nil, err
	}
	defer func() {
		if err := c.protocol.Disconnect(); err != nil {
			c.log.Logf(obs.Warn, "Closing connection to %s failed: %v", req.Host, err)
		}
	}()

	c.log.Logf(obs.Info, "Connected! Sending %s %s", req.Method, req.Path)

	return c.protocol.PerformRequest(req)
}

// Get performs req as a GET request
func (c *HttpClient) Get(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	req.Method = protocol.MethodGet
	return c.Do(req)
}

// Post performs req as a POST request
func (c *HttpClient) Post(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	req.Method = protocol.MethodPost
	return c.Do(req)
}
