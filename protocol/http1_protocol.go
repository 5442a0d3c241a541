package protocol

import (
	"strconv"

	"github.com/lukaarma/wannabeCurl/buffer"
	"github.com/lukaarma/wannabeCurl/errors"
	"github.com/lukaarma/wannabeCurl/internal/obs"
	"github.com/lukaarma/wannabeCurl/transport"
)

const crlf = "\r\n"

// Http1Protocol implements HTTP/1.1 protocol over a transport
type Http1Protocol struct {
	transport  transport.Transport
	log        obs.Logger
	increment  int
	maxPayload int
}

// NewHttp1Protocol creates a new HTTP/1.1 protocol handler. log may be nil.
func NewHttp1Protocol(t transport.Transport, log obs.Logger) *Http1Protocol {
	if log == nil {
		log = obs.NopLogger{}
	}
	return &Http1Protocol{
		transport:  t,
		log:        log,
		increment:  buffer.DefaultIncrement,
		maxPayload: buffer.MaxSize,
	}
}

// SetGrowIncrement changes the step used when payload buffers grow.
func (p *Http1Protocol) SetGrowIncrement(n int) {
	if n > 0 {
		p.increment = n
	}
}

// SetMaxPayload bounds the size of a serialized request and of a decoded
// chunked body. Values outside (0, buffer.MaxSize] restore the default.
func (p *Http1Protocol) SetMaxPayload(n int) {
	if n <= 0 || n > buffer.MaxSize {
		n = buffer.MaxSize
	}
	p.maxPayload = n
}

// Connect establishes a connection to the request's host
func (p *Http1Protocol) Connect(req *HttpRequest) error {
	return p.transport.Connect(req.Host, req.Secure)
}

// Disconnect closes the connection
func (p *Http1Protocol) Disconnect() error {
	return p.transport.Close()
}

// GenerateHeaders computes the body length and pushes the Content-Type and
// Content-Length headers. Content-Length is pushed last, so it is the first
// header on the wire. Calling it again has no effect.
func (p *Http1Protocol) GenerateHeaders(req *HttpRequest) {
	if req.headersGenerated {
		return
	}

	switch req.Type {
	case ContentText, ContentHTML, ContentJSON:
		req.ContentLength = len(req.Text)
		req.Headers.Push("Content-Type: " + req.Type.Value())
	case ContentForm:
		req.ContentLength = 0
		n := req.Form.Len()
		for i, entry := range req.Form.Items() {
			// account the & separator between entries
			req.ContentLength += len(entry)
			if i < n-1 {
				req.ContentLength++
			}
		}
		req.Headers.Push("Content-Type: " + req.Type.Value())
	}

	req.Headers.Push("Content-Length: " + strconv.Itoa(req.ContentLength))
	req.headersGenerated = true
}

// BuildRequest serializes req into req.Payload. Headers must have been
// generated first.
func (p *Http1Protocol) BuildRequest(req *HttpRequest) error {
	if !req.headersGenerated {
		return errors.NewProtocolError(errors.ProtocolErrorInvalidRequest, "headers not generated")
	}

	buf := buffer.NewLimited(p.increment, p.maxPayload)

	// Request line and Host header
	for _, s := range []string{req.Method.String(), " ", req.Path, " HTTP/1.1" + crlf, "Host: ", req.Host, crlf} {
		if _, err := buf.WriteString(s); err != nil {
			return err
		}
	}

	// Headers
	for _, line := range req.Headers.Items() {
		// + 2 for the CRLF, + 2 for the blank line that may follow
		if err := buf.Ensure(buf.Len() + len(line) + 4); err != nil {
			return err
		}
		if _, err := buf.WriteString(line + crlf); err != nil {
			return err
		}
	}
	if _, err := buf.WriteString(crlf); err != nil {
		return err
	}

	p.log.Logf(obs.Debug, "HTTP payload headers done")

	// Body
	if req.Method.HasBody() {
		if err := buf.Ensure(buf.Len() + req.ContentLength); err != nil {
			return err
		}

		switch req.Type {
		case ContentText, ContentHTML, ContentJSON:
			if _, err := buf.WriteString(req.Text); err != nil {
				return err
			}
		case ContentForm:
			for i, entry := range req.Form.Items() {
				if i > 0 {
					if err := buf.WriteByte('&'); err != nil {
						return err
					}
				}
				if _, err := buf.WriteString(entry); err != nil {
					return err
				}
			}
		}

		p.log.Logf(obs.Debug, "HTTP payload body done")
	} else if req.Type != ContentNone {
		p.log.Logf(obs.Warn, "%s requests carry no body, the %s body is not sent", req.Method, req.Type)
	}

	req.Payload = buf.Bytes()
	return nil
}

// SendRequest transmits a built request.
func (p *Http1Protocol) SendRequest(req *HttpRequest) error {
	if req.Payload == nil {
		return errors.NewProtocolError(errors.ProtocolErrorInvalidRequest, "request not built")
	}
	return p.transport.Send(req.Payload)
}

// ReceiveResponse reads the header block and the body of the response to
// req. Responses to HEAD, 1xx, 204 and 304 carry no body whatever their
// headers declare.
func (p *Http1Protocol) ReceiveResponse(req *HttpRequest) (*HttpResponse, error) {
	p.log.Logf(obs.Info, "Receiving and parsing response headers..")

	headers, err := p.transport.ReceiveUntil(transport.HeadersEnd)
	if err != nil {
		return nil, err
	}

	res := &HttpResponse{}
	if err := ParseHeaders(headers, res); err != nil {
		return nil, err
	}

	if req != nil && (req.Method == MethodHead || !statusAllowsBody(res.StatusCode)) {
		p.log.Logf(obs.Verbose, "Response to %s with status %d has no body", req.Method, res.StatusCode)
		res.ContentLength = 0
		return res, nil
	}

	p.log.Logf(obs.Info, "Done! Now receiving response body..")

	if err := p.ReceiveBody(res); err != nil {
		return nil, err
	}

	return res, nil
}

// PerformRequest generates headers, builds and sends req, then reads the
// response.
func (p *Http1Protocol) PerformRequest(req *HttpRequest) (*HttpResponse, error) {
	p.GenerateHeaders(req)

	if err := p.BuildRequest(req); err != nil {
		return nil, err
	}

	if err := p.SendRequest(req); err != nil {
		return nil, err
	}

	p.log.Logf(obs.Info, "Request sent! Size: %d bytes.", len(req.Payload))

	return p.ReceiveResponse(req)
}

func statusAllowsBody(code int) bool {
	return code >= 200 && code != 204 && code != 304
}
