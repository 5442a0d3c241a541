package protocol

import (
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/lukaarma/wannabeCurl/errors"
)

// HttpMethod represents HTTP request methods
type HttpMethod int

const (
	MethodGet HttpMethod = iota
	MethodHead
	MethodOptions
	MethodPost
	MethodPut
	MethodDelete
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
}

func (m HttpMethod) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("HttpMethod(%d)", int(m))
	}
	return methodNames[m]
}

// HasBody reports whether a request with this method transmits its body.
func (m HttpMethod) HasBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodDelete
}

// ParseMethod matches name case-insensitively against the supported methods.
func ParseMethod(name string) (HttpMethod, error) {
	for i, n := range methodNames {
		if strings.EqualFold(name, n) {
			return HttpMethod(i), nil
		}
	}
	return MethodGet, errors.NewInvalidArgumentError(fmt.Sprintf("'%s' method not supported", name))
}

// ContentType is the declared kind of a message body.
type ContentType int

const (
	ContentNone ContentType = iota
	ContentText
	ContentHTML
	ContentForm
	ContentJSON
)

var contentTypeValues = [...]string{
	ContentNone: "",
	ContentText: "text/plain",
	ContentHTML: "text/html",
	ContentForm: "application/x-www-form-urlencoded",
	ContentJSON: "application/json",
}

var contentTypeExtensions = [...]string{
	ContentNone: "txt",
	ContentText: "txt",
	ContentHTML: "html",
	ContentForm: "txt",
	ContentJSON: "json",
}

// Value returns the media type sent in a Content-Type header.
func (c ContentType) Value() string {
	if c < 0 || int(c) >= len(contentTypeValues) {
		return ""
	}
	return contentTypeValues[c]
}

// Extension returns the file extension used when saving a body of this kind.
func (c ContentType) Extension() string {
	if c < 0 || int(c) >= len(contentTypeExtensions) {
		return "txt"
	}
	return contentTypeExtensions[c]
}

func (c ContentType) String() string {
	switch c {
	case ContentNone:
		return "none"
	case ContentText:
		return "text"
	case ContentHTML:
		return "html"
	case ContentForm:
		return "form"
	case ContentJSON:
		return "json"
	default:
		return fmt.Sprintf("ContentType(%d)", int(c))
	}
}

// Chain is a push-front sequence: Items returns the most recently pushed
// element first. Header lines and form entries are both kept this way, and
// that order is the order they go on the wire.
type Chain struct {
	items []string
}

// Push adds v in front of every element already in the chain.
func (c *Chain) Push(v string) {
	c.items = append(c.items, v)
}

// Len returns the number of elements.
func (c *Chain) Len() int { return len(c.items) }

// Items returns the elements, most recently pushed first.
func (c *Chain) Items() []string {
	out := make([]string, len(c.items))
	for i, v := range c.items {
		out[len(c.items)-1-i] = v
	}
	return out
}

// HttpRequest is one request of a single exchange.
type HttpRequest struct {
	Secure  bool
	Host    string
	Path    string
	Method  HttpMethod
	Headers Chain

	// Type is the declared body kind. It is set at most once.
	Type ContentType
	// Text is the body for text, html and json kinds.
	Text string
	// Form holds URL-encoded entries for the form kind.
	Form Chain

	// ContentLength is computed by GenerateHeaders.
	ContentLength int

	// Payload is the serialized request, valid after BuildRequest.
	// len(Payload) is the exact number of bytes to transmit.
	Payload []byte

	headersGenerated bool
}

// NewHttpRequest validates host and path and returns a request without
// headers or body.
func NewHttpRequest(method HttpMethod, host, path string, secure bool) (*HttpRequest, error) {
	if host == "" || !httpguts.ValidHostHeader(host) {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("invalid host %q", host))
	}
	if path == "" {
		path = "/"
	}
	if strings.ContainsAny(path, " \r\n") {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("invalid path %q", path))
	}

	return &HttpRequest{
		Secure: secure,
		Host:   host,
		Path:   path,
		Method: method,
	}, nil
}

// AddHeader pushes a "Name: value" line onto the header chain.
func (r *HttpRequest) AddHeader(line string) error {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return errors.NewInvalidArgumentError(fmt.Sprintf("header %q is not 'name: value'", line))
	}
	name := line[:i]
	value := strings.TrimSpace(line[i+1:])
	if !httpguts.ValidHeaderFieldName(name) {
		return errors.NewInvalidArgumentError(fmt.Sprintf("invalid header name %q", name))
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return errors.NewInvalidArgumentError(fmt.Sprintf("invalid value for header %q", name))
	}

	r.Headers.Push(line)
	return nil
}

// SetBody declares a text, html or json body. It reports false, leaving
// the request unchanged, when a body kind was already declared.
func (r *HttpRequest) SetBody(kind ContentType, text string) bool {
	if r.Type != ContentNone || kind == ContentNone || kind == ContentForm {
		return false
	}
	r.Type = kind
	r.Text = text
	return true
}

// AddFormEntry URL-encodes a key=value pair and pushes it onto the form
// chain. It reports false when a non-form body was already declared.
func (r *HttpRequest) AddFormEntry(entry string) bool {
	if r.Type != ContentNone && r.Type != ContentForm {
		return false
	}
	r.Type = ContentForm
	r.Form.Push(EncodeFormEntry(entry))
	return true
}

// ChunkedLength marks a response whose body length is only known after
// decoding its chunks.
const ChunkedLength = -1

// HttpResponse represents an HTTP response
type HttpResponse struct {
	StatusCode int
	Type       ContentType
	// ContentLength is the declared body length, ChunkedLength until a
	// chunked body has been read, then the decoded length.
	ContentLength int
	Body          []byte

	// RawHeaders is the header block as received, status line included.
	RawHeaders []byte
}
