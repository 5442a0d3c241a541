package protocol

import (
	"strings"
	"testing"

	"github.com/lukaarma/wannabeCurl/errors"
)

func newTestRequest(t *testing.T, method HttpMethod, path string) *HttpRequest {
	t.Helper()
	req, err := NewHttpRequest(method, "example.com", path, false)
	if err != nil {
		t.Fatalf("NewHttpRequest failed: %v", err)
	}
	return req
}

func buildPayload(t *testing.T, req *HttpRequest) string {
	t.Helper()
	p := NewHttp1Protocol(newMemTransport(""), nil)
	p.GenerateHeaders(req)
	if err := p.BuildRequest(req); err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	return string(req.Payload)
}

func TestBuildRequest_MinimalGet(t *testing.T) {
	req := newTestRequest(t, MethodGet, "/")

	got := buildPayload(t, req)
	want := "GET / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 0\r\n\r\n"
	if got != want {
		t.Errorf("Expected payload %q, got %q", want, got)
	}
	if len(req.Payload) != len(want) {
		t.Errorf("Expected payload length %d, got %d", len(want), len(req.Payload))
	}
}

func TestBuildRequest_HeaderOrder(t *testing.T) {
	req := newTestRequest(t, MethodGet, "/")
	if err := req.AddHeader("A: 1"); err != nil {
		t.Fatalf("AddHeader failed: %v", err)
	}
	if err := req.AddHeader("B: 2"); err != nil {
		t.Fatalf("AddHeader failed: %v", err)
	}

	got := buildPayload(t, req)
	want := "GET / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 0\r\nB: 2\r\nA: 1\r\n\r\n"
	if got != want {
		t.Errorf("Expected payload %q, got %q", want, got)
	}
}

func TestBuildRequest_Form(t *testing.T) {
	req := newTestRequest(t, MethodPost, "/submit")
	req.AddFormEntry("a=1")
	req.AddFormEntry("b=2")

	got := buildPayload(t, req)
	want := "POST /submit HTTP/1.1\r\nHost: example.com\r\n" +
		"Content-Length: 7\r\n" +
		"Content-Type: application/x-www-form-urlencoded\r\n" +
		"\r\n" +
		"b=2&a=1"
	if got != want {
		t.Errorf("Expected payload %q, got %q", want, got)
	}
	if req.ContentLength != 7 {
		t.Errorf("Expected content length 7, got %d", req.ContentLength)
	}
}

func TestBuildRequest_TextAndJSON(t *testing.T) {
	tests := []struct {
		kind ContentType
		body string
		mime string
	}{
		{ContentText, "hello", "text/plain"},
		{ContentJSON, `{"a":1}`, "application/json"},
		{ContentHTML, "<p>x</p>", "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			req := newTestRequest(t, MethodPut, "/")
			if !req.SetBody(tt.kind, tt.body) {
				t.Fatal("SetBody refused the first body")
			}

			got := buildPayload(t, req)
			if !strings.Contains(got, "Content-Type: "+tt.mime+"\r\n") {
				t.Errorf("Payload %q lacks Content-Type %s", got, tt.mime)
			}
			if !strings.HasSuffix(got, "\r\n\r\n"+tt.body) {
				t.Errorf("Payload %q does not end with body %q", got, tt.body)
			}
			if req.ContentLength != len(tt.body) {
				t.Errorf("Expected content length %d, got %d", len(tt.body), req.ContentLength)
			}
		})
	}
}

func TestBuildRequest_BodyIgnoredForGet(t *testing.T) {
	req := newTestRequest(t, MethodGet, "/")
	req.SetBody(ContentText, "abc")

	got := buildPayload(t, req)
	if !strings.HasSuffix(got, "\r\n\r\n") {
		t.Errorf("Expected no body after headers, got %q", got)
	}
	if !strings.Contains(got, "Content-Length: 3\r\n") {
		t.Errorf("Expected declared Content-Length 3, got %q", got)
	}
}

func TestBuildRequest_WithoutHeaders(t *testing.T) {
	req := newTestRequest(t, MethodGet, "/")
	p := NewHttp1Protocol(newMemTransport(""), nil)

	err := p.BuildRequest(req)
	if !errors.IsProtocol(err, errors.ProtocolErrorInvalidRequest) {
		t.Errorf("Expected invalid request error, got %v", err)
	}
}

func TestGenerateHeaders_Idempotent(t *testing.T) {
	req := newTestRequest(t, MethodPost, "/")
	req.SetBody(ContentText, "abc")
	p := NewHttp1Protocol(newMemTransport(""), nil)

	p.GenerateHeaders(req)
	p.GenerateHeaders(req)

	if req.Headers.Len() != 2 {
		t.Errorf("Expected 2 generated headers, got %d", req.Headers.Len())
	}
}

func TestBuildRequest_SmallIncrement(t *testing.T) {
	req := newTestRequest(t, MethodPost, "/")
	body := strings.Repeat("x", 100)
	req.SetBody(ContentText, body)

	p := NewHttp1Protocol(newMemTransport(""), nil)
	p.SetGrowIncrement(7)
	p.GenerateHeaders(req)
	if err := p.BuildRequest(req); err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if !strings.HasSuffix(string(req.Payload), body) {
		t.Errorf("Body missing from payload %q", req.Payload)
	}
}

func TestSetBody_Conflict(t *testing.T) {
	req := newTestRequest(t, MethodPost, "/")

	if !req.SetBody(ContentText, "first") {
		t.Fatal("SetBody refused the first body")
	}
	if req.SetBody(ContentJSON, "{}") {
		t.Error("SetBody accepted a second body kind")
	}
	if req.AddFormEntry("a=1") {
		t.Error("AddFormEntry accepted a form after a text body")
	}
	if req.Type != ContentText || req.Text != "first" {
		t.Errorf("Expected first body to be kept, got %s %q", req.Type, req.Text)
	}
}

func TestAddFormEntry_ThenText(t *testing.T) {
	req := newTestRequest(t, MethodPost, "/")
	req.AddFormEntry("a=1")

	if req.SetBody(ContentText, "x") {
		t.Error("SetBody accepted a text body after a form")
	}
	if !req.AddFormEntry("b=2") {
		t.Error("AddFormEntry refused a second form entry")
	}
}

func TestAddHeader_Invalid(t *testing.T) {
	req := newTestRequest(t, MethodGet, "/")

	for _, line := range []string{"novalue", ": x", "Bad Name: x", "X: a\r\nInjected: 1"} {
		if err := req.AddHeader(line); errors.TypeOf(err) != errors.ErrorInvalidArgument {
			t.Errorf("AddHeader(%q): expected invalid argument, got %v", line, err)
		}
	}
	if req.Headers.Len() != 0 {
		t.Errorf("Expected no headers, got %d", req.Headers.Len())
	}
}

func TestNewHttpRequest(t *testing.T) {
	req, err := NewHttpRequest(MethodGet, "example.com:8080", "", true)
	if err != nil {
		t.Fatalf("NewHttpRequest failed: %v", err)
	}
	if req.Path != "/" {
		t.Errorf("Expected default path /, got %q", req.Path)
	}

	if _, err := NewHttpRequest(MethodGet, "", "/", false); err == nil {
		t.Error("Expected error for empty host")
	}
	if _, err := NewHttpRequest(MethodGet, "example.com", "/a b", false); err == nil {
		t.Error("Expected error for path with a space")
	}
}

func TestPerformRequest_FixedLength(t *testing.T) {
	trans := newMemTransport("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello")
	p := NewHttp1Protocol(trans, nil)
	req := newTestRequest(t, MethodGet, "/")

	if err := p.Connect(req); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	res, err := p.PerformRequest(req)
	if err != nil {
		t.Fatalf("PerformRequest failed: %v", err)
	}

	if string(trans.sent) != string(req.Payload) {
		t.Errorf("Expected %q on the wire, got %q", req.Payload, trans.sent)
	}
	if res.StatusCode != 200 {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}
	if res.Type != ContentText {
		t.Errorf("Expected text body, got %s", res.Type)
	}
	if string(res.Body) != "hello" || res.ContentLength != 5 {
		t.Errorf("Expected body hello (5), got %q (%d)", res.Body, res.ContentLength)
	}

	if err := p.Disconnect(); err != nil || !trans.closed {
		t.Errorf("Disconnect failed: %v", err)
	}
}

func TestReceiveResponse_Chunked(t *testing.T) {
	trans := newMemTransport("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
	p := NewHttp1Protocol(trans, nil)

	res, err := p.ReceiveResponse(newTestRequest(t, MethodGet, "/"))
	if err != nil {
		t.Fatalf("ReceiveResponse failed: %v", err)
	}
	if string(res.Body) != "Wikipedia" {
		t.Errorf("Expected body Wikipedia, got %q", res.Body)
	}
	if res.ContentLength != 9 {
		t.Errorf("Expected decoded length 9, got %d", res.ContentLength)
	}
}

func TestReceiveResponse_ChunkExtensions(t *testing.T) {
	trans := newMemTransport("HTTP/1.1 200 OK\r\nTransfer-Encoding: gzip, chunked\r\n\r\n" +
		"a;name=value\r\n0123456789\r\n1\r\n!\r\n0;last\r\n\r\n")
	p := NewHttp1Protocol(trans, nil)

	res, err := p.ReceiveResponse(nil)
	if err != nil {
		t.Fatalf("ReceiveResponse failed: %v", err)
	}
	if string(res.Body) != "0123456789!" || res.ContentLength != 11 {
		t.Errorf("Expected body 0123456789! (11), got %q (%d)", res.Body, res.ContentLength)
	}
}

func TestReceiveResponse_ChunkedLargeBody(t *testing.T) {
	chunk := strings.Repeat("z", 3000)
	trans := newMemTransport("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"bb8\r\n" + chunk + "\r\nbb8\r\n" + chunk + "\r\n0\r\n\r\n")
	p := NewHttp1Protocol(trans, nil)

	res, err := p.ReceiveResponse(nil)
	if err != nil {
		t.Fatalf("ReceiveResponse failed: %v", err)
	}
	if res.ContentLength != 6000 || len(res.Body) != 6000 {
		t.Errorf("Expected 6000 bytes, got %d (%d)", len(res.Body), res.ContentLength)
	}
}

func TestReceiveResponse_MalformedChunk(t *testing.T) {
	tests := map[string]string{
		"no size":      "zz\r\nabc\r\n0\r\n\r\n",
		"missing crlf": "3\r\nabcXY0\r\n\r\n",
		"short chunk":  "ff\r\nabc\r\n",
		"never ends":   "3\r\nabc\r\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			trans := newMemTransport("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" + body)
			p := NewHttp1Protocol(trans, nil)

			if _, err := p.ReceiveResponse(nil); err == nil {
				t.Error("Expected error for malformed chunked body")
			}
		})
	}

	trans := newMemTransport("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n")
	_, err := NewHttp1Protocol(trans, nil).ReceiveResponse(nil)
	if !errors.IsProtocol(err, errors.ProtocolErrorInvalidChunkedEncoding) {
		t.Errorf("Expected invalid chunked encoding, got %v", err)
	}
}

func TestReceiveResponse_NoBody(t *testing.T) {
	tests := []struct {
		name   string
		method HttpMethod
		status string
	}{
		{"head", MethodHead, "200 OK"},
		{"no content", MethodGet, "204 No Content"},
		{"not modified", MethodGet, "304 Not Modified"},
		{"continue", MethodGet, "100 Continue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trans := newMemTransport("HTTP/1.1 " + tt.status + "\r\nContent-Length: 42\r\n\r\n")
			p := NewHttp1Protocol(trans, nil)

			res, err := p.ReceiveResponse(newTestRequest(t, tt.method, "/"))
			if err != nil {
				t.Fatalf("ReceiveResponse failed: %v", err)
			}
			if len(res.Body) != 0 || res.ContentLength != 0 {
				t.Errorf("Expected no body, got %q (%d)", res.Body, res.ContentLength)
			}
		})
	}
}

func TestReceiveResponse_ZeroLength(t *testing.T) {
	trans := newMemTransport("HTTP/1.1 200 OK\r\n\r\n")
	res, err := NewHttp1Protocol(trans, nil).ReceiveResponse(nil)
	if err != nil {
		t.Fatalf("ReceiveResponse failed: %v", err)
	}
	if res.Body != nil {
		t.Errorf("Expected no body, got %q", res.Body)
	}
}

func TestReceiveResponse_TruncatedBody(t *testing.T) {
	trans := newMemTransport("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort")
	_, err := NewHttp1Protocol(trans, nil).ReceiveResponse(nil)
	if !errors.IsTransport(err, errors.TransportErrorConnectionClosed) {
		t.Errorf("Expected connection closed, got %v", err)
	}
}

func TestSendRequest_NotBuilt(t *testing.T) {
	p := NewHttp1Protocol(newMemTransport(""), nil)
	err := p.SendRequest(newTestRequest(t, MethodGet, "/"))
	if !errors.IsProtocol(err, errors.ProtocolErrorInvalidRequest) {
		t.Errorf("Expected invalid request error, got %v", err)
	}
}

func TestBuildRequest_PayloadLimit(t *testing.T) {
	req := newTestRequest(t, MethodPost, "/")
	req.SetBody(ContentText, strings.Repeat("x", 100))

	p := NewHttp1Protocol(newMemTransport(""), nil)
	p.SetMaxPayload(64)
	p.GenerateHeaders(req)

	err := p.BuildRequest(req)
	if errors.TypeOf(err) != errors.ErrorMemory {
		t.Errorf("Expected memory error, got %v", err)
	}
	if req.Payload != nil {
		t.Errorf("Expected no payload, got %q", req.Payload)
	}
}

func TestBuildRequest_BodyLongerThanDeclared(t *testing.T) {
	req := newTestRequest(t, MethodPost, "/")
	req.SetBody(ContentText, "abc")

	p := NewHttp1Protocol(newMemTransport(""), nil)
	p.SetMaxPayload(100)
	p.GenerateHeaders(req)
	// the room reserved for the body follows the generated length
	req.Text = strings.Repeat("y", 60)

	err := p.BuildRequest(req)
	if errors.TypeOf(err) != errors.ErrorMemory {
		t.Errorf("Expected memory error instead of a truncated payload, got %v", err)
	}
	if req.Payload != nil {
		t.Errorf("Expected no payload, got %q", req.Payload)
	}
}

func TestBuildRequest_FormPastLimit(t *testing.T) {
	req := newTestRequest(t, MethodPost, "/")
	req.AddFormEntry("a=1")
	req.AddFormEntry("b=2")

	p := NewHttp1Protocol(newMemTransport(""), nil)
	p.GenerateHeaders(req)
	p.SetMaxPayload(len("POST / HTTP/1.1\r\nHost: example.com\r\n" +
		"Content-Length: 7\r\nContent-Type: application/x-www-form-urlencoded\r\n\r\n" +
		"b=2&a=1"))
	req.Form.Push("c=3")

	if err := p.BuildRequest(req); errors.TypeOf(err) != errors.ErrorMemory {
		t.Errorf("Expected memory error, got %v", err)
	}
}

func TestReceiveResponse_ChunkedPastLimit(t *testing.T) {
	trans := newMemTransport("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
	p := NewHttp1Protocol(trans, nil)
	p.SetMaxPayload(6)

	if _, err := p.ReceiveResponse(nil); errors.TypeOf(err) != errors.ErrorMemory {
		t.Errorf("Expected memory error, got %v", err)
	}
}
