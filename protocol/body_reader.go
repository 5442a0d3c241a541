package protocol

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/lukaarma/wannabeCurl/buffer"
	"github.com/lukaarma/wannabeCurl/errors"
	"github.com/lukaarma/wannabeCurl/internal/obs"
	"github.com/lukaarma/wannabeCurl/transport"
)

// ReceiveBody reads the body declared by res: a single read for a fixed
// length, the chunk loop for ChunkedLength, nothing for zero.
func (p *Http1Protocol) ReceiveBody(res *HttpResponse) error {
	switch {
	case res.ContentLength > 0:
		p.log.Logf(obs.Verbose, "Receiving entire body: size %d", res.ContentLength)

		body, err := p.transport.ReceiveExact(res.ContentLength)
		if err != nil {
			return err
		}
		res.Body = body
		return nil

	case res.ContentLength == ChunkedLength:
		p.log.Logf(obs.Verbose, "Receiving chunked body")
		return p.receiveChunked(res)

	default:
		return nil
	}
}

/*
	Chunked-Body   = *chunk
	                 last-chunk
	                 trailer
	                 CRLF
	chunk          = chunk-size [ chunk-extension ] CRLF
	                 chunk-data CRLF
	last-chunk     = 1*("0") [ chunk-extension ] CRLF
*/
func (p *Http1Protocol) receiveChunked(res *HttpResponse) error {
	body := buffer.NewLimited(p.increment, p.maxPayload)
	res.ContentLength = 0

	for {
		line, err := p.transport.ReceiveUntil(transport.CRLF)
		if err != nil {
			return err
		}

		size, err := parseChunkSize(line)
		if err != nil {
			return err
		}
		if size == 0 {
			// trailers, if any, are left unread
			break
		}

		p.log.Logf(obs.Debug, "Chunk size %d", size)

		data, err := p.transport.ReceiveExact(size)
		if err != nil {
			return err
		}
		if _, err := body.Write(data); err != nil {
			return err
		}
		res.ContentLength += size

		end, err := p.transport.ReceiveExact(len(transport.CRLF))
		if err != nil {
			return err
		}
		if !bytes.Equal(end, transport.CRLF) {
			return errors.NewProtocolError(
				errors.ProtocolErrorInvalidChunkedEncoding,
				fmt.Sprintf("expected CRLF after chunk data, got %q", end),
			)
		}
	}

	res.Body = body.Bytes()
	return nil
}

// parseChunkSize reads the leading hex digits of a chunk-size line.
// Anything after them, such as a chunk extension, is ignored.
func parseChunkSize(line []byte) (int, error) {
	line = bytes.TrimLeft(line, " \t")

	n := 0
	for n < len(line) && isHex(line[n]) {
		n++
	}
	if n == 0 {
		return 0, errors.NewProtocolError(
			errors.ProtocolErrorInvalidChunkedEncoding,
			fmt.Sprintf("invalid chunk size line %q", line),
		)
	}

	size, err := strconv.ParseInt(string(line[:n]), 16, 64)
	if err != nil || size > buffer.MaxSize {
		return 0, errors.NewProtocolError(
			errors.ProtocolErrorInvalidChunkedEncoding,
			fmt.Sprintf("chunk size %q out of range", line[:n]),
		)
	}

	return int(size), nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
