package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/lukaarma/wannabeCurl/errors"
)

// ParseHeaders reads the status code, the body kind and the body length
// out of a header block. Headers other than Content-Type, Content-Length
// and Transfer-Encoding are ignored.
func ParseHeaders(block []byte, res *HttpResponse) error {
	res.RawHeaders = block

	lines := strings.Split(string(block), crlf)

	status, err := parseStatusLine(lines[0])
	if err != nil {
		return err
	}
	res.StatusCode = status

	length := 0
	chunked := false
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		name := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])

		switch {
		case strings.EqualFold(name, "Content-Type"):
			if res.Type == ContentNone {
				res.Type = matchContentType(value)
			}
		case strings.EqualFold(name, "Content-Length"):
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return errors.NewProtocolError(
					errors.ProtocolErrorInvalidHeader,
					fmt.Sprintf("invalid Content-Length %q", value),
				)
			}
			length = n
		case strings.EqualFold(name, "Transfer-Encoding"):
			if httpguts.HeaderValuesContainsToken([]string{value}, "chunked") {
				chunked = true
			}
		}
	}

	// chunked wins over any Content-Length, wherever it appeared
	if chunked {
		res.ContentLength = ChunkedLength
	} else {
		res.ContentLength = length
	}

	return nil
}

// parseStatusLine expects "HTTP/x.y NNN[ reason]".
func parseStatusLine(line string) (int, error) {
	if !strings.HasPrefix(line, "HTTP/") {
		return 0, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("invalid status line %q", line),
		)
	}

	sp := strings.IndexByte(line, ' ')
	if sp < 0 || len(line) < sp+4 {
		return 0, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("missing status code in %q", line),
		)
	}

	code := line[sp+1 : sp+4]
	if len(line) > sp+4 && line[sp+4] != ' ' {
		return 0, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("status code in %q is not three digits", line),
		)
	}
	status := 0
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return 0, errors.NewProtocolError(
				errors.ProtocolErrorInvalidStatusLine,
				fmt.Sprintf("invalid status code %q", code),
			)
		}
		status = status*10 + int(code[i]-'0')
	}

	return status, nil
}

// matchContentType returns the first known media type contained in value.
func matchContentType(value string) ContentType {
	lower := strings.ToLower(value)
	for _, kind := range []ContentType{ContentText, ContentHTML, ContentForm, ContentJSON} {
		if strings.Contains(lower, kind.Value()) {
			return kind
		}
	}
	return ContentNone
}
