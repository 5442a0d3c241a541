package cli

import (
	"fmt"
	"strings"

	"github.com/lukaarma/wannabeCurl/errors"
)

// ParseURL splits an http or https URL into its secure flag, host and path.
// The host runs up to the first '/', '?' or the end; the path keeps the rest
// and defaults to "/".
func ParseURL(raw string) (secure bool, host, path string, err error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return false, "", "", errors.NewInvalidArgumentError(fmt.Sprintf("'%s' is not an http/https url", raw))
	}

	switch {
	case strings.EqualFold(scheme, "http"):
		secure = false
	case strings.EqualFold(scheme, "https"):
		secure = true
	default:
		return false, "", "", errors.NewInvalidArgumentError(fmt.Sprintf("'%s' invalid protocol! Only http/https allowed", scheme))
	}

	end := strings.IndexAny(rest, "/?")
	if end < 0 {
		end = len(rest)
	}
	host = rest[:end]
	if host == "" {
		return false, "", "", errors.NewInvalidArgumentError("Missing/Invalid url!")
	}

	path = rest[end:]
	switch {
	case path == "":
		path = "/"
	case path[0] == '?':
		path = "/" + path
	}

	return secure, host, path, nil
}
