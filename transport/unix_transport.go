package transport

import (
	"net"

	"github.com/lukaarma/wannabeCurl/errors"
)

// DialUnix establishes a Unix domain socket connection to the specified path.
func DialUnix(path string) (net.Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"failed to connect to unix socket "+path,
			err,
		)
	}

	return conn, nil
}
